// Copyright 2025 The DLRover Authors. All rights reserved.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	deviceCPU = "cpu"
	deviceGPU = "gpu"
	deviceTPU = "tpu"

	gpuResource = "nvidia.com/gpu"
	tpuResource = "google.com/tpu"
)

// projectStatus renders a read-only snapshot of a job from its custom object
// and the step pods the orchestrator created for it.
func (c *TrainerClient) projectStatus(
	ctx context.Context, job *v1alpha1.TrainJob,
) (common.JobStatus, error) {
	handle := common.JobHandle{Namespace: job.Namespace, Name: job.Name}
	if handle.Namespace == "" {
		handle.Namespace = c.config.Namespace
	}

	status := common.JobStatus{
		Handle:       handle,
		Phase:        common.JobCreated,
		Runtime:      job.Spec.RuntimeRef.Name,
		CreationTime: job.CreationTimestamp,
	}

	numNodes, err := c.resolveNumNodes(ctx, job)
	if err != nil {
		return common.JobStatus{}, err
	}
	status.NumNodes = numNodes

	pods, err := c.gateway.ListJobPods(ctx, handle.Namespace, v1alpha1.PodSelector(handle.Name))
	if err != nil {
		if common.IsTransientAPIError(err) {
			// The job object answered but its pods did not: report the
			// snapshot as Unknown rather than failing the whole call.
			status.Phase = common.JobUnknown
			status.Reason = "PodListUnavailable"
			status.Message = err.Error()
			return status, nil
		}
		return common.JobStatus{}, fmt.Errorf("list pods of TrainJob %s: %w", handle, err)
	}

	for i := range pods.Items {
		if step, ok := stepFromPod(&pods.Items[i]); ok {
			status.Steps = append(status.Steps, step)
		}
	}

	// Terminal conditions win over anything derived from pods.
	if cond := terminalCondition(job); cond != nil {
		if cond.Type == v1alpha1.TrainJobComplete {
			status.Phase = common.JobSucceeded
		} else {
			status.Phase = common.JobFailed
		}
		status.Reason = cond.Reason
		status.Message = cond.Message
		return status, nil
	}

	// The job runs once every training node pod runs. Launcher pods
	// coordinate the nodes and stay outside the tally.
	running := int32(0)
	for _, step := range status.Steps {
		if isTrainerNode(step.Name) && step.Status == string(corev1.PodRunning) {
			running++
		}
	}
	if numNodes > 0 && running == numNodes {
		status.Phase = common.JobRunning
	}
	return status, nil
}

// resolveNumNodes returns the node count of a job, falling back to the
// runtime default when the job spec does not override it.
func (c *TrainerClient) resolveNumNodes(ctx context.Context, job *v1alpha1.TrainJob) (int32, error) {
	if job.Spec.Trainer != nil && job.Spec.Trainer.NumNodes != nil {
		return *job.Spec.Trainer.NumNodes, nil
	}
	rt, err := c.catalog.GetRuntime(ctx, job.Spec.RuntimeRef.Name)
	if err != nil {
		return 0, err
	}
	return rt.NumNodes(), nil
}

func terminalCondition(job *v1alpha1.TrainJob) *metav1.Condition {
	for i := range job.Status.Conditions {
		cond := &job.Status.Conditions[i]
		if cond.Status != metav1.ConditionTrue {
			continue
		}
		if cond.Type == v1alpha1.TrainJobComplete || cond.Type == v1alpha1.TrainJobFailed {
			return cond
		}
	}
	return nil
}

func stepFromPod(pod *corev1.Pod) (common.StepStatus, bool) {
	stepName, ok := pod.Labels[v1alpha1.LabelReplicatedJobName]
	if !ok {
		return common.StepStatus{}, false
	}

	name := stepName
	if isNodeStep(stepName) {
		rank := 0
		if index, ok := pod.Labels[v1alpha1.LabelJobCompletionIndex]; ok {
			rank, _ = strconv.Atoi(index)
		}
		name = fmt.Sprintf("%s-%d", stepName, rank)
	}

	device, count := deviceOfPod(pod, stepName)
	return common.StepStatus{
		Name:        name,
		PodName:     pod.Name,
		Status:      string(pod.Status.Phase),
		Device:      device,
		DeviceCount: count,
	}, true
}

// isNodeStep reports whether a step carries a rank, i.e. node or launcher.
func isNodeStep(name string) bool {
	return name == v1alpha1.StepNode || name == v1alpha1.StepLauncher ||
		strings.HasPrefix(name, v1alpha1.StepNode+"-") ||
		strings.HasPrefix(name, v1alpha1.StepLauncher+"-")
}

// isTrainerNode reports whether a step counts toward the node tally. Only
// node steps do; a launcher runs mpirun, not the training code.
func isTrainerNode(name string) bool {
	return name == v1alpha1.StepNode || strings.HasPrefix(name, v1alpha1.StepNode+"-")
}

// deviceOfPod inspects the step container resources to report the
// accelerator of a step.
func deviceOfPod(pod *corev1.Pod, container string) (device string, count string) {
	device = deviceCPU
	count = string(common.JobUnknown)
	for i := range pod.Spec.Containers {
		c := &pod.Spec.Containers[i]
		if c.Name != container {
			continue
		}
		limits := c.Resources.Limits
		if q, ok := limits[corev1.ResourceName(gpuResource)]; ok {
			return deviceGPU, q.String()
		}
		if q, ok := limits[corev1.ResourceName(tpuResource)]; ok {
			return deviceTPU, q.String()
		}
		if q, ok := limits[corev1.ResourceCPU]; ok {
			return deviceCPU, q.String()
		}
	}
	return device, count
}
