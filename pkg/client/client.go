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

// Package client submits, monitors and tears down distributed training jobs
// on a Kubernetes training orchestrator. The client is stateless between
// calls except for the opt-in runtime catalog cache; concurrent calls that
// target the same job handle are resolved by the orchestrator, the client
// adds no locking of its own.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/catalog"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/kubeutils"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/utils"

	logger "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Gateway is the transport surface the client needs from the cluster. It is
// implemented by kubeutils.K8sClient and by fakes in tests.
type Gateway interface {
	CreateTrainJob(ctx context.Context, namespace string, job *v1alpha1.TrainJob) (*v1alpha1.TrainJob, error)
	GetTrainJob(ctx context.Context, namespace string, name string) (*v1alpha1.TrainJob, error)
	ListTrainJobs(ctx context.Context, namespace string, labelSelector string) (*v1alpha1.TrainJobList, error)
	DeleteTrainJob(ctx context.Context, namespace string, name string) error
	ListJobPods(ctx context.Context, namespace string, labelSelector string) (*corev1.PodList, error)
	OpenPodLogs(ctx context.Context, namespace string, podName string, container string, follow bool) (io.ReadCloser, error)
	ListClusterTrainingRuntimes(ctx context.Context) (*v1alpha1.ClusterTrainingRuntimeList, error)
	GetClusterTrainingRuntime(ctx context.Context, name string) (*v1alpha1.ClusterTrainingRuntime, error)
}

// TrainerClient is the training job lifecycle client.
type TrainerClient struct {
	config  Config
	gateway Gateway
	catalog catalog.Catalog
}

// NewTrainerClient builds a client against a live cluster from an explicit
// configuration.
func NewTrainerClient(config Config) (*TrainerClient, error) {
	config = config.withDefaults()

	gateway, err := kubeutils.NewK8sClient(config.KubeConfigPath)
	if err != nil {
		return nil, fmt.Errorf("build kubernetes client: %w", err)
	}
	return newTrainerClient(config, gateway)
}

// NewTrainerClientWithGateway builds a client on an injected gateway. Tests
// use it with a fake.
func NewTrainerClientWithGateway(config Config, gateway Gateway) (*TrainerClient, error) {
	return newTrainerClient(config.withDefaults(), gateway)
}

func newTrainerClient(config Config, gateway Gateway) (*TrainerClient, error) {
	var cat catalog.Catalog
	if config.RuntimeRegistryPath != "" {
		loaded, err := catalog.LoadRegistry(config.RuntimeRegistryPath)
		if err != nil {
			return nil, err
		}
		cat = loaded
	} else {
		cat = catalog.NewClusterCatalog(gateway, config.RuntimeCacheTTL)
	}

	return &TrainerClient{
		config:  config,
		gateway: gateway,
		catalog: cat,
	}, nil
}

// Runtimes returns the runtime catalog of this client.
func (c *TrainerClient) Runtimes() catalog.Catalog {
	return c.catalog
}

// Namespace returns the namespace this client operates in.
func (c *TrainerClient) Namespace() string {
	return c.config.Namespace
}

// Train resolves the request against the runtime catalog, renders the job
// spec and submits it. The returned handle is the only artifact the caller
// needs to retain.
func (c *TrainerClient) Train(ctx context.Context, req *common.TrainRequest) (common.JobHandle, error) {
	if req == nil {
		return common.JobHandle{}, &common.ValidationError{Field: "request", Reason: "must not be nil"}
	}

	rt, err := c.catalog.GetRuntime(ctx, req.RuntimeName)
	if err != nil {
		return common.JobHandle{}, err
	}

	job, err := utils.BuildTrainJob(req, rt)
	if err != nil {
		return common.JobHandle{}, err
	}

	handle := common.JobHandle{Namespace: c.config.Namespace, Name: job.Name}
	created, err := c.gateway.CreateTrainJob(ctx, c.config.Namespace, job)
	if err != nil {
		if common.IsTransientAPIError(err) {
			return common.JobHandle{}, &common.TransientError{Err: err}
		}
		return common.JobHandle{}, &common.SubmissionError{Job: handle, Err: err}
	}

	logger.Debugf("TrainJob %s has been created", handle)
	return common.JobHandle{Namespace: c.config.Namespace, Name: created.Name}, nil
}

// ListOptions narrow the jobs returned by ListJobs.
type ListOptions struct {
	// RuntimeName keeps only jobs referencing this runtime.
	RuntimeName string
	// LabelSelector is passed through to the cluster.
	LabelSelector string
}

// ListJobs returns the status of the jobs in the client namespace. The order
// is whatever the cluster returned; callers must not assume chronology.
func (c *TrainerClient) ListJobs(ctx context.Context, opts ListOptions) ([]common.JobStatus, error) {
	list, err := c.gateway.ListTrainJobs(ctx, c.config.Namespace, opts.LabelSelector)
	if err != nil {
		if common.IsTransientAPIError(err) {
			return nil, &common.TransientError{Err: err}
		}
		return nil, err
	}

	var statuses []common.JobStatus
	for i := range list.Items {
		job := &list.Items[i]
		if opts.RuntimeName != "" && job.Spec.RuntimeRef.Name != opts.RuntimeName {
			continue
		}
		status, err := c.projectStatus(ctx, job)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// GetJob returns a fresh snapshot of one job.
func (c *TrainerClient) GetJob(ctx context.Context, handle common.JobHandle) (common.JobStatus, error) {
	job, err := c.gateway.GetTrainJob(ctx, handle.Namespace, handle.Name)
	if err != nil {
		return common.JobStatus{}, common.ClassifyAPIError(handle, err)
	}
	return c.projectStatus(ctx, job)
}

// WaitForJobStatus polls the job until it reaches one of the target phases or
// the timeout elapses. Transient control-plane errors and Unknown phases are
// absorbed and retried up to the timeout. Cancelling ctx stops the local wait
// only, never the remote job. On timeout the returned TimeoutError carries
// the last observed status.
func (c *TrainerClient) WaitForJobStatus(
	ctx context.Context,
	handle common.JobHandle,
	targets map[common.JobPhase]bool,
	timeout time.Duration,
) (common.JobStatus, error) {
	if len(targets) == 0 {
		return common.JobStatus{}, &common.ValidationError{
			Field:  "targets",
			Reason: "must name at least one phase",
		}
	}
	for phase := range targets {
		switch phase {
		case common.JobCreated, common.JobRunning, common.JobSucceeded, common.JobFailed:
		default:
			return common.JobStatus{}, &common.ValidationError{
				Field:  "targets",
				Reason: fmt.Sprintf("phase %s cannot be waited for", phase),
			}
		}
	}

	var last common.JobStatus
	var terminal *common.JobStatus

	err := wait.PollUntilContextTimeout(
		ctx, c.config.PollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			status, err := c.GetJob(ctx, handle)
			if err != nil {
				var transient *common.TransientError
				if errors.As(err, &transient) {
					// Control plane hiccup, keep polling.
					return false, nil
				}
				return false, err
			}

			// Terminal phases are sticky: the orchestrator never leaves
			// them, so a later contradictory observation is discarded.
			if terminal != nil && !status.Phase.Terminal() {
				status = *terminal
			}
			if status.Phase.Terminal() {
				terminal = &status
			}
			last = status

			if status.Phase == common.JobUnknown {
				return false, nil
			}
			if targets[status.Phase] {
				return true, nil
			}
			if status.Phase == common.JobFailed {
				return false, fmt.Errorf("TrainJob %s is %s: %s",
					handle, status.Phase, status.Message)
			}
			return false, nil
		})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Caller cancelled the local wait; the remote job is untouched.
			return last, err
		}
		if wait.Interrupted(err) {
			return last, &common.TimeoutError{Job: handle, Last: last, Err: err}
		}
		return last, err
	}
	return last, nil
}

// DeleteJob removes the job. Deleting an already deleted job is a no-op
// success, mirroring the desired-state semantics of the orchestrator.
func (c *TrainerClient) DeleteJob(ctx context.Context, handle common.JobHandle) error {
	err := c.gateway.DeleteTrainJob(ctx, handle.Namespace, handle.Name)
	if err != nil {
		if apierrors.IsNotFound(err) {
			logger.Debugf("TrainJob %s is already gone", handle)
			return nil
		}
		if common.IsTransientAPIError(err) {
			return &common.TransientError{Err: err}
		}
		return err
	}
	logger.Debugf("TrainJob %s has been deleted", handle)
	return nil
}
