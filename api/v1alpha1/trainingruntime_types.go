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

package v1alpha1

import (
	batchv1 "k8s.io/api/batch/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// MLPolicy configures the distributed training layout of a runtime.
type MLPolicy struct {
	// NumNodes is the default number of training nodes.
	NumNodes *int32 `json:"numNodes,omitempty"`

	// Torch configures torchrun-based training.
	Torch *TorchMLPolicy `json:"torch,omitempty"`

	// MPI configures mpirun-based training.
	MPI *MPIMLPolicy `json:"mpi,omitempty"`
}

// TorchMLPolicy configures the torchrun entrypoint.
type TorchMLPolicy struct {
	// NumProcPerNode is the number of processes per node. Accepts a number
	// or "auto"/"cpu"/"gpu".
	NumProcPerNode *string `json:"numProcPerNode,omitempty"`
}

// MPIMLPolicy configures the mpirun entrypoint.
type MPIMLPolicy struct {
	// NumProcPerNode is the number of slots per node in the hostfile.
	NumProcPerNode *int32 `json:"numProcPerNode,omitempty"`

	// MPIImplementation is the MPI flavor, e.g. OpenMPI.
	MPIImplementation string `json:"mpiImplementation,omitempty"`
}

// ReplicatedJob is one step of the runtime template, e.g. the trainer nodes
// or an initializer.
type ReplicatedJob struct {
	Name string `json:"name"`

	// Replicas is the number of jobs created from the template.
	Replicas int32 `json:"replicas,omitempty"`

	// Template is the batch Job template of this step.
	Template batchv1.JobTemplateSpec `json:"template"`
}

// JobSetTemplateSpec is the JobSet the orchestrator stamps out per job.
type JobSetTemplateSpec struct {
	Metadata metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec     JobSetSpec        `json:"spec,omitempty"`
}

// JobSetSpec holds the replicated jobs of the runtime template.
type JobSetSpec struct {
	ReplicatedJobs []ReplicatedJob `json:"replicatedJobs,omitempty"`
}

// ClusterTrainingRuntimeSpec defines a reusable training runtime template.
type ClusterTrainingRuntimeSpec struct {
	// MLPolicy configures the distributed layout.
	MLPolicy *MLPolicy `json:"mlPolicy,omitempty"`

	// Template is the blueprint every TrainJob referencing this runtime is
	// rendered from.
	Template JobSetTemplateSpec `json:"template"`
}

// ClusterTrainingRuntime is a cluster-scoped training runtime template.
type ClusterTrainingRuntime struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ClusterTrainingRuntimeSpec `json:"spec,omitempty"`
}

// ClusterTrainingRuntimeList contains a list of ClusterTrainingRuntime.
type ClusterTrainingRuntimeList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ClusterTrainingRuntime `json:"items"`
}

// TrainerTemplate returns the trainer node step of the runtime, or nil when
// the template does not declare one.
func (r *ClusterTrainingRuntime) TrainerTemplate() *ReplicatedJob {
	for i := range r.Spec.Template.Spec.ReplicatedJobs {
		rj := &r.Spec.Template.Spec.ReplicatedJobs[i]
		if rj.Name == StepNode || rj.Name == StepLauncher {
			return rj
		}
	}
	return nil
}

// NumNodes returns the default node count of the runtime. Defaults to 1 when
// the policy does not set one.
func (r *ClusterTrainingRuntime) NumNodes() int32 {
	if r.Spec.MLPolicy != nil && r.Spec.MLPolicy.NumNodes != nil {
		return *r.Spec.MLPolicy.NumNodes
	}
	return 1
}
