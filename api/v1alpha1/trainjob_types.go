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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// TrainJobSpec defines the desired state of one training run.
type TrainJobSpec struct {
	// RuntimeRef references the runtime template this job is rendered from.
	RuntimeRef RuntimeRef `json:"runtimeRef"`

	// Trainer overrides the runtime's trainer node configuration.
	Trainer *Trainer `json:"trainer,omitempty"`

	// Initializer configures the dataset and model initializer steps.
	Initializer *Initializer `json:"initializer,omitempty"`

	// Suspend pauses the job when set.
	Suspend *bool `json:"suspend,omitempty"`

	// Labels are merged into every resource the orchestrator derives from
	// this job.
	Labels map[string]string `json:"labels,omitempty"`

	// Annotations are merged into every derived resource.
	Annotations map[string]string `json:"annotations,omitempty"`
}

// RuntimeRef points at a training runtime by name.
type RuntimeRef struct {
	Name string `json:"name"`

	// APIGroup of the referenced runtime. Defaults to the trainer group.
	APIGroup *string `json:"apiGroup,omitempty"`

	// Kind of the referenced runtime. Defaults to ClusterTrainingRuntime.
	Kind *string `json:"kind,omitempty"`
}

// Trainer overrides the trainer node step of the runtime template.
type Trainer struct {
	// Image overrides the container image of the trainer nodes.
	Image *string `json:"image,omitempty"`

	// Command overrides the container entrypoint.
	Command []string `json:"command,omitempty"`

	// Args overrides the entrypoint arguments.
	Args []string `json:"args,omitempty"`

	// Env is appended to the trainer container environment.
	Env []corev1.EnvVar `json:"env,omitempty"`

	// NumNodes is the number of training nodes.
	NumNodes *int32 `json:"numNodes,omitempty"`

	// ResourcesPerNode are the compute resources of each training node.
	ResourcesPerNode *corev1.ResourceRequirements `json:"resourcesPerNode,omitempty"`

	// NumProcPerNode is the number of processes per node, e.g. the GPU count
	// handed to torchrun.
	NumProcPerNode *string `json:"numProcPerNode,omitempty"`
}

// Initializer configures the steps that run before training starts.
type Initializer struct {
	Dataset *DatasetInitializer `json:"dataset,omitempty"`
	Model   *ModelInitializer   `json:"model,omitempty"`
}

// DatasetInitializer downloads the dataset into the shared workspace.
type DatasetInitializer struct {
	// StorageURI locates the dataset, e.g. hf://... or s3://...
	StorageURI *string `json:"storageUri,omitempty"`

	// Env is appended to the initializer container environment.
	Env []corev1.EnvVar `json:"env,omitempty"`

	// SecretRef holds the credentials for the storage backend.
	SecretRef *corev1.LocalObjectReference `json:"secretRef,omitempty"`
}

// ModelInitializer downloads the pre-trained model into the shared workspace.
type ModelInitializer struct {
	StorageURI *string                      `json:"storageUri,omitempty"`
	Env        []corev1.EnvVar              `json:"env,omitempty"`
	SecretRef  *corev1.LocalObjectReference `json:"secretRef,omitempty"`
}

const (
	// TrainJobCreated means the orchestrator accepted the job.
	TrainJobCreated = "Created"
	// TrainJobComplete means every training node finished successfully.
	TrainJobComplete = "Complete"
	// TrainJobFailed means the job failed beyond its restart budget.
	TrainJobFailed = "Failed"
	// TrainJobSuspended means the job is paused.
	TrainJobSuspended = "Suspended"
)

// TrainJobStatus defines the observed state of a training run.
type TrainJobStatus struct {
	// Conditions reported by the orchestrator. Complete and Failed are
	// terminal and never removed once true.
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// TrainJob is one distributed training run.
type TrainJob struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   TrainJobSpec   `json:"spec,omitempty"`
	Status TrainJobStatus `json:"status,omitempty"`
}

// TrainJobList contains a list of TrainJob.
type TrainJobList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []TrainJob `json:"items"`
}
