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

// Package common holds the data model shared by the trainer client, the job
// spec builder and the runtime catalog.
package common

import (
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// JobPhase is the coarse lifecycle state of a training job as reported by the
// orchestrator.
type JobPhase string

const (
	// JobCreated means the orchestrator accepted the job but not all
	// training nodes run yet.
	JobCreated JobPhase = "Created"
	// JobRunning means every training node is running.
	JobRunning JobPhase = "Running"
	// JobSucceeded means the job finished successfully.
	JobSucceeded JobPhase = "Succeeded"
	// JobFailed means the job failed beyond its restart budget.
	JobFailed JobPhase = "Failed"
	// JobUnknown means the control plane cannot currently report a phase.
	// It is never terminal; pollers retry through it.
	JobUnknown JobPhase = "Unknown"
)

// Terminal reports whether the phase is final. Once a terminal phase is
// observed for a handle, no later observation may report an earlier phase.
func (p JobPhase) Terminal() bool {
	return p == JobSucceeded || p == JobFailed
}

// JobHandle identifies one submitted training job for its whole lifetime.
// It is the only artifact a caller needs to retain.
type JobHandle struct {
	Namespace string
	Name      string
}

func (h JobHandle) String() string {
	return h.Namespace + "/" + h.Name
}

// StepStatus is the observed state of one step pod, e.g. a trainer node or
// an initializer.
type StepStatus struct {
	// Name is the step name, node steps carry their rank suffix, e.g. node-0.
	Name string
	// PodName is the pod backing this step.
	PodName string
	// Status is the pod phase, e.g. Pending or Running.
	Status string
	// Device is the accelerator of the step: cpu, gpu or tpu.
	Device string
	// DeviceCount is the requested device quantity, "Unknown" when the
	// template does not pin resources.
	DeviceCount string
}

// JobStatus is a read-only snapshot of a job at the time of the call that
// produced it. It is regenerated on every query and never cached.
type JobStatus struct {
	Handle       JobHandle
	Phase        JobPhase
	Runtime      string
	NumNodes     int32
	Steps        []StepStatus
	CreationTime metav1.Time
	// Reason and Message explain the phase when the job is not healthy.
	Reason  string
	Message string
}

// LogRecord is one log line attributed to a step pod.
type LogRecord struct {
	Step string
	Pod  string
	// Line is the 1-based position of the record within the stream.
	Line int
	Text string
}

// StorageRef locates a dataset or a pre-trained model for an initializer step.
type StorageRef struct {
	// StorageURI locates the artifact, e.g. hf://meta-llama/Llama-3.2-1B.
	StorageURI string
	// SecretName names the secret holding credentials for the backend.
	SecretName string
}

// TrainRequest is the user's training intent. It is immutable once handed to
// the builder; a changed request produces a new job spec.
type TrainRequest struct {
	// Name of the job. Generated when empty.
	Name string

	// RuntimeName selects the training runtime, e.g. torch-distributed.
	RuntimeName string

	// Image overrides the trainer container image of the runtime.
	Image string

	// Command overrides the trainer entrypoint. Mutually exclusive with
	// Script.
	Command []string

	// Script is a shell script run through the default bash entrypoint,
	// the closest analogue of handing the trainer a self-contained function.
	Script string

	// Args are appended to the entrypoint.
	Args []string

	// Env is added to the trainer container environment. Rendered in sorted
	// key order so equal requests build equal specs.
	Env map[string]string

	// NumNodes is the number of training nodes. Nil falls back to the
	// runtime default; explicit values below 1 are rejected.
	NumNodes *int32

	// ResourcesPerNode are per-node resource quantities, e.g.
	// {"cpu": "4", "memory": "16Gi", "nvidia.com/gpu": "2"}.
	ResourcesPerNode map[string]string

	// NumProcPerNode is the number of training processes per node.
	NumProcPerNode string

	// Dataset and Model configure the initializer steps.
	Dataset *StorageRef
	Model   *StorageRef

	// Labels are attached to the job and every derived resource.
	Labels map[string]string
}

func (r *TrainRequest) String() string {
	nodes := int32(0)
	if r.NumNodes != nil {
		nodes = *r.NumNodes
	}
	return fmt.Sprintf("TrainRequest{Name: %s, Runtime: %s, NumNodes: %d}",
		r.Name, r.RuntimeName, nodes)
}
