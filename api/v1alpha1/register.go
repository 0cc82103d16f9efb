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

// Package v1alpha1 mirrors the trainer.kubeflow.org/v1alpha1 schema that the
// training orchestrator reconciles. Only the fields the client reads or writes
// are declared here.
package v1alpha1

import "k8s.io/apimachinery/pkg/runtime/schema"

const (
	// Group is the API group of the training orchestrator resources.
	Group = "trainer.kubeflow.org"
	// Version is the API version of the training orchestrator resources.
	Version = "v1alpha1"

	// TrainJobKind is the kind of one distributed training run.
	TrainJobKind = "TrainJob"
	// ClusterTrainingRuntimeKind is the kind of a cluster-scoped runtime template.
	ClusterTrainingRuntimeKind = "ClusterTrainingRuntime"
)

// APIVersion is the apiVersion value written into submitted objects.
const APIVersion = Group + "/" + Version

// SchemeGroupVersion is the group version used by this package.
var SchemeGroupVersion = schema.GroupVersion{Group: Group, Version: Version}

// TrainJobGVR locates TrainJob objects for the dynamic client.
var TrainJobGVR = schema.GroupVersionResource{
	Group:    Group,
	Version:  Version,
	Resource: "trainjobs",
}

// ClusterTrainingRuntimeGVR locates ClusterTrainingRuntime objects for the
// dynamic client.
var ClusterTrainingRuntimeGVR = schema.GroupVersionResource{
	Group:    Group,
	Version:  Version,
	Resource: "clustertrainingruntimes",
}

const (
	// StepNode is the replicated job and container running the training code.
	StepNode = "node"
	// StepLauncher is the replicated job launching mpirun.
	StepLauncher = "launcher"
	// StepDatasetInitializer downloads the dataset before training starts.
	StepDatasetInitializer = "dataset-initializer"
	// StepModelInitializer downloads the pre-trained model before training starts.
	StepModelInitializer = "model-initializer"
)

const (
	// LabelJobSetName identifies the JobSet a Pod belongs to.
	LabelJobSetName = "jobset.sigs.k8s.io/jobset-name"
	// LabelReplicatedJobName identifies the replicated job of a Pod, i.e. its step.
	LabelReplicatedJobName = "jobset.sigs.k8s.io/replicatedjob-name"
	// LabelJobCompletionIndex is the rank of a Pod within its step.
	LabelJobCompletionIndex = "batch.kubernetes.io/job-completion-index"
)

// PodSelector returns the label selector matching every Pod the orchestrator
// created for the named job.
func PodSelector(jobName string) string {
	return LabelJobSetName + "=" + jobName +
		"," + LabelReplicatedJobName + " in (" +
		StepDatasetInitializer + ", " + StepModelInitializer + ", " +
		StepLauncher + ", " + StepNode + ")"
}
