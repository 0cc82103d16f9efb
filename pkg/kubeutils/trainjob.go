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

package kubeutils

import (
	"context"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"

	logger "github.com/sirupsen/logrus"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// CreateTrainJob submits a TrainJob custom object and returns the object the
// cluster stored.
func (client *K8sClient) CreateTrainJob(
	ctx context.Context, namespace string, job *v1alpha1.TrainJob,
) (*v1alpha1.TrainJob, error) {
	// The caller's object stays untouched, TypeMeta goes on a copy.
	submitted := *job
	submitted.APIVersion = v1alpha1.APIVersion
	submitted.Kind = v1alpha1.TrainJobKind

	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(&submitted)
	if err != nil {
		return nil, err
	}

	utd, err := client.dynamicClient.
		Resource(v1alpha1.TrainJobGVR).
		Namespace(namespace).
		Create(ctx, &unstructured.Unstructured{Object: content}, metav1.CreateOptions{})
	if err != nil {
		return nil, err
	}
	return trainJobFromUnstructured(utd)
}

// GetTrainJob gets a TrainJob custom object from the cluster.
func (client *K8sClient) GetTrainJob(
	ctx context.Context, namespace string, name string,
) (*v1alpha1.TrainJob, error) {
	utd, err := client.dynamicClient.
		Resource(v1alpha1.TrainJobGVR).
		Namespace(namespace).
		Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		logger.Debugf("fail to get TrainJob %s/%s: %v", namespace, name, err)
		return nil, err
	}
	return trainJobFromUnstructured(utd)
}

// ListTrainJobs lists the TrainJob custom objects of a namespace, optionally
// narrowed by a label selector.
func (client *K8sClient) ListTrainJobs(
	ctx context.Context, namespace string, labelSelector string,
) (*v1alpha1.TrainJobList, error) {
	utdList, err := client.dynamicClient.
		Resource(v1alpha1.TrainJobGVR).
		Namespace(namespace).
		List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, err
	}

	jobs := &v1alpha1.TrainJobList{}
	for i := range utdList.Items {
		job, err := trainJobFromUnstructured(&utdList.Items[i])
		if err != nil {
			return nil, err
		}
		jobs.Items = append(jobs.Items, *job)
	}
	return jobs, nil
}

// DeleteTrainJob removes a TrainJob custom object from the cluster.
func (client *K8sClient) DeleteTrainJob(ctx context.Context, namespace string, name string) error {
	return client.dynamicClient.
		Resource(v1alpha1.TrainJobGVR).
		Namespace(namespace).
		Delete(ctx, name, metav1.DeleteOptions{})
}

// ListClusterTrainingRuntimes lists the runtime templates installed in the
// cluster.
func (client *K8sClient) ListClusterTrainingRuntimes(
	ctx context.Context,
) (*v1alpha1.ClusterTrainingRuntimeList, error) {
	utdList, err := client.dynamicClient.
		Resource(v1alpha1.ClusterTrainingRuntimeGVR).
		List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	runtimes := &v1alpha1.ClusterTrainingRuntimeList{}
	for i := range utdList.Items {
		rt, err := runtimeFromUnstructured(&utdList.Items[i])
		if err != nil {
			return nil, err
		}
		runtimes.Items = append(runtimes.Items, *rt)
	}
	return runtimes, nil
}

// GetClusterTrainingRuntime gets one runtime template by name.
func (client *K8sClient) GetClusterTrainingRuntime(
	ctx context.Context, name string,
) (*v1alpha1.ClusterTrainingRuntime, error) {
	utd, err := client.dynamicClient.
		Resource(v1alpha1.ClusterTrainingRuntimeGVR).
		Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	return runtimeFromUnstructured(utd)
}

func trainJobFromUnstructured(utd *unstructured.Unstructured) (*v1alpha1.TrainJob, error) {
	var job v1alpha1.TrainJob
	err := runtime.DefaultUnstructuredConverter.FromUnstructured(utd.UnstructuredContent(), &job)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func runtimeFromUnstructured(utd *unstructured.Unstructured) (*v1alpha1.ClusterTrainingRuntime, error) {
	var rt v1alpha1.ClusterTrainingRuntime
	err := runtime.DefaultUnstructuredConverter.FromUnstructured(utd.UnstructuredContent(), &rt)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}
