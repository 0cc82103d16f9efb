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
	"io"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ListJobPods lists the pods matching a label selector, used to resolve the
// step pods the orchestrator created for a job.
func (client *K8sClient) ListJobPods(
	ctx context.Context, namespace string, labelSelector string,
) (*corev1.PodList, error) {
	return client.clientset.
		CoreV1().
		Pods(namespace).
		List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
}

// OpenPodLogs opens the log stream of one container of a pod. With follow the
// stream stays open until the container terminates; the caller must close it.
func (client *K8sClient) OpenPodLogs(
	ctx context.Context, namespace string, podName string, container string, follow bool,
) (io.ReadCloser, error) {
	req := client.clientset.
		CoreV1().
		Pods(namespace).
		GetLogs(podName, &corev1.PodLogOptions{
			Container: container,
			Follow:    follow,
		})
	return req.Stream(ctx)
}
