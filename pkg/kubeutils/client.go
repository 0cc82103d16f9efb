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

// Package kubeutils wraps the Kubernetes API for the trainer client. It is
// the only package that talks to the cluster; everything above it works with
// typed trainer objects. Kubernetes API errors pass through untranslated, the
// client layer owns the error taxonomy.
package kubeutils

import (
	"k8s.io/client-go/dynamic"
	k8sApi "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// K8sClient contains the instances to access a k8s cluster.
type K8sClient struct {
	config        *rest.Config
	clientset     k8sApi.Interface
	dynamicClient dynamic.Interface
}

// NewK8sClient creates a k8s client instance. With an empty kubeConfigPath it
// uses the in-cluster config.
func NewK8sClient(kubeConfigPath string) (*K8sClient, error) {
	var config *rest.Config
	var err error

	if kubeConfigPath == "" {
		config, err = rest.InClusterConfig()
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeConfigPath)
	}
	if err != nil {
		return nil, err
	}

	clientset, err := k8sApi.NewForConfig(config)
	if err != nil {
		return nil, err
	}

	dynamicClient, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, err
	}

	return &K8sClient{
		config:        config,
		clientset:     clientset,
		dynamicClient: dynamicClient,
	}, nil
}

// NewForClients wires a K8sClient from existing client interfaces. Tests use
// it with the fake clientset and fake dynamic client.
func NewForClients(clientset k8sApi.Interface, dynamicClient dynamic.Interface) *K8sClient {
	return &K8sClient{
		clientset:     clientset,
		dynamicClient: dynamicClient,
	}
}
