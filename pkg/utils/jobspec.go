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

// Package utils renders a TrainRequest into a submittable TrainJob object.
// Building is a pure function of (request, runtime): no network, no hidden
// state, equal inputs produce equal objects.
package utils

import (
	"sort"
	"strings"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"

	"github.com/google/uuid"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

// defaultScriptCommand wraps a user script for the trainer entrypoint.
var defaultScriptCommand = []string{"bash", "-c"}

// BuildTrainJob validates a request against a runtime template and renders
// the TrainJob object to submit. The returned object is never mutated by the
// builder afterwards; a changed request must be rebuilt.
func BuildTrainJob(
	req *common.TrainRequest, rt *v1alpha1.ClusterTrainingRuntime,
) (*v1alpha1.TrainJob, error) {
	if req == nil {
		return nil, &common.ValidationError{Field: "request", Reason: "must not be nil"}
	}
	if rt == nil || rt.Name == "" {
		return nil, &common.UnsupportedRuntimeError{Name: req.RuntimeName}
	}
	if req.RuntimeName != "" && req.RuntimeName != rt.Name {
		return nil, &common.ValidationError{
			Field:  "runtimeName",
			Reason: "does not match the resolved runtime " + rt.Name,
		}
	}
	if req.NumNodes != nil && *req.NumNodes < 1 {
		return nil, &common.ValidationError{Field: "numNodes", Reason: "must be >= 1"}
	}
	if req.Script != "" && len(req.Command) > 0 {
		return nil, &common.ValidationError{
			Field:  "script",
			Reason: "mutually exclusive with command",
		}
	}

	resources, err := buildResources(req.ResourcesPerNode)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = GenerateJobName()
	}

	job := &v1alpha1.TrainJob{
		TypeMeta: metav1.TypeMeta{
			APIVersion: v1alpha1.APIVersion,
			Kind:       v1alpha1.TrainJobKind,
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: copyLabels(req.Labels),
		},
		Spec: v1alpha1.TrainJobSpec{
			RuntimeRef: v1alpha1.RuntimeRef{
				Name:     rt.Name,
				APIGroup: ptr.To(v1alpha1.Group),
				Kind:     ptr.To(v1alpha1.ClusterTrainingRuntimeKind),
			},
			Trainer:     buildTrainer(req, resources),
			Initializer: buildInitializer(req),
		},
	}
	return job, nil
}

func buildTrainer(req *common.TrainRequest, resources *corev1.ResourceRequirements) *v1alpha1.Trainer {
	trainer := &v1alpha1.Trainer{
		Args:             req.Args,
		ResourcesPerNode: resources,
	}
	empty := resources == nil && len(req.Args) == 0

	if req.Image != "" {
		trainer.Image = ptr.To(req.Image)
		empty = false
	}
	if req.Script != "" {
		// The script travels as the argument of the default bash
		// entrypoint, failing fast on the first error.
		trainer.Command = defaultScriptCommand
		trainer.Args = append([]string{"set -e\n" + req.Script}, req.Args...)
		empty = false
	} else if len(req.Command) > 0 {
		trainer.Command = req.Command
		empty = false
	}
	if req.NumNodes != nil {
		trainer.NumNodes = ptr.To(*req.NumNodes)
		empty = false
	}
	if req.NumProcPerNode != "" {
		trainer.NumProcPerNode = ptr.To(req.NumProcPerNode)
		empty = false
	}
	if len(req.Env) > 0 {
		trainer.Env = buildEnv(req.Env)
		empty = false
	}

	if empty {
		// Nothing overridden, let the runtime defaults stand.
		return nil
	}
	return trainer
}

func buildInitializer(req *common.TrainRequest) *v1alpha1.Initializer {
	if req.Dataset == nil && req.Model == nil {
		return nil
	}
	initializer := &v1alpha1.Initializer{}
	if req.Dataset != nil {
		initializer.Dataset = &v1alpha1.DatasetInitializer{
			StorageURI: ptr.To(req.Dataset.StorageURI),
			SecretRef:  secretRef(req.Dataset.SecretName),
		}
	}
	if req.Model != nil {
		initializer.Model = &v1alpha1.ModelInitializer{
			StorageURI: ptr.To(req.Model.StorageURI),
			SecretRef:  secretRef(req.Model.SecretName),
		}
	}
	return initializer
}

func buildResources(quantities map[string]string) (*corev1.ResourceRequirements, error) {
	if len(quantities) == 0 {
		return nil, nil
	}
	requests := corev1.ResourceList{}
	limits := corev1.ResourceList{}
	for name, value := range quantities {
		q, err := resource.ParseQuantity(value)
		if err != nil {
			return nil, &common.ValidationError{
				Field:  "resourcesPerNode." + name,
				Reason: "malformed quantity " + value,
			}
		}
		requests[corev1.ResourceName(name)] = q
		limits[corev1.ResourceName(name)] = q
	}
	// Requests equal limits so every node gets a guaranteed shape.
	return &corev1.ResourceRequirements{
		Requests: requests,
		Limits:   limits,
	}, nil
}

// buildEnv renders the env map in sorted key order so equal requests build
// byte-equal specs.
func buildEnv(env map[string]string) []corev1.EnvVar {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vars := make([]corev1.EnvVar, 0, len(keys))
	for _, k := range keys {
		vars = append(vars, corev1.EnvVar{Name: k, Value: env[k]})
	}
	return vars
}

func copyLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	copied := make(map[string]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	return copied
}

func secretRef(name string) *corev1.LocalObjectReference {
	if name == "" {
		return nil
	}
	return &corev1.LocalObjectReference{Name: name}
}

// GenerateJobName returns a collision-resistant job name: a lowercase letter
// followed by 11 hex characters of a random UUID. Kubernetes object names
// must start with an alphanumeric character, hence the letter prefix.
func GenerateJobName() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	letter := 'a' + rune(id[0]%16)
	return string(letter) + id[:11]
}
