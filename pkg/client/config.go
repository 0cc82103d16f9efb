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

import "time"

const (
	// DefaultNamespace is the namespace jobs are submitted into when the
	// config does not name one.
	DefaultNamespace = "default"

	// DefaultPollInterval is the pause between status polls in
	// WaitForJobStatus.
	DefaultPollInterval = 2 * time.Second
)

// Config is the explicit configuration of a TrainerClient. The zero value is
// usable: in-cluster config, default namespace, no runtime cache.
type Config struct {
	// KubeConfigPath is the path to a kubeconfig file. Empty means
	// in-cluster configuration.
	KubeConfigPath string

	// Namespace jobs are submitted into and read from.
	Namespace string

	// PollInterval is the pause between polls in WaitForJobStatus.
	PollInterval time.Duration

	// RuntimeCacheTTL enables the opt-in runtime catalog cache. Zero keeps
	// every catalog lookup fresh.
	RuntimeCacheTTL time.Duration

	// RuntimeRegistryPath optionally points at a static YAML runtime
	// registry used instead of the cluster's runtime objects.
	RuntimeRegistryPath string
}

func (c Config) withDefaults() Config {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}
