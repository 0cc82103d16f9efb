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

// Package catalog resolves training runtime templates. Runtimes come either
// from the cluster's ClusterTrainingRuntime objects or from a static registry
// shipped with the client; both sources satisfy the same contract.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Catalog looks up training runtimes. Lookups are fresh on each call unless
// the catalog was built with an explicit cache TTL.
type Catalog interface {
	// ListRuntimes returns the available runtime templates.
	ListRuntimes(ctx context.Context) ([]v1alpha1.ClusterTrainingRuntime, error)

	// GetRuntime returns one runtime by name, failing with
	// UnsupportedRuntimeError when it does not exist.
	GetRuntime(ctx context.Context, name string) (*v1alpha1.ClusterTrainingRuntime, error)

	// Refresh drops any cached entries.
	Refresh()
}

// RuntimeSource is the cluster-side collaborator of the catalog.
type RuntimeSource interface {
	ListClusterTrainingRuntimes(ctx context.Context) (*v1alpha1.ClusterTrainingRuntimeList, error)
	GetClusterTrainingRuntime(ctx context.Context, name string) (*v1alpha1.ClusterTrainingRuntime, error)
}

type clusterCatalog struct {
	source RuntimeSource
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	runtime v1alpha1.ClusterTrainingRuntime
	fetched time.Time
}

// NewClusterCatalog builds a catalog backed by the cluster's runtime objects.
// A zero ttl disables caching entirely. Misses are never cached, so a runtime
// installed after a failed lookup is seen on the next call.
func NewClusterCatalog(source RuntimeSource, ttl time.Duration) Catalog {
	return &clusterCatalog{
		source:  source,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *clusterCatalog) ListRuntimes(ctx context.Context) ([]v1alpha1.ClusterTrainingRuntime, error) {
	list, err := c.source.ListClusterTrainingRuntimes(ctx)
	if err != nil {
		if common.IsTransientAPIError(err) {
			return nil, &common.TransientError{Err: err}
		}
		return nil, err
	}

	if c.ttl > 0 {
		now := time.Now()
		c.mu.Lock()
		for _, rt := range list.Items {
			c.entries[rt.Name] = cacheEntry{runtime: rt, fetched: now}
		}
		c.mu.Unlock()
	}
	return list.Items, nil
}

func (c *clusterCatalog) GetRuntime(ctx context.Context, name string) (*v1alpha1.ClusterTrainingRuntime, error) {
	if name == "" {
		return nil, &common.UnsupportedRuntimeError{Name: name}
	}

	if c.ttl > 0 {
		c.mu.Lock()
		entry, ok := c.entries[name]
		c.mu.Unlock()
		if ok && time.Since(entry.fetched) < c.ttl {
			rt := entry.runtime
			return &rt, nil
		}
	}

	rt, err := c.source.GetClusterTrainingRuntime(ctx, name)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, &common.UnsupportedRuntimeError{Name: name}
		}
		if common.IsTransientAPIError(err) {
			return nil, &common.TransientError{Err: err}
		}
		return nil, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[name] = cacheEntry{runtime: *rt, fetched: time.Now()}
		c.mu.Unlock()
	}
	return rt, nil
}

func (c *clusterCatalog) Refresh() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
