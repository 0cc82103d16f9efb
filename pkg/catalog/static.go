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

package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"

	"sigs.k8s.io/yaml"
)

// staticCatalog serves runtimes from an in-memory registry. Used when the
// cluster does not expose runtime objects to the caller, e.g. restricted RBAC.
type staticCatalog struct {
	runtimes map[string]v1alpha1.ClusterTrainingRuntime
}

// NewStaticCatalog builds a catalog from a fixed set of runtime templates.
func NewStaticCatalog(runtimes []v1alpha1.ClusterTrainingRuntime) Catalog {
	byName := make(map[string]v1alpha1.ClusterTrainingRuntime, len(runtimes))
	for _, rt := range runtimes {
		byName[rt.Name] = rt
	}
	return &staticCatalog{runtimes: byName}
}

// LoadRegistry reads a YAML registry file holding a ClusterTrainingRuntimeList
// and builds a static catalog from it.
func LoadRegistry(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read runtime registry %s: %w", path, err)
	}
	runtimes, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("parse runtime registry %s: %w", path, err)
	}
	return NewStaticCatalog(runtimes), nil
}

// ParseRegistry decodes a YAML ClusterTrainingRuntimeList document.
func ParseRegistry(data []byte) ([]v1alpha1.ClusterTrainingRuntime, error) {
	var list v1alpha1.ClusterTrainingRuntimeList
	if err := yaml.UnmarshalStrict(data, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (c *staticCatalog) ListRuntimes(ctx context.Context) ([]v1alpha1.ClusterTrainingRuntime, error) {
	runtimes := make([]v1alpha1.ClusterTrainingRuntime, 0, len(c.runtimes))
	for _, rt := range c.runtimes {
		runtimes = append(runtimes, rt)
	}
	return runtimes, nil
}

func (c *staticCatalog) GetRuntime(ctx context.Context, name string) (*v1alpha1.ClusterTrainingRuntime, error) {
	rt, ok := c.runtimes[name]
	if !ok {
		return nil, &common.UnsupportedRuntimeError{Name: name}
	}
	return &rt, nil
}

// Refresh is a no-op, a static registry has nothing to invalidate.
func (c *staticCatalog) Refresh() {}
