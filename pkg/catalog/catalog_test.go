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
	"testing"
	"time"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/utils/ptr"
)

var runtimeResource = schema.GroupResource{Group: v1alpha1.Group, Resource: "clustertrainingruntimes"}

// countingSource serves scripted runtimes and counts the calls hitting it.
type countingSource struct {
	runtimes map[string]*v1alpha1.ClusterTrainingRuntime
	lists    int
	gets     int
	err      error
}

func (s *countingSource) ListClusterTrainingRuntimes(ctx context.Context) (*v1alpha1.ClusterTrainingRuntimeList, error) {
	s.lists++
	if s.err != nil {
		return nil, s.err
	}
	list := &v1alpha1.ClusterTrainingRuntimeList{}
	for _, rt := range s.runtimes {
		list.Items = append(list.Items, *rt)
	}
	return list, nil
}

func (s *countingSource) GetClusterTrainingRuntime(ctx context.Context, name string) (*v1alpha1.ClusterTrainingRuntime, error) {
	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	rt, ok := s.runtimes[name]
	if !ok {
		return nil, apierrors.NewNotFound(runtimeResource, name)
	}
	return rt, nil
}

func newSource(names ...string) *countingSource {
	source := &countingSource{runtimes: map[string]*v1alpha1.ClusterTrainingRuntime{}}
	for _, name := range names {
		source.runtimes[name] = &v1alpha1.ClusterTrainingRuntime{
			ObjectMeta: metav1.ObjectMeta{Name: name},
			Spec: v1alpha1.ClusterTrainingRuntimeSpec{
				MLPolicy: &v1alpha1.MLPolicy{NumNodes: ptr.To(int32(1))},
			},
		}
	}
	return source
}

func TestGetRuntimeUncachedHitsSourceEveryTime(t *testing.T) {
	source := newSource("pytorch-distributed")
	cat := NewClusterCatalog(source, 0)

	for i := 0; i < 3; i++ {
		rt, err := cat.GetRuntime(context.Background(), "pytorch-distributed")
		require.NoError(t, err)
		assert.Equal(t, "pytorch-distributed", rt.Name)
	}
	assert.Equal(t, 3, source.gets)
}

func TestGetRuntimeCachesWithinTTL(t *testing.T) {
	source := newSource("pytorch-distributed")
	cat := NewClusterCatalog(source, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := cat.GetRuntime(context.Background(), "pytorch-distributed")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, source.gets)

	cat.Refresh()
	_, err := cat.GetRuntime(context.Background(), "pytorch-distributed")
	require.NoError(t, err)
	assert.Equal(t, 2, source.gets)
}

func TestGetRuntimeMissesAreNotCached(t *testing.T) {
	source := newSource()
	cat := NewClusterCatalog(source, time.Minute)

	_, err := cat.GetRuntime(context.Background(), "pytorch-distributed")
	var unsupportedErr *common.UnsupportedRuntimeError
	require.ErrorAs(t, err, &unsupportedErr)
	assert.Equal(t, "pytorch-distributed", unsupportedErr.Name)

	// The runtime is installed after the miss and must be visible at once.
	source.runtimes["pytorch-distributed"] = &v1alpha1.ClusterTrainingRuntime{
		ObjectMeta: metav1.ObjectMeta{Name: "pytorch-distributed"},
	}
	rt, err := cat.GetRuntime(context.Background(), "pytorch-distributed")
	require.NoError(t, err)
	assert.Equal(t, "pytorch-distributed", rt.Name)
}

func TestGetRuntimeEmptyName(t *testing.T) {
	cat := NewClusterCatalog(newSource(), time.Minute)

	_, err := cat.GetRuntime(context.Background(), "")
	var unsupportedErr *common.UnsupportedRuntimeError
	require.ErrorAs(t, err, &unsupportedErr)
}

func TestGetRuntimeTransientFailure(t *testing.T) {
	source := newSource("pytorch-distributed")
	source.err = apierrors.NewServiceUnavailable("etcd leader election")
	cat := NewClusterCatalog(source, 0)

	_, err := cat.GetRuntime(context.Background(), "pytorch-distributed")
	var transientErr *common.TransientError
	require.ErrorAs(t, err, &transientErr)
}

func TestListRuntimesWarmsTheCache(t *testing.T) {
	source := newSource("pytorch-distributed", "deepspeed")
	cat := NewClusterCatalog(source, time.Minute)

	runtimes, err := cat.ListRuntimes(context.Background())
	require.NoError(t, err)
	assert.Len(t, runtimes, 2)

	_, err = cat.GetRuntime(context.Background(), "deepspeed")
	require.NoError(t, err)
	assert.Equal(t, 0, source.gets)
}
