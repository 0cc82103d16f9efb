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

package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

var testResource = schema.GroupResource{Group: "trainer.kubeflow.org", Resource: "trainjobs"}

func TestIsTransientAPIError(t *testing.T) {
	transient := []error{
		apierrors.NewServiceUnavailable("leader election"),
		apierrors.NewServerTimeout(testResource, "get", 1),
		apierrors.NewTimeoutError("request timed out", 1),
		apierrors.NewTooManyRequestsError("throttled"),
		apierrors.NewInternalError(errors.New("etcd down")),
	}
	for _, err := range transient {
		assert.True(t, IsTransientAPIError(err), "expected transient: %v", err)
	}

	permanent := []error{
		nil,
		errors.New("plain"),
		apierrors.NewNotFound(testResource, "x"),
		apierrors.NewAlreadyExists(testResource, "x"),
		apierrors.NewForbidden(testResource, "x", errors.New("rbac")),
		apierrors.NewBadRequest("malformed"),
	}
	for _, err := range permanent {
		assert.False(t, IsTransientAPIError(err), "expected permanent: %v", err)
	}
}

func TestClassifyAPIError(t *testing.T) {
	handle := JobHandle{Namespace: "dlrover", Name: "a0123456789ab"}

	assert.NoError(t, ClassifyAPIError(handle, nil))

	err := ClassifyAPIError(handle, apierrors.NewNotFound(testResource, handle.Name))
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, handle, notFoundErr.Job)

	err = ClassifyAPIError(handle, apierrors.NewServiceUnavailable("down"))
	var transientErr *TransientError
	require.ErrorAs(t, err, &transientErr)

	// Everything else passes through untranslated.
	forbidden := apierrors.NewForbidden(testResource, handle.Name, errors.New("rbac"))
	assert.Equal(t, error(forbidden), ClassifyAPIError(handle, forbidden))
}

func TestErrorUnwrapping(t *testing.T) {
	cause := apierrors.NewNotFound(testResource, "a0123456789ab")
	handle := JobHandle{Namespace: "dlrover", Name: "a0123456789ab"}

	var err error = &NotFoundError{Job: handle, Err: cause}
	assert.True(t, apierrors.IsNotFound(errors.Unwrap(err)))

	err = &TimeoutError{Job: handle, Last: JobStatus{Phase: JobRunning}}
	assert.Contains(t, err.Error(), "last phase Running")
}

func TestJobPhaseTerminal(t *testing.T) {
	assert.True(t, JobSucceeded.Terminal())
	assert.True(t, JobFailed.Terminal())
	assert.False(t, JobCreated.Terminal())
	assert.False(t, JobRunning.Terminal())
	assert.False(t, JobUnknown.Terminal())
}

func TestJobHandleString(t *testing.T) {
	handle := JobHandle{Namespace: "dlrover", Name: "a0123456789ab"}
	assert.Equal(t, "dlrover/a0123456789ab", handle.String())
}
