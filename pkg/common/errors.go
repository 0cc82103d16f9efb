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
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ValidationError reports bad caller input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid train request: %s: %s", e.Field, e.Reason)
}

// UnsupportedRuntimeError reports an unknown runtime name.
type UnsupportedRuntimeError struct {
	Name string
}

func (e *UnsupportedRuntimeError) Error() string {
	return fmt.Sprintf("unsupported training runtime %q", e.Name)
}

// SubmissionError reports that the orchestrator rejected a job, e.g. quota
// exceeded, duplicate name or malformed spec. The cause is always attached.
type SubmissionError struct {
	Job JobHandle
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to submit TrainJob %s: %v", e.Job, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// NotFoundError reports that a handle no longer resolves to a live job.
type NotFoundError struct {
	Job JobHandle
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("TrainJob %s not found", e.Job)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// TimeoutError reports that a wait exceeded its budget. Last carries the most
// recent status observed before the deadline.
type TimeoutError struct {
	Job  JobHandle
	Last JobStatus
	Err  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for TrainJob %s, last phase %s", e.Job, e.Last.Phase)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// StreamInterruptedError reports that a log stream broke before the backing
// pod finished. The caller can reissue the stream.
type StreamInterruptedError struct {
	Job  JobHandle
	Step string
	Err  error
}

func (e *StreamInterruptedError) Error() string {
	return fmt.Sprintf("log stream of TrainJob %s step %s interrupted: %v", e.Job, e.Step, e.Err)
}

func (e *StreamInterruptedError) Unwrap() error { return e.Err }

// TransientError reports that the control plane is temporarily unreachable.
// Safe to retry with backoff; distinct from NotFoundError.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("orchestrator temporarily unavailable: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransientAPIError reports whether a Kubernetes API error is worth
// retrying with backoff.
func IsTransientAPIError(err error) bool {
	return apierrors.IsServiceUnavailable(err) ||
		apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsTooManyRequests(err) ||
		apierrors.IsInternalError(err)
}

// ClassifyAPIError translates a Kubernetes API error into the client taxonomy
// for error paths shared by get, list and log operations.
func ClassifyAPIError(job JobHandle, err error) error {
	switch {
	case err == nil:
		return nil
	case apierrors.IsNotFound(err):
		return &NotFoundError{Job: job, Err: err}
	case IsTransientAPIError(err):
		return &TransientError{Err: err}
	default:
		return err
	}
}
