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

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"

	corev1 "k8s.io/api/core/v1"
)

// LogOptions select the step pod whose logs are read.
type LogOptions struct {
	// Step is the step name, e.g. node, launcher or dataset-initializer.
	// Defaults to node.
	Step string

	// NodeRank selects the node when Step is a multi-node step.
	NodeRank int

	// Follow keeps the stream open until the container terminates.
	Follow bool
}

// LogStream yields the log lines of one step pod in order. Streams are
// best-effort: when the transport drops mid-stream, Next returns a
// StreamInterruptedError and the caller can reissue GetJobLogs.
type LogStream struct {
	handle common.JobHandle
	step   string
	pod    string

	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
}

// Next returns the next log record. It returns io.EOF when the stream is
// exhausted.
func (s *LogStream) Next() (common.LogRecord, error) {
	if s.scanner.Scan() {
		s.line++
		return common.LogRecord{
			Step: s.step,
			Pod:  s.pod,
			Line: s.line,
			Text: s.scanner.Text(),
		}, nil
	}
	if err := s.scanner.Err(); err != nil {
		return common.LogRecord{}, &common.StreamInterruptedError{
			Job:  s.handle,
			Step: s.step,
			Err:  err,
		}
	}
	return common.LogRecord{}, io.EOF
}

// Collect drains the stream into a slice. Only useful for finished jobs or
// non-follow streams.
func (s *LogStream) Collect() ([]common.LogRecord, error) {
	defer s.Close()

	var records []common.LogRecord
	for {
		record, err := s.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
}

// Close releases the underlying transport stream.
func (s *LogStream) Close() error {
	return s.rc.Close()
}

// GetJobLogs opens the log stream of one step of a job. A handle that does
// not resolve, or a step without a scheduled pod, fails with NotFoundError
// rather than producing an empty stream.
func (c *TrainerClient) GetJobLogs(
	ctx context.Context, handle common.JobHandle, opts LogOptions,
) (*LogStream, error) {
	if opts.Step == "" {
		opts.Step = v1alpha1.StepNode
	}

	status, err := c.GetJob(ctx, handle)
	if err != nil {
		return nil, err
	}

	podName := ""
	stepName := opts.Step
	if isNodeStep(opts.Step) {
		stepName = fmt.Sprintf("%s-%d", opts.Step, opts.NodeRank)
	}
	for _, step := range status.Steps {
		if step.Status == string(corev1.PodPending) {
			continue
		}
		if step.Name == stepName {
			podName = step.PodName
		}
	}
	if podName == "" {
		return nil, &common.NotFoundError{
			Job: handle,
			Err: fmt.Errorf("no scheduled pod for step %s", stepName),
		}
	}

	// Initializer containers carry the step name; training nodes always
	// log through the node container.
	container := v1alpha1.StepNode
	if opts.Step == v1alpha1.StepDatasetInitializer || opts.Step == v1alpha1.StepModelInitializer {
		container = opts.Step
	}

	rc, err := c.gateway.OpenPodLogs(ctx, handle.Namespace, podName, container, opts.Follow)
	if err != nil {
		return nil, common.ClassifyAPIError(handle, err)
	}

	return &LogStream{
		handle:  handle,
		step:    stepName,
		pod:     podName,
		rc:      rc,
		scanner: bufio.NewScanner(rc),
	}, nil
}
