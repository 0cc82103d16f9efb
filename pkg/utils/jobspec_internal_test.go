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

package utils

import (
	"errors"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/api/v1alpha1"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
)

func torchRuntime(name string) *v1alpha1.ClusterTrainingRuntime {
	return &v1alpha1.ClusterTrainingRuntime{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: v1alpha1.ClusterTrainingRuntimeSpec{
			MLPolicy: &v1alpha1.MLPolicy{NumNodes: ptr.To(int32(1))},
		},
	}
}

var _ = Describe("BuildTrainJob", func() {
	It("renders the request into a submittable TrainJob", func() {
		req := &common.TrainRequest{
			Name:        "train-demo",
			RuntimeName: "pytorch-distributed",
			Image:       "pytorch/pytorch:2.5.1",
			NumNodes:    ptr.To(int32(2)),
			ResourcesPerNode: map[string]string{
				"cpu":            "4",
				"memory":         "16Gi",
				"nvidia.com/gpu": "2",
			},
		}
		job, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Name).To(Equal("train-demo"))
		Expect(job.Spec.RuntimeRef.Name).To(Equal("pytorch-distributed"))
		Expect(*job.Spec.Trainer.NumNodes).To(Equal(int32(2)))
		Expect(*job.Spec.Trainer.Image).To(Equal("pytorch/pytorch:2.5.1"))
		Expect(job.Spec.Trainer.ResourcesPerNode.Limits).To(HaveLen(3))
		Expect(job.Spec.Trainer.ResourcesPerNode.Requests).To(Equal(job.Spec.Trainer.ResourcesPerNode.Limits))
	})

	It("builds equal jobs from equal inputs", func() {
		req := &common.TrainRequest{
			Name:        "train-demo",
			RuntimeName: "pytorch-distributed",
			Script:      "python train.py --epochs 3",
			NumNodes:    ptr.To(int32(4)),
			Env: map[string]string{
				"LR":     "0.001",
				"EPOCHS": "3",
				"SEED":   "42",
			},
		}
		first, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		Expect(err).NotTo(HaveOccurred())
		second, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(Equal(second))
	})

	It("wraps a script into the bash entrypoint", func() {
		req := &common.TrainRequest{
			Name:        "train-demo",
			RuntimeName: "pytorch-distributed",
			Script:      "python train.py",
		}
		job, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Spec.Trainer.Command).To(Equal([]string{"bash", "-c"}))
		Expect(job.Spec.Trainer.Args).To(HaveLen(1))
		Expect(job.Spec.Trainer.Args[0]).To(HavePrefix("set -e\n"))
		Expect(job.Spec.Trainer.Args[0]).To(ContainSubstring("python train.py"))
	})

	It("rejects a node count below one", func() {
		req := &common.TrainRequest{
			Name:        "train-demo",
			RuntimeName: "pytorch-distributed",
			NumNodes:    ptr.To(int32(0)),
		}
		_, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		var validationErr *common.ValidationError
		Expect(errors.As(err, &validationErr)).To(BeTrue())
		Expect(validationErr.Field).To(Equal("numNodes"))
	})

	It("rejects malformed resource quantities", func() {
		req := &common.TrainRequest{
			Name:             "train-demo",
			RuntimeName:      "pytorch-distributed",
			ResourcesPerNode: map[string]string{"memory": "sixteen-gigs"},
		}
		_, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		var validationErr *common.ValidationError
		Expect(errors.As(err, &validationErr)).To(BeTrue())
	})

	It("rejects a script combined with a command", func() {
		req := &common.TrainRequest{
			Name:        "train-demo",
			RuntimeName: "pytorch-distributed",
			Script:      "python train.py",
			Command:     []string{"torchrun", "train.py"},
		}
		_, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		var validationErr *common.ValidationError
		Expect(errors.As(err, &validationErr)).To(BeTrue())
	})

	It("rejects an unknown runtime", func() {
		req := &common.TrainRequest{Name: "train-demo", RuntimeName: "not-a-runtime"}
		_, err := BuildTrainJob(req, nil)
		var unsupportedErr *common.UnsupportedRuntimeError
		Expect(errors.As(err, &unsupportedErr)).To(BeTrue())
		Expect(unsupportedErr.Name).To(Equal("not-a-runtime"))
	})

	It("leaves the trainer override empty when nothing is overridden", func() {
		req := &common.TrainRequest{Name: "train-demo", RuntimeName: "pytorch-distributed"}
		job, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		Expect(err).NotTo(HaveOccurred())
		Expect(job.Spec.Trainer).To(BeNil())
		Expect(job.Spec.Initializer).To(BeNil())
	})

	It("generates a distinct name per build when the caller omits one", func() {
		req := &common.TrainRequest{RuntimeName: "pytorch-distributed"}
		first, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		Expect(err).NotTo(HaveOccurred())
		second, err := BuildTrainJob(req, torchRuntime("pytorch-distributed"))
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Name).To(MatchRegexp(`^[a-p][0-9a-f]{11}$`))
		Expect(first.Name).NotTo(Equal(second.Name))
	})
})
