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

// trainctl is a thin command line surface over the trainer client.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/client"
	"github.com/intelligent-machine-learning/dlrover/go/trainer/pkg/common"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/utils/ptr"
)

var (
	kubeConfigPath string
	namespace      string
	registryPath   string

	runtimeName string
	image       string
	command     string
	script      string
	numNodes    int32
	resources   []string
	jobName     string

	logStep   string
	nodeRank  int
	follow    bool
	waitFor   []string
	waitLimit time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "trainctl",
	Short:        "Submit and manage distributed training jobs.",
	SilenceUsage: true,
}

func newClient() (*client.TrainerClient, error) {
	return client.NewTrainerClient(client.Config{
		KubeConfigPath:      kubeConfigPath,
		Namespace:           namespace,
		RuntimeRegistryPath: registryPath,
	})
}

var runtimesCmd = &cobra.Command{
	Use:   "runtimes",
	Short: "List the available training runtimes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		runtimes, err := c.Runtimes().ListRuntimes(cmd.Context())
		if err != nil {
			return err
		}
		for _, rt := range runtimes {
			fmt.Printf("%s\tnodes=%d\n", rt.Name, rt.NumNodes())
		}
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a training job and print its handle.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		req := &common.TrainRequest{
			Name:             jobName,
			RuntimeName:      runtimeName,
			Image:            image,
			Script:           script,
			ResourcesPerNode: map[string]string{},
		}
		if command != "" {
			req.Command = strings.Fields(command)
		}
		if numNodes > 0 {
			req.NumNodes = ptr.To(numNodes)
		}
		for _, pair := range resources {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("malformed --resource %q, want name=quantity", pair)
			}
			req.ResourcesPerNode[name] = value
		}

		handle, err := c.Train(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Println(handle)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List training jobs in the namespace.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		jobs, err := c.ListJobs(cmd.Context(), client.ListOptions{RuntimeName: runtimeName})
		if err != nil {
			return err
		}
		for _, job := range jobs {
			fmt.Printf("%s\t%s\truntime=%s\tnodes=%d\n",
				job.Handle, job.Phase, job.Runtime, job.NumNodes)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Show one training job.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		status, err := c.GetJob(cmd.Context(), handleOf(c, args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\truntime=%s\tnodes=%d\n",
			status.Handle, status.Phase, status.Runtime, status.NumNodes)
		for _, step := range status.Steps {
			fmt.Printf("  %s\t%s\t%s=%s\tpod=%s\n",
				step.Name, step.Status, step.Device, step.DeviceCount, step.PodName)
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs NAME",
	Short: "Print the logs of one step of a training job.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		stream, err := c.GetJobLogs(cmd.Context(), handleOf(c, args[0]), client.LogOptions{
			Step:     logStep,
			NodeRank: nodeRank,
			Follow:   follow,
		})
		if err != nil {
			return err
		}
		defer stream.Close()

		for {
			record, err := stream.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("[%s]: %s\n", record.Step, record.Text)
		}
	},
}

var waitCmd = &cobra.Command{
	Use:   "wait NAME",
	Short: "Block until a training job reaches a target phase.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		targets := map[common.JobPhase]bool{}
		for _, phase := range waitFor {
			targets[common.JobPhase(phase)] = true
		}
		status, err := c.WaitForJobStatus(cmd.Context(), handleOf(c, args[0]), targets, waitLimit)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", status.Handle, status.Phase)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a training job.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return c.DeleteJob(cmd.Context(), handleOf(c, args[0]))
	},
}

func handleOf(c *client.TrainerClient, name string) common.JobHandle {
	return common.JobHandle{Namespace: c.Namespace(), Name: name}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&kubeConfigPath, "kubeconfig", "", "Path to the kubeconfig file. Empty uses the in-cluster config.")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "default", "Namespace the jobs live in.")
	rootCmd.PersistentFlags().StringVar(&registryPath, "runtime-registry", "", "Path to a static YAML runtime registry instead of the cluster runtimes.")

	submitCmd.Flags().StringVarP(&runtimeName, "runtime", "r", "", "Training runtime name, e.g. torch-distributed. Required.")
	submitCmd.Flags().StringVarP(&image, "image", "i", "", "Override of the trainer container image.")
	submitCmd.Flags().StringVarP(&command, "command", "e", "", "Override of the trainer entrypoint, e.g. 'python train.py'.")
	submitCmd.Flags().StringVar(&script, "script", "", "Shell script run through the default bash entrypoint.")
	submitCmd.Flags().Int32Var(&numNodes, "num-nodes", 0, "Number of training nodes. Zero keeps the runtime default.")
	submitCmd.Flags().StringArrayVar(&resources, "resource", nil, "Per-node resource as name=quantity, e.g. nvidia.com/gpu=2. Repeatable.")
	submitCmd.Flags().StringVar(&jobName, "name", "", "Job name. Generated when empty.")
	_ = submitCmd.MarkFlagRequired("runtime")

	listCmd.Flags().StringVarP(&runtimeName, "runtime", "r", "", "Keep only jobs of this runtime.")

	logsCmd.Flags().StringVar(&logStep, "step", "node", "Step to read logs from.")
	logsCmd.Flags().IntVar(&nodeRank, "node-rank", 0, "Node rank within the step.")
	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow the stream until the step finishes.")

	waitCmd.Flags().StringSliceVar(&waitFor, "for", []string{string(common.JobSucceeded), string(common.JobFailed)}, "Target phases to wait for.")
	waitCmd.Flags().DurationVar(&waitLimit, "timeout", 10*time.Minute, "How long to wait before giving up.")

	rootCmd.AddCommand(runtimesCmd, submitCmd, listCmd, getCmd, logsCmd, waitCmd, deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
