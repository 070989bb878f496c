package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/ib-77/coflow/internal/scenario"
	"github.com/ib-77/coflow/pkg/flow/core"
	"github.com/spf13/cobra"
)

type traceLine struct {
	AtMS  int64  `json:"at_ms"`
	Index int    `json:"index"`
	Task  string `json:"task"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

func newTraceCmd(g *globalFlags) *cobra.Command {
	var (
		path        string
		concurrency string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Run a scenario through the task runner and print completions as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(path)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("concurrency") {
				concurrency = s.Concurrency
			}
			c, err := scenario.ParseConcurrency(concurrency)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return trace(ctx, cmd.OutOrStdout(), s, c, output)
		},
	}

	cmd.Flags().StringVarP(&path, "scenario", "s", "", "scenario yaml file")
	cmd.Flags().StringVarP(&concurrency, "concurrency", "c", "", "parallel, serial, or number of worker slots")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json (one object per line)")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func trace(ctx context.Context, w io.Writer, s *scenario.Scenario, c core.Concurrency, output string) error {
	if output != "text" && output != "json" {
		return fmt.Errorf("unknown output format %q", output)
	}

	names := s.Names()
	start := time.Now()

	for done := range core.Completions(ctx, s.Build(), c) {
		line := traceLine{
			AtMS:  time.Since(start).Milliseconds(),
			Index: done.Index,
			Task:  names[done.Index],
		}
		if done.Result.IsSuccess() {
			line.Value = done.Result.Result()
		} else {
			line.Error = done.Result.Err().Error()
		}

		if output == "json" {
			if err := json.MarshalWrite(w, line); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
			continue
		}

		outcome := fmt.Sprintf("ok %v", line.Value)
		if line.Error != "" {
			outcome = "failed " + line.Error
		}
		if _, err := fmt.Fprintf(w, "+%4dms [%d] %s: %s\n", line.AtMS, line.Index, line.Task, outcome); err != nil {
			return err
		}
	}
	return nil
}
