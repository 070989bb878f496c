package cli

import (
	"fmt"
	"time"

	"github.com/ib-77/coflow/pkg/flow/solo"
	"github.com/spf13/cobra"
)

func newWaitCmd() *cobra.Command {
	var step time.Duration

	cmd := &cobra.Command{
		Use:   "wait [words...]",
		Short: "Print words with a pause between each of them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"Wait", "just", "does", "what", "it", "says."}
			}

			pause := solo.Wait(step)
			for i, word := range args {
				if i > 0 {
					if _, err := pause(cmd.Context()); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), word)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&step, "step", 500*time.Millisecond, "pause between words")
	return cmd
}
