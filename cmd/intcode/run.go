package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newRunCmd() *cobra.Command {
	var (
		inputs  []int64
		patches []string
		stats   bool
	)

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a program to completion, printing one output per line",
		Example: `  intcode run day05.txt --input 1
  intcode run day02.txt --patch 1=12 --patch 2=2 --stats
  echo 104,7,99 | intcode run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.program(cmd, args, patches)
			if err != nil {
				return err
			}
			vm, err := src.machine()
			if err != nil {
				return err
			}

			outputs, err := vm.RunAll(a.inputs(cmd, inputs))
			printOutputs(cmd.OutOrStdout(), outputs)
			log.Infof("%s: %d outputs, %d steps, state %s", src.name, len(outputs), vm.Steps(), vm.State())
			if stats {
				mem0, _ := vm.Peek(0)
				fmt.Fprintf(cmd.ErrOrStderr(), "steps=%d memory=%d mem[0]=%d state=%s\n",
					vm.Steps(), vm.MemLen(), mem0, vm.State())
			}
			return err
		},
	}

	cmd.Flags().Int64SliceVarP(&inputs, "input", "i", nil, "Input values, consumed in order (default: [run] inputs)")
	cmd.Flags().StringSliceVarP(&patches, "patch", "p", nil, "Patch memory before running, as address=value")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print steps, memory size and mem[0] to stderr")
	return cmd
}
