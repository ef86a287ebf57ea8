package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/circuit"
	"github.com/chazu/intcode/pkg/intcode"
)

func (a *app) newAmpCmd() *cobra.Command {
	var (
		phases   []int64
		feedback bool
		tree     bool
		patches  []string
	)

	cmd := &cobra.Command{
		Use:   "amp [file]",
		Short: "Find the phase ordering giving the highest amplifier signal",
		Example: `  intcode amp day07.txt
  intcode amp day07.txt --feedback --phases 5,6,7,8,9 --tree`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.program(cmd, args, patches)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("phases") {
				phases = a.manifest.Circuit.Phases
			}
			if !cmd.Flags().Changed("feedback") {
				feedback = a.manifest.Circuit.Feedback
			}

			c := circuit.New(src.prog)
			c.Setup = func(vm *intcode.VM) error {
				return manifest.ApplyPatches(vm, src.patches)
			}
			res, err := c.Best(phases, feedback)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "signal %d phases %s\n", res.Signal, joinInts(res.Phases))
			if tree {
				fmt.Fprint(out, res.Tree().String())
			}
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&phases, "phases", nil, "Phase settings to permute (default: [circuit] phases)")
	cmd.Flags().BoolVar(&feedback, "feedback", false, "Run the stages as a feedback loop")
	cmd.Flags().BoolVar(&tree, "tree", false, "Render the winning chain as a tree")
	cmd.Flags().StringSliceVarP(&patches, "patch", "p", nil, "Patch every stage's memory before running, as address=value")
	return cmd
}

func joinInts(vs []int64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}
