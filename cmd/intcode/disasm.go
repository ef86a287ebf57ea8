package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chazu/intcode/pkg/intcode"
)

func (a *app) newDisasmCmd() *cobra.Command {
	var patches []string

	cmd := &cobra.Command{
		Use:   "disasm [file]",
		Short: "Print a disassembly listing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.program(cmd, args, patches)
			if err != nil {
				return err
			}
			prog, err := src.image()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), intcode.DisassembleWithName(prog, filepath.Base(src.name)))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&patches, "patch", "p", nil, "Patch memory before listing, as address=value")
	return cmd
}
