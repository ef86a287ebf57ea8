package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/chazu/intcode/server"
)

func (a *app) newRemoteCmd() *cobra.Command {
	var (
		serverURL string
		inputs    []int64
		patches   []string
	)

	cmd := &cobra.Command{
		Use:   "remote [file]",
		Short: "Run a program to completion on an intcode server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.program(cmd, args, patches)
			if err != nil {
				return err
			}
			wire := make([]server.Patch, len(src.patches))
			for i, p := range src.patches {
				wire[i] = server.Patch{Address: p.Address, Value: p.Value}
			}

			client := server.NewClient(http.DefaultClient, serverURL)
			log.Infof("running %s on %s", src.name, serverURL)
			outputs, err := client.RunAll(cmd.Context(), src.prog.String(), wire, a.inputs(cmd, inputs))
			printOutputs(cmd.OutOrStdout(), outputs)
			return err
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:4567", "Base URL of the intcode server")
	cmd.Flags().Int64SliceVarP(&inputs, "input", "i", nil, "Input values, consumed in order (default: [run] inputs)")
	cmd.Flags().StringSliceVarP(&patches, "patch", "p", nil, "Patch memory on the server before running, as address=value")
	return cmd
}
