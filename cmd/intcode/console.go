package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/chazu/intcode/pkg/intcode"
)

// lineReader is the part of readline.Instance the console needs.
type lineReader interface {
	Readline() (string, error)
}

func (a *app) newConsoleCmd() *cobra.Command {
	var patches []string

	cmd := &cobra.Command{
		Use:   "console [file]",
		Short: "Run a program interactively, prompting whenever it needs input",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && a.manifest.ProgramPath() == "" {
				return errors.New("console needs a program file; stdin is used for input")
			}
			src, err := a.program(cmd, args, patches)
			if err != nil {
				return err
			}
			vm, err := src.machine()
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:      "in> ",
				HistoryFile: filepath.Join(os.TempDir(), "intcode_console_history.txt"),
			})
			if err != nil {
				return fmt.Errorf("failed to start readline: %w", err)
			}
			defer rl.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d words. Enter one integer per prompt; 'exit' quits.\n", filepath.Base(src.name), len(src.prog))
			return runConsole(vm, rl, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVarP(&patches, "patch", "p", nil, "Patch memory before running, as address=value")
	return cmd
}

// runConsole drives vm, reading a value from in whenever the program waits
// for input. It returns nil when the program halts or the user quits.
func runConsole(vm *intcode.VM, in lineReader, out io.Writer) error {
	next := intcode.None
	for {
		word, err := vm.Run(next)
		if err != nil {
			return err
		}
		next = intcode.None

		if v, ok := word.Get(); ok {
			fmt.Fprintf(out, "out: %d\n", v)
			continue
		}

		switch vm.State() {
		case intcode.StateEnded:
			fmt.Fprintf(out, "halted after %d steps\n", vm.Steps())
			return nil
		case intcode.StateWaitingInput:
			v, quit, err := readValue(in, out)
			if err != nil {
				return err
			}
			if quit {
				fmt.Fprintln(out, "bye")
				return nil
			}
			next = intcode.Some(v)
		default:
			return fmt.Errorf("run returned in state %s", vm.State())
		}
	}
}

// readValue prompts until the user enters an integer or quits.
func readValue(in lineReader, out io.Writer) (int64, bool, error) {
	for {
		line, err := in.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return 0, true, nil
		}
		if err != nil {
			return 0, false, err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return 0, true, nil
		}

		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			fmt.Fprintf(out, "not an integer: %q\n", line)
			continue
		}
		return v, false, nil
	}
}
