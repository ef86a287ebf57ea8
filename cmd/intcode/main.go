// IntCode CLI - the entry point for running IntCode programs
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/intcode"
)

var log = commonlog.GetLogger("intcode.cli")

var (
	Version = "dev"
	Commit  = "none"
)

// app holds state shared by every subcommand.
type app struct {
	configDir string
	verbosity int
	logFile   string

	manifest *manifest.Manifest
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "intcode",
		Short: "Run and serve IntCode programs",
		Long: `intcode executes IntCode programs: comma-separated integer listings
run by a small suspendable virtual machine.

Settings are read from the nearest intcode.toml; flags override them.`,
		Version:           fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&a.configDir, "config", "C", "", "Directory containing intcode.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(
		a.newRunCmd(),
		a.newDisasmCmd(),
		a.newAmpCmd(),
		a.newConsoleCmd(),
		a.newServeCmd(),
		a.newRemoteCmd(),
	)
	return rootCmd
}

// setup loads the manifest and configures logging before any subcommand.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var err error
	if a.configDir != "" {
		a.manifest, err = manifest.Load(a.configDir)
	} else {
		var cwd string
		if cwd, err = os.Getwd(); err == nil {
			a.manifest, err = manifest.FindAndLoad(cwd)
		}
	}
	if err != nil {
		return err
	}
	if a.manifest == nil {
		a.manifest = manifest.Default()
	}

	verbosity := a.manifest.Log.Verbosity
	if cmd.Flags().Changed("verbose") {
		verbosity = a.verbosity
	}
	logFile := a.manifest.Log.File
	if a.logFile != "" {
		logFile = a.logFile
	}
	var path *string
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(verbosity, path)

	if a.manifest.Dir != "" {
		log.Debugf("using %s", filepath.Join(a.manifest.Dir, manifest.FileName))
	}
	return nil
}

// source is a resolved program and the patches every machine built from it
// gets before its first run.
type source struct {
	name    string
	prog    intcode.Program
	patches []manifest.Patch
}

// machine returns a fresh VM for the program with the patches applied.
func (s *source) machine() (*intcode.VM, error) {
	vm := intcode.NewVM(s.prog)
	if err := manifest.ApplyPatches(vm, s.patches); err != nil {
		return nil, err
	}
	return vm, nil
}

// image returns the program with the patches written into the listing.
// Patches must land inside the listing.
func (s *source) image() (intcode.Program, error) {
	out := s.prog.Clone()
	for _, p := range s.patches {
		if p.Address >= int64(len(out)) {
			return nil, fmt.Errorf("patch address %d is past the end of the %d-word program", p.Address, len(out))
		}
		out[p.Address] = p.Value
	}
	return out, nil
}

// program resolves the program to run: the file named on the command line
// ("-" for stdin), else the manifest's program, else stdin. Manifest patches
// apply only to the manifest's program; patch flags always apply, after the
// manifest's.
func (a *app) program(cmd *cobra.Command, args []string, patchFlags []string) (*source, error) {
	src := &source{}
	var err error
	switch {
	case len(args) > 0 && args[0] != "-":
		src.name = args[0]
		src.prog, err = intcode.LoadFile(src.name)
	case len(args) == 0 && a.manifest.ProgramPath() != "":
		src.name = a.manifest.ProgramPath()
		src.prog, err = a.manifest.LoadProgram()
		src.patches = append(src.patches, a.manifest.Program.Patches...)
	default:
		src.name = "stdin"
		src.prog, err = intcode.ReadProgram(cmd.InOrStdin())
	}
	if err != nil {
		return nil, err
	}

	patches, err := parsePatches(patchFlags)
	if err != nil {
		return nil, err
	}
	src.patches = append(src.patches, patches...)
	return src, nil
}

// parsePatches parses "address=value" pairs.
func parsePatches(specs []string) ([]manifest.Patch, error) {
	patches := make([]manifest.Patch, 0, len(specs))
	for _, spec := range specs {
		addrText, valueText, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("patch %q: want address=value", spec)
		}
		addr, err := strconv.ParseInt(strings.TrimSpace(addrText), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("patch %q: bad address: %w", spec, err)
		}
		value, err := strconv.ParseInt(strings.TrimSpace(valueText), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("patch %q: bad value: %w", spec, err)
		}
		if addr < 0 {
			return nil, fmt.Errorf("patch %q: %w", spec, intcode.ErrNegativeAddress)
		}
		patches = append(patches, manifest.Patch{Address: addr, Value: value})
	}
	return patches, nil
}

// inputs returns the --input values, or the manifest's when the flag is unset.
func (a *app) inputs(cmd *cobra.Command, flagValues []int64) []int64 {
	if cmd.Flags().Changed("input") {
		return flagValues
	}
	return a.manifest.Run.Inputs
}

func printOutputs(w io.Writer, outputs []int64) {
	for _, v := range outputs {
		fmt.Fprintln(w, v)
	}
}
