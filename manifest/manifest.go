// Package manifest handles intcode.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chazu/intcode/pkg/intcode"
)

// FileName is the manifest file looked up by Load and FindAndLoad.
const FileName = "intcode.toml"

const (
	DefaultAddr          = ":4567"
	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// DefaultPhases are the series circuit phase settings.
var DefaultPhases = []int64{0, 1, 2, 3, 4}

// Manifest represents an intcode.toml configuration.
type Manifest struct {
	Program ProgramConfig `toml:"program"`
	Run     RunConfig     `toml:"run"`
	Circuit CircuitConfig `toml:"circuit"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`

	// Dir is the directory containing the intcode.toml file (set at load time).
	Dir string `toml:"-"`
}

// ProgramConfig names the program image and any words to patch before the
// first run.
type ProgramConfig struct {
	Path    string  `toml:"path"`
	Patches []Patch `toml:"patches"`
}

// Patch overwrites one memory word.
type Patch struct {
	Address int64 `toml:"address"`
	Value   int64 `toml:"value"`
}

// RunConfig holds the inputs for batch runs.
type RunConfig struct {
	Inputs []int64 `toml:"inputs"`
}

// CircuitConfig configures amplifier circuit searches.
type CircuitConfig struct {
	Phases   []int64 `toml:"phases"`
	Feedback bool    `toml:"feedback"`
}

// ServerConfig configures the session server.
type ServerConfig struct {
	Addr          string   `toml:"addr"`
	SessionTTL    Duration `toml:"session-ttl"`
	SweepInterval Duration `toml:"sweep-interval"`
}

// LogConfig configures commonlog.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Duration is a time.Duration written as a string such as "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a manifest holding only defaults, for use when no
// intcode.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses an intcode.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	for _, p := range m.Program.Patches {
		if p.Address < 0 {
			return nil, fmt.Errorf("%s: patch address %d: %w", path, p.Address, intcode.ErrNegativeAddress)
		}
	}

	m.applyDefaults()
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Server.Addr == "" {
		m.Server.Addr = DefaultAddr
	}
	if m.Server.SessionTTL.Duration == 0 {
		m.Server.SessionTTL.Duration = DefaultSessionTTL
	}
	if m.Server.SweepInterval.Duration == 0 {
		m.Server.SweepInterval.Duration = DefaultSweepInterval
	}
	if len(m.Circuit.Phases) == 0 {
		m.Circuit.Phases = append([]int64(nil), DefaultPhases...)
	}
}

// FindAndLoad walks up from startDir to find an intcode.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ProgramPath returns the program path resolved against the manifest
// directory, or "" if none is configured.
func (m *Manifest) ProgramPath() string {
	if m.Program.Path == "" {
		return ""
	}
	if filepath.IsAbs(m.Program.Path) || m.Dir == "" {
		return m.Program.Path
	}
	return filepath.Join(m.Dir, m.Program.Path)
}

// LoadProgram reads the configured program image. Patches are not applied;
// use NewVM or Patch for that.
func (m *Manifest) LoadProgram() (intcode.Program, error) {
	path := m.ProgramPath()
	if path == "" {
		return nil, fmt.Errorf("%s: no program path configured", FileName)
	}
	return intcode.LoadFile(path)
}

// NewVM loads the configured program and returns a machine with the
// configured patches applied.
func (m *Manifest) NewVM() (*intcode.VM, error) {
	prog, err := m.LoadProgram()
	if err != nil {
		return nil, err
	}
	vm := intcode.NewVM(prog)
	if err := m.Patch(vm); err != nil {
		return nil, err
	}
	return vm, nil
}

// Patch applies the configured patches to vm.
func (m *Manifest) Patch(vm *intcode.VM) error {
	return ApplyPatches(vm, m.Program.Patches)
}

// ApplyPatches writes patches into vm's memory in order. A patch past the
// end of memory extends it the way any other write does, so a far address
// costs one word rather than a run of zeros.
func ApplyPatches(vm *intcode.VM, patches []Patch) error {
	for _, p := range patches {
		if err := vm.SetRam(p.Address, p.Value); err != nil {
			return fmt.Errorf("patch address %d: %w", p.Address, err)
		}
	}
	return nil
}
