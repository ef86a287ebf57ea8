package main

import (
	"bytes"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/intcode"
	"github.com/chazu/intcode/server"
)

// execute runs the CLI with a manifest directory holding manifestText.
func execute(t *testing.T, manifestText, stdin string, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(manifestText), 0644))

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--config", dir}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.txt")
	require.NoError(t, os.WriteFile(path, []byte(src+"\n"), 0644))
	return path
}

const compareToEight = "3,21,1008,21,8,20,1005,20,22,107,8,21,20,1006,20,31," +
	"1106,0,36,98,0,0,1002,21,125,20,4,20,1105,1,46,104," +
	"999,1105,1,46,1101,1000,1,20,4,20,1105,1,46,98,99"

func TestRunCommand(t *testing.T) {
	path := writeProgram(t, compareToEight)

	out, _, err := execute(t, "", "", "run", path, "--input", "9")
	require.NoError(t, err)
	assert.Equal(t, "1001\n", out)
}

func TestRunCommand_Stdin(t *testing.T) {
	out, _, err := execute(t, "", "109,1,204,-1,1001,100,1,100,1008,100,16,101,1006,101,0,99", "run")
	require.NoError(t, err)
	assert.Equal(t, 16, strings.Count(out, "\n"))
	assert.True(t, strings.HasPrefix(out, "109\n1\n204\n"))
}

func TestRunCommand_PatchAndStats(t *testing.T) {
	path := writeProgram(t, "1,0,0,0,99")

	out, stderr, err := execute(t, "", "", "run", path, "--patch", "1=4", "--stats")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "mem[0]=100")
	assert.Contains(t, stderr, "state=ended")
}

func TestRunCommand_ManifestProgram(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prog.txt"), []byte(compareToEight), 0644))
	toml := "[program]\npath = \"" + filepath.Join(dir, "prog.txt") + "\"\n\n[run]\ninputs = [8]\n"

	out, _, err := execute(t, toml, "", "run")
	require.NoError(t, err)
	assert.Equal(t, "1000\n", out)

	// Flags override the manifest.
	out, _, err = execute(t, toml, "", "run", "--input", "3")
	require.NoError(t, err)
	assert.Equal(t, "999\n", out)
}

func TestRunCommand_Errors(t *testing.T) {
	_, _, err := execute(t, "", "", "run", writeProgram(t, "3,0,99"))
	assert.ErrorIs(t, err, intcode.ErrInputExhausted)

	_, _, err = execute(t, "", "", "run", writeProgram(t, "1,two"))
	assert.ErrorIs(t, err, intcode.ErrParse)

	out, _, err := execute(t, "", "", "run", writeProgram(t, "104,5,98"))
	assert.ErrorIs(t, err, intcode.ErrInvalidOpcode)
	assert.Equal(t, "5\n", out, "outputs before the fault are still printed")

	_, _, err = execute(t, "", "", "run", writeProgram(t, "99"), "--patch", "oops")
	assert.Error(t, err)
}

func TestRunCommand_FarPatch(t *testing.T) {
	path := writeProgram(t, "4,200000000,99")

	out, stderr, err := execute(t, "", "", "run", path, "--patch", "200000000=42", "--stats")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
	assert.Contains(t, stderr, "memory=200000001")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prog.txt"), []byte("4,200000000,99"), 0644))
	toml := "[program]\npath = \"" + filepath.Join(dir, "prog.txt") + "\"\n" +
		"patches = [{ address = 200000000, value = 7 }]\n"
	out, _, err = execute(t, toml, "", "run")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)

	// Flags apply after the manifest's patches.
	out, _, err = execute(t, toml, "", "run", "--patch", "200000000=8")
	require.NoError(t, err)
	assert.Equal(t, "8\n", out)
}

func TestDisasmCommand(t *testing.T) {
	path := writeProgram(t, "1002,4,3,4,33")

	out, _, err := execute(t, "", "", "disasm", path)
	require.NoError(t, err)
	assert.Contains(t, out, "; === prog.txt ===")
	assert.Contains(t, out, "MUL [4], #3 -> [4]")
	assert.Contains(t, out, "DATA 33")
}

func TestDisasmCommand_Patch(t *testing.T) {
	path := writeProgram(t, "1002,4,3,4,33")

	out, _, err := execute(t, "", "", "disasm", path, "--patch", "4=99")
	require.NoError(t, err)
	assert.Contains(t, out, "HALT")
	assert.NotContains(t, out, "DATA 33")

	_, _, err = execute(t, "", "", "disasm", path, "--patch", "5=1")
	assert.ErrorContains(t, err, "past the end")
}

func TestAmpCommand(t *testing.T) {
	path := writeProgram(t, "3,15,3,16,1002,16,10,16,1,16,15,15,4,15,99,0,0")

	out, _, err := execute(t, "", "", "amp", path, "--tree")
	require.NoError(t, err)
	assert.Contains(t, out, "signal 43210 phases 4,3,2,1,0")
	assert.Contains(t, out, "amp E phase=0 signal=43210")
}

func TestAmpCommand_FeedbackFromManifest(t *testing.T) {
	path := writeProgram(t, "3,26,1001,26,-4,26,3,27,1002,27,2,27,1,27,26,27,4,27,1001,28,-1,28,1005,28,6,99,0,0,5")
	toml := "[circuit]\nphases = [5, 6, 7, 8, 9]\nfeedback = true\n"

	out, _, err := execute(t, toml, "", "amp", path)
	require.NoError(t, err)
	assert.Contains(t, out, "signal 139629729 phases 9,8,7,6,5")
}

func TestAmpCommand_Patch(t *testing.T) {
	// Patching the multiplier to 1 makes every stage add its phase.
	path := writeProgram(t, "3,15,3,16,1002,16,10,16,1,16,15,15,4,15,99,0,0")

	out, _, err := execute(t, "", "", "amp", path, "--patch", "6=1")
	require.NoError(t, err)
	assert.Contains(t, out, "signal 10 phases")
}

func TestRemoteCommand(t *testing.T) {
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	defer func() {
		ts.Close()
		srv.Stop()
	}()

	path := writeProgram(t, compareToEight)
	out, _, err := execute(t, "", "", "remote", path, "--server", ts.URL, "--input", "7")
	require.NoError(t, err)
	assert.Equal(t, "999\n", out)
	assert.Equal(t, 0, srv.Sessions().Len())
}

func TestRemoteCommand_ManifestPatches(t *testing.T) {
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	defer func() {
		ts.Close()
		srv.Stop()
	}()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prog.txt"), []byte("1,0,0,0,4,0,99"), 0644))
	toml := "[program]\npath = \"" + filepath.Join(dir, "prog.txt") + "\"\n" +
		"patches = [{ address = 1, value = 4 }]\n"

	out, _, err := execute(t, toml, "", "remote", "--server", ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestParsePatches(t *testing.T) {
	patches, err := parsePatches([]string{"0=2", " 7 = -1 "})
	require.NoError(t, err)
	assert.Equal(t, []manifest.Patch{{Address: 0, Value: 2}, {Address: 7, Value: -1}}, patches)

	for _, bad := range []string{"3", "x=1", "1=y", "-1=0"} {
		_, err := parsePatches([]string{bad})
		assert.Error(t, err, bad)
	}
}

// scriptReader feeds canned lines to the console.
type scriptReader struct {
	lines []string
}

func (s *scriptReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestRunConsole(t *testing.T) {
	vm, err := intcode.New("3,0,4,0,3,0,4,0,99")
	require.NoError(t, err)

	var out bytes.Buffer
	err = runConsole(vm, &scriptReader{lines: []string{"", "abc", "12", "-3"}}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "not an integer: \"abc\"")
	assert.Contains(t, text, "out: 12\n")
	assert.Contains(t, text, "out: -3\n")
	assert.Contains(t, text, "halted after 4 steps")
}

func TestRunConsole_Quit(t *testing.T) {
	vm, err := intcode.New("3,0,99")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runConsole(vm, &scriptReader{lines: []string{"exit"}}, &out))
	assert.Contains(t, out.String(), "bye")
	assert.Equal(t, intcode.StateWaitingInput, vm.State())

	vm.Reset()
	out.Reset()
	require.NoError(t, runConsole(vm, &scriptReader{}, &out))
	assert.Contains(t, out.String(), "bye")
}

func TestRunConsole_Fault(t *testing.T) {
	vm, err := intcode.New("3,0,98")
	require.NoError(t, err)
	err = runConsole(vm, &scriptReader{lines: []string{"1"}}, io.Discard)
	assert.ErrorIs(t, err, intcode.ErrInvalidOpcode)
}
