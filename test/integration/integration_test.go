package integration_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/circuit"
	"github.com/chazu/intcode/pkg/intcode"
	"github.com/chazu/intcode/server"
)

// ---------------------------------------------------------------------------
// Integration test helpers
// ---------------------------------------------------------------------------

// loadExample loads the manifest and program of one of the bundled examples.
func loadExample(t *testing.T, name string) (*manifest.Manifest, intcode.Program) {
	t.Helper()
	m, err := manifest.Load(filepath.Join("..", "..", "examples", name))
	require.NoError(t, err)
	prog, err := m.LoadProgram()
	require.NoError(t, err)
	return m, prog
}

// newRemote starts a session server and returns a client for it.
func newRemote(t *testing.T) *server.Client {
	t.Helper()
	srv := server.New()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return server.NewClient(ts.Client(), ts.URL)
}

// ---------------------------------------------------------------------------
// Examples
// ---------------------------------------------------------------------------

func TestCompareExample(t *testing.T) {
	m, _ := loadExample(t, "compare")

	vm, err := m.NewVM()
	require.NoError(t, err)
	out, err := vm.RunAll(m.Run.Inputs)
	require.NoError(t, err)
	assert.Equal(t, []int64{1000}, out)
}

func TestQuineExample(t *testing.T) {
	m, prog := loadExample(t, "quine")
	assert.Equal(t, "127.0.0.1:4567", m.Server.Addr)

	out, err := intcode.NewVM(prog).RunAll(nil)
	require.NoError(t, err)
	assert.Equal(t, []int64(prog), out)
}

func TestAmplifierExample(t *testing.T) {
	m, prog := loadExample(t, "amplifier")
	require.True(t, m.Circuit.Feedback)

	res, err := circuit.New(prog).Best(m.Circuit.Phases, m.Circuit.Feedback)
	require.NoError(t, err)
	assert.Equal(t, int64(139629729), res.Signal)
	assert.Equal(t, []int64{9, 8, 7, 6, 5}, res.Phases)
}

// ---------------------------------------------------------------------------
// Local and remote machines agree
// ---------------------------------------------------------------------------

func TestLocalAndRemoteAgree(t *testing.T) {
	client := newRemote(t)

	programs := []struct {
		name   string
		inputs []int64
	}{
		{"compare", []int64{3}},
		{"compare", []int64{8}},
		{"compare", []int64{80}},
		{"quine", nil},
	}

	for _, p := range programs {
		_, prog := loadExample(t, p.name)

		local, err := intcode.NewVM(prog).RunAll(p.inputs)
		require.NoError(t, err)

		remote, err := client.RunAll(context.Background(), prog.String(), nil, p.inputs)
		require.NoError(t, err)

		assert.Equal(t, local, remote, "%s %v", p.name, p.inputs)
	}
}

func TestRemoteSuspendResume(t *testing.T) {
	client := newRemote(t)
	ctx := context.Background()

	created, err := client.CreateSession(ctx, &server.CreateSessionRequest{Program: "3,100,1001,100,1,100,4,100,1105,1,0"})
	require.NoError(t, err)

	// An incrementing echo loop: every input comes back plus one.
	for _, in := range []int64{1, 41, -10} {
		resp, err := client.Run(ctx, &server.RunRequest{SessionID: created.SessionID})
		require.NoError(t, err)
		require.Equal(t, intcode.StateWaitingInput.String(), resp.State)

		v := in
		resp, err = client.Run(ctx, &server.RunRequest{SessionID: created.SessionID, Input: &v})
		require.NoError(t, err)
		require.NotNil(t, resp.Output)
		assert.Equal(t, in+1, *resp.Output)
	}

	peek, err := client.Peek(ctx, &server.PeekRequest{SessionID: created.SessionID, Address: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(-9), peek.Value)
}
