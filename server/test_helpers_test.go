package server

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
// ---------------------------------------------------------------------------

func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}

func bg() context.Context {
	return context.Background()
}

func int64p(v int64) *int64 {
	return &v
}

// newTestService returns a MachineService over a fresh store.
func newTestService(t *testing.T) (*MachineService, *SessionStore) {
	t.Helper()
	store := NewSessionStore()
	t.Cleanup(store.Close)
	return NewMachineService(store, 0), store
}

// newTestServer starts an IntcodeServer behind httptest and returns a CBOR
// client for it.
func newTestServer(t *testing.T, opts ...ServerOption) (*IntcodeServer, *httptest.Server, *Client) {
	t.Helper()
	opts = append([]ServerOption{WithSweepInterval(time.Hour)}, opts...)
	srv := New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	return srv, ts, NewClient(ts.Client(), ts.URL)
}

func createSession(t *testing.T, svc *MachineService, program string) string {
	t.Helper()
	resp, err := svc.CreateSession(bg(), connectReq(&CreateSessionRequest{Program: program}))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Msg.SessionID)
	return resp.Msg.SessionID
}
