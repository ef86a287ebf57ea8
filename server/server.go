package server

import (
	"net/http"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("intcode.server")

const (
	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// IntcodeServer hosts IntCode sessions over Connect. It serves the Connect
// protocol with JSON and CBOR bodies on plain HTTP.
type IntcodeServer struct {
	sessions *SessionStore
	mux      *http.ServeMux
	http     *http.Server

	stopSweeper func()
}

// ServerOption configures an IntcodeServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	sessionTTL    time.Duration
	sweepInterval time.Duration
	maxSessions   int
}

// WithSessionTTL sets how long an idle session survives.
func WithSessionTTL(ttl time.Duration) ServerOption {
	return func(c *serverConfig) { c.sessionTTL = ttl }
}

// WithSweepInterval sets how often idle sessions are swept.
func WithSweepInterval(interval time.Duration) ServerOption {
	return func(c *serverConfig) { c.sweepInterval = interval }
}

// WithMaxSessions caps the number of live sessions. Zero means no limit.
func WithMaxSessions(n int) ServerOption {
	return func(c *serverConfig) { c.maxSessions = n }
}

// New creates an IntcodeServer and starts its idle-session sweeper.
func New(opts ...ServerOption) *IntcodeServer {
	cfg := &serverConfig{
		sessionTTL:    DefaultSessionTTL,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.sessionTTL <= 0 {
		cfg.sessionTTL = DefaultSessionTTL
	}
	if cfg.sweepInterval <= 0 {
		cfg.sweepInterval = DefaultSweepInterval
	}

	sessions := NewSessionStore()
	s := &IntcodeServer{
		sessions: sessions,
		mux:      http.NewServeMux(),
	}

	machineSvc := NewMachineService(sessions, cfg.maxSessions)
	path, handler := NewMachineServiceHandler(machineSvc)
	s.mux.Handle(path, handler)

	s.stopSweeper = sessions.StartSweeper(cfg.sweepInterval, cfg.sessionTTL)

	return s
}

// Handler returns the HTTP handler serving every procedure.
func (s *IntcodeServer) Handler() http.Handler {
	return s.mux
}

// Sessions returns the server's session store.
func (s *IntcodeServer) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *IntcodeServer) ListenAndServe(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.mux}
	log.Noticef("intcode server listening on %s", addr)
	log.Noticef("  Connect (JSON): http://%s%s", addr, CreateSessionProcedure)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts down the server and every session.
func (s *IntcodeServer) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	if s.http != nil {
		s.http.Close()
	}
	s.sessions.Close()
}
