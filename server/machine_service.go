package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/chazu/intcode/pkg/intcode"
)

// MachineServiceName is the fully-qualified name of the machine service.
const MachineServiceName = "intcode.v1.MachineService"

// Procedure paths, in the form Connect clients expect.
const (
	CreateSessionProcedure  = "/" + MachineServiceName + "/CreateSession"
	RunProcedure            = "/" + MachineServiceName + "/Run"
	PeekProcedure           = "/" + MachineServiceName + "/Peek"
	PokeProcedure           = "/" + MachineServiceName + "/Poke"
	DestroySessionProcedure = "/" + MachineServiceName + "/DestroySession"
)

// MachineService hosts IntCode machines for remote clients.
type MachineService struct {
	sessions    *SessionStore
	maxSessions int
}

// NewMachineService creates a MachineService. A maxSessions of zero means
// no limit.
func NewMachineService(sessions *SessionStore, maxSessions int) *MachineService {
	return &MachineService{
		sessions:    sessions,
		maxSessions: maxSessions,
	}
}

// NewMachineServiceHandler builds an HTTP handler serving every procedure of
// svc. It returns the path prefix to mount the handler on.
func NewMachineServiceHandler(svc *MachineService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithCodec(cborCodec{}),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, svc.CreateSession, opts...))
	mux.Handle(RunProcedure, connect.NewUnaryHandler(RunProcedure, svc.Run, opts...))
	mux.Handle(PeekProcedure, connect.NewUnaryHandler(PeekProcedure, svc.Peek, opts...))
	mux.Handle(PokeProcedure, connect.NewUnaryHandler(PokeProcedure, svc.Poke, opts...))
	mux.Handle(DestroySessionProcedure, connect.NewUnaryHandler(DestroySessionProcedure, svc.DestroySession, opts...))
	return "/" + MachineServiceName + "/", mux
}

// CreateSession parses a program, applies its patches and starts a session.
func (s *MachineService) CreateSession(
	ctx context.Context,
	req *connect.Request[CreateSessionRequest],
) (*connect.Response[CreateSessionResponse], error) {
	vm, err := intcode.New(req.Msg.Program)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	for _, p := range req.Msg.Patches {
		if err := vm.SetRam(p.Address, p.Value); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("patch address %d: %w", p.Address, err))
		}
	}

	session, err := s.sessions.CreateLimited(vm, s.maxSessions)
	if err != nil {
		return nil, connect.NewError(connect.CodeResourceExhausted, err)
	}
	return connect.NewResponse(&CreateSessionResponse{
		SessionID:    session.ID,
		MemoryLength: vm.MemLen(),
	}), nil
}

// runResult carries a Run outcome off the worker goroutine.
type runResult struct {
	resp *RunResponse
	err  error
}

// Run resumes the session's machine with an optional input.
func (s *MachineService) Run(
	ctx context.Context,
	req *connect.Request[RunRequest],
) (*connect.Response[RunResponse], error) {
	session, err := s.lookup(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	input := intcode.None
	if req.Msg.Input != nil {
		input = intcode.Some(*req.Msg.Input)
	}

	result, err := session.worker.Do(ctx, func(ctx context.Context, vm *intcode.VM) any {
		out, err := vm.RunContext(ctx, input)
		resp := &RunResponse{
			State:        vm.State().String(),
			IP:           vm.IP(),
			RelativeBase: vm.RelativeBase(),
			Steps:        vm.Steps(),
		}
		if v, ok := out.Get(); ok {
			resp.Output = &v
		}
		return runResult{resp: resp, err: err}
	})
	if err != nil {
		return nil, workerError(err)
	}

	r := result.(runResult)
	switch {
	case r.err == nil:
	case errors.Is(r.err, context.Canceled), errors.Is(r.err, context.DeadlineExceeded):
		if ctx.Err() == nil {
			// The session was destroyed mid-run.
			return nil, workerError(ErrWorkerStopped)
		}
		return nil, workerError(r.err)
	default:
		return nil, machineError(r.err)
	}
	return connect.NewResponse(r.resp), nil
}

// Peek reads one memory word.
func (s *MachineService) Peek(
	ctx context.Context,
	req *connect.Request[PeekRequest],
) (*connect.Response[PeekResponse], error) {
	session, err := s.lookup(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	addr := req.Msg.Address
	var value int64
	result, err := session.worker.Do(ctx, func(_ context.Context, vm *intcode.VM) any {
		v, err := vm.Peek(addr)
		value = v
		return err
	})
	if err != nil {
		return nil, workerError(err)
	}
	if result != nil {
		return nil, machineError(result.(error))
	}
	return connect.NewResponse(&PeekResponse{Value: value}), nil
}

// Poke writes one memory word.
func (s *MachineService) Poke(
	ctx context.Context,
	req *connect.Request[PokeRequest],
) (*connect.Response[PokeResponse], error) {
	session, err := s.lookup(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	addr, value := req.Msg.Address, req.Msg.Value
	result, err := session.worker.Do(ctx, func(_ context.Context, vm *intcode.VM) any {
		return vm.SetRam(addr, value)
	})
	if err != nil {
		return nil, workerError(err)
	}
	if result != nil {
		return nil, machineError(result.(error))
	}
	return connect.NewResponse(&PokeResponse{}), nil
}

// DestroySession stops a session's machine and forgets it.
func (s *MachineService) DestroySession(
	ctx context.Context,
	req *connect.Request[DestroySessionRequest],
) (*connect.Response[DestroySessionResponse], error) {
	if req.Msg.SessionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session_id is required"))
	}
	if !s.sessions.Destroy(req.Msg.SessionID) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", req.Msg.SessionID))
	}
	return connect.NewResponse(&DestroySessionResponse{}), nil
}

func (s *MachineService) lookup(id string) (*Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("session_id is required"))
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("session %q not found", id))
	}
	return session, nil
}

// machineError maps VM errors onto Connect codes.
func machineError(err error) error {
	var ee *intcode.ExecError
	switch {
	case errors.As(err, &ee):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, intcode.ErrParse),
		errors.Is(err, intcode.ErrNegativeAddress),
		errors.Is(err, intcode.ErrAddressOverflow):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func workerError(err error) error {
	switch {
	case errors.Is(err, ErrWorkerStopped):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
