package server

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"

	"github.com/chazu/intcode/pkg/intcode"
)

// Client calls a remote MachineService. It speaks CBOR unless another codec
// is passed in opts.
type Client struct {
	createSession  *connect.Client[CreateSessionRequest, CreateSessionResponse]
	run            *connect.Client[RunRequest, RunResponse]
	peek           *connect.Client[PeekRequest, PeekResponse]
	poke           *connect.Client[PokeRequest, PokeResponse]
	destroySession *connect.Client[DestroySessionRequest, DestroySessionResponse]
}

// NewClient creates a client for the service at baseURL, for example
// "http://localhost:4567".
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(cborCodec{})}, opts...)
	return &Client{
		createSession:  connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+CreateSessionProcedure, opts...),
		run:            connect.NewClient[RunRequest, RunResponse](httpClient, baseURL+RunProcedure, opts...),
		peek:           connect.NewClient[PeekRequest, PeekResponse](httpClient, baseURL+PeekProcedure, opts...),
		poke:           connect.NewClient[PokeRequest, PokeResponse](httpClient, baseURL+PokeProcedure, opts...),
		destroySession: connect.NewClient[DestroySessionRequest, DestroySessionResponse](httpClient, baseURL+DestroySessionProcedure, opts...),
	}
}

func (c *Client) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	resp, err := c.createSession.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) Run(ctx context.Context, req *RunRequest) (*RunResponse, error) {
	resp, err := c.run.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) Peek(ctx context.Context, req *PeekRequest) (*PeekResponse, error) {
	resp, err := c.peek.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) Poke(ctx context.Context, req *PokeRequest) (*PokeResponse, error) {
	resp, err := c.poke.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) DestroySession(ctx context.Context, req *DestroySessionRequest) (*DestroySessionResponse, error) {
	resp, err := c.destroySession.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// RunAll runs a program on the server to completion, feeding inputs one per
// input instruction, and returns every output. The session is destroyed
// before returning.
func (c *Client) RunAll(ctx context.Context, program string, patches []Patch, inputs []int64) ([]int64, error) {
	created, err := c.CreateSession(ctx, &CreateSessionRequest{Program: program, Patches: patches})
	if err != nil {
		return nil, err
	}
	defer c.DestroySession(context.WithoutCancel(ctx), &DestroySessionRequest{SessionID: created.SessionID})

	var outputs []int64
	req := &RunRequest{SessionID: created.SessionID}
	for {
		resp, err := c.Run(ctx, req)
		if err != nil {
			return outputs, err
		}
		req.Input = nil

		switch resp.State {
		case intcode.StateOutput.String():
			if resp.Output == nil {
				return outputs, fmt.Errorf("server: output state without a value at ip=%d", resp.IP)
			}
			outputs = append(outputs, *resp.Output)
		case intcode.StateWaitingInput.String():
			if len(inputs) == 0 {
				return outputs, &intcode.ExecError{IP: resp.IP, Err: intcode.ErrInputExhausted}
			}
			v := inputs[0]
			req.Input = &v
			inputs = inputs[1:]
		case intcode.StateEnded.String():
			return outputs, nil
		default:
			return outputs, fmt.Errorf("server: run returned in state %s", resp.State)
		}
	}
}
