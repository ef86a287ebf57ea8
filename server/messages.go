package server

// Patch overwrites one memory word before the first run.
type Patch struct {
	Address int64 `json:"address"`
	Value   int64 `json:"value"`
}

type CreateSessionRequest struct {
	Program string  `json:"program"`
	Patches []Patch `json:"patches,omitempty"`
}

type CreateSessionResponse struct {
	SessionID    string `json:"sessionId"`
	MemoryLength int64  `json:"memoryLength"`
}

// RunRequest resumes a session. Input is consumed by at most one input
// instruction.
type RunRequest struct {
	SessionID string `json:"sessionId"`
	Input     *int64 `json:"input,omitempty"`
}

// RunResponse reports why the machine stopped. Output is set only when State
// is "output".
type RunResponse struct {
	Output       *int64 `json:"output,omitempty"`
	State        string `json:"state"`
	IP           int64  `json:"ip"`
	RelativeBase int64  `json:"relativeBase"`
	Steps        uint64 `json:"steps"`
}

type PeekRequest struct {
	SessionID string `json:"sessionId"`
	Address   int64  `json:"address"`
}

type PeekResponse struct {
	Value int64 `json:"value"`
}

type PokeRequest struct {
	SessionID string `json:"sessionId"`
	Address   int64  `json:"address"`
	Value     int64  `json:"value"`
}

type PokeResponse struct{}

type DestroySessionRequest struct {
	SessionID string `json:"sessionId"`
}

type DestroySessionResponse struct{}
