package server

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// The machine service exchanges plain Go structs rather than protobuf
// messages, so Connect is given its own codecs. Both read the json struct
// tags in messages.go.

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// cborCodec is the codec used by the Go client.
type cborCodec struct{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Marshal(msg any) ([]byte, error) {
	return cborEncMode.Marshal(msg)
}

func (cborCodec) Unmarshal(data []byte, msg any) error {
	if err := cbor.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("server: unmarshal cbor: %w", err)
	}
	return nil
}

// jsonCodec replaces Connect's protobuf-only JSON codec so that curl and
// browsers can talk to the service.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("server: unmarshal json: %w", err)
	}
	return nil
}
