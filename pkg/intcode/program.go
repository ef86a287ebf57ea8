package intcode

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Program is the initial memory image of an IntCode program.
type Program []int64

// Parse reads a comma-separated listing of signed integers. Whitespace
// around the listing and around each token is ignored.
func Parse(text string) (Program, error) {
	tokens := strings.Split(strings.TrimSpace(text), ",")
	prog := make(Program, 0, len(tokens))
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, &ParseError{Index: i, Token: tok, Err: err}
		}
		prog = append(prog, v)
	}
	return prog, nil
}

// ReadProgram parses a listing from r.
func ReadProgram(r io.Reader) (Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read program: %w", err)
	}
	return Parse(string(data))
}

// LoadFile parses the listing stored at path.
func LoadFile(path string) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	prog, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// String renders the canonical comma-separated listing.
func (p Program) String() string {
	var sb strings.Builder
	for i, w := range p {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(w, 10))
	}
	return sb.String()
}

// Clone returns an independent copy of the program.
func (p Program) Clone() Program {
	if p == nil {
		return nil
	}
	out := make(Program, len(p))
	copy(out, p)
	return out
}
