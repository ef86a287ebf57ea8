package intcode

import (
	"errors"
	"fmt"
)

// Load-time errors
var (
	ErrParse = errors.New("malformed program listing")
)

// Execution errors. All of them are fatal for the VM that returned them.
var (
	ErrInvalidOpcode         = errors.New("invalid opcode")
	ErrInvalidAddressingMode = errors.New("invalid addressing mode")
	ErrNegativeAddress       = errors.New("negative address")
	ErrAddressOverflow       = errors.New("address beyond addressable memory")
	ErrIllegalImmediateWrite = errors.New("write parameter in immediate mode")
	ErrOutOfBounds           = errors.New("instruction pointer out of bounds")
)

// ErrInputExhausted is returned by RunAll when the program asks for more
// input than the caller supplied.
var ErrInputExhausted = errors.New("program waiting for input but none left")

// ParseError reports a token of a program listing that is not an integer.
type ParseError struct {
	Index int    // Position of the token in the listing (0-based)
	Token string // The offending token, trimmed
	Err   error  // Underlying strconv error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("intcode: token %d %q is not an integer: %v", e.Index, e.Token, e.Err)
}

// Unwrap makes errors.Is(err, ErrParse) hold for every ParseError.
func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// ExecError carries the instruction that failed alongside the cause.
type ExecError struct {
	IP   int64 // Address of the failing instruction
	Word int64 // Instruction word at IP, 0 if IP was out of bounds
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("intcode: ip=%d word=%d: %v", e.IP, e.Word, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
