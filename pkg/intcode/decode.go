package intcode

import "fmt"

// Instruction is a decoded instruction word.
type Instruction struct {
	Op    Opcode
	Modes [3]Mode // Modes[0] is the first parameter
}

// Mode returns the addressing mode of the 1-based parameter n.
func (in Instruction) Mode(n int) Mode {
	return in.Modes[n-1]
}

// Decode splits an instruction word into its opcode and parameter modes.
// The opcode is validated before the modes.
func Decode(word int64) (Instruction, error) {
	op := Opcode(word % 100)
	if !op.Valid() {
		return Instruction{}, fmt.Errorf("%w: %d", ErrInvalidOpcode, int64(op))
	}

	var in Instruction
	in.Op = op
	digits := word / 100
	for i := range in.Modes {
		m := Mode(digits % 10)
		if !m.Valid() {
			return Instruction{}, fmt.Errorf("%w: digit %d for parameter %d", ErrInvalidAddressingMode, int64(m), i+1)
		}
		in.Modes[i] = m
		digits /= 10
	}
	return in, nil
}

// Encode builds an instruction word from an opcode and up to three modes.
// It is the inverse of Decode and is used by tests and tooling.
func Encode(op Opcode, modes ...Mode) int64 {
	word := int64(op)
	scale := int64(100)
	for _, m := range modes {
		word += int64(m) * scale
		scale *= 10
	}
	return word
}
