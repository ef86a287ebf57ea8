package intcode

import "fmt"

// Opcode represents an IntCode instruction selector, the low two decimal
// digits of an instruction word.
type Opcode int64

const (
	OpAdd         Opcode = 1  // mem[c] = a + b
	OpMultiply    Opcode = 2  // mem[c] = a * b
	OpInput       Opcode = 3  // mem[a] = next input, or suspend
	OpOutput      Opcode = 4  // yield a
	OpJumpIfTrue  Opcode = 5  // if a != 0 { ip = b }
	OpJumpIfFalse Opcode = 6  // if a == 0 { ip = b }
	OpLessThan    Opcode = 7  // mem[c] = a < b
	OpEquals      Opcode = 8  // mem[c] = a == b
	OpAdjustBase  Opcode = 9  // relative base += a
	OpHalt        Opcode = 99 // stop
)

// OpcodeInfo provides metadata about each opcode for decoding and disassembly.
type OpcodeInfo struct {
	Name  string // Mnemonic
	Arity int    // Number of parameter words following the opcode
	Write int    // 1-based index of the parameter written to, 0 if none
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpAdd:         {"ADD", 3, 3},
	OpMultiply:    {"MUL", 3, 3},
	OpInput:       {"IN", 1, 1},
	OpOutput:      {"OUT", 1, 0},
	OpJumpIfTrue:  {"JNZ", 2, 0},
	OpJumpIfFalse: {"JZ", 2, 0},
	OpLessThan:    {"LT", 3, 3},
	OpEquals:      {"EQ", 3, 3},
	OpAdjustBase:  {"ARB", 1, 0},
	OpHalt:        {"HALT", 0, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo named "UNKNOWN(n)" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(%d)", int64(op))}
}

// Valid reports whether op is one of the ten defined instructions.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Arity returns the number of parameters the opcode takes.
func (op Opcode) Arity() int {
	return GetOpcodeInfo(op).Arity
}

// InstructionLen returns the total length of an instruction in words.
func (op Opcode) InstructionLen() int {
	return 1 + op.Arity()
}

// WriteParam returns the 1-based index of the destination parameter, or 0
// if the instruction does not write memory.
func (op Opcode) WriteParam() int {
	return GetOpcodeInfo(op).Write
}

// IsJump returns true if this opcode may transfer control.
func (op Opcode) IsJump() bool {
	return op == OpJumpIfTrue || op == OpJumpIfFalse
}

// AllOpcodes returns all defined opcodes in numeric order.
func AllOpcodes() []Opcode {
	return []Opcode{
		OpAdd, OpMultiply, OpInput, OpOutput, OpJumpIfTrue,
		OpJumpIfFalse, OpLessThan, OpEquals, OpAdjustBase, OpHalt,
	}
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}

// Mode is a parameter addressing mode.
type Mode uint8

const (
	ModePosition  Mode = 0
	ModeImmediate Mode = 1
	ModeRelative  Mode = 2
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModePosition:
		return "position"
	case ModeImmediate:
		return "immediate"
	case ModeRelative:
		return "relative"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the three addressing modes.
func (m Mode) Valid() bool {
	return m <= ModeRelative
}
