package intcode

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func Disassemble(p Program) string {
	return DisassembleWithName(p, "")
}

// DisassembleWithName returns a listing with a name header.
//
// Operands are written as [n] for position mode, #n for immediate mode and
// rb+n / rb-n for relative mode. Words that do not decode, or whose operands
// run past the end of the program, are listed as DATA.
func DisassembleWithName(p Program, name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; %d words\n", len(p)))

	offset := 0
	for offset < len(p) {
		line, width := disassembleInstruction(p, offset)
		raw := make([]string, width)
		for i := range raw {
			raw[i] = strconv.FormatInt(p[offset+i], 10)
		}
		sb.WriteString(fmt.Sprintf("%04d  %-28s %s\n", offset, strings.Join(raw, ","), line))
		offset += width
	}

	return sb.String()
}

// disassembleInstruction disassembles a single instruction at the given
// offset. Returns the formatted string and the instruction length in words.
func disassembleInstruction(p Program, offset int) (string, int) {
	word := p[offset]
	in, err := Decode(word)
	if err != nil || offset+in.Op.InstructionLen() > len(p) {
		return fmt.Sprintf("DATA %d", word), 1
	}

	arity := in.Op.Arity()
	if arity == 0 {
		return in.Op.String(), 1
	}

	ops := make([]string, 0, arity)
	for n := 1; n <= arity; n++ {
		operand := formatOperand(in.Mode(n), p[offset+n])
		if n == in.Op.WriteParam() && n > 1 {
			operand = "-> " + operand
		}
		ops = append(ops, operand)
	}

	sep := ", "
	line := in.Op.String() + " " + strings.Join(ops, sep)
	return strings.Replace(line, sep+"-> ", " -> ", 1), arity + 1
}

func formatOperand(m Mode, raw int64) string {
	switch m {
	case ModeImmediate:
		return "#" + strconv.FormatInt(raw, 10)
	case ModeRelative:
		if raw < 0 {
			return "rb" + strconv.FormatInt(raw, 10)
		}
		return "rb+" + strconv.FormatInt(raw, 10)
	default:
		return "[" + strconv.FormatInt(raw, 10) + "]"
	}
}
