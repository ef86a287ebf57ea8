package intcode

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("intcode.vm")

// State is the reason the last Run call returned.
type State int

const (
	StateInitial      State = iota // Run in progress, or never called
	StateWaitingInput              // Suspended on an Input instruction
	StateOutput                    // Suspended right after an Output instruction
	StateEnded                     // Halted; further calls return None again
	StateFaulted                   // A previous Run failed; the VM is unusable
	StateInterrupted               // RunContext stopped because its context ended
)

// interruptEvery is how many instructions RunContext executes between
// context checks.
const interruptEvery = 1 << 12

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateWaitingInput:
		return "waiting-input"
	case StateOutput:
		return "output"
	case StateEnded:
		return "ended"
	case StateFaulted:
		return "faulted"
	case StateInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Word is an optional machine word, passed into Run as input and returned
// from it as output.
type Word struct {
	Value int64
	Valid bool
}

// None is the absent Word.
var None = Word{}

// Some wraps v as a present Word.
func Some(v int64) Word {
	return Word{Value: v, Valid: true}
}

// Get returns the value and whether it is present.
func (w Word) Get() (int64, bool) {
	return w.Value, w.Valid
}

func (w Word) String() string {
	if !w.Valid {
		return "none"
	}
	return strconv.FormatInt(w.Value, 10)
}

// VM executes an IntCode program. A VM is not safe for concurrent use.
type VM struct {
	program Program
	mem     *Memory
	ip      int64 // Instruction pointer
	base    int64 // Relative base
	state   State
	steps   uint64 // Instructions retired
	err     error  // Sticky error once faulted
}

// New parses a program listing and returns a VM ready to run it.
func New(text string) (*VM, error) {
	prog, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return NewVM(prog), nil
}

// NewVM creates a VM for a parsed program. The program is copied.
func NewVM(prog Program) *VM {
	return &VM{
		program: prog.Clone(),
		mem:     NewMemory(prog),
	}
}

// Reset restores the initial memory image and registers.
func (vm *VM) Reset() {
	vm.mem = NewMemory(vm.program)
	vm.ip = 0
	vm.base = 0
	vm.state = StateInitial
	vm.steps = 0
	vm.err = nil
}

// State returns why the last Run call returned.
func (vm *VM) State() State { return vm.state }

// IP returns the instruction pointer.
func (vm *VM) IP() int64 { return vm.ip }

// RelativeBase returns the relative base register.
func (vm *VM) RelativeBase() int64 { return vm.base }

// Steps returns the number of instructions retired since creation or Reset.
func (vm *VM) Steps() uint64 { return vm.steps }

// Err returns the error that faulted the VM, if any.
func (vm *VM) Err() error { return vm.err }

// Program returns a copy of the initial program image.
func (vm *VM) Program() Program { return vm.program.Clone() }

// MemLen returns the current memory length in words.
func (vm *VM) MemLen() int64 { return vm.mem.Len() }

// Ram returns a copy of the memory image.
func (vm *VM) Ram() []int64 { return vm.mem.Snapshot() }

// Peek reads one memory word, extending memory like an operand read would.
func (vm *VM) Peek(addr int64) (int64, error) {
	return vm.mem.Load(addr)
}

// SetRam patches one memory word, typically before the first Run.
func (vm *VM) SetRam(addr, value int64) error {
	return vm.mem.Store(addr, value)
}

// Run executes instructions until the program produces an output, needs an
// input that was not supplied, or halts. The input is used by at most one
// Input instruction; if the call returns before one executes, it is dropped.
func (vm *VM) Run(input Word) (Word, error) {
	return vm.run(nil, input)
}

// RunContext is Run that gives up once ctx is done, returning ctx.Err() and
// leaving the VM in StateInterrupted. The VM is not faulted: the next call
// resumes at the instruction where it stopped. An input not yet consumed
// when the interruption happens is dropped.
func (vm *VM) RunContext(ctx context.Context, input Word) (Word, error) {
	return vm.run(ctx, input)
}

func (vm *VM) run(ctx context.Context, input Word) (Word, error) {
	if vm.state == StateFaulted {
		return None, vm.err
	}
	vm.state = StateInitial
	trace := log.AllowLevel(commonlog.Debug)

	for n := 0; ; n++ {
		if ctx != nil && n%interruptEvery == 0 {
			if err := ctx.Err(); err != nil {
				vm.state = StateInterrupted
				log.Debugf("interrupted at ip=%d: %v", vm.ip, err)
				return None, err
			}
		}

		ip := vm.ip
		if ip < 0 || ip >= vm.mem.Len() {
			return None, vm.fault(ip, 0, ErrOutOfBounds)
		}
		word := vm.mem.get(ip)
		in, err := Decode(word)
		if err != nil {
			return None, vm.fault(ip, word, err)
		}

		if trace {
			log.Debugf("[%06d] %-4s %d base=%d", ip, in.Op, word, vm.base)
		}

		out, yield, err := vm.execute(in, &input)
		if err != nil {
			return None, vm.fault(ip, word, err)
		}
		if yield {
			return out, nil
		}
	}
}

// RunAll runs the program to completion, handing out inputs one per Input
// instruction, and returns every output produced.
func (vm *VM) RunAll(inputs []int64) ([]int64, error) {
	var outputs []int64
	next := None
	for {
		out, err := vm.Run(next)
		if err != nil {
			return outputs, err
		}
		next = None

		switch vm.state {
		case StateOutput:
			outputs = append(outputs, out.Value)
		case StateWaitingInput:
			if len(inputs) == 0 {
				return outputs, &ExecError{IP: vm.ip, Word: vm.mem.get(vm.ip), Err: ErrInputExhausted}
			}
			next = Some(inputs[0])
			inputs = inputs[1:]
		case StateEnded:
			return outputs, nil
		default:
			return outputs, fmt.Errorf("intcode: run returned in state %s", vm.state)
		}
	}
}

// execute runs one decoded instruction. It reports whether Run should yield
// and, if so, the value to return.
func (vm *VM) execute(in Instruction, input *Word) (Word, bool, error) {
	switch in.Op {
	case OpAdd, OpMultiply, OpLessThan, OpEquals:
		a, err := vm.param(in, 1)
		if err != nil {
			return None, false, err
		}
		b, err := vm.param(in, 2)
		if err != nil {
			return None, false, err
		}
		var r int64
		switch in.Op {
		case OpAdd:
			r = a + b
		case OpMultiply:
			r = a * b
		case OpLessThan:
			r = boolWord(a < b)
		case OpEquals:
			r = boolWord(a == b)
		}
		if err := vm.write(in, 3, r); err != nil {
			return None, false, err
		}
		vm.retire(4)

	case OpInput:
		if !input.Valid {
			vm.state = StateWaitingInput
			return None, true, nil
		}
		if err := vm.write(in, 1, input.Value); err != nil {
			return None, false, err
		}
		*input = None
		vm.retire(2)

	case OpOutput:
		a, err := vm.param(in, 1)
		if err != nil {
			return None, false, err
		}
		vm.retire(2)
		vm.state = StateOutput
		return Some(a), true, nil

	case OpJumpIfTrue, OpJumpIfFalse:
		a, err := vm.param(in, 1)
		if err != nil {
			return None, false, err
		}
		b, err := vm.param(in, 2)
		if err != nil {
			return None, false, err
		}
		if (a != 0) == (in.Op == OpJumpIfTrue) {
			vm.ip = b
			vm.steps++
		} else {
			vm.retire(3)
		}

	case OpAdjustBase:
		a, err := vm.param(in, 1)
		if err != nil {
			return None, false, err
		}
		vm.base += a
		vm.retire(2)

	case OpHalt:
		vm.state = StateEnded
		return None, true, nil

	default:
		// Decode only hands out valid opcodes.
		return None, false, fmt.Errorf("%w: %d", ErrInvalidOpcode, int64(in.Op))
	}
	return None, false, nil
}

// param resolves the value of the 1-based parameter n.
func (vm *VM) param(in Instruction, n int) (int64, error) {
	raw, err := vm.mem.Load(vm.ip + int64(n))
	if err != nil {
		return 0, err
	}
	switch in.Mode(n) {
	case ModePosition:
		return vm.mem.Load(raw)
	case ModeImmediate:
		return raw, nil
	case ModeRelative:
		return vm.mem.Load(vm.base + raw)
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidAddressingMode, in.Mode(n))
}

// write stores value at the address named by the 1-based parameter n.
// Nothing is written if the address cannot be resolved.
func (vm *VM) write(in Instruction, n int, value int64) error {
	raw, err := vm.mem.Load(vm.ip + int64(n))
	if err != nil {
		return err
	}
	var addr int64
	switch in.Mode(n) {
	case ModePosition:
		addr = raw
	case ModeRelative:
		addr = vm.base + raw
	case ModeImmediate:
		return ErrIllegalImmediateWrite
	default:
		return fmt.Errorf("%w: %d", ErrInvalidAddressingMode, in.Mode(n))
	}
	return vm.mem.Store(addr, value)
}

func (vm *VM) retire(width int64) {
	vm.ip += width
	vm.steps++
}

func (vm *VM) fault(ip, word int64, err error) error {
	vm.state = StateFaulted
	vm.err = &ExecError{IP: ip, Word: word, Err: err}
	log.Debugf("fault at ip=%d: %s", ip, err.Error())
	return vm.err
}

func boolWord(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
