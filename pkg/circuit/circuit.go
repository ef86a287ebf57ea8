// Package circuit chains IntCode machines into amplifier circuits.
//
// Every stage runs its own copy of the same program. A stage first reads its
// phase setting, then a signal, and answers with an amplified signal. In a
// series circuit the signal passes through each stage once. In a feedback
// circuit the last stage's output is fed back into the first until the last
// stage halts.
package circuit

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/xlab/treeprint"

	"github.com/chazu/intcode/pkg/intcode"
)

var log = commonlog.GetLogger("intcode.circuit")

var (
	ErrNoPhases        = errors.New("circuit: no phase settings")
	ErrNoSignal        = errors.New("circuit: stage produced no signal")
	ErrUnexpectedState = errors.New("circuit: stage returned in an unexpected state")
)

// StageError reports which stage of a circuit failed.
type StageError struct {
	Stage int
	Phase int64
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("circuit: stage %d (phase %d): %v", e.Stage, e.Phase, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Circuit runs one program on every stage.
type Circuit struct {
	Program intcode.Program

	// Setup, if set, prepares each stage's machine before it first runs.
	Setup func(*intcode.VM) error
}

// New returns a circuit for prog.
func New(prog intcode.Program) *Circuit {
	return &Circuit{Program: prog.Clone()}
}

// Result is the outcome of one phase ordering.
type Result struct {
	Phases  []int64
	Signals []int64 // Last signal each stage emitted
	Input   int64
	Signal  int64
}

// Tree renders the chain of stages for display.
func (r Result) Tree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("input %d", r.Input))
	branch := tree
	for i, phase := range r.Phases {
		var sig int64
		if i < len(r.Signals) {
			sig = r.Signals[i]
		}
		branch = branch.AddBranch(fmt.Sprintf("amp %s phase=%d signal=%d", stageName(i), phase, sig))
	}
	return tree
}

func stageName(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("#%d", i)
}

// RunSeries passes signal through one fresh machine per phase and returns the
// last stage's output.
func (c *Circuit) RunSeries(phases []int64, signal int64) (int64, error) {
	signals, err := c.series(phases, signal)
	if err != nil {
		return 0, err
	}
	return signals[len(signals)-1], nil
}

// RunFeedback wires the stages into a loop and returns the last signal the
// final stage emitted before it halted.
func (c *Circuit) RunFeedback(phases []int64, signal int64) (int64, error) {
	signals, err := c.feedback(phases, signal)
	if err != nil {
		return 0, err
	}
	return signals[len(signals)-1], nil
}

// Best tries every ordering of phases and returns the one giving the highest
// final signal for an input of zero. Ties keep the first ordering found.
func (c *Circuit) Best(phases []int64, feedback bool) (Result, error) {
	if len(phases) == 0 {
		return Result{}, ErrNoPhases
	}
	run := c.series
	if feedback {
		run = c.feedback
	}

	var best Result
	found := false
	for _, order := range Permutations(phases) {
		signals, err := run(order, 0)
		if err != nil {
			return Result{}, err
		}
		final := signals[len(signals)-1]
		if !found || final > best.Signal {
			best = Result{Phases: order, Signals: signals, Signal: final}
			found = true
		}
	}
	log.Debugf("best phases %v signal %d (feedback=%t)", best.Phases, best.Signal, feedback)
	return best, nil
}

func (c *Circuit) series(phases []int64, signal int64) ([]int64, error) {
	if len(phases) == 0 {
		return nil, ErrNoPhases
	}
	signals := make([]int64, len(phases))
	for i, phase := range phases {
		vm, err := c.stage()
		var out int64
		if err == nil {
			out, err = firstOutput(vm, phase, signal)
		}
		if err != nil {
			return nil, &StageError{Stage: i, Phase: phase, Err: err}
		}
		signal = out
		signals[i] = out
	}
	return signals, nil
}

func (c *Circuit) stage() (*intcode.VM, error) {
	vm := intcode.NewVM(c.Program)
	if c.Setup != nil {
		if err := c.Setup(vm); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

// firstOutput feeds inputs on demand until the machine produces a value.
func firstOutput(vm *intcode.VM, inputs ...int64) (int64, error) {
	next := intcode.None
	for {
		out, err := vm.Run(next)
		if err != nil {
			return 0, err
		}
		next = intcode.None
		if v, ok := out.Get(); ok {
			return v, nil
		}
		switch vm.State() {
		case intcode.StateWaitingInput:
			if len(inputs) == 0 {
				return 0, ErrNoSignal
			}
			next = intcode.Some(inputs[0])
			inputs = inputs[1:]
		case intcode.StateEnded:
			return 0, ErrNoSignal
		default:
			return 0, fmt.Errorf("%w: %s", ErrUnexpectedState, vm.State())
		}
	}
}

func (c *Circuit) feedback(phases []int64, signal int64) ([]int64, error) {
	if len(phases) == 0 {
		return nil, ErrNoPhases
	}
	n := len(phases)
	stages := make([]*intcode.VM, n)
	for i, phase := range phases {
		vm, err := c.stage()
		var out intcode.Word
		if err == nil {
			out, err = vm.Run(intcode.None)
		}
		if err == nil && (out.Valid || vm.State() != intcode.StateWaitingInput) {
			err = fmt.Errorf("%w: %s before reading its phase", ErrUnexpectedState, vm.State())
		}
		if err == nil {
			// The phase is consumed and the stage stalls waiting for a signal.
			out, err = vm.Run(intcode.Some(phase))
			if err == nil && (out.Valid || vm.State() != intcode.StateWaitingInput) {
				err = fmt.Errorf("%w: %s after reading its phase", ErrUnexpectedState, vm.State())
			}
		}
		if err != nil {
			return nil, &StageError{Stage: i, Phase: phase, Err: err}
		}
		stages[i] = vm
	}

	signals := make([]int64, n)
	emitted := make([]bool, n)
	for round := 0; ; round++ {
		for i, vm := range stages {
			out, err := vm.Run(intcode.Some(signal))
			if err != nil {
				return nil, &StageError{Stage: i, Phase: phases[i], Err: err}
			}
			if v, ok := out.Get(); ok {
				signal = v
				signals[i] = v
				emitted[i] = true
				continue
			}
			switch vm.State() {
			case intcode.StateEnded:
				if i == n-1 {
					if !emitted[i] {
						return nil, &StageError{Stage: i, Phase: phases[i], Err: ErrNoSignal}
					}
					log.Debugf("feedback %v settled after %d rounds", phases, round+1)
					return signals, nil
				}
			case intcode.StateWaitingInput:
				return nil, &StageError{Stage: i, Phase: phases[i], Err: ErrNoSignal}
			default:
				return nil, &StageError{Stage: i, Phase: phases[i], Err: fmt.Errorf("%w: %s", ErrUnexpectedState, vm.State())}
			}
		}
	}
}
