// Package intcode provides a virtual machine for IntCode programs: a small
// register-less interpreter whose only storage is a growable array of signed
// 64-bit words.
//
// # Architecture Overview
//
// The package consists of four pieces:
//
//   - Program: the initial memory image, parsed from a comma-separated
//     listing such as "1,9,10,3,2,3,11,0,99,30,40,50".
//
//   - Decoder: splits an instruction word into an opcode (the low two
//     decimal digits) and three parameter modes (hundreds, thousands and
//     ten-thousands digits for the first, second and third parameter).
//
//   - Memory: a zero-filled word store that grows on demand whenever an
//     operand touches an address past its current end.
//
//   - VM: the fetch-decode-execute loop. It owns an instruction pointer and
//     a relative base and yields back to the caller at three points.
//
// # Execution Model
//
// A single call to Run executes instructions until one of:
//
//   - an Output instruction fires: Run returns Some(value) and the state is
//     StateOutput. The instruction pointer is already past the instruction.
//
//   - an Input instruction finds no value: Run returns None and the state is
//     StateWaitingInput. The instruction pointer still points at the Input
//     instruction, so the next call with a value re-executes it.
//
//   - the program halts (opcode 99): Run returns None and the state is
//     StateEnded.
//
// The caller is the scheduler. Batch execution is a loop over Run collecting
// outputs until StateEnded; pipelines feed one VM's output into another VM's
// next Run call. See package circuit for amplifier chains built this way.
//
// RunContext behaves like Run but also returns once its context ends, with
// the state StateInterrupted. An interrupted VM is not faulted; the next call
// continues where it stopped. Hosts use it to bound programs that never
// yield.
//
// # Addressing Modes
//
//   - Position (0): the parameter is an address.
//   - Immediate (1): the parameter is the value itself. Never valid for the
//     parameter an instruction writes to.
//   - Relative (2): the parameter is an address offset by the relative base.
//
// Every error is fatal for the VM instance that produced it. A VM that
// returned an error keeps returning it.
package intcode
