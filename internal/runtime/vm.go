package runtime

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spbots/koto/internal/bytecode"
)

// Initial register file size; grown on demand as frames stack up
const initialRegisterCount = 256

// registersPerFrame is the addressable window of one call frame
const registersPerFrame = 256

// Maximum call stack depth to prevent runaway recursion
const maxFrameCount = 4096

// pairOutputFlag marks an IteratorNext output register as pair-expecting:
// the VM unpacks a key/value pair into two adjacent registers.
const pairOutputFlag = 0x80

// Frame is one activation on the call stack. base is the frame's first
// register in the VM's register file; returnRegister is the caller-relative
// register that receives the callee's result.
type Frame struct {
	chunk          *bytecode.Chunk
	ip             int // caller resume point while a call is in flight
	base           int
	returnRegister byte
	function       *RuntimeFunction // nil for the entry frame
	callSite       int              // offset of the calling instruction in the caller's chunk
}

// VM executes chunks. A VM is single-threaded; to run scripts concurrently,
// spawn independent VMs (see the thread module) and communicate through
// deep-copied values.
type VM struct {
	registers []Value
	frames    []Frame

	// Globals shared across the VM; the core library and the prelude are
	// merged in at construction
	globals *ValueMap

	coreLib *CoreLib
	prelude *ValueMap

	out io.Writer
	ctx context.Context

	// stopCheck is polled at loop back-edges; returning true terminates
	// execution with an error
	stopCheck func() bool
}

// New creates a VM with the default core library and an empty prelude
func New() *VM {
	return NewWithPrelude(NewValueMap())
}

// NewWithPrelude creates a VM whose globals hold the core library modules
// plus the given prelude entries
func NewWithPrelude(prelude *ValueMap) *VM {
	vm := &VM{
		registers: make([]Value, 0, initialRegisterCount),
		frames:    make([]Frame, 0, 16),
		globals:   NewValueMap(),
		coreLib:   DefaultCoreLib(),
		prelude:   prelude,
		out:       os.Stdout,
	}
	vm.mergeGlobals()
	return vm
}

func (vm *VM) mergeGlobals() {
	for _, entry := range vm.coreLib.Modules().entries {
		vm.globals.Insert(entry.Key, entry.Value)
	}
	for _, entry := range vm.prelude.entries {
		vm.globals.Insert(entry.Key, entry.Value)
	}
}

// spawnSharedVM creates a VM with its own registers and call stack that
// shares this VM's globals and settings; used to run callbacks from host
// functions while a dispatch loop is active
func (vm *VM) spawnSharedVM() *VM {
	return &VM{
		registers: make([]Value, 0, initialRegisterCount),
		frames:    make([]Frame, 0, 8),
		globals:   vm.globals,
		coreLib:   vm.coreLib,
		prelude:   vm.prelude,
		out:       vm.out,
		ctx:       vm.ctx,
		stopCheck: vm.stopCheck,
	}
}

// SetOutput sets the writer used by io.print and the Debug instruction
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// Output returns the VM's output writer
func (vm *VM) Output() io.Writer { return vm.out }

// SetContext sets a context polled at loop back-edges for cancellation
func (vm *VM) SetContext(ctx context.Context) { vm.ctx = ctx }

// SetStopCheck installs an embedder hook polled at loop back-edges
func (vm *VM) SetStopCheck(check func() bool) { vm.stopCheck = check }

// Globals returns the VM's globals map
func (vm *VM) Globals() *ValueMap { return vm.globals }

// Prelude returns the VM's prelude map
func (vm *VM) Prelude() *ValueMap { return vm.prelude }

// CoreLib returns the VM's core library
func (vm *VM) CoreLib() *CoreLib { return vm.coreLib }

func (vm *VM) ensureRegisters(size int) {
	for len(vm.registers) < size {
		vm.registers = append(vm.registers, Empty{})
	}
}

func (vm *VM) register(base int, r byte) Value {
	i := base + int(r)
	if i >= len(vm.registers) || vm.registers[i] == nil {
		return Empty{}
	}
	return vm.registers[i]
}

func (vm *VM) setRegister(base int, r byte, v Value) {
	i := base + int(r)
	vm.ensureRegisters(i + 1)
	vm.registers[i] = v
}

// GetArgs returns the argument values for a host function call: argCount
// contiguous registers starting at argBase
func (vm *VM) GetArgs(argBase, argCount int) []Value {
	args := make([]Value, argCount)
	for i := 0; i < argCount; i++ {
		if argBase+i < len(vm.registers) && vm.registers[argBase+i] != nil {
			args[i] = vm.registers[argBase+i]
		} else {
			args[i] = Empty{}
		}
	}
	return args
}

// Run executes a chunk from its start and returns the script's result
func (vm *VM) Run(chunk *bytecode.Chunk) (Value, error) {
	vm.frames = vm.frames[:0]
	vm.frames = append(vm.frames, Frame{chunk: chunk})
	vm.ensureRegisters(registersPerFrame)

	reader := bytecode.NewInstructionReader(chunk)
	return vm.execute(reader)
}

// RunFunction calls a function value with the given arguments, driving a
// shared child VM until the call completes. Host modules use this to invoke
// script callbacks.
func (vm *VM) RunFunction(fnValue Value, args []Value) (Value, error) {
	child := vm.spawnSharedVM()
	child.ensureRegisters(registersPerFrame)

	switch f := fnValue.(type) {
	case *ExternalFunction:
		for i, arg := range args {
			child.setRegister(0, byte(i), arg)
		}
		return f.Fn(child, 0, len(args))
	case *RuntimeFunction:
		for i, arg := range args {
			child.setRegister(0, byte(i), arg)
		}
		if err := child.prepareArgs(f, 0, len(args)); err != nil {
			return nil, err
		}
		child.frames = append(child.frames, Frame{
			chunk:    f.Chunk,
			base:     0,
			function: f,
		})
		reader := bytecode.NewInstructionReader(f.Chunk)
		reader.IP = f.IP
		return child.execute(reader)
	default:
		return nil, ExternalError("Unable to call '%s'", TypeAsString(fnValue))
	}
}

// prepareArgs validates a call's arity and collects variadic arguments into
// a trailing list. Arguments start at the given base register.
func (vm *VM) prepareArgs(f *RuntimeFunction, base int, provided int) error {
	expected := int(f.ArgCount)
	if f.IsVariadic {
		if provided < expected-1 {
			return ExternalError(
				"Insufficient arguments: expected at least %d, found %d",
				expected-1, provided)
		}
		varargs := NewValueList(provided - expected + 1)
		for i := expected - 1; i < provided; i++ {
			varargs.Push(vm.register(base, byte(i)))
		}
		vm.setRegister(base, byte(expected-1), varargs)
		return nil
	}
	if provided != expected {
		return ExternalError(
			"Incorrect argument count: expected %d, found %d", expected, provided)
	}
	return nil
}

// callValue performs a call from within the dispatch loop. reader is the
// active reader; on a script-function call the current frame's resume point
// is saved and the reader is redirected into the callee.
func (vm *VM) callValue(
	reader *bytecode.InstructionReader,
	fnValue Value,
	parent Value,
	hasParent bool,
	argRegister byte,
	argCount byte,
	returnRegister byte,
	callSite int,
) error {
	frame := &vm.frames[len(vm.frames)-1]

	switch f := fnValue.(type) {
	case *ExternalFunction:
		// a function accessed out of a map's own entries is a module
		// function: the map isn't passed as a self argument. Container
		// methods resolved through the core library keep their parent.
		if hasParent {
			if parentMap, ok := parent.(*ValueMap); ok && mapHoldsFunction(parentMap, f) {
				hasParent = false
			}
		}
		argBase := frame.base + int(argRegister)
		count := int(argCount)
		if hasParent {
			argBase--
			count++
			vm.ensureRegisters(argBase + 1)
			vm.registers[argBase] = parent
		}
		vm.ensureRegisters(argBase + count)
		result, err := f.Fn(vm, argBase, count)
		if err != nil {
			return err
		}
		if result == nil {
			result = Empty{}
		}
		vm.setRegister(frame.base, returnRegister, result)
		return nil
	case *RuntimeFunction:
		if len(vm.frames) >= maxFrameCount {
			return ExternalError("Call stack overflow")
		}
		newBase := frame.base + int(argRegister)
		provided := int(argCount)
		if hasParent && f.IsInstanceFunction {
			newBase--
			provided++
			vm.ensureRegisters(newBase + 1)
			vm.registers[newBase] = parent
		}
		if err := vm.prepareArgs(f, newBase, provided); err != nil {
			return err
		}
		frame.ip = reader.IP
		vm.frames = append(vm.frames, Frame{
			chunk:          f.Chunk,
			base:           newBase,
			returnRegister: returnRegister,
			function:       f,
			callSite:       callSite,
		})
		vm.ensureRegisters(newBase + registersPerFrame)
		reader.Chunk = f.Chunk
		reader.IP = f.IP
		return nil
	default:
		return ExternalError("Unable to call '%s'", TypeAsString(fnValue))
	}
}

func mapHoldsFunction(m *ValueMap, f *ExternalFunction) bool {
	for _, entry := range m.entries {
		if entry.Value == Value(f) {
			return true
		}
	}
	return false
}

// checkExecution is polled at loop back-edges: context cancellation and the
// embedder's stop hook both terminate the dispatch loop with an error
func (vm *VM) checkExecution() error {
	if vm.ctx != nil {
		if err := vm.ctx.Err(); err != nil {
			return fmt.Errorf("execution cancelled: %w", err)
		}
	}
	if vm.stopCheck != nil && vm.stopCheck() {
		return fmt.Errorf("execution stopped by the host")
	}
	return nil
}
