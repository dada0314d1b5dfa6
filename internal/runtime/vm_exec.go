package runtime

import (
	"fmt"
	"math"

	"github.com/spbots/koto/internal/bytecode"
)

// execute is the dispatch loop: read an instruction, match on its opcode,
// mutate the register file. Every step that can fail produces an error
// value; the first unrecovered error aborts the loop.
func (vm *VM) execute(reader *bytecode.InstructionReader) (Value, error) {
	for {
		frame := &vm.frames[len(vm.frames)-1]
		instructionIP := reader.IP

		inst, err := reader.Next()
		if err != nil {
			return nil, &VmError{Message: err.Error(), Chunk: frame.chunk, Instruction: instructionIP}
		}
		if inst == nil {
			if len(vm.frames) > 1 {
				return nil, &VmError{
					Message:     "Unexpected end of bytecode inside a function call",
					Chunk:       frame.chunk,
					Instruction: instructionIP,
				}
			}
			return Empty{}, nil
		}

		var opErr error

		switch inst.Op {
		case bytecode.OP_COPY:
			vm.setRegister(frame.base, inst.Register, vm.register(frame.base, inst.Source))
		case bytecode.OP_DEEP_COPY:
			vm.setRegister(frame.base, inst.Register, DeepCopy(vm.register(frame.base, inst.Source)))
		case bytecode.OP_SET_EMPTY:
			vm.setRegister(frame.base, inst.Register, Empty{})
		case bytecode.OP_SET_TRUE:
			vm.setRegister(frame.base, inst.Register, Bool(true))
		case bytecode.OP_SET_FALSE:
			vm.setRegister(frame.base, inst.Register, Bool(false))

		case bytecode.OP_RETURN:
			result := vm.register(frame.base, inst.Register)
			popped := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return result, nil
			}
			caller := &vm.frames[len(vm.frames)-1]
			reader.Chunk = caller.chunk
			reader.IP = caller.ip
			vm.setRegister(caller.base, popped.returnRegister, result)

		case bytecode.OP_LOAD_NUMBER, bytecode.OP_LOAD_NUMBER_LONG:
			constant, ok := frame.chunk.Constants.Get(inst.Constant)
			if !ok || constant.Kind != bytecode.ConstantKindNumber {
				opErr = fmt.Errorf("invalid number constant index %d", inst.Constant)
				break
			}
			vm.setRegister(frame.base, inst.Register, Number(constant.Number))
		case bytecode.OP_LOAD_STRING, bytecode.OP_LOAD_STRING_LONG:
			constant, ok := frame.chunk.Constants.Get(inst.Constant)
			if !ok || constant.Kind != bytecode.ConstantKindString {
				opErr = fmt.Errorf("invalid string constant index %d", inst.Constant)
				break
			}
			vm.setRegister(frame.base, inst.Register, Str(constant.Str))
		case bytecode.OP_LOAD_GLOBAL, bytecode.OP_LOAD_GLOBAL_LONG:
			constant, ok := frame.chunk.Constants.Get(inst.Constant)
			if !ok || constant.Kind != bytecode.ConstantKindString {
				opErr = fmt.Errorf("invalid global name constant index %d", inst.Constant)
				break
			}
			value, found := vm.globals.GetStr(constant.Str)
			if !found {
				opErr = fmt.Errorf("'%s' not found", constant.Str)
				break
			}
			vm.setRegister(frame.base, inst.Register, value)
		case bytecode.OP_SET_GLOBAL, bytecode.OP_SET_GLOBAL_LONG:
			constant, ok := frame.chunk.Constants.Get(inst.Constant)
			if !ok || constant.Kind != bytecode.ConstantKindString {
				opErr = fmt.Errorf("invalid global name constant index %d", inst.Constant)
				break
			}
			vm.globals.Insert(Str(constant.Str), vm.register(frame.base, inst.Source))

		case bytecode.OP_MAKE_LIST, bytecode.OP_MAKE_LIST_LONG:
			vm.setRegister(frame.base, inst.Register, NewValueList(inst.Count))
		case bytecode.OP_MAKE_MAP, bytecode.OP_MAKE_MAP_LONG:
			vm.setRegister(frame.base, inst.Register, NewValueMapWithCapacity(inst.Count))
		case bytecode.OP_MAKE_VEC4:
			value, err := vm.makeVec4(frame.base, inst.Source, inst.Count)
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, value)
		case bytecode.OP_MAKE_ITERATOR:
			iterator, err := MakeIterator(vm.register(frame.base, inst.Source))
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, iterator)

		case bytecode.OP_FUNCTION, bytecode.OP_INSTANCE_FUNCTION:
			opErr = vm.makeFunction(reader, frame, inst)

		case bytecode.OP_CAPTURE:
			opErr = fmt.Errorf("unexpected Capture instruction outside function construction")
		case bytecode.OP_LOAD_CAPTURE:
			if frame.function == nil || frame.function.Captures == nil {
				opErr = fmt.Errorf("no captures in the current frame")
				break
			}
			value, ok := frame.function.Captures.Get(int(inst.Source))
			if !ok {
				opErr = fmt.Errorf("invalid capture index %d", inst.Source)
				break
			}
			vm.setRegister(frame.base, inst.Register, value)
		case bytecode.OP_SET_CAPTURE:
			if frame.function == nil || frame.function.Captures == nil {
				opErr = fmt.Errorf("no captures in the current frame")
				break
			}
			if !frame.function.Captures.Set(int(inst.Register), vm.register(frame.base, inst.Source)) {
				opErr = fmt.Errorf("invalid capture index %d", inst.Register)
			}

		case bytecode.OP_RANGE, bytecode.OP_RANGE_INCLUSIVE:
			start, err := vm.rangeBound(frame.base, inst.Source)
			if err != nil {
				opErr = err
				break
			}
			end, err := vm.rangeBound(frame.base, inst.Source2)
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, Range{
				Start:     start,
				End:       end,
				Inclusive: inst.Op == bytecode.OP_RANGE_INCLUSIVE,
			})
		case bytecode.OP_RANGE_TO, bytecode.OP_RANGE_TO_INCLUSIVE:
			end, err := vm.rangeBound(frame.base, inst.Source)
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, Range{
				End:       end,
				Inclusive: inst.Op == bytecode.OP_RANGE_TO_INCLUSIVE,
			})
		case bytecode.OP_RANGE_FROM:
			start, err := vm.rangeBound(frame.base, inst.Source)
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, Range{Start: start, End: math.MaxInt64})
		case bytecode.OP_RANGE_FULL:
			vm.setRegister(frame.base, inst.Register, Range{End: math.MaxInt64})

		case bytecode.OP_NEGATE:
			value, err := vm.negate(vm.register(frame.base, inst.Source))
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, value)

		case bytecode.OP_ADD, bytecode.OP_SUBTRACT, bytecode.OP_MULTIPLY,
			bytecode.OP_DIVIDE, bytecode.OP_MODULO:
			result, err := vm.binaryOp(inst.Op,
				vm.register(frame.base, inst.Source),
				vm.register(frame.base, inst.Source2))
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, result)

		case bytecode.OP_LESS, bytecode.OP_LESS_OR_EQUAL, bytecode.OP_GREATER,
			bytecode.OP_GREATER_OR_EQUAL, bytecode.OP_EQUAL, bytecode.OP_NOT_EQUAL:
			result, err := vm.compareOp(inst.Op,
				vm.register(frame.base, inst.Source),
				vm.register(frame.base, inst.Source2))
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, result)

		case bytecode.OP_JUMP:
			reader.IP += inst.Offset
		case bytecode.OP_JUMP_TRUE:
			truthy, err := vm.truthiness(vm.register(frame.base, inst.Register))
			if err != nil {
				opErr = err
				break
			}
			if truthy {
				reader.IP += inst.Offset
			}
		case bytecode.OP_JUMP_FALSE:
			truthy, err := vm.truthiness(vm.register(frame.base, inst.Register))
			if err != nil {
				opErr = err
				break
			}
			if !truthy {
				reader.IP += inst.Offset
			}
		case bytecode.OP_JUMP_BACK:
			if err := vm.checkExecution(); err != nil {
				opErr = err
				break
			}
			reader.IP -= inst.Offset
		case bytecode.OP_JUMP_BACK_FALSE:
			if err := vm.checkExecution(); err != nil {
				opErr = err
				break
			}
			truthy, err := vm.truthiness(vm.register(frame.base, inst.Register))
			if err != nil {
				opErr = err
				break
			}
			if !truthy {
				reader.IP -= inst.Offset
			}

		case bytecode.OP_CALL:
			fn := vm.register(frame.base, inst.Register)
			opErr = vm.callValue(reader, fn, nil, false,
				inst.Source, inst.ArgCount, inst.Register, instructionIP)
		case bytecode.OP_CALL_CHILD:
			fn := vm.register(frame.base, inst.Register)
			parent := vm.register(frame.base, inst.Source)
			opErr = vm.callValue(reader, fn, parent, true,
				inst.Source2, inst.ArgCount, inst.Register, instructionIP)

		case bytecode.OP_ITERATOR_NEXT:
			if err := vm.checkExecution(); err != nil {
				opErr = err
				break
			}
			iterator, ok := vm.register(frame.base, inst.Source).(*ValueIterator)
			if !ok {
				opErr = fmt.Errorf("expected Iterator, found '%s'",
					TypeAsString(vm.register(frame.base, inst.Source)))
				break
			}
			out, done, err := iterator.Next()
			if err != nil {
				opErr = err
				break
			}
			if done {
				reader.IP += inst.Offset
				break
			}
			if inst.Register&pairOutputFlag != 0 {
				output := inst.Register &^ pairOutputFlag
				if out.IsPair {
					vm.setRegister(frame.base, output, out.Value)
					vm.setRegister(frame.base, output+1, out.Second)
				} else {
					vm.setRegister(frame.base, output, out.Value)
					vm.setRegister(frame.base, output+1, Empty{})
				}
			} else {
				if out.IsPair {
					vm.setRegister(frame.base, inst.Register,
						NewTuple([]Value{out.Value, out.Second}))
				} else {
					vm.setRegister(frame.base, inst.Register, out.Value)
				}
			}

		case bytecode.OP_EXPRESSION_INDEX:
			source := vm.register(frame.base, inst.Source)
			var result Value
			switch multi := source.(type) {
			case *Tuple:
				result = multi.Get(inst.Count)
			case *ValueList:
				if element, ok := multi.Get(inst.Count); ok {
					result = element
				} else {
					result = Empty{}
				}
			default:
				if inst.Count == 0 {
					result = source
				} else {
					result = Empty{}
				}
			}
			vm.setRegister(frame.base, inst.Register, result)

		case bytecode.OP_LIST_PUSH:
			list, ok := vm.register(frame.base, inst.Register).(*ValueList)
			if !ok {
				opErr = fmt.Errorf("expected List, found '%s'",
					TypeAsString(vm.register(frame.base, inst.Register)))
				break
			}
			list.Push(vm.register(frame.base, inst.Source))
		case bytecode.OP_LIST_UPDATE:
			opErr = vm.listUpdate(
				vm.register(frame.base, inst.Register),
				vm.register(frame.base, inst.Source),
				vm.register(frame.base, inst.Source2))
		case bytecode.OP_LIST_INDEX:
			result, err := vm.indexValue(
				vm.register(frame.base, inst.Source),
				vm.register(frame.base, inst.Source2))
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, result)

		case bytecode.OP_MAP_INSERT:
			mapValue, ok := vm.register(frame.base, inst.Register).(*ValueMap)
			if !ok {
				opErr = fmt.Errorf("expected Map, found '%s'",
					TypeAsString(vm.register(frame.base, inst.Register)))
				break
			}
			key := vm.register(frame.base, inst.Source)
			if !IsImmutable(key) {
				opErr = fmt.Errorf("only immutable values can be used as keys, found '%s'",
					TypeAsString(key))
				break
			}
			// '@'-prefixed keys address the map's meta side-table
			if name, ok := key.(Str); ok && len(name) > 0 && name[0] == '@' {
				if metaKey, found := MetaKeyFromName(string(name)); found {
					mapValue.SetMeta(metaKey, vm.register(frame.base, inst.Source2))
					break
				}
			}
			mapValue.Insert(key, vm.register(frame.base, inst.Source2))
		case bytecode.OP_MAP_ACCESS:
			result, err := vm.accessValue(
				vm.register(frame.base, inst.Source),
				vm.register(frame.base, inst.Source2))
			if err != nil {
				opErr = err
				break
			}
			vm.setRegister(frame.base, inst.Register, result)

		case bytecode.OP_DEBUG:
			constant, ok := frame.chunk.Constants.Get(inst.Constant)
			if !ok || constant.Kind != bytecode.ConstantKindString {
				opErr = fmt.Errorf("invalid debug constant index %d", inst.Constant)
				break
			}
			value := vm.register(frame.base, inst.Register)
			fmt.Fprintf(vm.out, "%s: %s\n", constant.Str, displayValue(value))

		default:
			opErr = fmt.Errorf("unhandled opcode %s", inst.Op)
		}

		if opErr != nil {
			recovered, finalErr := vm.recoverFromError(reader, instructionIP, opErr)
			if !recovered {
				return nil, finalErr
			}
		}
	}
}

// makeFunction handles OP_FUNCTION / OP_INSTANCE_FUNCTION: the capture
// instructions that follow the header are decoded as part of function
// construction, then the reader skips over the nested body.
func (vm *VM) makeFunction(reader *bytecode.InstructionReader, frame *Frame, inst *bytecode.Instruction) error {
	argCount := inst.ArgCount
	variadic := argCount&variadicFlag != 0
	argCount &^= variadicFlag

	captureCount := int(inst.CaptureCount)
	captures := NewValueList(captureCount)
	captures.Resize(captureCount, Empty{})

	for i := 0; i < captureCount; i++ {
		capture, err := reader.Next()
		if err != nil {
			return err
		}
		if capture == nil || capture.Op != bytecode.OP_CAPTURE {
			return fmt.Errorf("expected Capture instruction while constructing a function")
		}
		if !captures.Set(int(capture.Source), vm.register(frame.base, capture.Source2)) {
			return fmt.Errorf("invalid capture target %d", capture.Source)
		}
	}

	entry := reader.IP
	fn := &RuntimeFunction{
		Chunk:              frame.chunk,
		IP:                 entry,
		EndIP:              entry + inst.Offset,
		ArgCount:           argCount,
		CaptureCount:       inst.CaptureCount,
		IsInstanceFunction: inst.Op == bytecode.OP_INSTANCE_FUNCTION,
		IsVariadic:         variadic,
		Captures:           captures,
	}
	vm.setRegister(frame.base, inst.Register, fn)
	reader.IP = entry + inst.Offset
	return nil
}

// variadicFlag marks a function header's arg count as variadic
const variadicFlag = 0x80

// catchAppliesToFrame filters guarded ranges to the frame that owns them: a
// function body compiled inside a guarded region would otherwise match a
// catch whose target lies outside the function
func (vm *VM) catchAppliesToFrame(frame *Frame, catch bytecode.CatchRange) bool {
	if frame.function == nil {
		return true
	}
	return catch.Target >= frame.function.IP && catch.Target < frame.function.EndIP
}

// recoverFromError implements error surfacing: the current frame's guarded
// ranges are consulted first; otherwise frames unwind, giving each caller's
// guarded ranges a chance at the call site, until the error reaches the
// embedder as a VmError attributed to the original failing instruction.
func (vm *VM) recoverFromError(reader *bytecode.InstructionReader, instructionIP int, err error) (bool, error) {
	message := err.Error()
	if withoutLocation, ok := err.(*ErrorWithoutLocation); ok {
		message = withoutLocation.Message
	} else if located, ok := err.(*VmError); ok {
		message = located.Message
	}

	located, isLocated := err.(*VmError)
	if !isLocated {
		located = &VmError{
			Message:     message,
			Chunk:       vm.frames[len(vm.frames)-1].chunk,
			Instruction: instructionIP,
		}
	}

	site := instructionIP
	for {
		frame := &vm.frames[len(vm.frames)-1]
		if catch, ok := frame.chunk.CatchForOffset(site); ok && vm.catchAppliesToFrame(frame, catch) {
			vm.setRegister(frame.base, catch.ErrorRegister, Str(message))
			reader.Chunk = frame.chunk
			reader.IP = catch.Target
			return true, nil
		}
		if len(vm.frames) == 1 {
			return false, located
		}
		popped := vm.frames[len(vm.frames)-1]
		vm.frames = vm.frames[:len(vm.frames)-1]
		site = popped.callSite
	}
}
