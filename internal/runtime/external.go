package runtime

import "fmt"

// ExternalFn is the host-function bridge: an implementation receives the VM,
// the base register holding the first argument, and the argument count.
// Arguments occupy contiguous registers starting at the base.
type ExternalFn func(vm *VM, argBase int, argCount int) (Value, error)

// ExternalFunction is an opaque callable implemented by the host
type ExternalFunction struct {
	Name string
	Fn   ExternalFn
}

func (*ExternalFunction) TypeName() string { return "ExternalFunction" }
func (f *ExternalFunction) String() string {
	return fmt.Sprintf("|%s|", f.Name)
}

// ExternalValue is an opaque host object carried through the runtime. Meta
// optionally provides named methods; Release frees any held resource. It
// runs only when the owning module calls it (from a close method, or from a
// finalizer the module installs) and is not tied to the value's scope.
// Release errors are swallowed.
type ExternalValue struct {
	Name    string
	Data    interface{}
	Meta    *ValueMap
	release func()
}

// NewExternalValue creates a host value with the given type name
func NewExternalValue(name string, data interface{}, meta *ValueMap) *ExternalValue {
	return &ExternalValue{Name: name, Data: data, Meta: meta}
}

func (v *ExternalValue) TypeName() string { return v.Name }
func (v *ExternalValue) String() string   { return v.Name }

// SetRelease attaches a resource release hook
func (v *ExternalValue) SetRelease(release func()) {
	v.release = release
}

// Release runs the release hook, once
func (v *ExternalValue) Release() {
	if v.release != nil {
		release := v.release
		v.release = nil
		release()
	}
}
