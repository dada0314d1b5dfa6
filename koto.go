// Package koto is the embedder facade: it ties the loader, the compiler and
// the VM together, and manages the prelude that host modules register into.
package koto

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spbots/koto/internal/bytecode"
	"github.com/spbots/koto/internal/loader"
	"github.com/spbots/koto/internal/runtime"
)

// Settings controls optional behaviours of a Koto instance
type Settings struct {
	// RunTests runs the script's `tests` map before the script's result is
	// returned
	RunTests bool
	// ShowBytecode prints the disassembled bytecode before running
	ShowBytecode bool
	// ShowAnnotated prints instructions annotated with source lines
	ShowAnnotated bool
}

// Koto compiles and runs scripts
type Koto struct {
	settings   Settings
	loader     *loader.Loader
	prelude    *runtime.ValueMap
	vm         *runtime.VM
	chunk      *bytecode.Chunk
	scriptPath string
	args       []string
	out        io.Writer
	ctx        context.Context
}

// New creates a Koto instance with default settings
func New() *Koto {
	return WithSettings(Settings{})
}

// WithSettings creates a Koto instance
func WithSettings(settings Settings) *Koto {
	return &Koto{
		settings: settings,
		loader:   loader.NewLoader(),
		prelude:  runtime.NewValueMap(),
	}
}

// Prelude returns the prelude map; host modules registered here become
// globals when a script runs
func (k *Koto) Prelude() *runtime.ValueMap {
	return k.prelude
}

// Loader returns the module loader
func (k *Koto) Loader() *loader.Loader {
	return k.loader
}

// SetScriptPath records the running script's path, which feeds the koto
// module's script_path and script_dir entries
func (k *Koto) SetScriptPath(path string) {
	k.scriptPath = path
}

// SetArgs sets the arguments exposed through koto.args
func (k *Koto) SetArgs(args []string) {
	k.args = args
}

// SetOutput redirects the VM's output
func (k *Koto) SetOutput(w io.Writer) {
	k.out = w
}

// SetContext installs a context checked at loop back-edges
func (k *Koto) SetContext(ctx context.Context) {
	k.ctx = ctx
}

// Compile compiles a script, keeping the chunk for Run
func (k *Koto) Compile(script string) (*bytecode.Chunk, error) {
	chunk, err := k.loader.CompileScript(script, k.scriptPath)
	if err != nil {
		return nil, err
	}
	k.chunk = chunk
	return chunk, nil
}

// Run executes the compiled chunk
func (k *Koto) Run() (runtime.Value, error) {
	if k.chunk == nil {
		return nil, fmt.Errorf("no compiled script to run")
	}

	vm := runtime.NewWithPrelude(k.prelude)
	if k.out != nil {
		vm.SetOutput(k.out)
	}
	if k.settings.ShowBytecode {
		fmt.Fprintln(vm.Output(), bytecode.BytecodeToString(k.chunk))
	}
	if k.settings.ShowAnnotated {
		fmt.Fprintln(vm.Output(), bytecode.AnnotatedToString(k.chunk))
	}
	if k.ctx != nil {
		vm.SetContext(k.ctx)
	}
	k.vm = vm

	kotoModule := vm.CoreLib().Koto
	if k.scriptPath != "" {
		kotoModule.AddValue("script_path", runtime.Str(k.scriptPath))
		kotoModule.AddValue("script_dir", runtime.Str(filepath.Dir(k.scriptPath)))
	}
	scriptArgs := runtime.NewValueList(len(k.args))
	for _, arg := range k.args {
		scriptArgs.Push(runtime.Str(arg))
	}
	kotoModule.AddValue("args", scriptArgs)

	result, err := vm.Run(k.chunk)
	if err != nil {
		return nil, err
	}

	if k.settings.RunTests {
		if err := k.runTests(vm); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// RunScript compiles and runs a script in one step
func (k *Koto) RunScript(script string) (runtime.Value, error) {
	if _, err := k.Compile(script); err != nil {
		return nil, err
	}
	return k.Run()
}

// runTests looks for a `tests` map among the script's globals and drives
// its test_* entries through the test module
func (k *Koto) runTests(vm *runtime.VM) error {
	tests, found := vm.Globals().GetStr("tests")
	if !found {
		return nil
	}
	testsMap, ok := tests.(*runtime.ValueMap)
	if !ok {
		return nil
	}
	runTests, found := vm.CoreLib().Test.GetStr("run_tests")
	if !found {
		return nil
	}
	_, err := vm.RunFunction(runTests, []runtime.Value{testsMap})
	return err
}
