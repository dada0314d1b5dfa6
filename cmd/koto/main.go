package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	koto "github.com/spbots/koto"
	jsonlib "github.com/spbots/koto/internal/libs/json"
	randomlib "github.com/spbots/koto/internal/libs/random"
	sqlitelib "github.com/spbots/koto/internal/libs/sqlite"
	tempfilelib "github.com/spbots/koto/internal/libs/tempfile"
	tomllib "github.com/spbots/koto/internal/libs/toml"
	yamllib "github.com/spbots/koto/internal/libs/yaml"
)

const version = "0.3.0"

func versionString() string {
	return fmt.Sprintf("Koto %s", version)
}

func helpString() string {
	return fmt.Sprintf(`%s

USAGE:
    koto [FLAGS] [script] [<args>...]

FLAGS:
    -i, --show_instructions  Show compiled instructions annotated with source lines
    -b, --show_bytecode      Show the script's compiled bytecode
    -t, --tests              Run the script's tests after running the script
    -h, --help               Prints help information
    -v, --version            Prints version information

ARGS:
    <script>     The koto script to run
    <args>...    Arguments to pass into the script
`, versionString())
}

type kotoArgs struct {
	help          bool
	version       bool
	runTests      bool
	showBytecode  bool
	showAnnotated bool
	script        string
	scriptArgs    []string
}

func parseArguments(args []string) (kotoArgs, error) {
	result := kotoArgs{}
	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		if len(arg) == 0 || arg[0] != '-' {
			break
		}
		switch arg {
		case "-h", "--help":
			result.help = true
		case "-v", "--version":
			result.version = true
		case "-t", "--tests":
			result.runTests = true
		case "-b", "--show_bytecode":
			result.showBytecode = true
		case "-i", "--show_instructions":
			result.showAnnotated = true
		default:
			return result, fmt.Errorf("unsupported argument: %s", arg)
		}
	}
	if i < len(args) {
		result.script = args[i]
		result.scriptArgs = args[i+1:]
	}
	return result, nil
}

// errorColor wraps a message in red when stderr is a terminal
func errorColor(message string) string {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return "\x1b[31m" + message + "\x1b[0m"
	}
	return message
}

func main() {
	args, err := parseArguments(os.Args[1:])
	if err != nil {
		fmt.Printf("%s\n\n%s\n", helpString(), err)
		os.Exit(1)
	}

	if args.help {
		fmt.Println(helpString())
		return
	}
	if args.version {
		fmt.Println(versionString())
		return
	}
	if args.script == "" {
		fmt.Println(helpString())
		return
	}

	settings := koto.Settings{
		RunTests:      args.runTests,
		ShowBytecode:  args.showBytecode,
		ShowAnnotated: args.showAnnotated,
	}

	k := koto.WithSettings(settings)

	prelude := k.Prelude()
	prelude.AddMap("json", jsonlib.MakeModule())
	prelude.AddMap("random", randomlib.MakeModule())
	prelude.AddMap("sqlite", sqlitelib.MakeModule())
	prelude.AddMap("tempfile", tempfilelib.MakeModule())
	prelude.AddMap("toml", tomllib.MakeModule())
	prelude.AddMap("yaml", yamllib.MakeModule())

	script, err := os.ReadFile(args.script)
	if err != nil {
		fmt.Fprintln(os.Stderr, errorColor(fmt.Sprintf("Unable to load script: %v", err)))
		os.Exit(1)
	}

	k.SetScriptPath(args.script)
	k.SetArgs(args.scriptArgs)

	if _, err := k.Compile(string(script)); err != nil {
		fmt.Fprintln(os.Stderr, errorColor(fmt.Sprintf("Error while compiling script: %v", err)))
		os.Exit(1)
	}

	if _, err := k.Run(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor(fmt.Sprintf("Runtime error: %v", err)))
		os.Exit(1)
	}
}
