// Command zkmidc drives the L0..L3 pipeline (internal/driver) against a
// named in-process HIR fixture and prints the resulting Program's stats
// and, on request, its disassembled bytecode. It follows
// cmd/funxy/main.go's flag-dispatch-by-argv style, simplified to the one
// input source this module actually has: the fixtures package, since HIR
// parsing/serialization is outside the pipeline this binary demonstrates.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/latticec/zkmid/internal/bytecode"
	"github.com/latticec/zkmid/internal/diagnostics"
	"github.com/latticec/zkmid/internal/driver"
	"github.com/latticec/zkmid/internal/fixtures"
)

var fixtureByName = map[string]func() *fixtures.Program{
	"identity":        fixtures.Identity,
	"checked-add":     fixtures.CheckedAdd,
	"slice-push-back": fixtures.SlicePushBack,
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-show-bytecode] [-config path] <fixture>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Fixtures:\n")
	for name := range fixtureByName {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
}

func main() {
	var showBytecode bool
	var configPath string
	var fixtureName string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "-show-bytecode" || arg == "--show-bytecode":
			showBytecode = true
		case arg == "-config" || arg == "--config":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -config requires a path argument")
				os.Exit(1)
			}
			configPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "-"):
			fmt.Fprintf(os.Stderr, "Error: unrecognized flag %s\n", arg)
			usage()
			os.Exit(1)
		default:
			fixtureName = arg
		}
	}

	if fixtureName == "" {
		usage()
		os.Exit(1)
	}

	build, ok := fixtureByName[fixtureName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown fixture %q\n", fixtureName)
		usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	if showBytecode {
		cfg.ShowBytecode = true
	}

	prog := build()
	result, err := driver.Run(prog.Interner, prog.Main, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Internal error: %s\n", err)
		os.Exit(1)
	}

	if diagnostics.HasHardErrors(result.Errors) {
		diagnostics.Render(os.Stderr, result.Errors)
		os.Exit(1)
	}

	fmt.Println(result.Stats)

	if cfg.ShowBytecode {
		for _, fn := range result.Program.Functions {
			chunk, ok := result.Bytecode[fn.Name]
			if !ok {
				continue
			}
			printSection(fn.Name)
			fmt.Print(bytecode.Disassemble(chunk, fn.Name))
		}
	}
}

func loadConfig(explicitPath string) (*driver.PipelineConfig, error) {
	if explicitPath != "" {
		return driver.LoadConfig(explicitPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return driver.DefaultConfig(), nil
	}
	found, err := driver.FindConfig(cwd)
	if err != nil {
		return nil, err
	}
	if found == "" {
		return driver.DefaultConfig(), nil
	}
	return driver.LoadConfig(found)
}

// printSection prints a bold section header when stdout is a terminal,
// mirroring diagnostics.Render's own isatty-gated color decision.
func printSection(name string) {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Printf("\x1b[1m%s\x1b[0m\n", name)
	} else {
		fmt.Println(name)
	}
}
