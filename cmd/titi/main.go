// Titi CLI - evaluate Titi expressions against a fresh engine context.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/titi-lang/titi/bridge"
	"github.com/titi-lang/titi/config"
	"github.com/titi-lang/titi/engine"
	"github.com/titi-lang/titi/engine/diag"
)

func main() {
	expr := flag.String("e", "", "Evaluate the given expression and print the result")
	configDir := flag.String("config", ".", "Directory to load titi.toml from")
	statsOut := flag.String("stats", "", "Write a CBOR diagnostics snapshot to this file on exit")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: titi [options] [script.titi]\n\n")
		fmt.Fprintf(os.Stderr, "Evaluates a Titi expression or script file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  titi -e 'x = 41; x'      # Evaluate an expression\n")
		fmt.Fprintf(os.Stderr, "  titi script.titi         # Evaluate a script file\n")
		fmt.Fprintf(os.Stderr, "  titi -stats out.cbor -e 'Bytes(1,2,3)'\n")
	}
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "titi: %v\n", err)
		os.Exit(1)
	}

	verbosity := cfg.Logging.Verbosity
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	source, filename, err := resolveSource(*expr, cfg, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "titi: %v\n", err)
		os.Exit(1)
	}

	vm := engine.New()
	vm.SetGCThreshold(cfg.Engine.GCThreshold)

	liveness := bridge.NewLiveness()
	if cfg.Engine.LivenessSweep {
		liveness.Install(vm)
	}
	evaluator := bridge.NewEvaluator(vm, liveness)

	result, err := evaluator.Eval(source, filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitWithStats(vm, *statsOut, 1)
	}

	switch r := result.(type) {
	case nil:
	case *bridge.Handle:
		fmt.Printf("<engine value>\n")
		r.Release()
	default:
		fmt.Printf("%v\n", r)
	}

	exitWithStats(vm, *statsOut, 0)
}

// resolveSource picks the expression, explicit script argument, or the
// configured script entry, in that order.
func resolveSource(expr string, cfg *config.Config, args []string) (source, filename string, err error) {
	if expr != "" {
		return expr, "<eval>", nil
	}

	path := ""
	switch {
	case len(args) > 0:
		path = args[0]
	case cfg.Script.Entry != "":
		path = filepath.Join(cfg.Dir, cfg.Script.Entry)
	default:
		return "", "", fmt.Errorf("nothing to evaluate (use -e or pass a script file)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(data), path, nil
}

// exitWithStats is the single exit path once a context exists: it dumps
// the optional snapshot, shuts the context down, and exits. os.Exit
// skips defers, so the shutdown happens here explicitly.
func exitWithStats(vm *engine.VM, statsPath string, code int) {
	if statsPath != "" {
		if err := writeStats(vm, statsPath); err != nil {
			fmt.Fprintf(os.Stderr, "titi: writing stats: %v\n", err)
		}
	}
	vm.Shutdown()
	os.Exit(code)
}

func writeStats(vm *engine.VM, path string) error {
	data, err := diag.Marshal(diag.Capture(vm))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
