// Command corejit drives a hand-built opcode script through the JIT
// core for manual inspection: since a source-text front end is out of
// scope (spec.md's own non-goals), this binary ships its scenarios as
// internal/builder call sequences rather than parsing anything from
// disk, the same role wazero's own cmd/wazero run subcommand plays for
// a compiled wasm binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/silkjs/corejit/internal/config"
	"github.com/silkjs/corejit/internal/runtime"
	"github.com/silkjs/corejit/pkg/engine"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr))
}

// doMain is separated from main for testability, matching the
// teacher's own cmd/wazero split.
func doMain(stdOut, stdErr io.Writer) int {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "Prints usage.")
	var list bool
	flag.BoolVar(&list, "list", false, "Lists the available scenarios and exits.")
	var name string
	flag.StringVar(&name, "scenario", "", "Runs only the named scenario instead of every scenario.")
	var dumpIR bool
	flag.BoolVar(&dumpIR, "dump-ir", false, "Prints each scenario's compiled IR before running it.")
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to a corejit.toml configuration file.")

	flag.Parse()

	if help {
		printUsage(stdErr)
		return 0
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintln(stdErr, err)
			return 1
		}
		cfg = loaded
	}
	if dumpIR {
		cfg.Diag.DumpIR = true
	}

	all := scenarios()
	if list {
		for _, sc := range all {
			fmt.Fprintln(stdOut, sc.name)
		}
		return 0
	}

	failures := 0
	for _, sc := range all {
		if name != "" && sc.name != name {
			continue
		}
		if err := runScenario(stdOut, cfg, sc); err != nil {
			fmt.Fprintf(stdErr, "%s: %v\n", sc.name, err)
			failures++
		}
	}
	if failures > 0 {
		return 1
	}
	return 0
}

func runScenario(stdOut io.Writer, cfg config.EngineConfig, sc scenario) error {
	if cfg.Diag.DumpIR {
		fmt.Fprintln(stdOut, sc.mod.Format())
	}

	e := engine.New(cfg)
	defer e.Close()
	e.RegisterRuntimeFunctions(&demoHelpers{arena: e.Arena()})

	cm, err := e.RegisterModule(context.Background(), sc.mod)
	if err != nil {
		return fmt.Errorf("registering module: %w", err)
	}
	fn, ok := cm.Lookup(sc.fn)
	if !ok {
		return fmt.Errorf("function index %d not found in module %q", sc.fn, sc.mod.Name)
	}

	var retv runtime.Value
	status := fn(e.Handle(), nil, len(sc.argv), sc.argv, &retv)

	got := "<non-number>"
	if retv.Kind == runtime.TagNumber {
		got = fmt.Sprintf("%v", retv.AsNumber())
	}
	fmt.Fprintf(stdOut, "%s: status=%s retv=%s\n", sc.name, status.Kind(), got)

	if status.Kind() != runtime.StatusNormal {
		return fmt.Errorf("expected StatusNormal, got %s", status.Kind())
	}
	if retv.Kind != runtime.TagNumber || retv.AsNumber() != sc.want {
		return fmt.Errorf("expected %v, got %s", sc.want, got)
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "corejit: a manual harness for the JIT code-generation core")
	fmt.Fprintln(w, "usage: corejit [-scenario name] [-list] [-dump-ir] [-config path]")
	flag.CommandLine.SetOutput(w)
	flag.PrintDefaults()
}
