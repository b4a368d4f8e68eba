package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gnana997/bagsakan/pkg/config"
	"github.com/gnana997/bagsakan/pkg/generator"
	mcpserver "github.com/gnana997/bagsakan/pkg/mcp"
	"github.com/gnana997/bagsakan/pkg/mcplog"
	"github.com/gnana997/bagsakan/pkg/util"
)

const version = "0.1.0-dev"

// Exit codes: 0 success (including no changes), 1 config/read/write errors,
// 2 parse errors, conflicts, or a failed check.
const (
	exitOK    = 0
	exitError = 1
	exitFatal = 2
)

func main() {
	command := "generate"
	args := os.Args[1:]
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	switch command {
	case "generate":
		os.Exit(runGenerate())
	case "check":
		os.Exit(runCheck())
	case "watch":
		os.Exit(runWatch())
	case "serve":
		os.Exit(runServe(args))
	case "version":
		fmt.Printf("bagsakan %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(exitError)
	}
}

// setup loads the configuration from the working directory and builds a
// generator with a matching logger.
func setup() (*generator.Generator, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}

	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(cfg.LogLevel),
		Format: util.LogFormat(cfg.LogFormat),
		Output: os.Stderr,
	})
	util.SetDefault(logger)

	return generator.New(cfg, logger)
}

func runGenerate() int {
	gen, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
		return exitError
	}
	defer gen.Close()

	report, err := gen.Run()
	printDiagnostics(report)

	switch {
	case errors.Is(err, generator.ErrFatalDiagnostics):
		return exitFatal
	case err != nil:
		fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
		return exitError
	}

	if report.Written {
		fmt.Printf("wrote %s (%d validators, %d helpers)\n",
			report.OutputPath, report.Validators, report.Helpers)
	} else {
		fmt.Printf("%s is up to date\n", report.OutputPath)
	}
	return exitOK
}

func runCheck() int {
	gen, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
		return exitError
	}
	defer gen.Close()

	report, upToDate, err := gen.Check()
	printDiagnostics(report)

	switch {
	case errors.Is(err, generator.ErrFatalDiagnostics):
		return exitFatal
	case err != nil:
		fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
		return exitError
	}

	if !upToDate {
		fmt.Fprintf(os.Stderr, "%s is out of date; run bagsakan to regenerate\n", report.OutputPath)
		return exitFatal
	}
	fmt.Printf("%s is up to date\n", report.OutputPath)
	return exitOK
}

func runWatch() int {
	gen, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
		return exitError
	}
	defer gen.Close()

	watcher, err := generator.NewWatcher(gen, func(report *generator.Report, err error) {
		printDiagnostics(report)
		if err != nil && !errors.Is(err, generator.ErrFatalDiagnostics) {
			fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
			return
		}
		if report.Written {
			fmt.Printf("wrote %s (%d validators, %d helpers)\n",
				report.OutputPath, report.Validators, report.Helpers)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
		return exitError
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
		return exitError
	}
	return exitOK
}

func runServe(args []string) int {
	logPath := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "--log" && i+1 < len(args) {
			i++
			logPath = args[i]
		}
	}

	logger, err := mcplog.NewLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bagsakan: %v\n", err)
		return exitError
	}

	srv := mcpserver.NewServer(logger)
	defer srv.Close()

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		return exitError
	}
	return exitOK
}

func printDiagnostics(report *generator.Report) {
	if report == nil {
		return
	}
	for _, diag := range report.Diagnostics {
		fmt.Fprintln(os.Stderr, diag.String())
	}
}

func printUsage() {
	fmt.Println("Usage: bagsakan [command]")
	fmt.Println()
	fmt.Println("Generates TypeScript runtime validators for the interfaces referenced")
	fmt.Println("by validator calls in your sources. Configuration is read from")
	fmt.Println("bagsakan.toml in the working directory; defaults apply when absent.")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  generate   Run the generator once (default)")
	fmt.Println("  check      Verify the validator file is up to date (CI gate)")
	fmt.Println("  watch      Regenerate whenever sources change")
	fmt.Println("  serve      Start the MCP server on stdio (--log <file> to log calls)")
	fmt.Println("  version    Print version")
	fmt.Println("  help       Show this help message")
}
