// Command depgraph builds a recipe's transitive dependency graph and prints
// its nodes, edges, and package ids. It is the runnable entry point around
// the core package's resolver.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/depgraph/depgraph/log"
)

// command is one depgraph subcommand: Name/Args/ShortHelp/LongHelp for the
// usage table, Register for subcommand-specific flags, Run to execute.
type command interface {
	Name() string
	Args() string
	ShortHelp() string
	LongHelp() string
	Register(*flag.FlagSet)
	Run(*Ctx, []string) error
}

// Ctx is the per-invocation context threaded through every subcommand: where
// to write normal output and diagnostics, and the working directory Run
// resolves relative project.toml paths against.
type Ctx struct {
	Out, Err   *log.Logger
	WorkingDir string
}

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to get working directory:", err)
		os.Exit(1)
	}
	c := &Config{
		Args:       os.Args,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		WorkingDir: wd,
	}
	os.Exit(c.Run())
}

// Config specifies a full configuration for a depgraph execution.
type Config struct {
	WorkingDir     string
	Args           []string
	Stdout, Stderr io.Writer
}

// Run executes the configuration and returns a process exit code.
func (c *Config) Run() (exitCode int) {
	commands := []command{
		&graphCommand{},
		&idCommand{},
		&initCommand{},
	}

	outLogger := log.New(c.Stdout)
	errLogger := log.New(c.Stderr)

	usage := func() {
		errLogger.Logln("depgraph resolves a C/C++ recipe's transitive dependency graph")
		errLogger.Logln()
		errLogger.Logln("Usage: depgraph <command> <project.toml>")
		errLogger.Logln()
		errLogger.Logln("Commands:")
		errLogger.Logln()
		w := tabwriter.NewWriter(c.Stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
		}
		w.Flush()
		errLogger.Logln()
		errLogger.Logln("Use \"depgraph help <command>\" for more information about a command.")
	}

	cmdName, printHelp, exit := parseArgs(c.Args)
	if exit {
		usage()
		return 1
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(c.Stderr)
		cmd.Register(fs)
		resetUsage(errLogger, fs, cmdName, cmd.Args(), cmd.LongHelp())

		if printHelp {
			fs.Usage()
			return 1
		}
		if err := fs.Parse(c.Args[2:]); err != nil {
			return 1
		}

		ctx := &Ctx{Out: outLogger, Err: errLogger, WorkingDir: c.WorkingDir}
		if err := cmd.Run(ctx, fs.Args()); err != nil {
			errLogger.Logf("%v\n", err)
			return 1
		}
		return 0
	}

	errLogger.Logf("depgraph: %s: no such command\n", cmdName)
	usage()
	return 1
}

func resetUsage(logger *log.Logger, fs *flag.FlagSet, name, args, longHelp string) {
	var hasFlags bool
	var flagBlock bytes.Buffer
	flagWriter := tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		def := f.DefValue
		if def == "" {
			def = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, def)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		logger.Logf("Usage: depgraph %s %s\n", name, args)
		logger.Logln()
		logger.Logln(strings.TrimSpace(longHelp))
		if hasFlags {
			logger.Logln()
			logger.Logln("Flags:")
			logger.Logln()
			logger.Logln(flagBlock.String())
		}
	}
}

func parseArgs(args []string) (cmdName string, printHelp bool, exit bool) {
	isHelp := func(s string) bool {
		return strings.Contains(strings.ToLower(s), "help") || strings.ToLower(s) == "-h"
	}
	switch len(args) {
	case 0, 1:
		exit = true
	case 2:
		if isHelp(args[1]) {
			exit = true
		}
		cmdName = args[1]
	default:
		if isHelp(args[1]) {
			cmdName = args[2]
			printHelp = true
		} else {
			cmdName = args[1]
		}
	}
	return cmdName, printHelp, exit
}
