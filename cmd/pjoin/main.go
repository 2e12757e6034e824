// Command pjoin runs a parallel sorted-file equi-join over two
// ordered sets of files, writing one matched-row output file per
// worker into an existing output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/edulix/pjoin/internal/config"
	"github.com/edulix/pjoin/internal/join"
)

// repeatableFlag collects every occurrence of a flag.Value passed
// multiple times on the command line, in order, for -file1/-file2.
type repeatableFlag struct {
	values *[]string
}

func (f repeatableFlag) String() string {
	if f.values == nil {
		return ""
	}
	return strings.Join(*f.values, ",")
}

func (f repeatableFlag) Set(v string) error {
	*f.values = append(*f.values, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pjoin", flag.ContinueOnError)

	var cfgPath string
	var overrides config.Config
	fs.StringVar(&cfgPath, "config", "", "optional path to a JSON config file")
	fs.Var(repeatableFlag{&overrides.File1}, "file1", "file belonging to dataset 1 (repeatable, in order)")
	fs.Var(repeatableFlag{&overrides.File2}, "file2", "file belonging to dataset 2 (repeatable, in order)")
	fs.StringVar(&overrides.Separator, "separator", "", "single-character field separator (default \",\")")
	fs.IntVar(&overrides.Field1, "field1", 0, "zero-based key field index in dataset 1")
	fs.IntVar(&overrides.Field2, "field2", 0, "zero-based key field index in dataset 2")
	fs.StringVar(&overrides.OutputFields, "output-fields", "", "comma-separated \"S.I\" output field list, e.g. 1.0,2.1")
	fs.StringVar(&overrides.Output, "output", "", "existing directory to write per-worker output files into")
	fs.IntVar(&overrides.Jobs, "jobs", 0, "worker count (default: number of CPUs)")
	fs.BoolVar(&overrides.Verbose, "verbose", false, "log the partition plan and worker progress")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg, err := config.Load(cfgPath, overrides, explicit)
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	outputFields, err := cfg.OutputSpec()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	runID := uuid.New()
	logger := newVerboseLogger(runID, cfg.Verbose)

	joinCfg := join.Config{
		FilesA:    cfg.File1,
		FilesB:    cfg.File2,
		Separator: cfg.SeparatorByte(),
		FieldA:    cfg.Field1,
		FieldB:    cfg.Field2,
		Output:    outputFields,
		OutputDir: cfg.Output,
		Jobs:      cfg.Jobs,
		Verbose:   cfg.Verbose,
		Logger:    logger,
	}

	if cfg.Verbose {
		logger.Printf("starting join: %d file1 file(s), %d file2 file(s), %d worker(s)", len(cfg.File1), len(cfg.File2), cfg.Jobs)
	}

	if err := join.Run(context.Background(), joinCfg); err != nil {
		log.Printf("join failed: %v", err)
		return 1
	}

	if cfg.Verbose {
		logger.Printf("join complete")
	}
	return 0
}

// newVerboseLogger builds the run-scoped logger every worker shares
// for -verbose output. Lines are prefixed with the run's correlation
// id; the prefix itself differs depending on whether output is an
// interactive terminal or being piped, favoring a terser prefix when a
// human is watching live.
func newVerboseLogger(runID uuid.UUID, verbose bool) *log.Logger {
	if !verbose {
		return log.New(os.Stderr, "", 0)
	}
	prefix := fmt.Sprintf("[pjoin %s] ", shortID(runID))
	if isatty.IsTerminal(os.Stderr.Fd()) {
		prefix = fmt.Sprintf("[%s] ", shortID(runID))
	}
	return log.New(os.Stderr, prefix, log.Ltime)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
