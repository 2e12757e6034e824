// Package join implements the parallel sorted-file equi-join: it
// partitions dataset A into byte ranges, derives the matching byte
// range of dataset B for each partition via a binary search, and runs
// one merge-join worker per partition, each writing its own output
// file.
package join

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/edulix/pjoin/internal/keylocator"
	"github.com/edulix/pjoin/internal/lineparser"
	"github.com/edulix/pjoin/internal/offsetio"
	"github.com/edulix/pjoin/internal/rangeline"
)

// Source identifies which input dataset an output field is drawn from.
type Source int

const (
	SourceA Source = 1
	SourceB Source = 2
)

func (s Source) String() string {
	switch s {
	case SourceA:
		return "1"
	case SourceB:
		return "2"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// OutputField names one field of the emitted row: source dataset plus
// the zero-based field index within that dataset's line.
type OutputField struct {
	Source Source
	Index  int
}

// ParseOutputSpec parses a comma-separated list of "S.I" tokens
// (S in {1,2}, I a zero-based field index) into an ordered OutputField
// list, such as "1.0,1.1,2.1,2.2".
func ParseOutputSpec(spec string) ([]OutputField, error) {
	tokens := strings.Split(spec, ",")
	fields := make([]OutputField, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		parts := strings.SplitN(tok, ".", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("join: malformed output field %q: want \"S.I\"", tok)
		}
		var source Source
		switch parts[0] {
		case "1":
			source = SourceA
		case "2":
			source = SourceB
		default:
			return nil, fmt.Errorf("join: malformed output field %q: source must be 1 or 2", tok)
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("join: malformed output field %q: bad field index", tok)
		}
		fields = append(fields, OutputField{Source: source, Index: idx})
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("join: output spec must name at least one field")
	}
	return fields, nil
}

// Config holds everything one join run needs, already validated by
// internal/config.
type Config struct {
	FilesA, FilesB []string
	Separator      byte
	FieldA, FieldB int
	Output         []OutputField
	OutputDir      string
	Jobs           int
	Verbose        bool
	Logger         *log.Logger
}

type planEntry struct {
	worker       int
	aStart, aEnd uint64
	bStart, bEnd uint64
}

// Run executes the full partitioned merge-join described by cfg,
// writing one output file per worker (named 0..Jobs-1) under
// cfg.OutputDir. It returns the first error observed by any worker.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Jobs < 1 {
		return fmt.Errorf("join: jobs must be >= 1, got %d", cfg.Jobs)
	}

	aInfos, err := offsetio.BuildFileInfos(cfg.FilesA)
	if err != nil {
		return fmt.Errorf("join: building file1 offset table: %w", err)
	}
	bInfos, err := offsetio.BuildFileInfos(cfg.FilesB)
	if err != nil {
		return fmt.Errorf("join: building file2 offset table: %w", err)
	}

	aReaders, err := rangeline.OpenPartitions(aInfos, uint64(cfg.Jobs))
	if err != nil {
		return fmt.Errorf("join: partitioning file1: %w", err)
	}

	// handoffs[i] carries the B-start offset into worker i; handoffs[0]
	// is pre-seeded with 0 by the driver per the spec's resolution of
	// partition-0 in B. handoffs[Jobs] is never read.
	handoffs := make([]chan uint64, cfg.Jobs+1)
	for i := range handoffs {
		handoffs[i] = make(chan uint64, 1)
	}
	handoffs[0] <- 0

	plan := make([]planEntry, cfg.Jobs)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Jobs; i++ {
		i := i
		g.Go(func() error {
			return runWorker(gctx, cfg, i, aReaders[i], bInfos, handoffs[i], handoffs[i+1], plan)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Verbose && cfg.Logger != nil {
		logPlan(cfg.Logger, plan)
	}
	return nil
}

func runWorker(ctx context.Context, cfg Config, i int, aReader *rangeline.Reader, bInfos []offsetio.FileInfo, in <-chan uint64, out chan<- uint64, plan []planEntry) error {
	lastLine, err := aReader.PeekLastLine()
	if err != nil {
		return fmt.Errorf("join: worker %d: peeking last line of file1 range: %w", i, err)
	}
	lastKey, err := keylocator.Key([]byte(lastLine), cfg.Separator, cfg.FieldA)
	if err != nil {
		return fmt.Errorf("join: worker %d: extracting key from file1's last line: %w", i, err)
	}
	bEnd, _, err := keylocator.Find(bInfos, cfg.Separator, cfg.FieldB, lastKey)
	if err != nil {
		return fmt.Errorf("join: worker %d: locating file2 end offset: %w", i, err)
	}

	var bStart uint64
	select {
	case bStart = <-in:
	case <-ctx.Done():
		return fmt.Errorf("join: worker %d: sibling partition failed: %w", i, ctx.Err())
	}

	select {
	case out <- bEnd:
	case <-ctx.Done():
		return fmt.Errorf("join: worker %d: sibling partition failed: %w", i, ctx.Err())
	}

	if bStart > bEnd {
		return fmt.Errorf("join: worker %d: invariant violated: file2 range start %d exceeds end %d (file2 is not sorted on field %d)", i, bStart, bEnd, cfg.FieldB)
	}

	plan[i] = planEntry{worker: i, aStart: aReader.Pos(), aEnd: aReader.End(), bStart: bStart, bEnd: bEnd}

	bReader, err := rangeline.OpenRange(bInfos, bStart, bEnd)
	if err != nil {
		return fmt.Errorf("join: worker %d: opening file2 range: %w", i, err)
	}

	outPath := filepath.Join(cfg.OutputDir, strconv.Itoa(i))
	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("join: worker %d: creating output file %s: %w", i, outPath, err)
	}
	defer outFile.Close()
	w := bufio.NewWriterSize(outFile, offsetio.BufferSize)

	if err := mergeJoin(aReader, bReader, cfg.Separator, cfg.FieldA, cfg.FieldB, cfg.Output, w); err != nil {
		return fmt.Errorf("join: worker %d: %w", i, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("join: worker %d: flushing output file %s: %w", i, outPath, err)
	}
	return nil
}

func mergeJoin(aReader, bReader lineparser.LineSource, separator byte, fieldA, fieldB int, output []OutputField, w *bufio.Writer) error {
	a := lineparser.New(aReader, separator, fieldA)
	b := lineparser.New(bReader, separator, fieldB)

	if err := a.Advance(); err != nil {
		return fmt.Errorf("reading file1: %w", err)
	}
	if err := b.Advance(); err != nil {
		return fmt.Errorf("reading file2: %w", err)
	}

	for a.HasCurrent() && b.HasCurrent() {
		ka, kb := a.Key(), b.Key()
		switch {
		case ka < kb:
			if err := a.Advance(); err != nil {
				return fmt.Errorf("reading file1: %w", err)
			}
		case ka > kb:
			if err := b.Advance(); err != nil {
				return fmt.Errorf("reading file2: %w", err)
			}
		default:
			if _, err := w.WriteString(formatRow(a, b, separator, output)); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if err := a.Advance(); err != nil {
				return fmt.Errorf("reading file1: %w", err)
			}
			if err := b.Advance(); err != nil {
				return fmt.Errorf("reading file2: %w", err)
			}
		}
	}
	return nil
}

func formatRow(a, b *lineparser.Parser, separator byte, output []OutputField) string {
	parts := make([]string, len(output))
	for i, f := range output {
		switch f.Source {
		case SourceA:
			parts[i] = a.Field(f.Index)
		case SourceB:
			parts[i] = b.Field(f.Index)
		}
	}
	return strings.Join(parts, string([]byte{separator})) + "\n"
}

func logPlan(logger *log.Logger, plan []planEntry) {
	logger.Printf("partition plan (%d workers):", len(plan))
	for _, p := range plan {
		logger.Printf(
			"  worker %d: file1 [%s, %s) (%s) -> file2 [%s, %s) (%s)",
			p.worker,
			humanize.Bytes(p.aStart), humanize.Bytes(p.aEnd), humanize.Bytes(p.aEnd-p.aStart),
			humanize.Bytes(p.bStart), humanize.Bytes(p.bEnd), humanize.Bytes(p.bEnd-p.bStart),
		)
	}
}
