// Package batch parses a CSV column of addresses and writes one output
// column per record field.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/debug"
	"github.com/ehdc-llpg/addrparse/internal/store"
)

// ErrColumnNotFound is returned when the address column is not in the header
var ErrColumnNotFound = errors.New("address column not found")

var errEmptyAddress = errors.New("empty address")

// Recorder persists a run; *store.Store satisfies it
type Recorder interface {
	CreateRun(ctx context.Context, source, kind, locale string) (*store.Run, error)
	SaveResult(ctx context.Context, res store.Result) error
	FinishRun(ctx context.Context, id uuid.UUID) error
}

// Options control a batch run
type Options struct {
	// Column is the header name holding the address; empty means the first column
	Column string
	Kind   addrparse.Kind
	// Locale is "US", "CA", or ""/"auto" to detect per line
	Locale  string
	Workers int
}

// BatchStats tracks batch processing statistics
type BatchStats struct {
	RunID          uuid.UUID
	TotalRows      int
	ParsedCount    int
	UnmatchedCount int
	ErrorCount     int
	ProcessingTime time.Duration
}

// BatchProcessor runs CSV files through the parser
type BatchProcessor struct {
	parser   *addrparse.Parser
	recorder Recorder
	opts     Options
}

// NewBatchProcessor creates a batch processor; recorder may be nil
func NewBatchProcessor(p *addrparse.Parser, recorder Recorder, opts Options) *BatchProcessor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Kind == "" {
		opts.Kind = addrparse.KindLocation
	}
	return &BatchProcessor{parser: p, recorder: recorder, opts: opts}
}

type lineResult struct {
	record address.Record
	locale address.Locale
	err    error
}

// Process reads CSV from in and writes the input columns followed by locale,
// status and every record field to out
func (bp *BatchProcessor) Process(ctx context.Context, localDebug bool, source string, in io.Reader, out io.Writer) (*BatchStats, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	startTime := time.Now()
	stats := &BatchStats{RunID: uuid.New()}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	col, err := columnIndex(header, bp.opts.Column)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}
	stats.TotalRows = len(rows)
	debug.DebugOutput(localDebug, "Read %d rows from %s, address column %q", stats.TotalRows, source, header[col])

	if bp.recorder != nil {
		run, err := bp.recorder.CreateRun(ctx, source, string(bp.opts.Kind), localeLabel(bp.opts.Locale))
		if err != nil {
			return nil, err
		}
		stats.RunID = run.ID
	}

	results := bp.parseAll(ctx, rows, col)

	writer := csv.NewWriter(out)
	outHeader := append(append([]string{}, header...), "locale", "status")
	outHeader = append(outHeader, address.FieldNames...)
	if err := writer.Write(outHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		res := results[i]
		status := "parsed"
		switch {
		case res.err != nil:
			status = "error"
			stats.ErrorCount++
			debug.DebugOutput(localDebug, "Error parsing row %d: %v", i+2, res.err)
		case res.record == nil:
			status = "unmatched"
			stats.UnmatchedCount++
		default:
			stats.ParsedCount++
		}

		line := append(append([]string{}, row...), string(res.locale), status)
		for _, f := range address.FieldNames {
			line = append(line, res.record[f])
		}
		if err := writer.Write(line); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}

		if bp.recorder != nil {
			saved := store.Result{
				RunID:  stats.RunID,
				LineNo: i + 2,
				Raw:    cell(row, col),
				Locale: string(res.locale),
				Fields: store.JSONRecord(res.record),
			}
			if res.err != nil {
				saved.Error = res.err.Error()
			}
			if err := bp.recorder.SaveResult(ctx, saved); err != nil {
				return nil, err
			}
		}

		if (i+1)%1000 == 0 {
			log.Printf("Processed %d/%d rows...", i+1, stats.TotalRows)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush output: %w", err)
	}

	if bp.recorder != nil {
		if err := bp.recorder.FinishRun(ctx, stats.RunID); err != nil {
			return nil, err
		}
	}

	stats.ProcessingTime = time.Since(startTime)
	debug.DebugOutput(localDebug, "Batch processing complete:")
	debug.DebugOutput(localDebug, "  Rows: %d", stats.TotalRows)
	debug.DebugOutput(localDebug, "  Parsed: %d", stats.ParsedCount)
	debug.DebugOutput(localDebug, "  Unmatched: %d", stats.UnmatchedCount)
	debug.DebugOutput(localDebug, "  Errors: %d", stats.ErrorCount)
	debug.DebugOutput(localDebug, "  Processing time: %v", stats.ProcessingTime)

	return stats, nil
}

// parseAll fans rows out to the workers; results keep input order
func (bp *BatchProcessor) parseAll(ctx context.Context, rows [][]string, col int) []lineResult {
	results := make([]lineResult, len(rows))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < bp.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = bp.parseOne(cell(rows[i], col))
			}
		}()
	}

	for i := range rows {
		if ctx.Err() != nil {
			results[i] = lineResult{err: ctx.Err()}
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func (bp *BatchProcessor) parseOne(text string) lineResult {
	if strings.TrimSpace(text) == "" {
		return lineResult{err: errEmptyAddress}
	}
	r, locale, err := bp.parser.Parse(bp.opts.Kind, bp.opts.Locale, text)
	return lineResult{record: r, locale: locale, err: err}
}

func columnIndex(header []string, name string) (int, error) {
	if len(header) == 0 {
		return 0, fmt.Errorf("%w: empty header", ErrColumnNotFound)
	}
	if name == "" {
		return 0, nil
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func localeLabel(l string) string {
	if strings.TrimSpace(l) == "" {
		return addrparse.AutoLocale
	}
	return strings.ToLower(l)
}
