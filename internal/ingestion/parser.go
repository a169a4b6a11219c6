package ingestion

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mhorta/tfpulse/internal/domain/models"
	"github.com/mhorta/tfpulse/internal/storage"
)

// expectedHeaders enforces strict column ordering for bar CSV files.
// If the header doesn't match EXACTLY (order + count), ingestion must fail.
var expectedHeaders = []string{
	"time",
	"open",
	"high",
	"low",
	"close",
	"volume",
}

// timeLayouts are tried in order when parsing the time column. All
// values are interpreted as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseAndPersistFile opens, validates, parses, and persists one bar file in batches.
// It fails on:
//   - header not matching expected order/length
//   - a missing or malformed time cell
//   - unrecoverable I/O errors
//
// It tolerates:
//   - rows whose numeric cells are all empty (dropped, not counted)
//   - UTF-16 input with a BOM (decoded transparently)
//
// Parameters:
//   - ctx:    context for cancellation/timeouts.
//   - path:   file path.
//   - repo:   repository for DB insertion.
//   - symbol: symbol the file belongs to (from the filename).
//   - tf:     native timeframe of the file (from the filename).
//   - batch:  batch size for inserts (e.g., 5000).
func parseAndPersistFile(ctx context.Context, path string, repo storage.BarRepository, symbol string, tf models.Timeframe, batch int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	// Detect UTF-16 BOM; if present, decode to UTF-8.
	if b, _ := br.Peek(2); len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		if _, err := f.Seek(0, 0); err != nil {
			return 0, fmt.Errorf("seek: %w", err)
		}
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		br = bufio.NewReader(transform.NewReader(f, dec))
	}

	r := csv.NewReader(br)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1 // allow variable but we’ll check explicitly

	// Validate headers strictly.
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(expectedHeaders) {
		return 0, fmt.Errorf("invalid header length: expected %d, got %d", len(expectedHeaders), len(header))
	}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "﻿"))
		if !strings.EqualFold(h, expectedHeaders[i]) {
			return 0, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, expectedHeaders[i], h)
		}
	}

	// Parse rows streaming; flush batches to DB.
	buf := make([]models.Bar, 0, batch)
	lineNumber := 1 // header already read

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := repo.InsertBarsBatch(ctx, symbol, tf, buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}

	total := 0

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("read line after %d: %w", lineNumber, err)
		}
		lineNumber++

		// Enforce structure: exactly 6 columns. If not, fail entire ingestion.
		if len(rec) != len(expectedHeaders) {
			return 0, fmt.Errorf("invalid column count on line %d: expected %d got %d", lineNumber, len(expectedHeaders), len(rec))
		}

		b, skip, err := recordToBar(rec)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if skip {
			continue
		}

		buf = append(buf, b)
		total++
		if len(buf) >= batch {
			if err := flush(); err != nil {
				return 0, fmt.Errorf("flush batch ending line %d: %w", lineNumber, err)
			}
		}
	}

	// Final flush
	if err := flush(); err != nil {
		return 0, fmt.Errorf("final flush: %w", err)
	}

	return total, nil
}

// recordToBar converts a single CSV record (already validated length==6)
// into a models.Bar. It is STRICT about the time cell. A row whose five
// numeric cells are all empty is skipped; a partially empty row is a
// structural error.
//
// Column order:
//
//	0 time   → Time (RFC 3339, "2006-01-02 15:04:05" or "2006-01-02"; UTC)
//	1 open   → Open  (float, comma→dot)
//	2 high   → High
//	3 low    → Low
//	4 close  → Close
//	5 volume → Volume
func recordToBar(rec []string) (bar models.Bar, skip bool, err error) {
	ts := strings.TrimSpace(strings.TrimPrefix(rec[0], "﻿"))
	if ts == "" {
		return bar, false, fmt.Errorf("empty time cell")
	}
	parsed := false
	for _, layout := range timeLayouts {
		if t, perr := time.Parse(layout, ts); perr == nil {
			bar.Time = t.UTC()
			parsed = true
			break
		}
	}
	if !parsed {
		return bar, false, fmt.Errorf("invalid time: %q", ts)
	}

	empty := 0
	for i := 1; i < len(rec); i++ {
		if strings.TrimSpace(rec[i]) == "" {
			empty++
		}
	}
	if empty == len(rec)-1 {
		return bar, true, nil
	}
	if empty > 0 {
		return bar, false, fmt.Errorf("incomplete bar: %d empty cells", empty)
	}

	vals := [5]*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume}
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i, dst := range vals {
		s := strings.ReplaceAll(strings.TrimSpace(rec[i+1]), ",", ".")
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			return bar, false, fmt.Errorf("invalid %s: %v", names[i], perr)
		}
		*dst = v
	}

	return bar, false, nil
}
