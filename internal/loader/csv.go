// Package loader reads draw history files into a validated history.History.
//
// The expected layout is one draw per row: column 0 the draw id, column 1 the
// date, then the drawn numbers. Either ';' or ',' may separate fields and an
// optional header row is skipped. Rows that fail to parse or validate are
// listed in the Report instead of being dropped silently.
package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xtding233/loto-backend/internal/history"
)

var (
	// ErrNoData means there was nothing to load: the file is missing or has no data rows.
	ErrNoData = errors.New("no draw data")
	// ErrMalformed means data rows exist but none of them produced a valid draw.
	ErrMalformed = errors.New("malformed draw data")
)

const sniffBytes = 4096

var numberToken = regexp.MustCompile(`[0-9]{1,2}`)

// RowError describes one rejected row.
type RowError struct {
	Line   int    `json:"line"` // 1-based, header included
	ID     int    `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Report summarizes a load.
type Report struct {
	Source   string     `json:"source"`
	Rows     int        `json:"rows"` // data rows seen, header excluded
	Accepted int        `json:"accepted"`
	Rejected []RowError `json:"rejected"`
}

// LoadFile reads path and builds a history under r.
// A missing file yields ErrNoData; an unreadable one is returned as is.
func LoadFile(path string, r history.Rules) (*history.History, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return history.Empty(r), Report{Source: path}, fmt.Errorf("%w: %s", ErrNoData, path)
		}
		return nil, Report{Source: path}, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	h, rep, err := Load(f, r)
	rep.Source = path
	return h, rep, err
}

// Load parses rd and builds a history under r. On ErrNoData and ErrMalformed
// the returned history is empty but non-nil, and the report is still filled.
func Load(rd io.Reader, r history.Rules) (*history.History, Report, error) {
	raws, rep, err := Parse(rd, r.DrawSize)
	if err != nil {
		return nil, rep, err
	}
	h, err := history.New(r, raws)
	if err != nil {
		return nil, rep, err
	}
	for _, rj := range h.Rejected() {
		rep.Rejected = append(rep.Rejected, RowError{Line: rj.Line, ID: rj.ID, Reason: rj.Reason})
	}
	sort.SliceStable(rep.Rejected, func(i, j int) bool { return rep.Rejected[i].Line < rep.Rejected[j].Line })
	rep.Accepted = h.Len()

	switch {
	case rep.Rows == 0:
		return h, rep, ErrNoData
	case rep.Accepted == 0:
		return h, rep, fmt.Errorf("%w: %d rows, none valid", ErrMalformed, rep.Rows)
	}
	return h, rep, nil
}

// Parse reads raw draws without validating them. drawSize selects the number
// columns when the row carries extra trailing columns (prize tables and such).
func Parse(rd io.Reader, drawSize int) (raws []history.RawDraw, rep Report, err error) {
	br := bufio.NewReader(rd)
	sample, _ := br.Peek(sniffBytes)

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(sample)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	rep.Rejected = []RowError{}
	first := true
	for {
		rec, rerr := cr.Read()
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			var pe *csv.ParseError
			if !errors.As(rerr, &pe) {
				return nil, rep, fmt.Errorf("read history: %w", rerr)
			}
			rep.Rows++
			rep.Rejected = append(rep.Rejected, RowError{Line: pe.Line, Reason: pe.Err.Error()})
			continue
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		id, idErr := strconv.Atoi(strings.TrimSpace(rec[0]))
		if first {
			first = false
			if idErr != nil {
				continue // header
			}
		}
		rep.Rows++
		if idErr != nil {
			rep.Rejected = append(rep.Rejected, RowError{Line: line, Reason: fmt.Sprintf("draw id %q is not an integer", rec[0])})
			continue
		}
		raw := history.RawDraw{ID: id, Line: line}
		if len(rec) > 1 {
			raw.Date = strings.TrimSpace(rec[1])
		}
		raw.Numbers = extractNumbers(numberCells(rec, drawSize))
		raws = append(raws, raw)
	}
	return raws, rep, nil
}

func numberCells(rec []string, drawSize int) []string {
	if len(rec) <= 2 {
		return nil
	}
	cells := rec[2:]
	if len(cells) > drawSize {
		cells = cells[:drawSize]
	}
	return cells
}

// extractNumbers takes the first 1-2 digit token of every non-empty cell.
func extractNumbers(cells []string) []int {
	out := make([]int, 0, len(cells))
	for _, c := range cells {
		tok := numberToken.FindString(c)
		if tok == "" {
			continue
		}
		n, _ := strconv.Atoi(tok)
		out = append(out, n)
	}
	return out
}

func sniffDelimiter(sample []byte) rune {
	if bytes.Count(sample, []byte{';'}) > bytes.Count(sample, []byte{','}) {
		return ';'
	}
	return ','
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
