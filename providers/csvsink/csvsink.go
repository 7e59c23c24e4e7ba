// Package csvsink implements zonalstats.OutputSink by writing a flat
// id,stat,value table with the standard library's encoding/csv. No pack
// library targets flat delimited output (tealeg/xlsx and
// gonum.org/v1/gonum/plot exist in the retrieval pack but serve
// spreadsheets and plots, not a stats table), so this adapter is the one
// documented stdlib exception; see DESIGN.md.
package csvsink

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
)

// Sink writes each zone's results (and any per-zone errors) as rows of a
// CSV file.
type Sink struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewSink wraps w as a Sink. Callers are responsible for closing the
// underlying writer once Process has returned.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: csv.NewWriter(w)}
}

func (s *Sink) writeHeader() error {
	if s.wroteHeader {
		return nil
	}
	s.wroteHeader = true
	return s.w.Write([]string{"id", "stat", "value"})
}

// Write emits one row per statistic, sorted by name for a deterministic
// row order across runs.
func (s *Sink) Write(id string, stats map[string]float64) error {
	if err := s.writeHeader(); err != nil {
		return err
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.w.Write([]string{id, name, strconv.FormatFloat(stats[name], 'g', -1, 64)}); err != nil {
			return err
		}
	}
	s.w.Flush()
	return s.w.Error()
}

// WriteError emits a single row recording a zone's failure, with the
// stat column set to "error" and the value column holding err's message.
func (s *Sink) WriteError(id string, err error) error {
	if werr := s.writeHeader(); werr != nil {
		return werr
	}
	if werr := s.w.Write([]string{id, "error", err.Error()}); werr != nil {
		return werr
	}
	s.w.Flush()
	return s.w.Error()
}
