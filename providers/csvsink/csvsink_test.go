package csvsink

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
)

func TestSinkWriteSortsStatsAndWritesHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)

	if err := s.Write("z1", map[string]float64{"sum": 10, "count": 2, "mean": 5}); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("z2", map[string]float64{"sum": 20}); err != nil {
		t.Fatal(err)
	}

	r := csv.NewReader(bytes.NewReader(buf.Bytes()))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"id", "stat", "value"},
		{"z1", "count", "2"},
		{"z1", "mean", "5"},
		{"z1", "sum", "10"},
		{"z2", "sum", "20"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		if len(rows[i]) != 3 || rows[i][0] != want[i][0] || rows[i][1] != want[i][1] || rows[i][2] != want[i][2] {
			t.Errorf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestSinkWriteError(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)
	if err := s.WriteError("z1", errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	r := csv.NewReader(bytes.NewReader(buf.Bytes()))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1][0] != "z1" || rows[1][1] != "error" || rows[1][2] != "boom" {
		t.Errorf("error row = %v, want [z1 error boom]", rows[1])
	}
}
