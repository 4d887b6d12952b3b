package signal

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/scorealign/pkg/errors"
)

// Column names of a level table.
const (
	ColumnIndex  = "Index"
	ColumnEnergy = "Energy_Value"
	ColumnMinima = "Minima_Indices"
)

// Sample is one beat of the signal.
type Sample struct {
	Index     int     `json:"index"`
	Value     float64 `json:"value"`
	IsMinimum bool    `json:"is_minimum"`
}

// Table is an immutable set of samples keyed by beat index.
type Table struct {
	samples []Sample
	byIndex map[int]int
}

// NewTable builds a table from samples. Later duplicates of an index win.
func NewTable(samples []Sample) *Table {
	t := &Table{byIndex: make(map[int]int, len(samples))}
	for _, s := range samples {
		if i, ok := t.byIndex[s.Index]; ok {
			t.samples[i] = s
			continue
		}
		t.byIndex[s.Index] = len(t.samples)
		t.samples = append(t.samples, s)
	}
	sort.Slice(t.samples, func(i, j int) bool { return t.samples[i].Index < t.samples[j].Index })
	for i, s := range t.samples {
		t.byIndex[s.Index] = i
	}
	return t
}

// Lookup returns the sample at a beat index.
func (t *Table) Lookup(index int) (Sample, bool) {
	i, ok := t.byIndex[index]
	if !ok {
		return Sample{}, false
	}
	return t.samples[i], true
}

// Len returns the number of samples.
func (t *Table) Len() int { return len(t.samples) }

// Samples returns a copy of all samples ordered by index.
func (t *Table) Samples() []Sample {
	return append([]Sample(nil), t.samples...)
}

// Minima returns the samples flagged as local minima, ordered by index.
func (t *Table) Minima() []Sample {
	var out []Sample
	for _, s := range t.samples {
		if s.IsMinimum {
			out = append(out, s)
		}
	}
	return out
}

// Parse reads a level table. Columns are found by header name, so their
// order does not matter and extra columns are ignored. Blank lines are
// skipped.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeInvalidSignal, "signal table is empty")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSignal, err, "read header")
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	idxCol, ok := cols[ColumnIndex]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidSignal, "missing column %s", ColumnIndex)
	}
	valCol, ok := cols[ColumnEnergy]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidSignal, "missing column %s", ColumnEnergy)
	}
	minCol, hasMin := cols[ColumnMinima]

	var samples []Sample
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv.ParseError carries its own line number.
			return nil, errors.Wrap(errors.ErrCodeInvalidSignal, err, "read record")
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		line, _ := cr.FieldPos(0)
		idx, err := strconv.Atoi(field(rec, idxCol))
		if err != nil || idx < 0 {
			return nil, errors.New(errors.ErrCodeInvalidSignal, "line %d: invalid index %q", line, field(rec, idxCol))
		}
		val, err := strconv.ParseFloat(field(rec, valCol), 64)
		if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, errors.New(errors.ErrCodeInvalidSignal, "line %d: invalid energy %q", line, field(rec, valCol))
		}
		s := Sample{Index: idx, Value: val}
		if hasMin {
			s.IsMinimum = field(rec, minCol) == "1"
		}
		samples = append(samples, s)
	}
	return NewTable(samples), nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
