package bench

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Cell is the running result for one table and format
type Cell struct {
	// MeanMillis is the mean load time of successful trials, or -1 once
	// any trial failed
	MeanMillis float64 `json:"mean_ms"`
	Trials     int     `json:"trials"`
	Error      string  `json:"error,omitempty"`
}

// Results holds per table, per format load timings. Tables and formats
// keep the order they were registered in.
type Results struct {
	mu      sync.Mutex
	formats []string
	tables  []string
	cells   map[string]map[string]*Cell
}

// NewResults creates an empty result set with the given format columns
func NewResults(formats []string) *Results {
	return &Results{
		formats: append([]string(nil), formats...),
		cells:   make(map[string]map[string]*Cell),
	}
}

func (r *Results) cell(table, format string) *Cell {
	row, ok := r.cells[table]
	if !ok {
		row = make(map[string]*Cell)
		r.cells[table] = row
		r.tables = append(r.tables, table)
	}
	c, ok := row[format]
	if !ok {
		c = &Cell{}
		row[format] = c
	}
	return c
}

// AddTable registers table so it appears in output even without trials
func (r *Results) AddTable(table string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cells[table]; !ok {
		r.cells[table] = make(map[string]*Cell)
		r.tables = append(r.tables, table)
	}
}

// Record folds a successful trial into the running mean. A cell that
// already failed stays failed.
func (r *Results) Record(table, format string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cell(table, format)
	if c.MeanMillis < 0 {
		return
	}
	ms := float64(elapsed) / float64(time.Millisecond)
	c.MeanMillis = (c.MeanMillis*float64(c.Trials) + ms) / float64(c.Trials+1)
	c.Trials++
}

// Fail marks the cell failed
func (r *Results) Fail(table, format string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.cell(table, format)
	c.MeanMillis = -1
	if err != nil {
		c.Error = err.Error()
	}
}

// Get returns a copy of the cell for table and format
func (r *Results) Get(table, format string) (Cell, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.cells[table]
	if !ok {
		return Cell{}, false
	}
	c, ok := row[format]
	if !ok {
		return Cell{}, false
	}
	return *c, true
}

// Tables returns the registered tables in order
func (r *Results) Tables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tables...)
}

// WriteCSV writes one row per table with the mean milliseconds per format
// to 4 decimal places. Missing cells are written as 0.0000.
func (r *Results) WriteCSV(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cw := csv.NewWriter(w)
	header := append([]string{"table_name"}, r.formats...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, table := range r.tables {
		record := make([]string, 0, len(r.formats)+1)
		record = append(record, table)
		for _, f := range r.formats {
			var mean float64
			if c, ok := r.cells[table][f]; ok {
				mean = c.MeanMillis
			}
			record = append(record, strconv.FormatFloat(mean, 'f', 4, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type tableResults struct {
	Table   string          `json:"table"`
	Formats map[string]Cell `json:"formats"`
}

// WriteJSON writes the results as an indented JSON array in table order
func (r *Results) WriteJSON(w io.Writer) error {
	r.mu.Lock()
	out := make([]tableResults, 0, len(r.tables))
	for _, table := range r.tables {
		tr := tableResults{Table: table, Formats: make(map[string]Cell, len(r.formats))}
		for _, f := range r.formats {
			if c, ok := r.cells[table][f]; ok {
				tr.Formats[f] = *c
			}
		}
		out = append(out, tr)
	}
	r.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
