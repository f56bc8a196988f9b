// Package storage writes chart exports to disk: one directory per export
// holding metadata.json and series.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/series"
)

var ErrEmptyChart = errors.New("storage: chart has no points")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// ExportMetadata describes the session the chart was captured from.
type ExportMetadata struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Power     float64        `json:"power"`
	Speed     float64        `json:"speed"`
	Phi0      float64        `json:"phi_0"`
	LastKnown series.Point   `json:"last_known"`
	Start     float64        `json:"start"`
	End       float64        `json:"end"`
	Points    map[string]int `json:"points"`
}

// Save writes every trace with at least one point and returns the export id.
func (s *Store) Save(meta ExportMetadata, traces []chart.Trace) (string, error) {
	start, end, ok := chart.TimeSpan(traces)
	if !ok {
		return "", ErrEmptyChart
	}

	now := time.Now()
	meta.ID = fmt.Sprintf("xenon_%s_%s", now.Format("20060102T150405"), uuid.NewString()[:8])
	meta.Timestamp = now
	meta.Start, meta.End = start, end
	meta.Points = make(map[string]int, len(traces))
	for _, tr := range traces {
		if len(tr.X) > 0 {
			meta.Points[tr.Name] = len(tr.X)
		}
	}

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(dir, "series.csv"), traces); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// createFile writes path through write and reports the close error when
// the write itself succeeded.
func createFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func writeJSON(path string, v any) error {
	return createFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeSeries(path string, traces []chart.Trace) error {
	return createFile(path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write([]string{"series", "time", "value"}); err != nil {
			return err
		}
		for _, tr := range traces {
			for i := range tr.X {
				row := []string{
					tr.Name,
					strconv.FormatFloat(tr.X[i], 'g', -1, 64),
					strconv.FormatFloat(tr.Y[i], 'g', -1, 64),
				}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		w.Flush()
		return w.Error()
	})
}

// List returns the metadata of every export, newest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]ExportMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ExportMetadata{}, nil
		}
		return nil, err
	}

	exports := make([]ExportMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		exports = append(exports, *meta)
	}

	sort.Slice(exports, func(i, j int) bool {
		return exports[i].Timestamp.After(exports[j].Timestamp)
	})
	return exports, nil
}

func (s *Store) Load(id string) (*ExportMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta ExportMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads an export's traces back in the order they were written.
func (s *Store) LoadSeries(id string) ([]chart.Trace, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, "series.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []chart.Trace{}, nil
	}

	var traces []chart.Trace
	index := make(map[string]int)
	for line, rec := range records[1:] {
		x, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("series.csv line %d: %w", line+2, err)
		}
		y, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("series.csv line %d: %w", line+2, err)
		}

		i, ok := index[rec[0]]
		if !ok {
			i = len(traces)
			index[rec[0]] = i
			traces = append(traces, chart.Trace{Name: rec[0]})
		}
		traces[i].X = append(traces[i].X, x)
		traces[i].Y = append(traces[i].Y, y)
	}
	return traces, nil
}
