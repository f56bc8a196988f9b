package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/xenonsim/internal/chart"
)

// ExportData is a self-contained JSON rendition of an export.
type ExportData struct {
	ExportMetadata
	Traces []chart.Trace `json:"traces"`
}

// ReadExport loads an export's metadata and series together.
func (s *Store) ReadExport(id string) (*ExportData, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	traces, err := s.LoadSeries(id)
	if err != nil {
		return nil, err
	}
	return &ExportData{ExportMetadata: *meta, Traces: traces}, nil
}

func WriteExportJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSON writes an export as a single JSON file at path.
func (s *Store) ExportJSON(id, path string) error {
	data, err := s.ReadExport(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return createFile(path, func(w io.Writer) error {
		return WriteExportJSON(w, data)
	})
}
