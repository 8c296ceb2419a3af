// Package docstore persists one JSON record per extracted document.
// Records are the durable hand-off between extraction and indexing: a
// rebuild re-reads every record instead of re-parsing the source files.
package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkarlin/docquery/internal/models"
)

type Store struct {
	folder string
}

func New(folder string) (*Store, error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create document folder: %w", err)
	}
	return &Store{folder: folder}, nil
}

// Save writes the document record, replacing any previous record for
// the same filename. The write goes through a temp file and rename so
// a crash never leaves a half-written record behind.
func (s *Store) Save(doc models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.Filename, err)
	}

	target := s.recordPath(doc.Filename)
	tmp, err := os.CreateTemp(s.folder, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

// Load reads the record for one source filename.
func (s *Store) Load(filename string) (models.Document, error) {
	data, err := os.ReadFile(s.recordPath(filename))
	if err != nil {
		return models.Document{}, err
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Document{}, fmt.Errorf("parse record for %s: %w", filename, err)
	}
	return doc, nil
}

// List returns every stored document, ordered by filename so that
// re-indexing runs are deterministic.
func (s *Store) List() ([]models.Document, error) {
	entries, err := os.ReadDir(s.folder)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.folder, e.Name()))
		if err != nil {
			return nil, err
		}
		var doc models.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse record %s: %w", e.Name(), err)
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	return docs, nil
}

// recordPath maps a source filename to its record file, e.g.
// "report.pdf" -> "<folder>/report.json".
func (s *Store) recordPath(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return filepath.Join(s.folder, stem+".json")
}
