package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/apoio-migrante/gestor-processos/internal/processo/entity"
)

// JSONFileStore keeps every record in one JSON array file, rewritten whole on
// each upsert. Writers inside this process are serialised; other processes
// writing the same file are not coordinated.
type JSONFileStore struct {
	mu   sync.Mutex
	path string
}

func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (s *JSONFileStore) Path() string {
	return s.path
}

func (s *JSONFileStore) Upsert(ctx context.Context, p *entity.Processo) (*entity.Processo, error) {
	if p == nil || p.ProcessID == "" {
		return nil, ErrNoID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, err
	}

	var out *entity.Processo
	idx := indexOf(records, p.ProcessID)
	if idx >= 0 {
		out = merge(records[idx], p, now())
		records[idx] = out
	} else {
		out = merge(nil, p, now())
		records = append(records, out)
	}

	if err := s.write(records); err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

func (s *JSONFileStore) FindByID(ctx context.Context, id string) (*entity.Processo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.read()
	if err != nil {
		return nil, err
	}
	if idx := indexOf(records, id); idx >= 0 {
		return records[idx], nil
	}
	return nil, ErrNotFound
}

func (s *JSONFileStore) List(ctx context.Context) ([]*entity.Processo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.read()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamps.Criacao.Before(records[j].Timestamps.Criacao)
	})
	return records, nil
}

// read loads the array; a missing or empty file is an empty store.
func (s *JSONFileStore) read() ([]*entity.Processo, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []*entity.Processo
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return records, nil
}

// write replaces the file atomically through a sibling temp file.
func (s *JSONFileStore) write(records []*entity.Processo) error {
	if records == nil {
		records = []*entity.Processo{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func indexOf(records []*entity.Processo, id string) int {
	for i, r := range records {
		if r != nil && r.ProcessID == id {
			return i
		}
	}
	return -1
}
