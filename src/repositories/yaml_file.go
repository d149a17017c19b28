package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileOptionRepository stores all options in a single YAML document on disk.
// The file is re-read on every call so edits made outside the process are picked up.
type FileOptionRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileOptionRepository creates a store backed by the YAML file at path.
// The file is created on first write.
func NewFileOptionRepository(path string) *FileOptionRepository {
	return &FileOptionRepository{path: path}
}

func (r *FileOptionRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	value, ok := doc[key]
	if !ok {
		return nil, ErrOptionNotFound
	}

	data, err := json.Marshal(normalizeYAML(value))
	if err != nil {
		return nil, fmt.Errorf("failed to encode option %q: %w", key, err)
	}
	return data, nil
}

func (r *FileOptionRepository) Set(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	return r.put(doc, key, value)
}

func (r *FileOptionRepository) Create(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; ok {
		return ErrOptionExists
	}
	return r.put(doc, key, value)
}

func (r *FileOptionRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return r.save(doc)
}

// Health checks that the backing file is readable and parses
func (r *FileOptionRepository) Health(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.load()
	return err
}

func (r *FileOptionRepository) put(doc map[string]interface{}, key string, value []byte) error {
	var decoded interface{}
	if err := json.Unmarshal(value, &decoded); err != nil {
		return fmt.Errorf("option %q is not valid JSON: %w", key, err)
	}
	doc[key] = decoded
	return r.save(doc)
}

func (r *FileOptionRepository) load() (map[string]interface{}, error) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("failed to read option file: %w", err)
	}

	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse option file: %w", err)
	}
	return doc, nil
}

// save writes to a temp file and renames it over the original
func (r *FileOptionRepository) save(doc map[string]interface{}) error {
	content, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode option file: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create option directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write option file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write option file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace option file: %w", err)
	}
	return nil
}

// normalizeYAML converts map[interface{}]interface{} produced by the decoder
// into map[string]interface{} so the value can be encoded as JSON
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	default:
		return v
	}
}

var (
	_ OptionRepository = (*FileOptionRepository)(nil)
	_ HealthChecker    = (*FileOptionRepository)(nil)
)
