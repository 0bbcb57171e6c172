package devconf

import (
	"os"
	"path/filepath"
	"sync"
)

// Store is the backing medium of a description document.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore keeps the document in a file. Saves replace the file atomically
// so readers never observe a partially written document.
type FileStore string

func (f FileStore) Load() ([]byte, error) {
	return os.ReadFile(string(f))
}

func (f FileStore) Save(data []byte) error {
	dir, name := filepath.Split(string(f))
	if len(dir) == 0 {
		dir = "."
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(string(f)); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), string(f))
}

// MemStore keeps the document in memory.
type MemStore struct {
	mu   sync.Mutex
	data []byte
	// Saves counts the calls to Save.
	Saves int
}

func NewMemStore(data []byte) *MemStore {
	return &MemStore{data: append([]byte(nil), data...)}
}

func (m *MemStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...), nil
}

func (m *MemStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.Saves++
	return nil
}

// Bytes returns the current document.
func (m *MemStore) Bytes() []byte {
	data, _ := m.Load()
	return data
}
