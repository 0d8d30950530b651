package autosave

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"doccanvas/internal/shape"
)

// Backup is the local crash-recovery copy: one timestamped document,
// overwritten on every debounce tick.
type Backup struct {
	Timestamp time.Time      `json:"timestamp"`
	Data      shape.Document `json:"data"`
}

// BackupStore persists the single local backup copy under one well-known
// key. It is intentionally not the remote template store; backups must
// survive a failed remote save.
type BackupStore interface {
	Write(b Backup) error
	// Read returns the stored backup, or ok=false when none exists.
	Read() (b Backup, ok bool, err error)
	Clear() error
}

// FileBackupStore keeps the backup as a JSON file on disk.
type FileBackupStore struct {
	Path string
}

func NewFileBackupStore(path string) *FileBackupStore {
	return &FileBackupStore{Path: path}
}

func (f *FileBackupStore) Write(b Backup) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

func (f *FileBackupStore) Read() (Backup, bool, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Backup{}, false, nil
	}
	if err != nil {
		return Backup{}, false, fmt.Errorf("read backup: %w", err)
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return Backup{}, false, fmt.Errorf("decode backup: %w", err)
	}
	return b, true, nil
}

func (f *FileBackupStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
