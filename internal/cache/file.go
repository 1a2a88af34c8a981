package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileSuffix = ".cache.json"

// FileDriver persists one file per cache key below a base directory.
// File names are derived from the key hash so arbitrary keys stay
// filesystem-safe.
type FileDriver struct {
	dir   string
	mu    sync.Mutex
	clock func() time.Time
}

type fileEnvelope struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewFileDriver ensures the base directory exists and returns the driver.
func NewFileDriver(dir string) (*FileDriver, error) {
	if dir == "" {
		return nil, errors.New("cache: file driver requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileDriver{dir: dir, clock: time.Now}, nil
}

// WithClock overrides the time source, primarily for tests.
func (d *FileDriver) WithClock(clock func() time.Time) *FileDriver {
	if clock != nil {
		d.clock = clock
	}
	return d
}

func (d *FileDriver) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:])+fileSuffix)
}

// Get reads the entry for key, removing it when expired.
func (d *FileDriver) Get(_ context.Context, key string) (Entry, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	envelope, path, err := d.read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}

	entry := envelope.entry()
	if entry.Expired(d.clock()) {
		_ = os.Remove(path)
		return Entry{}, false, nil
	}

	return entry, true, nil
}

// Set writes the entry to its own file, replacing any previous value.
func (d *FileDriver) Set(_ context.Context, entry Entry) error {
	payload, err := json.Marshal(fileEnvelope{
		Key:       entry.Key,
		Value:     entry.Value,
		Type:      entry.Type,
		CreatedAt: entry.CreatedAt,
		ExpiresAt: entry.ExpiresAt,
	})
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return os.WriteFile(d.path(entry.Key), payload, 0o644)
}

// Delete removes the files for the given keys.
func (d *FileDriver) Delete(_ context.Context, keys ...string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var removed int64
	for _, key := range keys {
		err := os.Remove(d.path(key))
		switch {
		case err == nil:
			removed++
		case errors.Is(err, os.ErrNotExist):
			// already gone
		default:
			return removed, err
		}
	}
	return removed, nil
}

// DeleteByType scans the directory and removes every entry of entryType.
func (d *FileDriver) DeleteByType(_ context.Context, entryType string) (int64, error) {
	return d.sweep(func(envelope fileEnvelope) bool {
		return envelope.Type == entryType
	})
}

// DeleteExpired scans the directory and removes entries past their expiry.
func (d *FileDriver) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return d.sweep(func(envelope fileEnvelope) bool {
		return envelope.entry().Expired(now)
	})
}

// Flush removes every cache file below the base directory.
func (d *FileDriver) Flush(_ context.Context) (int64, error) {
	return d.sweep(func(fileEnvelope) bool { return true })
}

func (d *FileDriver) sweep(shouldRemove func(fileEnvelope) bool) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(d.dir, "*"+fileSuffix))
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, path := range matches {
		payload, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, err
		}

		var envelope fileEnvelope
		if err := json.Unmarshal(payload, &envelope); err != nil {
			// unreadable entries are treated as garbage
			_ = os.Remove(path)
			removed++
			continue
		}

		if shouldRemove(envelope) {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return removed, err
			}
			removed++
		}
	}

	return removed, nil
}

func (d *FileDriver) read(key string) (fileEnvelope, string, error) {
	path := d.path(key)
	payload, err := os.ReadFile(path)
	if err != nil {
		return fileEnvelope{}, path, err
	}

	var envelope fileEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		// a corrupt file behaves like a miss after removal
		_ = os.Remove(path)
		return fileEnvelope{}, path, os.ErrNotExist
	}

	return envelope, path, nil
}

func (e fileEnvelope) entry() Entry {
	return Entry{
		Key:       e.Key,
		Value:     e.Value,
		Type:      e.Type,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}
}
