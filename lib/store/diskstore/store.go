package diskstore

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var Logger = logger.GetLogger("store")

// tempPrefix marks files that are still being written, they are hidden from List
const tempPrefix = ".rfs-tmp-"

// NewDiskStore creates a store keeping every file as a regular file directly in dir.
// The directory is created if it does not exist.
func NewDiskStore(dir string) (store.IFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, store.NewError(store.RetCIOError, fmt.Sprintf("failed to create data dir %s: %v", dir, err))
	}

	Logger.Infof("Using data directory %s", dir)

	return &diskStore{
		dir:   dir,
		locks: xsync.NewMapOf[string, *sync.RWMutex](),
	}, nil
}

// diskStore implements store.IFileStore on a flat directory
type diskStore struct {
	dir string
	// one lock per name ever used, never removed so holders always agree on the instance
	locks *xsync.MapOf[string, *sync.RWMutex]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IFileStore)
// --------------------------------------------------------------------------

func (s *diskStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, store.NewError(store.RetCIOError, fmt.Sprintf("failed to list files: %v", err))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *diskStore) Read(_ context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	l := s.lock(name)
	l.RLock()
	defer l.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.NewError(store.RetCNotFound, fmt.Sprintf("file %s does not exist", name))
		}
		return nil, store.NewError(store.RetCIOError, fmt.Sprintf("failed to read %s: %v", name, err))
	}
	return data, nil
}

func (s *diskStore) Write(_ context.Context, name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return store.NewError(store.RetCIOError, fmt.Sprintf("failed to create temp file for %s: %v", name, err))
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return store.NewError(store.RetCIOError, fmt.Sprintf("failed to write %s: %v", name, err))
	}

	// CreateTemp uses 0600, stored files are regular 0644 files
	if err := os.Chmod(tmpName, 0o644); err != nil {
		Logger.Warningf("Failed to set permissions of %s: %v", name, err)
	}

	// the rename replaces the old version atomically, also for other processes
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return store.NewError(store.RetCIOError, fmt.Sprintf("failed to store %s: %v", name, err))
	}
	return nil
}

func (s *diskStore) Delete(_ context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store.NewError(store.RetCNotFound, fmt.Sprintf("file %s does not exist", name))
		}
		return store.NewError(store.RetCIOError, fmt.Sprintf("failed to delete %s: %v", name, err))
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *diskStore) lock(name string) *sync.RWMutex {
	l, _ := s.locks.LoadOrCompute(name, func() *sync.RWMutex {
		return &sync.RWMutex{}
	})
	return l
}

// path maps a name to its file, rejecting anything that is not a flat file name
func (s *diskStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`+"\x00") ||
		strings.HasPrefix(name, tempPrefix) {
		return "", store.NewError(store.RetCInvalidName, fmt.Sprintf("%q is not a valid file name", name))
	}
	return filepath.Join(s.dir, name), nil
}
