package memstore

import (
	"bytes"
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/store"
	"github.com/puzpuzpuz/xsync/v3"
	"sort"
)

// NewMemStore creates an empty in-memory store
func NewMemStore() store.IFileStore {
	return &memStore{
		files: xsync.NewMapOf[string, []byte](),
	}
}

// memStore implements store.IFileStore with a concurrent map. Contents are copied
// on the way in and out, the map's per-key atomicity serializes same-name operations.
type memStore struct {
	files *xsync.MapOf[string, []byte]
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IFileStore)
// --------------------------------------------------------------------------

func (s *memStore) List(_ context.Context) ([]string, error) {
	names := make([]string, 0, s.files.Size())
	s.files.Range(func(name string, _ []byte) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names, nil
}

func (s *memStore) Read(_ context.Context, name string) ([]byte, error) {
	data, ok := s.files.Load(name)
	if !ok {
		return nil, store.NewError(store.RetCNotFound, fmt.Sprintf("file %s does not exist", name))
	}
	return bytes.Clone(data), nil
}

func (s *memStore) Write(_ context.Context, name string, data []byte) error {
	if name == "" {
		return store.NewError(store.RetCInvalidName, "empty file name")
	}
	c := bytes.Clone(data)
	if c == nil {
		c = []byte{}
	}
	s.files.Store(name, c)
	return nil
}

func (s *memStore) Delete(_ context.Context, name string) error {
	if _, ok := s.files.LoadAndDelete(name); !ok {
		return store.NewError(store.RetCNotFound, fmt.Sprintf("file %s does not exist", name))
	}
	return nil
}
