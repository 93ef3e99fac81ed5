package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/store"
	"reflect"
	"strings"
	"sync"
	"testing"
)

// RunStoreTests runs the conformance suite every store.IFileStore implementation must pass.
// The factory is called once per sub test and must return an empty store.
func RunStoreTests(t *testing.T, name string, factory store.Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Write&Read", func(t *testing.T) {
			testWriteRead(t, newStore(t, factory))
		})

		t.Run("ReadMissing", func(t *testing.T) {
			testReadMissing(t, newStore(t, factory))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, newStore(t, factory))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, newStore(t, factory))
		})

		t.Run("List", func(t *testing.T) {
			testList(t, newStore(t, factory))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, newStore(t, factory))
		})

		t.Run("ConcurrentSameName", func(t *testing.T) {
			testConcurrentSameName(t, newStore(t, factory))
		})

		t.Run("ConcurrentDistinctNames", func(t *testing.T) {
			testConcurrentDistinctNames(t, newStore(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func newStore(t *testing.T, factory store.Factory) store.IFileStore {
	t.Helper()
	s, err := factory()
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func mustWrite(t *testing.T, s store.IFileStore, name string, data []byte) {
	t.Helper()
	if err := s.Write(context.Background(), name, data); err != nil {
		t.Fatalf("Write(%q) failed: %v", name, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testWriteRead(t *testing.T, s store.IFileStore) {
	ctx := context.Background()
	data := []byte("hello world")

	mustWrite(t, s, "hello.txt", data)

	got, err := s.Read(ctx, "hello.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Read = %q, want %q", got, data)
	}

	// the store must not alias the caller's buffers
	data[0] = 'H'
	got[1] = 'E'
	again, _ := s.Read(ctx, "hello.txt")
	if string(again) != "hello world" {
		t.Errorf("stored content changed through caller buffers: %q", again)
	}
}

func testReadMissing(t *testing.T, s store.IFileStore) {
	_, err := s.Read(context.Background(), "missingfile.dat")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Read of missing file = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error %q does not contain \"not found\"", err)
	}
}

func testOverwrite(t *testing.T, s store.IFileStore) {
	mustWrite(t, s, "a.txt", []byte("first version, longer"))
	mustWrite(t, s, "a.txt", []byte("second"))

	got, err := s.Read(context.Background(), "a.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Read after overwrite = %q, want %q", got, "second")
	}
}

func testDelete(t *testing.T, s store.IFileStore) {
	ctx := context.Background()
	mustWrite(t, s, "gone.txt", []byte("x"))

	if err := s.Delete(ctx, "gone.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Read(ctx, "gone.txt"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Read after delete = %v, want ErrNotFound", err)
	}

	// a second delete fails the same way every time
	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, "gone.txt"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Delete of missing file = %v, want ErrNotFound", err)
		}
	}
}

func testList(t *testing.T, s store.IFileStore) {
	ctx := context.Background()

	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if names == nil || len(names) != 0 {
		t.Errorf("List of empty store = %#v, want empty non-nil slice", names)
	}

	for _, name := range []string{"c.txt", "a.txt", "b file.txt"} {
		mustWrite(t, s, name, []byte(name))
	}
	_ = s.Delete(ctx, "c.txt")

	names, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"a.txt", "b file.txt"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}
}

func testEdgeCases(t *testing.T, s store.IFileStore) {
	ctx := context.Background()

	// empty files are files
	mustWrite(t, s, "empty.dat", nil)
	got, err := s.Read(ctx, "empty.dat")
	if err != nil {
		t.Fatalf("Read of empty file failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Read of empty file returned %d bytes", len(got))
	}

	// binary content survives unchanged
	binary := make([]byte, 256)
	for i := range binary {
		binary[i] = byte(i)
	}
	mustWrite(t, s, "binary.bin", binary)
	if got, _ := s.Read(ctx, "binary.bin"); !bytes.Equal(got, binary) {
		t.Errorf("binary content changed")
	}

	// the empty name is never a file
	if err := s.Write(ctx, "", []byte("x")); err == nil {
		t.Errorf("Write with empty name should fail")
	}
}

func testConcurrentSameName(t *testing.T, s store.IFileStore) {
	ctx := context.Background()
	const writers = 8
	const size = 64 * 1024

	// each writer writes a file filled with its own byte, readers must only ever
	// see one complete version
	mustWrite(t, s, "shared.dat", bytes.Repeat([]byte{'0'}, size))

	var wg sync.WaitGroup
	errs := make(chan error, writers*20)
	for w := 0; w < writers; w++ {
		wg.Add(2)
		go func(fill byte) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if err := s.Write(ctx, "shared.dat", bytes.Repeat([]byte{fill}, size)); err != nil {
					errs <- err
				}
			}
		}(byte('a' + w))
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				data, err := s.Read(ctx, "shared.dat")
				if err != nil {
					errs <- err
					continue
				}
				if len(data) != size || bytes.Count(data, data[:1]) != size {
					errs <- fmt.Errorf("read a torn version of %d bytes", len(data))
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func testConcurrentDistinctNames(t *testing.T, s store.IFileStore) {
	ctx := context.Background()
	const files = 32

	var wg sync.WaitGroup
	for i := 0; i < files; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("file-%02d.dat", i)
			if err := s.Write(ctx, name, []byte(name)); err != nil {
				t.Errorf("Write(%q) failed: %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != files {
		t.Fatalf("List returned %d names, want %d", len(names), files)
	}
	for _, name := range names {
		data, err := s.Read(ctx, name)
		if err != nil || string(data) != name {
			t.Errorf("Read(%q) = %q, %v", name, data, err)
		}
	}
}
