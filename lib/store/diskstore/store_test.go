package diskstore

import (
	"context"
	"errors"
	"github.com/ValentinKolb/rFS/lib/store"
	storetesting "github.com/ValentinKolb/rFS/lib/store/testing"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "DiskStore", func() (store.IFileStore, error) {
		return NewDiskStore(t.TempDir())
	})
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "DiskStore", func() (store.IFileStore, error) {
		return NewDiskStore(b.TempDir())
	})
}

func TestFilesAreStoredFlat(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Write(context.Background(), "report.pdf", []byte("pdf")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	if err != nil {
		t.Fatalf("file not stored in data dir: %v", err)
	}
	if string(data) != "pdf" {
		t.Errorf("stored content = %q", data)
	}
}

func TestRejectsPathNames(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, name := range []string{"..", ".", "../escape", "sub/file", `sub\file`, tempPrefix + "x"} {
		if err := s.Write(ctx, name, []byte("x")); !errors.Is(err, store.ErrInvalidName) {
			t.Errorf("Write(%q) = %v, want ErrInvalidName", name, err)
		}
		if _, err := s.Read(ctx, name); !errors.Is(err, store.ErrInvalidName) {
			t.Errorf("Read(%q) = %v, want ErrInvalidName", name, err)
		}
		if err := s.Delete(ctx, name); !errors.Is(err, store.ErrInvalidName) {
			t.Errorf("Delete(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestListSkipsTempFilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	_ = os.WriteFile(filepath.Join(dir, tempPrefix+"123"), []byte("partial"), 0o644)
	_ = os.Mkdir(filepath.Join(dir, "subdir"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644)

	names, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if want := []string{"a.txt", "b.txt"}; !reflect.DeepEqual(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}
}

func TestCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "files")
	if _, err := NewDiskStore(dir); err != nil {
		t.Fatalf("NewDiskStore failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data dir was not created: %v", err)
	}
}

func TestSharedDirectory(t *testing.T) {
	// two stores on one directory behave like two worker processes
	dir := t.TempDir()
	a, _ := NewDiskStore(dir)
	b, _ := NewDiskStore(dir)
	ctx := context.Background()

	if err := a.Write(ctx, "shared.txt", []byte("from a")); err != nil {
		t.Fatal(err)
	}
	data, err := b.Read(ctx, "shared.txt")
	if err != nil || string(data) != "from a" {
		t.Errorf("b.Read = %q, %v", data, err)
	}
	if err := b.Delete(ctx, "shared.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Read(ctx, "shared.txt"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("a.Read after b.Delete = %v, want ErrNotFound", err)
	}
}
