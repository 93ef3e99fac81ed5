package loadtest

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSizes are the file sizes of a full scenario run
var DefaultSizes = []string{"10MB", "50MB", "100MB"}

// FileName returns the name of the test file for a size label ("10MB" -> "10MB.dat")
func FileName(sizeLabel string) string {
	return sizeLabel + ".dat"
}

// ParseSize parses a size label like "512B", "64KB", "10MB" or "1GB" (binary units)
func ParseSize(label string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(label))

	units := []struct {
		suffix string
		factor int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid size %q", label)
		}
		return n * u.factor, nil
	}
	return 0, fmt.Errorf("invalid size %q (expected a number with unit B, KB, MB or GB)", label)
}

// GenerateFiles creates one test file per size label in dir and returns their paths.
// Files that already exist with the right size are kept.
func GenerateFiles(dir string, sizeLabels []string, seed int64) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %v", dir, err)
	}

	rnd := rand.New(rand.NewSource(seed))
	paths := make([]string, 0, len(sizeLabels))
	for _, label := range sizeLabels {
		size, err := ParseSize(label)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, FileName(label))
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && info.Size() == size {
			Logger.Infof("Keeping existing test file %s", path)
			paths = append(paths, path)
			continue
		}

		if err := writeRandomFile(path, size, rnd); err != nil {
			return nil, err
		}
		Logger.Infof("Generated test file %s (%d bytes)", path, size)
		paths = append(paths, path)
	}
	return paths, nil
}

func writeRandomFile(path string, size int64, rnd *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}

	w := bufio.NewWriterSize(f, 1<<20)
	chunk := make([]byte, 64*1024)
	for remaining := size; remaining > 0; {
		n := int64(len(chunk))
		if remaining < n {
			n = remaining
		}
		_, _ = rnd.Read(chunk[:n])
		if _, err := w.Write(chunk[:n]); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write %s: %v", path, err)
		}
		remaining -= n
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %v", path, err)
	}
	return f.Close()
}
