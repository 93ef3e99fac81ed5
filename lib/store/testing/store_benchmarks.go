package testing

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/rFS/lib/store"
	"testing"
)

// benchmarkSizes are the file sizes every benchmark runs with
var benchmarkSizes = []int{4 * 1024, 1024 * 1024, 10 * 1024 * 1024}

// RunStoreBenchmarks runs read and write benchmarks for a store.IFileStore implementation
func RunStoreBenchmarks(b *testing.B, name string, factory store.Factory) {
	b.Run(name, func(b *testing.B) {
		for _, size := range benchmarkSizes {
			data := make([]byte, size)
			label := fmt.Sprintf("%dKB", size/1024)

			b.Run("Write/"+label, func(b *testing.B) {
				s := newBenchStore(b, factory)
				ctx := context.Background()
				b.SetBytes(int64(size))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := s.Write(ctx, fmt.Sprintf("bench-%d", i%16), data); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run("Read/"+label, func(b *testing.B) {
				s := newBenchStore(b, factory)
				ctx := context.Background()
				if err := s.Write(ctx, "bench", data); err != nil {
					b.Fatal(err)
				}
				b.SetBytes(int64(size))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := s.Read(ctx, "bench"); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	})
}

func newBenchStore(b *testing.B, factory store.Factory) store.IFileStore {
	b.Helper()
	s, err := factory()
	if err != nil {
		b.Fatalf("failed to create store: %v", err)
	}
	return s
}
