package base

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"
)

// chunkReader returns at most n bytes per Read call
type chunkReader struct {
	data []byte
	n    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := min(r.n, len(p), len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestFrameRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	large := make([]byte, 3*readChunkSize+17)
	for i := range large {
		// printable bytes only, a random payload could contain the terminator
		large[i] = byte('a' + rnd.Intn(26))
	}

	messages := map[string][]byte{
		"empty":  {},
		"short":  []byte("LIST"),
		"spaces": []byte("GET my file.txt"),
		"large":  large,
	}

	// chunk sizes that split the terminator at every possible position
	chunkSizes := []int{1, 2, 3, 5, 7, 4096, readChunkSize, 10 * readChunkSize}

	for name, msg := range messages {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteFrame(&buf, msg); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}
			if !bytes.HasSuffix(buf.Bytes(), Terminator) {
				t.Fatalf("frame does not end with the terminator")
			}

			for _, size := range chunkSizes {
				r := &chunkReader{data: bytes.Clone(buf.Bytes()), n: size}
				got, err := ReadFrame(r, 0)
				if err != nil {
					t.Fatalf("ReadFrame with chunk size %d failed: %v", size, err)
				}
				if !bytes.Equal(got, msg) {
					t.Fatalf("ReadFrame with chunk size %d returned %d bytes, want %d", size, len(got), len(msg))
				}
			}
		})
	}
}

func TestReadFrameIgnoresTrailingBytes(t *testing.T) {
	r := bytes.NewReader([]byte("first\r\n\r\nsecond\r\n\r\n"))
	got, err := ReadFrame(r, 0)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("ReadFrame = %q, want %q", got, "first")
	}
}

func TestReadFrameEOF(t *testing.T) {
	// nothing read at all: end of stream
	if _, err := ReadFrame(bytes.NewReader(nil), 0); !errors.Is(err, io.EOF) {
		t.Errorf("ReadFrame on empty stream = %v, want io.EOF", err)
	}

	// peer closed in the middle of a frame
	r := &chunkReader{data: []byte("GET a.txt\r\n"), n: 3}
	if _, err := ReadFrame(r, 0); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadFrame on truncated frame = %v, want io.ErrUnexpectedEOF", err)
	}

	// data and EOF returned by the same Read call
	r2 := iotest.DataErrReader(bytes.NewReader([]byte("LIST\r\n\r\n")))
	got, err := ReadFrame(r2, 0)
	if err != nil || string(got) != "LIST" {
		t.Errorf("ReadFrame with DataErrReader = %q, %v", got, err)
	}
}

func TestReadFrameMaxSize(t *testing.T) {
	msg := bytes.Repeat([]byte("x"), 1024)

	var buf bytes.Buffer
	_ = WriteFrame(&buf, msg)

	if _, err := ReadFrame(bytes.NewReader(buf.Bytes()), 512); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("ReadFrame with limit 512 = %v, want ErrFrameTooLarge", err)
	}
	if got, err := ReadFrame(bytes.NewReader(buf.Bytes()), 1024); err != nil || len(got) != 1024 {
		t.Errorf("ReadFrame with limit 1024 = %d bytes, %v", len(got), err)
	}
}

func TestReadFrameReadError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := ReadFrame(iotest.ErrReader(boom), 0); !errors.Is(err, boom) {
		t.Errorf("ReadFrame = %v, want %v", err, boom)
	}
}
