package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// JPEG markers so fixture files look like real camera captures to the
// spool and upload paths.
var (
	jpegHeader  = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	jpegTrailer = []byte{0xff, 0xd9}
)

// WriteFile creates a JPEG-shaped photo fixture of exactly size bytes.
// A size <= 0 writes the smallest marker-only payload.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, photoBytes(size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func photoBytes(size int64) []byte {
	minSize := int64(len(jpegHeader) + len(jpegTrailer))
	if size <= 0 {
		size = minSize
	}
	buf := make([]byte, size)
	filled := copy(buf, jpegHeader)
	for i := filled; i < len(buf); i++ {
		buf[i] = byte(0x20 + i%0x5f)
	}
	if size >= minSize {
		copy(buf[size-int64(len(jpegTrailer)):], jpegTrailer)
	}
	return buf
}
