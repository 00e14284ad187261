// Package integrity computes SHA-256 fingerprints of the events file.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read size used while streaming content into the hash.
const ChunkSize = 4096

// DigestFile returns the lowercase hex SHA-256 of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open digest source: %w", err)
	}
	defer f.Close()
	return Digest(f)
}

// Digest streams r through SHA-256 in ChunkSize reads.
func Digest(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, ChunkSize)
	// Wrapping hides ReaderFrom/WriterTo so CopyBuffer really uses buf.
	if _, err := io.CopyBuffer(struct{ io.Writer }{h}, struct{ io.Reader }{r}, buf); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
