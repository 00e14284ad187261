// Package archive packages the events file into a single-entry zip held in
// memory.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ContentType is the media type of the produced archive.
const ContentType = "application/zip"

// PackageFile zips the file at path under its base name.
func PackageFile(path string) (*bytes.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive source: %w", err)
	}
	return pack(filepath.Base(path), info.ModTime(), f)
}

// Package zips everything read from r as a single deflated entry called name.
// The returned reader is positioned at the start of the archive.
func Package(name string, r io.Reader) (*bytes.Reader, error) {
	return pack(name, time.Now(), r)
}

func pack(name string, modified time.Time, r io.Reader) (*bytes.Reader, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("create archive entry: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return nil, fmt.Errorf("compress %s: %w", name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}
