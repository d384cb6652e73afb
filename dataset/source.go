package dataset

import (
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4"
)

// ErrFileNotFound is returned when neither the path nor a compressed sibling exists.
var ErrFileNotFound = errors.New("file not found")

// compressed siblings probed, in order, when the plain file is absent
var archiveExtensions = []string{".gz", ".lz4", ".zip"}

// openSource opens path for reading. If path is missing, path.gz, path.lz4 and path.zip are
// tried and decompressed on the fly; for zip the largest entry is read.
func openSource(path string) (io.ReadCloser, string, error) {
	f, err := os.Open(path)
	if err == nil {
		return f, path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, path, err
	}
	for _, ext := range archiveExtensions {
		candidate := path + ext
		if _, statErr := os.Stat(candidate); statErr != nil {
			continue
		}
		rc, err := openArchive(candidate, ext)
		return rc, candidate, err
	}
	return nil, path, fmt.Errorf("%s: %w", path, ErrFileNotFound)
}

func openArchive(path, ext string) (io.ReadCloser, error) {
	switch ext {
	case ".zip":
		return openZip(path)
	case ".gz":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		gr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		return &stackedCloser{Reader: gr, closers: []io.Closer{gr, f}}, nil
	case ".lz4":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{Reader: lz4.NewReader(f), closers: []io.Closer{f}}, nil
	}
	return nil, fmt.Errorf("unsupported archive %s", path)
}

func openZip(path string) (io.ReadCloser, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}
	var largest *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if largest == nil || f.UncompressedSize64 > largest.UncompressedSize64 {
			largest = f
		}
	}
	if largest == nil {
		zr.Close()
		return nil, fmt.Errorf("zip %s has no files: %w", path, ErrFileNotFound)
	}
	rc, err := largest.Open()
	if err != nil {
		zr.Close()
		return nil, err
	}
	return &stackedCloser{Reader: rc, closers: []io.Closer{rc, zr}}, nil
}

// stackedCloser closes every layer of a decompression stack, innermost first.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
