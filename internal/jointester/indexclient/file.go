package indexclient

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/armadaproject/jointester/internal/jointester/configuration"
	"github.com/armadaproject/jointester/internal/jointester/model"
)

// File is a Backend writing one JSON document per line to a zstd compressed file. Nested children are
// written inside their parent's line. The output can be replayed into an index with its bulk loader.
type File struct {
	path string

	mu      sync.Mutex
	file    *os.File
	encoder *zstd.Encoder
	writer  *bufio.Writer
}

// NewFile creates a File backend writing to config.Path. The file is created by Connect.
func NewFile(config configuration.FileConfig) *File {
	return &File{path: config.Path}
}

func (f *File) Connect(_ context.Context) error {
	file, err := os.Create(f.path)
	if err != nil {
		return errors.WithStack(err)
	}
	encoder, err := zstd.NewWriter(file)
	if err != nil {
		_ = file.Close()
		return errors.WithStack(err)
	}
	f.file = file
	f.encoder = encoder
	f.writer = bufio.NewWriter(encoder)
	return nil
}

func (f *File) Send(_ context.Context, records []model.Record, _ time.Duration) error {
	lines := make([][]byte, len(records))
	for i, r := range records {
		line, err := json.Marshal(document(r))
		if err != nil {
			return errors.Wrapf(err, "encoding record %s", r.ID)
		}
		lines[i] = line
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, line := range lines {
		if _, err := f.writer.Write(line); err != nil {
			return errors.WithStack(err)
		}
		if err := f.writer.WriteByte('\n'); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// Commit flushes everything written so far to disk.
func (f *File) Commit(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.writer.Flush(); err != nil {
		return errors.WithStack(err)
	}
	if err := f.encoder.Flush(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(f.file.Sync())
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	flushErr := f.writer.Flush()
	closeErr := f.encoder.Close()
	fileErr := f.file.Close()
	f.file = nil
	for _, err := range []error{flushErr, closeErr, fileErr} {
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
