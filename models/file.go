package models

import (
	"bytes"
	"io"
	"time"
)

// File is an uploaded file as seen by the upload pipeline.
type File interface {
	Name() string
	Size() int64
	LastModified() time.Time
	Open() (io.ReadCloser, error)
}

// Record is implemented by every persisted entity.
// FieldValue exposes the fields that can be used as equality filters.
type Record interface {
	RecordID() string
	FieldValue(field string) (string, bool)
}

// BytesFile is an in-memory File.
type BytesFile struct {
	FileName string
	Data     []byte
	Modified time.Time
}

func (f *BytesFile) Name() string            { return f.FileName }
func (f *BytesFile) Size() int64             { return int64(len(f.Data)) }
func (f *BytesFile) LastModified() time.Time { return f.Modified }

func (f *BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
