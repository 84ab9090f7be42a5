package io

import (
	"bytes"
	"io"
)

type (
	// File is a single output file. Paths are relative to the directory passed to [OutputTo].
	File interface {
		Path() string
		WriteTo(io.Writer) (int64, error)
		Clone() File
	}

	// RawFile holds generated content in memory. Use [FileRef] for content that already exists on disk.
	RawFile struct {
		FPath   string
		Content []byte
	}
)

func (r *RawFile) Clone() File {
	return &RawFile{FPath: r.FPath, Content: bytes.Clone(r.Content)}
}

func (r *RawFile) Path() string {
	return r.FPath
}

func (r *RawFile) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Content)
	return int64(n), err
}
