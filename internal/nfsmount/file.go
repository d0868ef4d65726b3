package nfsmount

import (
	"bytes"

	billy "github.com/go-git/go-billy/v5"
)

// contentFile is a read-only billy.File over rendered property text. The
// embedded reader supplies Read, ReadAt and Seek.
type contentFile struct {
	*bytes.Reader
	name string
}

func newContentFile(name string, data []byte) *contentFile {
	return &contentFile{Reader: bytes.NewReader(data), name: name}
}

func (f *contentFile) Name() string              { return f.name }
func (f *contentFile) Write([]byte) (int, error) { return 0, errReadOnly }
func (f *contentFile) Truncate(int64) error      { return errReadOnly }
func (f *contentFile) Lock() error               { return nil }
func (f *contentFile) Unlock() error             { return nil }
func (f *contentFile) Close() error              { return nil }

var _ billy.File = (*contentFile)(nil)
