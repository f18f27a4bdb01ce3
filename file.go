package imgfs

import "io"

// File is an entry in a filesystem that stores a sequential stream
// of bytes. Reads and writes advance a single shared offset.
type File interface {
	io.Reader
	io.Writer
	io.Closer

	// Truncate discards the file's contents and rewinds the offset.
	Truncate() error
}
