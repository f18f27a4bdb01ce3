package imgfs

import (
	"io"
	"os"
)

// A BlockDevice is the raw byte store a filesystem is decoded from
// and encoded to.
type BlockDevice interface {
	io.Closer
	io.ReaderAt
	io.WriterAt

	// Len returns the size of the device in bytes.
	Len() int64

	// SectorSize returns the size of a single sector on the device.
	SectorSize() int
}

const defaultSectorSize = 512

// FileDisk presents a host file as a BlockDevice.
type FileDisk struct {
	file *os.File
	size int64
}

// ensure FileDisk implements BlockDevice
var _ BlockDevice = (*FileDisk)(nil)

// NewFileDisk wraps an open file. The caller retains ownership of
// the file handle; Close does not close it.
func NewFileDisk(f *os.File) (*FileDisk, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &FileDisk{file: f, size: info.Size()}, nil
}

func (d *FileDisk) Close() error {
	d.file = nil
	return nil
}

func (d *FileDisk) Len() int64 {
	return d.size
}

func (d *FileDisk) ReadAt(p []byte, off int64) (int, error) {
	return d.file.ReadAt(p, off)
}

func (d *FileDisk) SectorSize() int {
	return defaultSectorSize
}

func (d *FileDisk) WriteAt(p []byte, off int64) (int, error) {
	return d.file.WriteAt(p, off)
}

// MemDisk is an in-memory BlockDevice used by tests and by callers
// that build images without touching the host filesystem.
type MemDisk struct {
	data []byte
}

// ensure MemDisk implements BlockDevice
var _ BlockDevice = (*MemDisk)(nil)

func NewMemDisk(size int64) *MemDisk {
	return &MemDisk{data: make([]byte, size)}
}

func (d *MemDisk) Close() error {
	return nil
}

func (d *MemDisk) Len() int64 {
	return int64(len(d.data))
}

func (d *MemDisk) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(d.data)) {
		return 0, io.EOF
	}
	n := copy(p, d.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *MemDisk) SectorSize() int {
	return defaultSectorSize
}

func (d *MemDisk) WriteAt(p []byte, off int64) (int, error) {
	if off+int64(len(p)) > int64(len(d.data)) {
		return 0, io.ErrShortWrite
	}
	return copy(d.data[off:], p), nil
}
