package fat

import (
	"io"
	"time"

	"github.com/rstms/imgfs"
)

// File provides sequential access to the byte contents of one file
// entry. Writes update the entry's size and write time; the owning
// directory is flushed on every metadata change so a mid-stream
// failure leaves consistent on-disk state.
type File struct {
	chain *ClusterChain
	dir   *Directory
	entry *DirectoryClusterEntry
}

// ensure File implements imgfs.File
var _ imgfs.File = (*File)(nil)

func (f *File) Read(p []byte) (int, error) {
	remaining := int64(f.entry.fileSize) - f.chain.offset
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	return f.chain.Read(p)
}

func (f *File) Write(p []byte) (int, error) {
	n, err := f.chain.Write(p)
	if n > 0 {
		if f.chain.offset > int64(f.entry.fileSize) {
			f.entry.fileSize = uint32(f.chain.offset)
		}
		now := time.Now()
		f.entry.writeTime = now
		f.entry.accessTime = now
		if flushErr := f.dir.dirCluster.WriteToDevice(f.dir.device, f.dir.fat); flushErr != nil {
			return n, Fatal(flushErr)
		}
	}
	if err != nil {
		return n, Fatal(err)
	}
	return n, nil
}

// Truncate discards the contents, releases all but the first cluster,
// and rewinds the stream.
func (f *File) Truncate() error {
	if _, err := f.chain.fat.ResizeChain(f.chain.startCluster, 1); err != nil {
		return Fatal(err)
	}
	if err := f.chain.fat.WriteToDevice(f.chain.device); err != nil {
		return Fatal(err)
	}
	f.chain.offset = 0
	f.entry.fileSize = 0
	f.entry.writeTime = time.Now()
	if err := f.dir.dirCluster.WriteToDevice(f.dir.device, f.dir.fat); err != nil {
		return Fatal(err)
	}
	return nil
}

func (f *File) Close() error {
	return nil
}
