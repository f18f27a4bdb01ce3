package image

// An in-memory filesystem backend implementing the imgfs capability
// interfaces, so the traversal engine can be exercised without the
// FAT encoder.

import (
	"io"
	"time"

	"github.com/rstms/imgfs"
)

type fakeFS struct {
	root *fakeDir
}

func newFakeFS() *fakeFS {
	return &fakeFS{root: &fakeDir{}}
}

func (f *fakeFS) RootDir() (imgfs.Directory, error) { return f.root, nil }
func (f *fakeFS) FATType() (int, error)             { return 12, nil }
func (f *fakeFS) OEMName() (string, error)          { return "fake", nil }
func (f *fakeFS) VolumeID() (uint32, error)         { return 0x1234, nil }
func (f *fakeFS) VolumeLabel() (string, error)      { return "FAKE", nil }

func (f *fakeFS) Stats() (imgfs.Stats, error) {
	return imgfs.Stats{ClusterSize: 512, TotalClusters: 100, FreeClusters: 90}, nil
}

type fakeDir struct {
	entries []*fakeEntry
}

func (d *fakeDir) Entry(name string) imgfs.DirectoryEntry {
	for _, entry := range d.entries {
		if entry.name == name {
			return entry
		}
	}
	return nil
}

func (d *fakeDir) Entries() []imgfs.DirectoryEntry {
	result := make([]imgfs.DirectoryEntry, len(d.entries))
	for i, entry := range d.entries {
		result[i] = entry
	}
	return result
}

func (d *fakeDir) AddDirectory(name string) (imgfs.DirectoryEntry, error) {
	return d.add(name, imgfs.AttrDirectory)
}

func (d *fakeDir) AddFile(name string) (imgfs.DirectoryEntry, error) {
	return d.add(name, 0)
}

func (d *fakeDir) add(name string, attr imgfs.DirectoryAttr) (*fakeEntry, error) {
	if d.Entry(name) != nil {
		return nil, Fatalf("name already exists: %s", name)
	}
	now := time.Now()
	entry := &fakeEntry{
		name:     name,
		attr:     attr,
		created:  now,
		written:  now,
		accessed: now,
	}
	if attr&imgfs.AttrDirectory != 0 {
		entry.dir = &fakeDir{}
	}
	d.entries = append(d.entries, entry)
	return entry, nil
}

type fakeEntry struct {
	name     string
	attr     imgfs.DirectoryAttr
	dir      *fakeDir
	data     []byte
	created  time.Time
	written  time.Time
	accessed time.Time
}

func (e *fakeEntry) Name() string      { return e.name }
func (e *fakeEntry) ShortName() string { return e.name }
func (e *fakeEntry) IsDir() bool       { return e.attr&imgfs.AttrDirectory != 0 }
func (e *fakeEntry) IsVolumeId() bool  { return e.attr&imgfs.AttrVolumeId != 0 }

func (e *fakeEntry) Dir() (imgfs.Directory, error) {
	if e.dir == nil {
		return nil, Fatalf("not a directory: %s", e.name)
	}
	return e.dir, nil
}

func (e *fakeEntry) File() (imgfs.File, error) {
	if e.IsDir() {
		return nil, Fatalf("not a file: %s", e.name)
	}
	return &fakeFile{entry: e}, nil
}

func (e *fakeEntry) Attr() imgfs.DirectoryAttr { return e.attr }

func (e *fakeEntry) SetAttr(attr imgfs.DirectoryAttr, state bool) error {
	if state {
		e.attr |= attr
	} else {
		e.attr &= ^attr
	}
	return nil
}

func (e *fakeEntry) Size() uint32          { return uint32(len(e.data)) }
func (e *fakeEntry) CreateTime() time.Time { return e.created }
func (e *fakeEntry) WriteTime() time.Time  { return e.written }
func (e *fakeEntry) AccessTime() time.Time { return e.accessed }

type fakeFile struct {
	entry  *fakeEntry
	offset int
}

func (f *fakeFile) Read(p []byte) (int, error) {
	if f.offset >= len(f.entry.data) {
		return 0, io.EOF
	}
	n := copy(p, f.entry.data[f.offset:])
	f.offset += n
	return n, nil
}

func (f *fakeFile) Write(p []byte) (int, error) {
	f.entry.data = append(f.entry.data[:f.offset], p...)
	f.offset += len(p)
	return len(p), nil
}

func (f *fakeFile) Truncate() error {
	f.entry.data = nil
	f.offset = 0
	return nil
}

func (f *fakeFile) Close() error { return nil }

// test helpers

func mustAddFile(d *fakeDir, name string, data []byte) *fakeEntry {
	entry, err := d.add(name, 0)
	if err != nil {
		panic(err)
	}
	entry.data = data
	return entry
}

func mustAddDir(d *fakeDir, name string) *fakeDir {
	entry, err := d.add(name, imgfs.AttrDirectory)
	if err != nil {
		panic(err)
	}
	return entry.dir
}

// addDotEntries simulates the synthetic entries a FAT subdirectory
// carries on disk.
func addDotEntries(d *fakeDir) {
	now := time.Now()
	d.entries = append([]*fakeEntry{
		{name: ".", attr: imgfs.AttrDirectory, dir: d, created: now, written: now, accessed: now},
		{name: "..", attr: imgfs.AttrDirectory, dir: &fakeDir{}, created: now, written: now, accessed: now},
	}, d.entries...)
}
