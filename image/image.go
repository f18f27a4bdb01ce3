package image

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rstms/imgfs"
	"github.com/rstms/imgfs/fat"
)

const MB = 1024 * 1024

// copyChunkSize is the buffer used for all byte streaming between
// the host and the image.
const copyChunkSize = 1024

type FileRecord struct {
	Name      string
	ShortName string
	Dir       bool
	Hidden    bool
	System    bool
	ReadOnly  bool
	Size      uint32
}

// Image is one mounted disk-image filesystem. The handle is owned by
// a single command invocation and released on Close.
type Image struct {
	Filename string
	file     *os.File
	disk     *imgfs.FileDisk
	fs       imgfs.FileSystem
}

// New wraps an already-mounted filesystem. Used by callers that
// manage the backing store themselves.
func New(fs imgfs.FileSystem) *Image {
	return &Image{fs: fs}
}

func OpenImage(filename string) (*Image, error) {
	i := Image{Filename: filename}
	var err error
	i.file, err = os.OpenFile(filename, os.O_RDWR, 0600)
	if err != nil {
		return nil, Fatal(err)
	}
	i.disk, err = imgfs.NewFileDisk(i.file)
	if err != nil {
		i.closeFile()
		return nil, Fatal(err)
	}
	i.fs, err = fat.New(i.disk)
	if err != nil {
		i.Close()
		return nil, Fatal(err)
	}
	return &i, nil
}

func CreateImage(filename, label, oem string, bits int, size int64, force bool) (*Image, error) {
	if !force && IsFile(filename) {
		return nil, Fatalf("file exists: %s", filename)
	}
	i := Image{Filename: filename}
	var err error
	err = i.createImageFile(size)
	if err != nil {
		return nil, Fatal(err)
	}
	i.disk, err = imgfs.NewFileDisk(i.file)
	if err != nil {
		i.closeFile()
		return nil, Fatal(err)
	}
	err = i.format(bits, label, oem)
	if err != nil {
		i.Close()
		return nil, Fatal(err)
	}
	i.fs, err = fat.New(i.disk)
	if err != nil {
		i.Close()
		return nil, Fatal(err)
	}
	return &i, nil
}

func (i *Image) closeFile() error {
	if i.file != nil {
		err := i.file.Close()
		if err != nil {
			return Fatal(err)
		}
		i.file = nil
	}
	return nil
}

func (i *Image) closeDisk() error {
	if i.disk != nil {
		err := i.disk.Close()
		if err != nil {
			return Fatal(err)
		}
		i.disk = nil
	}
	return nil
}

func (i *Image) Close() error {
	defer i.closeDisk()
	defer i.closeFile()
	return nil
}

// create, truncate, and reopen the output file
func (i *Image) createImageFile(size int64) error {
	if size%int64(1024) != 0 {
		size = (size/int64(1024) + 1) * int64(1024)
	}
	var err error
	i.file, err = os.OpenFile(i.Filename, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0600)
	if err != nil {
		return Fatal(err)
	}
	err = i.file.Truncate(size)
	if err != nil {
		return Fatal(err)
	}
	return nil
}

func (i *Image) format(bits int, label, oem string) error {
	var ftype fat.FATType
	switch bits {
	case 12:
		ftype = fat.FAT12
	case 16:
		ftype = fat.FAT16
	case 32:
		ftype = fat.FAT32
	default:
		return Fatalf("FAT type not 12,16,or 32")
	}
	id := uuid.New()
	formatConfig := &fat.SuperFloppyConfig{
		FATType:      ftype,
		Label:        label,
		OEMName:      oem,
		SerialNumber: binary.LittleEndian.Uint32(id[:4]),
	}
	err := fat.FormatSuperFloppy(i.disk, formatConfig)
	if err != nil {
		return Fatal(err)
	}
	return nil
}

// searchDir walks the normalized segments from the root. A nil
// directory with nil error means some component is missing; a file
// component reports ErrNotDirectory.
func (i *Image) searchDir(segments []string) (imgfs.Directory, error) {
	dir, err := i.fs.RootDir()
	if err != nil {
		return nil, Fatal(err)
	}
	for _, name := range segments {
		entry := dir.Entry(name)
		if entry == nil {
			return nil, nil
		}
		if !entry.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, name)
		}
		dir, err = entry.Dir()
		if err != nil {
			return nil, Fatal(err)
		}
	}
	return dir, nil
}

// getDir resolves an absolute inner path to an open directory.
func (i *Image) getDir(innerPath string) (imgfs.Directory, error) {
	segments, err := SplitInnerPath(innerPath)
	if err != nil {
		return nil, err
	}
	return i.getDirSegments(segments)
}

func (i *Image) getDirSegments(segments []string) (imgfs.Directory, error) {
	dir, err := i.searchDir(segments)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, fmt.Errorf("%w: directory /%s", ErrNotFound, strings.Join(segments, "/"))
	}
	return dir, nil
}

func (i *Image) IsDir(innerPath string) (bool, error) {
	segments, err := SplitInnerPath(innerPath)
	if err != nil {
		return false, err
	}
	dir, err := i.searchDir(segments)
	if errors.Is(err, ErrNotDirectory) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return dir != nil, nil
}

func (i *Image) Mkdir(innerPath string) error {
	segments, err := SplitInnerPath(innerPath)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return fmt.Errorf("%w: /", ErrExists)
	}
	parent, err := i.getDirSegments(segments[:len(segments)-1])
	if err != nil {
		return err
	}
	name := segments[len(segments)-1]
	if parent.Entry(name) != nil {
		return fmt.Errorf("%w: %s", ErrExists, innerPath)
	}
	_, err = parent.AddDirectory(name)
	if err != nil {
		return Fatal(err)
	}
	return nil
}

// ReadFile streams the contents of one image file to w.
func (i *Image) ReadFile(innerPath string, w io.Writer) error {
	entry, err := i.getFileEntry(innerPath)
	if err != nil {
		return err
	}
	src, err := entry.File()
	if err != nil {
		return Fatal(err)
	}
	defer src.Close()
	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(w, src, buf); err != nil {
		return Fatal(err)
	}
	return nil
}

// WriteFile streams bytes from r into one image file, creating it if
// absent and truncating any previous contents.
func (i *Image) WriteFile(innerPath string, r io.Reader) error {
	segments, err := SplitInnerPath(innerPath)
	if err != nil {
		return err
	}
	if len(segments) == 0 {
		return Fatalf("not a file: /")
	}
	parent, err := i.getDirSegments(segments[:len(segments)-1])
	if err != nil {
		return err
	}
	name := segments[len(segments)-1]

	entry := parent.Entry(name)
	if entry == nil {
		entry, err = parent.AddFile(name)
		if err != nil {
			return Fatal(err)
		}
	} else if entry.IsDir() {
		return Fatalf("is a directory: %s", innerPath)
	}

	dst, err := entry.File()
	if err != nil {
		return Fatal(err)
	}
	defer dst.Close()
	if err := dst.Truncate(); err != nil {
		return Fatal(err)
	}
	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(dst, r, buf); err != nil {
		return Fatal(err)
	}
	return nil
}

func (i *Image) getFileEntry(innerPath string) (imgfs.DirectoryEntry, error) {
	segments, err := SplitInnerPath(innerPath)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, Fatalf("not a file: /")
	}
	dir, err := i.getDirSegments(segments[:len(segments)-1])
	if err != nil {
		return nil, err
	}
	entry := dir.Entry(segments[len(segments)-1])
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, innerPath)
	}
	if entry.IsDir() {
		return nil, Fatalf("is a directory: %s", innerPath)
	}
	return entry, nil
}

// Info prints the filesystem identification and usage report.
func (i *Image) Info(w io.Writer) error {
	fatType, err := i.fs.FATType()
	if err != nil {
		return Fatal(err)
	}
	volumeId, err := i.fs.VolumeID()
	if err != nil {
		return Fatal(err)
	}
	label, err := i.fs.VolumeLabel()
	if err != nil {
		return Fatal(err)
	}
	stats, err := i.fs.Stats()
	if err != nil {
		return Fatal(err)
	}
	fmt.Fprintf(w, "fs type:       FAT%d\n", fatType)
	fmt.Fprintf(w, "volume id:     0x%08x\n", volumeId)
	fmt.Fprintf(w, "volume label:  %s\n", label)
	fmt.Fprintf(w, "cluster size:  %d\n", stats.ClusterSize)
	fmt.Fprintf(w, "cluster count: %d\n", stats.TotalClusters)
	fmt.Fprintf(w, "clusters free: %d\n", stats.FreeClusters)
	if stats.TotalClusters > 0 {
		used := stats.TotalClusters - stats.FreeClusters
		fmt.Fprintf(w, "usage:         %d%%\n", used*100/stats.TotalClusters)
	}
	return nil
}

// ScanFiles returns a flat record of every file and directory in the
// image, depth first.
func (i *Image) ScanFiles() ([]FileRecord, error) {
	ret := []FileRecord{}

	imgRoot, err := i.fs.RootDir()
	if err != nil {
		return ret, Fatal(err)
	}

	records, err := walk("/", imgRoot)
	if err != nil {
		return ret, Fatal(err)
	}

	return records, nil
}

func walk(dir string, cursor imgfs.Directory) ([]FileRecord, error) {
	records := []FileRecord{}
	for _, entry := range cursor.Entries() {
		switch {
		case entry.Name() == ".":
		case entry.Name() == "..":
		case entry.IsVolumeId():
		default:
			attr := entry.Attr()
			record := FileRecord{
				Name:      path.Join(dir, entry.Name()),
				ShortName: entry.ShortName(),
				Dir:       attr&imgfs.AttrDirectory == imgfs.AttrDirectory,
				Hidden:    attr&imgfs.AttrHidden == imgfs.AttrHidden,
				System:    attr&imgfs.AttrSystem == imgfs.AttrSystem,
				ReadOnly:  attr&imgfs.AttrReadOnly == imgfs.AttrReadOnly,
				Size:      entry.Size(),
			}
			records = append(records, record)
			if entry.IsDir() {
				subdir, err := entry.Dir()
				if err != nil {
					return []FileRecord{}, Fatal(err)
				}
				subRecords, err := walk(path.Join(dir, entry.Name()), subdir)
				if err != nil {
					return []FileRecord{}, Fatal(err)
				}
				records = append(records, subRecords...)
			}
		}
	}
	return records, nil
}

// SetAttr toggles one attribute flag on an entry.
func (i *Image) SetAttr(innerPath string, attr imgfs.DirectoryAttr, state bool) error {
	entry, err := i.getEntry(innerPath)
	if err != nil {
		return err
	}
	err = entry.SetAttr(attr, state)
	if err != nil {
		return Fatal(err)
	}
	return nil
}

func (i *Image) GetAttr(innerPath string) (imgfs.DirectoryAttr, error) {
	entry, err := i.getEntry(innerPath)
	if err != nil {
		return 0, err
	}
	return entry.Attr(), nil
}

func (i *Image) getEntry(innerPath string) (imgfs.DirectoryEntry, error) {
	segments, err := SplitInnerPath(innerPath)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, Fatalf("no entry for root directory")
	}
	dir, err := i.getDirSegments(segments[:len(segments)-1])
	if err != nil {
		return nil, err
	}
	entry := dir.Entry(segments[len(segments)-1])
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, innerPath)
	}
	return entry, nil
}
