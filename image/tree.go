package image

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/rstms/imgfs"
	"github.com/spf13/afero"
)

// WriteTree mirrors a host directory subtree into the image
// directory at innerPath. The destination must be empty: tree copies
// fail fast rather than merge, so a completed copy is always exactly
// the host subtree. Symlinks and special files on the host are
// skipped with a warning. Entries are visited in lexicographic order
// to keep repeated copies reproducible.
func (i *Image) WriteTree(hostFs afero.Fs, innerPath, hostPath string) error {
	dir, err := i.getDir(innerPath)
	if err != nil {
		return err
	}
	for _, entry := range dir.Entries() {
		name := entry.Name()
		if name == "." || name == ".." || entry.IsVolumeId() {
			continue
		}
		return fmt.Errorf("%w: %s contains %s", ErrDestinationNotEmpty, innerPath, name)
	}
	return writeTree(hostFs, dir, hostPath)
}

func writeTree(hostFs afero.Fs, dir imgfs.Directory, hostPath string) error {
	// afero.ReadDir returns entries sorted by name
	infos, err := afero.ReadDir(hostFs, hostPath)
	if err != nil {
		return Fatal(err)
	}

	for _, info := range infos {
		name := info.Name()
		source := filepath.Join(hostPath, name)
		mode := info.Mode()

		switch {
		case mode&os.ModeSymlink != 0:
			log.Printf("warning: not copying symlink: %s\n", source)
		case mode.IsDir():
			entry, err := dir.AddDirectory(name)
			if err != nil {
				return Fatal(err)
			}
			subdir, err := entry.Dir()
			if err != nil {
				return Fatal(err)
			}
			if err := writeTree(hostFs, subdir, source); err != nil {
				return err
			}
		case mode.IsRegular():
			if err := copyFileToImage(hostFs, dir, name, source); err != nil {
				return err
			}
		default:
			log.Printf("warning: not copying special file: %s\n", source)
		}
	}
	return nil
}

func copyFileToImage(hostFs afero.Fs, dir imgfs.Directory, name, source string) error {
	src, err := hostFs.Open(source)
	if err != nil {
		return Fatal(err)
	}
	defer src.Close()

	entry, err := dir.AddFile(name)
	if err != nil {
		return Fatal(err)
	}
	dst, err := entry.File()
	if err != nil {
		return Fatal(err)
	}
	defer dst.Close()

	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		return Fatal(err)
	}
	return nil
}

// ReadTree mirrors the image directory subtree at innerPath onto the
// host filesystem. A missing destination is created along with any
// intervening parents. An existing non-empty destination requires
// force, which replaces conflicting files byte-for-byte and merges
// directories recursively; a host entry whose kind differs from the
// incoming image entry (file versus directory) is never replaced and
// reports ErrDestinationTypeMismatch.
func (i *Image) ReadTree(hostFs afero.Fs, innerPath, hostPath string, force bool) error {
	dir, err := i.getDir(innerPath)
	if err != nil {
		return err
	}

	info, err := hostFs.Stat(hostPath)
	switch {
	case os.IsNotExist(err):
		if err := hostFs.MkdirAll(hostPath, 0755); err != nil {
			return Fatal(err)
		}
	case err != nil:
		return Fatal(err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s", ErrDestinationTypeMismatch, hostPath)
	default:
		existing, err := afero.ReadDir(hostFs, hostPath)
		if err != nil {
			return Fatal(err)
		}
		if len(existing) > 0 && !force {
			return fmt.Errorf("%w: %s", ErrDestinationNotEmpty, hostPath)
		}
	}

	return readTree(dir, hostFs, hostPath)
}

func readTree(dir imgfs.Directory, hostFs afero.Fs, hostPath string) error {
	for _, entry := range sortedEntries(dir) {
		target := filepath.Join(hostPath, entry.Name())
		info, err := hostFs.Stat(target)
		if err != nil && !os.IsNotExist(err) {
			return Fatal(err)
		}
		if info != nil && info.IsDir() != entry.IsDir() {
			return fmt.Errorf("%w: %s", ErrDestinationTypeMismatch, target)
		}
		if entry.IsDir() {
			if err := hostFs.MkdirAll(target, 0755); err != nil {
				return Fatal(err)
			}
			subdir, err := entry.Dir()
			if err != nil {
				return Fatal(err)
			}
			if err := readTree(subdir, hostFs, target); err != nil {
				return err
			}
		} else {
			if err := copyFileToHost(entry, hostFs, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFileToHost(entry imgfs.DirectoryEntry, hostFs afero.Fs, target string) error {
	src, err := entry.File()
	if err != nil {
		return Fatal(err)
	}
	defer src.Close()

	dst, err := hostFs.Create(target)
	if err != nil {
		return Fatal(err)
	}

	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		dst.Close()
		return Fatal(err)
	}
	if err := dst.Close(); err != nil {
		return Fatal(err)
	}
	return nil
}

// sortedEntries returns a directory's real children in lexicographic
// order, dropping the synthetic dot entries and the volume label.
func sortedEntries(dir imgfs.Directory) []imgfs.DirectoryEntry {
	entries := []imgfs.DirectoryEntry{}
	for _, entry := range dir.Entries() {
		name := entry.Name()
		if name == "." || name == ".." || entry.IsVolumeId() {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].Name() < entries[b].Name()
	})
	return entries
}
