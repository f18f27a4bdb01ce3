package image

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rstms/imgfs"
	"github.com/rstms/imgfs/fat"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// newMemImage formats a FAT12 floppy-sized filesystem on an
// in-memory device and mounts it.
func newMemImage(t *testing.T) *Image {
	disk := imgfs.NewMemDisk(1440 * 1024)
	err := fat.FormatSuperFloppy(disk, &fat.SuperFloppyConfig{
		FATType:      fat.FAT12,
		Label:        "TEST",
		OEMName:      "imgfs",
		SerialNumber: 0x1234abcd,
	})
	require.Nil(t, err)
	fsys, err := fat.New(disk)
	require.Nil(t, err)
	return New(fsys)
}

func TestImageMkdirIsDir(t *testing.T) {
	img := newMemImage(t)

	ret, err := img.IsDir("/")
	require.Nil(t, err)
	require.True(t, ret)

	ret, err = img.IsDir("/foo")
	require.Nil(t, err)
	require.False(t, ret)

	require.Nil(t, img.Mkdir("/foo"))

	ret, err = img.IsDir("/foo")
	require.Nil(t, err)
	require.True(t, ret)

	require.Nil(t, img.Mkdir("/foo/bar"))

	ret, err = img.IsDir("/foo/bar")
	require.Nil(t, err)
	require.True(t, ret)

	err = img.Mkdir("/foo")
	require.True(t, errors.Is(err, ErrExists))

	err = img.Mkdir("/missing/child")
	require.True(t, errors.Is(err, ErrNotFound))

	err = img.Mkdir("relative")
	require.True(t, errors.Is(err, ErrNotAbsolute))
}

func TestImagePathThroughFile(t *testing.T) {
	img := newMemImage(t)
	require.Nil(t, img.WriteFile("/blocker.txt", strings.NewReader("x")))

	err := img.Mkdir("/blocker.txt/child")
	require.True(t, errors.Is(err, ErrNotDirectory))

	err = img.ReadFile("/blocker.txt/child", io.Discard)
	require.True(t, errors.Is(err, ErrNotDirectory))

	// IsDir answers the question instead of failing
	ret, err := img.IsDir("/blocker.txt/child")
	require.Nil(t, err)
	require.False(t, ret)
}

func TestImageWriteReadFile(t *testing.T) {
	img := newMemImage(t)

	for _, size := range []int{0, 1, 1024, 2000} {
		data := chunkPattern(size)
		name := "/data.bin"
		require.Nil(t, img.WriteFile(name, bytes.NewReader(data)))

		var buf bytes.Buffer
		require.Nil(t, img.ReadFile(name, &buf))
		require.Equal(t, data, buf.Bytes(), "size %d", size)
	}
}

func TestImageWriteTruncatesExisting(t *testing.T) {
	img := newMemImage(t)

	require.Nil(t, img.WriteFile("/f.txt", strings.NewReader("a much longer first version")))
	require.Nil(t, img.WriteFile("/f.txt", strings.NewReader("short")))

	var buf bytes.Buffer
	require.Nil(t, img.ReadFile("/f.txt", &buf))
	require.Equal(t, "short", buf.String())
}

func TestImageReadMissingFile(t *testing.T) {
	img := newMemImage(t)
	var buf bytes.Buffer
	err := img.ReadFile("/nope.txt", &buf)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestImageInfo(t *testing.T) {
	img := newMemImage(t)
	var buf bytes.Buffer
	require.Nil(t, img.Info(&buf))
	out := buf.String()
	require.Contains(t, out, "fs type:       FAT12")
	require.Contains(t, out, "volume id:     0x1234abcd")
	require.Contains(t, out, "volume label:  TEST")
	require.Contains(t, out, "usage:         0%")
}

func TestImageListLongNames(t *testing.T) {
	img := newMemImage(t)
	require.Nil(t, img.Mkdir("/sub"))
	require.Nil(t, img.WriteFile("/sub/a-long-mixed-Case-name.txt", strings.NewReader("x")))

	var buf bytes.Buffer
	require.Nil(t, img.List(&buf, "/", ListOptions{Recursive: true}))
	require.Equal(t, "sub/\n  a-long-mixed-Case-name.txt\n", buf.String())
}

func TestImageTreeRoundTrip(t *testing.T) {
	img := newMemImage(t)

	srcFs := afero.NewMemMapFs()
	writeHostFile(t, srcFs, "/src/readme.txt", []byte("hello image"))
	writeHostFile(t, srcFs, "/src/bin/blob.dat", chunkPattern(2000))
	require.Nil(t, srcFs.MkdirAll("/src/bin/empty", 0755))

	require.Nil(t, img.WriteTree(srcFs, "/", "/src"))

	// a second write-tree against the now-populated root must fail
	err := img.WriteTree(srcFs, "/", "/src")
	require.True(t, errors.Is(err, ErrDestinationNotEmpty))

	dstFs := afero.NewMemMapFs()
	require.Nil(t, img.ReadTree(dstFs, "/", "/dst", false))

	data, err := afero.ReadFile(dstFs, "/dst/readme.txt")
	require.Nil(t, err)
	require.Equal(t, []byte("hello image"), data)

	data, err = afero.ReadFile(dstFs, "/dst/bin/blob.dat")
	require.Nil(t, err)
	require.Equal(t, chunkPattern(2000), data)

	info, err := dstFs.Stat("/dst/bin/empty")
	require.Nil(t, err)
	require.True(t, info.IsDir())
}

func TestImageAttr(t *testing.T) {
	img := newMemImage(t)
	require.Nil(t, img.WriteFile("/f.txt", strings.NewReader("x")))

	require.Nil(t, img.SetAttr("/f.txt", imgfs.AttrHidden, true))
	attr, err := img.GetAttr("/f.txt")
	require.Nil(t, err)
	require.Equal(t, "--h---", FormatAttr(attr))

	require.Nil(t, img.SetAttr("/f.txt", imgfs.AttrHidden, false))
	attr, err = img.GetAttr("/f.txt")
	require.Nil(t, err)
	require.Equal(t, "------", FormatAttr(attr))
}

func TestImageCreateOpenFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "disk.img")

	img, err := CreateImage(filename, "CREATE", "imgfs", 12, 1440*1024, false)
	require.Nil(t, err)
	require.Nil(t, img.Mkdir("/files"))
	require.Nil(t, img.WriteFile("/files/howdy", strings.NewReader("howdy howdy howdy")))
	require.Nil(t, img.Close())

	// recreating without force must refuse
	_, err = CreateImage(filename, "CREATE", "imgfs", 12, 1440*1024, false)
	require.NotNil(t, err)

	img, err = OpenImage(filename)
	require.Nil(t, err)
	defer img.Close()

	var buf bytes.Buffer
	require.Nil(t, img.ReadFile("/files/howdy", &buf))
	require.Equal(t, "howdy howdy howdy", buf.String())

	label, err := img.fs.VolumeLabel()
	require.Nil(t, err)
	require.Equal(t, "CREATE", label)
}

func TestImageScanFiles(t *testing.T) {
	img := newMemImage(t)
	require.Nil(t, img.Mkdir("/EFI"))
	require.Nil(t, img.Mkdir("/EFI/BOOT"))
	require.Nil(t, img.WriteFile("/EFI/BOOT/bootx64.efi", strings.NewReader("efi")))

	records, err := img.ScanFiles()
	require.Nil(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "/EFI", records[0].Name)
	require.True(t, records[0].Dir)
	require.Equal(t, "/EFI/BOOT", records[1].Name)
	require.Equal(t, "/EFI/BOOT/bootx64.efi", records[2].Name)
	require.False(t, records[2].Dir)
	require.Equal(t, uint32(3), records[2].Size)
}
