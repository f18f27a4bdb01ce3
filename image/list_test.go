package image

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rstms/imgfs"
	"github.com/stretchr/testify/require"
)

func listLines(t *testing.T, img *Image, path string, opts ListOptions) []string {
	var buf bytes.Buffer
	err := img.List(&buf, path, opts)
	require.Nil(t, err)
	out := strings.TrimSuffix(buf.String(), "\n")
	if out == "" {
		return []string{}
	}
	return strings.Split(out, "\n")
}

func TestListSkipsDotEntries(t *testing.T) {
	fsys := newFakeFS()
	mustAddFile(fsys.root, "a.txt", []byte("aa"))
	mustAddDir(fsys.root, "sub")
	addDotEntries(fsys.root)
	img := New(fsys)

	lines := listLines(t, img, "/", ListOptions{})
	require.Equal(t, []string{"a.txt", "sub/"}, lines)
}

func TestListTiers(t *testing.T) {
	fsys := newFakeFS()
	mustAddFile(fsys.root, "a.txt", []byte("hello"))
	mustAddDir(fsys.root, "sub")
	img := New(fsys)

	lines := listLines(t, img, "/", ListOptions{Long: 1})
	require.Len(t, lines, 2)
	require.Equal(t, "------ size 5 a.txt", lines[0])
	require.Equal(t, "d----- sub/", lines[1])

	lines = listLines(t, img, "/", ListOptions{Long: 2})
	require.True(t, strings.HasPrefix(lines[0], "modified "), lines[0])
	require.NotContains(t, lines[0], "created ")
	require.NotContains(t, lines[0], "accessed ")

	lines = listLines(t, img, "/", ListOptions{Long: 3})
	require.True(t, strings.HasPrefix(lines[0], "created "), lines[0])
	require.Contains(t, lines[0], "modified ")
	require.Contains(t, lines[0], "accessed ")
	require.True(t, strings.HasSuffix(lines[0], "size 5 a.txt"), lines[0])
}

func TestListRecursiveIndentation(t *testing.T) {
	fsys := newFakeFS()
	sub := mustAddDir(fsys.root, "sub")
	deep := mustAddDir(sub, "deep")
	mustAddFile(deep, "leaf.txt", nil)
	img := New(fsys)

	lines := listLines(t, img, "/", ListOptions{Recursive: true})
	require.Equal(t, []string{
		"sub/",
		"  deep/",
		"    leaf.txt",
	}, lines)
}

func TestListSubdirectoryPath(t *testing.T) {
	fsys := newFakeFS()
	sub := mustAddDir(fsys.root, "sub")
	mustAddFile(sub, "inner.bin", []byte{1, 2, 3})
	img := New(fsys)

	lines := listLines(t, img, "/sub", ListOptions{})
	require.Equal(t, []string{"inner.bin"}, lines)

	lines = listLines(t, img, "//sub/", ListOptions{})
	require.Equal(t, []string{"inner.bin"}, lines)
}

func TestListOrderIsBackendOrder(t *testing.T) {
	fsys := newFakeFS()
	mustAddFile(fsys.root, "zzz", nil)
	mustAddFile(fsys.root, "aaa", nil)
	img := New(fsys)

	lines := listLines(t, img, "/", ListOptions{})
	require.Equal(t, []string{"zzz", "aaa"}, lines)
}

func TestListSkipsVolumeLabel(t *testing.T) {
	fsys := newFakeFS()
	label, err := fsys.root.add("FAKE", imgfs.AttrVolumeId)
	require.Nil(t, err)
	require.True(t, label.IsVolumeId())
	mustAddFile(fsys.root, "real.txt", nil)
	img := New(fsys)

	lines := listLines(t, img, "/", ListOptions{})
	require.Equal(t, []string{"real.txt"}, lines)
}

func TestListMissingDirectory(t *testing.T) {
	img := New(newFakeFS())
	var buf bytes.Buffer
	err := img.List(&buf, "/nope", ListOptions{})
	require.NotNil(t, err)
}
