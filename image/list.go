package image

import (
	"fmt"
	"io"
	"strings"

	"github.com/rstms/imgfs"
)

// maximum -l verbosity tier
const MaxListLong = 3

// ListOptions controls listing verbosity and recursion.
type ListOptions struct {
	// Long is the metadata tier, 0 through MaxListLong.
	Long int

	// Recursive descends into subdirectories depth-first.
	Recursive bool
}

// List renders the contents of one image directory to w, one line
// per entry in backend order.
func (i *Image) List(w io.Writer, innerPath string, opts ListOptions) error {
	dir, err := i.getDir(innerPath)
	if err != nil {
		return err
	}
	return listDir(w, dir, opts, 0)
}

func listDir(w io.Writer, dir imgfs.Directory, opts ListOptions, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, entry := range dir.Entries() {
		name := entry.Name()
		if name == "." || name == ".." || entry.IsVolumeId() {
			continue
		}

		var line strings.Builder
		line.WriteString(indent)

		if opts.Long >= 3 {
			line.WriteString("created ")
			line.WriteString(FormatDateTime(entry.CreateTime()))
			line.WriteString(" ")
		}
		if opts.Long >= 2 {
			line.WriteString("modified ")
			line.WriteString(FormatDateTime(entry.WriteTime()))
			line.WriteString(" ")
		}
		if opts.Long >= 3 {
			line.WriteString("accessed ")
			line.WriteString(FormatDate(entry.AccessTime()))
			line.WriteString(" ")
		}
		if opts.Long >= 1 {
			line.WriteString(FormatAttr(entry.Attr()))
			line.WriteString(" ")
			if !entry.IsDir() {
				fmt.Fprintf(&line, "size %d ", entry.Size())
			}
		}

		line.WriteString(name)
		if entry.IsDir() {
			line.WriteString("/")
		}

		if _, err := fmt.Fprintln(w, line.String()); err != nil {
			return Fatal(err)
		}

		if opts.Recursive && entry.IsDir() {
			subdir, err := entry.Dir()
			if err != nil {
				return Fatal(err)
			}
			if err := listDir(w, subdir, opts, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
