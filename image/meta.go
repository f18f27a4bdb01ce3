package image

import (
	"fmt"
	"time"

	"github.com/rstms/imgfs"
)

// FormatDate renders a timestamp's date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// FormatTime renders a timestamp's time of day as HH:MM:SS.mmm.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1000000)
}

// FormatDateTime renders date and time separated by a single space.
func FormatDateTime(t time.Time) string {
	return FormatDate(t) + " " + FormatTime(t)
}

// FormatAttr renders an attribute set as a fixed-width mask token.
// Position order is dir, read-only, hidden, system, volume id,
// archive; unset flags render as a dash. The token is stable across
// runs so listings can be diffed.
func FormatAttr(attr imgfs.DirectoryAttr) string {
	mask := []byte("------")
	if attr&imgfs.AttrDirectory != 0 {
		mask[0] = 'd'
	}
	if attr&imgfs.AttrReadOnly != 0 {
		mask[1] = 'r'
	}
	if attr&imgfs.AttrHidden != 0 {
		mask[2] = 'h'
	}
	if attr&imgfs.AttrSystem != 0 {
		mask[3] = 's'
	}
	if attr&imgfs.AttrVolumeId != 0 {
		mask[4] = 'v'
	}
	if attr&imgfs.AttrArchive != 0 {
		mask[5] = 'a'
	}
	return string(mask)
}
