package image

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotAbsolute is returned for inner paths that do not begin with
// a slash.
var ErrNotAbsolute = errors.New("inner path must be absolute")

// SplitInnerPath normalizes an operator-supplied image path into its
// segments. The path must be absolute; repeated and trailing slashes
// are collapsed. An empty result addresses the root directory.
//
// Segments named "." or ".." are passed through untouched: inner
// paths name image directory entries literally and get no host-style
// relative resolution.
func SplitInnerPath(p string) ([]string, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("%w: %s", ErrNotAbsolute, p)
	}

	segments := []string{}
	for _, s := range strings.Split(p[1:], "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments, nil
}
