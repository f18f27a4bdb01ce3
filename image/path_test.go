package image

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitInnerPath(t *testing.T) {
	tests := []struct {
		path     string
		expected []string
	}{
		{"/", []string{}},
		{"//", []string{}},
		{"/a", []string{"a"}},
		{"/a/b/c", []string{"a", "b", "c"}},
		{"/a//b/", []string{"a", "b"}},
		{"///a///", []string{"a"}},
		{"/spaced name/x", []string{"spaced name", "x"}},
	}
	for _, tt := range tests {
		segments, err := SplitInnerPath(tt.path)
		require.Nil(t, err, tt.path)
		require.Equal(t, tt.expected, segments, tt.path)
	}
}

func TestSplitInnerPathKeepsDotSegments(t *testing.T) {
	// inner paths get no relative resolution; dot segments pass
	// through to the backend lookup untouched
	segments, err := SplitInnerPath("/a/./../b")
	require.Nil(t, err)
	require.Equal(t, []string{"a", ".", "..", "b"}, segments)
}

func TestSplitInnerPathRejectsRelative(t *testing.T) {
	for _, p := range []string{"", "a", "a/b", "./a", "..", " /a"} {
		_, err := SplitInnerPath(p)
		require.NotNil(t, err, p)
		require.True(t, errors.Is(err, ErrNotAbsolute), p)
	}
}
