package util_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/citypulse/media-services/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListContains(t *testing.T) {
	list := []string{"apple", "orange", "banana"}
	assert.True(t, util.StringListContains(list, "orange"))
	assert.False(t, util.StringListContains(list, "wedgewood"))
	assert.False(t, util.StringListContains(nil, "apple"))
}

func TestPathStem(t *testing.T) {
	assert.Equal(t, "biz42_1700000000", util.PathStem("events/biz42_1700000000.mp4"))
	assert.Equal(t, "clip", util.PathStem("clip.mov"))
	assert.Equal(t, "noext", util.PathStem("events/noext"))
	assert.Equal(t, "archive.tar", util.PathStem("archive.tar.gz"))
	assert.Equal(t, "", util.PathStem(""))
	assert.Equal(t, "", util.PathStem("events/"))
	assert.Equal(t, "", util.PathStem(".mp4"))
}

func TestFileExistsAndSize(t *testing.T) {
	pathToFile := filepath.Join(t.TempDir(), "sample.bin")
	require.Nil(t, os.WriteFile(pathToFile, make([]byte, 512), 0644))

	assert.True(t, util.FileExists(pathToFile))
	assert.Equal(t, int64(512), util.FileSize(pathToFile))

	missing := filepath.Join(t.TempDir(), "nope.bin")
	assert.False(t, util.FileExists(missing))
	assert.Equal(t, int64(-1), util.FileSize(missing))
}

func TestExpandTilde(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.Nil(t, err)

	expanded, err := util.ExpandTilde("~/tmp")
	require.Nil(t, err)
	assert.Equal(t, filepath.Join(homeDir, "tmp"), expanded)

	unchanged, err := util.ExpandTilde("/var/tmp")
	require.Nil(t, err)
	assert.Equal(t, "/var/tmp", unchanged)
}
