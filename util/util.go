package util

import (
	"os"
	"path"
	"strings"
)

// StringListContains returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}

// PathStem returns the file name of objectPath with its directory and
// extension stripped. "events/biz42_1700000000.mp4" -> "biz42_1700000000".
func PathStem(objectPath string) string {
	if objectPath == "" || strings.HasSuffix(objectPath, "/") {
		return ""
	}
	base := path.Base(objectPath)
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// FileExists returns true if the file at path exists.
func FileExists(pathToFile string) bool {
	_, err := os.Stat(pathToFile)
	return err == nil
}

// FileSize returns the size in bytes of the file at path, or -1 if the
// file cannot be statted.
func FileSize(pathToFile string) int64 {
	stat, err := os.Stat(pathToFile)
	if err != nil {
		return -1
	}
	return stat.Size()
}

// ExpandTilde expands the tilde in a path like ~/logs to an absolute
// path in the current user's home directory.
func ExpandTilde(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return strings.Replace(filePath, "~", homeDir, 1), nil
}
