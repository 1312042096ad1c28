package unpack

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// BackupSuffix is appended to archive files moved aside by Backup.
const BackupSuffix = ".bak"

// Backup renames path to path+".bak". It does nothing if path does not
// exist or a backup is already present, so the first backup is never lost.
// It reports whether a backup was made.
func Backup(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	backup := path + BackupSuffix
	if _, err := os.Lstat(backup); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.Rename(path, backup); err != nil {
		return false, fmt.Errorf("backup %s: %w", path, err)
	}
	return true, nil
}
