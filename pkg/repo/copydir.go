// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"os"
	"path/filepath"
)

// copyDir recursively copies a directory, skipping symlinks.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if mkdirErr := os.MkdirAll(dst, srcInfo.Mode()); mkdirErr != nil {
		return mkdirErr
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// copyFile copies a single file preserving its mode.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, srcInfo.Mode())
}

// replaceDir moves srcDir into place at dest. When dest exists and overwrite
// is true, the old content is swapped out only after srcDir is fully staged,
// so a failed copy never leaves dest partially overwritten.
func replaceDir(srcDir, dest string, overwrite bool) error {
	if _, err := os.Stat(dest); err == nil {
		if !overwrite {
			return os.ErrExist
		}
		backup := dest + ".replaced"
		if err := os.Rename(dest, backup); err != nil {
			return err
		}
		if err := os.Rename(srcDir, dest); err != nil {
			// Put the original back; the swap failed before touching it.
			_ = os.Rename(backup, dest)
			return err
		}
		return os.RemoveAll(backup)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.Rename(srcDir, dest)
}

// stageDir creates a temporary staging directory next to dest so the final
// rename stays on one filesystem.
func stageDir(dest string) (string, error) {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(parent, ".envmod-stage-*")
}
