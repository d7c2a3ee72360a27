// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// zipDir writes a ZIP archive of a module directory to w. Entries are stored
// relative to the module root with forward slashes.
func zipDir(moduleRoot string, w io.Writer) (err error) {
	zw := zip.NewWriter(w)
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return filepath.WalkDir(moduleRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, relErr := filepath.Rel(moduleRoot, path)
		if relErr != nil {
			return relErr
		}
		if relPath == "." {
			return nil
		}
		zipPath := filepath.ToSlash(relPath)

		if d.IsDir() {
			_, createErr := zw.Create(zipPath + "/")
			return createErr
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}

		header, headerErr := zip.FileInfoHeader(info)
		if headerErr != nil {
			return headerErr
		}
		header.Name = zipPath
		header.Method = zip.Deflate

		fw, writerErr := zw.CreateHeader(header)
		if writerErr != nil {
			return writerErr
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		_, writeErr := fw.Write(data)
		return writeErr
	})
}

// unzipDir extracts a module archive into destDir, restoring file modes and
// rejecting entries that would escape the destination.
func unzipDir(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		cleaned := filepath.Clean(filepath.FromSlash(f.Name))
		if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
			return fmt.Errorf("archive entry %q escapes destination", f.Name)
		}
		target := filepath.Join(destDir, cleaned)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		data, readErr := io.ReadAll(rc)
		rc.Close()
		if readErr != nil {
			return readErr
		}
		mode := f.Mode()
		if mode == 0 {
			mode = 0o644
		}
		if err := os.WriteFile(target, data, mode); err != nil {
			return err
		}
	}
	return nil
}
