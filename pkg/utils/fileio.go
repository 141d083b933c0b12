package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes a file by streaming into a temp file in the destination directory
// and renaming it into place once write returns successfully.
// Readers never observe a partially written file.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: creating directory '%s': %w", ErrFilesystem, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in '%s': %w", ErrFilesystem, dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath) // Best effort cleanup
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("%w: flushing '%s': %w", ErrFilesystem, tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: syncing '%s': %w", ErrFilesystem, tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing '%s': %w", ErrFilesystem, tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming '%s' to '%s': %w", ErrFilesystem, tmpPath, path, err)
	}
	return nil
}
