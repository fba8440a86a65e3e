package s3client

import (
	"fmt"
	"os"
	"path/filepath"
)

const partSuffix = ".part"

// createPartFile opens a temporary file next to destination, creating
// intermediate directories. The destination itself only appears once the
// download has finished, so an interrupted run is not mistaken for a finished one.
func createPartFile(destination string) (*os.File, string, error) {
	if dir := filepath.Dir(destination); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tmp := destination + partSuffix
	file, err := os.Create(tmp)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file %s: %w", tmp, err)
	}
	return file, tmp, nil
}

// finishPartFile closes the temporary file and moves it into place when
// downloadErr is nil, or removes it otherwise.
func finishPartFile(file *os.File, tmp, destination string, downloadErr error) error {
	err := downloadErr
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", tmp, closeErr)
	}
	if err == nil {
		if renameErr := os.Rename(tmp, destination); renameErr != nil {
			err = fmt.Errorf("failed to move %s into place: %w", tmp, renameErr)
		}
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
