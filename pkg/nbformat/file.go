package nbformat

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadFile loads and decodes a notebook file.
func ReadFile(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook file: %w", err)
	}
	return Decode(data)
}

// WriteFile serializes the notebook and writes it atomically: the content
// goes to a temp file in the target directory first, then replaces the
// destination with a rename. A failure mid-write never truncates an
// existing notebook.
func WriteFile(path string, nb *Notebook) error {
	data, err := nb.Encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".quire-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write notebook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush notebook: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace notebook file: %w", err)
	}
	return nil
}
