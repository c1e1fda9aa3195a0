package internal

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func EncodeYAML(w io.Writer, value any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	return encoder.Close()
}

// WriteYAML writes value to filename, creating parent directories as needed.
func WriteYAML(filename string, value any) (err error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return EncodeYAML(file, value)
}
