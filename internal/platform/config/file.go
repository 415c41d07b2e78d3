package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the settings file looked up when --config is not given.
const DefaultFile = "hls-supervisor.toml"

// LoadFile decodes the TOML file at path over s. Keys missing from the file
// keep their current value; unknown keys are rejected. It reports whether a
// file was read, so a missing optional file is not an error.
func LoadFile(path string, s *Settings) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return true, fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return true, fmt.Errorf("parse config %s: %w", path, err)
	}
	return true, nil
}
