package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads a prepared dataset from a JSON document of the form
// {"<positionId>": {"log": {...}, "overview": {...}, "spectral": {...}}}.
func Load(r io.Reader) (*Cache, error) {
	var positions map[string]*PositionData
	if err := json.NewDecoder(r).Decode(&positions); err != nil {
		return nil, fmt.Errorf("dataset: decode: %w", err)
	}
	return NewCache(positions), nil
}

// LoadFile reads a prepared dataset from a JSON file on disk.
func LoadFile(path string) (*Cache, error) {
	f, err := os.Open(path) // #nosec G304 - path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
