// Package referencedata loads the pharmacy reference tables: inventory,
// fulfillment orders, the diagnosis-to-medication map and diagnosis aliases.
//
// A default set is embedded in the binary. When a data directory is
// configured, any table file present there replaces its embedded default.
package referencedata

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/referencedata/entities"
)

//go:embed data/*.json
var embedded embed.FS

const (
	InventoryFile   = "inventory.json"
	FulfillmentFile = "fulfillment.json"
	DiagnosesFile   = "diagnoses.json"
	AliasesFile     = "aliases.json"
)

// Compile-time check to ensure Loader implements the Loader interface
var _ interfaces.Loader = (*Loader)(nil)

// Loader reads reference tables from an optional data directory, falling back
// to the embedded defaults.
type Loader struct {
	dataDir string
}

// NewLoader creates a loader. An empty dataDir means embedded data only.
func NewLoader(dataDir string) *Loader {
	return &Loader{dataDir: dataDir}
}

// Load reads every table and returns them as one snapshot.
func (l *Loader) Load() (*entities.Snapshot, error) {
	snapshot := &entities.Snapshot{}

	if err := l.readTable(InventoryFile, &snapshot.Inventory); err != nil {
		return nil, err
	}
	if err := l.readTable(FulfillmentFile, &snapshot.Fulfillment); err != nil {
		return nil, err
	}
	if err := l.readTable(DiagnosesFile, &snapshot.Diagnoses); err != nil {
		return nil, err
	}
	if err := l.readTable(AliasesFile, &snapshot.Aliases); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (l *Loader) readTable(name string, target any) error {
	raw, source, err := l.readFile(name)
	if err != nil {
		return err
	}

	text, err := DecodeText(raw)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", source, err)
	}

	if err := json.Unmarshal([]byte(text), target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", source, err)
	}

	logging.Debug("Reference table loaded", "table", name, "source", source)
	return nil
}

// readFile prefers the data directory and falls back to the embedded copy.
func (l *Loader) readFile(name string) ([]byte, string, error) {
	if l.dataDir != "" {
		path := filepath.Join(l.dataDir, name)
		cleanPath := filepath.Clean(path)
		if !strings.HasPrefix(cleanPath, filepath.Clean(l.dataDir)) {
			return nil, "", fmt.Errorf("invalid filepath: %s", path)
		}

		raw, err := os.ReadFile(cleanPath) // #nosec G304 -- path is confined to the data directory
		switch {
		case err == nil:
			return raw, cleanPath, nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, "", fmt.Errorf("failed to read %s: %w", cleanPath, err)
		}
	}

	raw, err := embedded.ReadFile("data/" + name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read embedded %s: %w", name, err)
	}
	return raw, "embedded:" + name, nil
}
