package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the pastq home directory.
	DefaultDirName = ".pastq"

	// DataDirName is the subdirectory for corpus data and job state.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// CorpusFileName is the SQLite question bank.
	CorpusFileName = "corpus.db"

	// JobStateFileName is the persisted extraction job state.
	JobStateFileName = "extraction_state.json"
)

// Dir represents the pastq home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.pastq).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// CorpusPath returns the path to the SQLite question bank.
func (d *Dir) CorpusPath() string {
	return filepath.Join(d.DataPath(), CorpusFileName)
}

// JobStatePath returns the path to the persisted extraction job state.
func (d *Dir) JobStatePath() string {
	return filepath.Join(d.DataPath(), JobStateFileName)
}

// DocumentsDir returns the directory holding source PDF documents.
func (d *Dir) DocumentsDir() string {
	return filepath.Join(d.path, "documents")
}

// DocumentPath resolves a document name against the documents directory.
// Absolute paths are returned unchanged.
func (d *Dir) DocumentPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.DocumentsDir(), name)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(d.DocumentsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create documents directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
