package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-pastq")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-pastq" {
			t.Errorf("expected path /tmp/test-pastq, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-pastq")

	t.Run("DataPath", func(t *testing.T) {
		expected := "/tmp/test-pastq/data"
		if dir.DataPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.DataPath())
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-pastq/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})

	t.Run("CorpusPath", func(t *testing.T) {
		expected := "/tmp/test-pastq/data/corpus.db"
		if dir.CorpusPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.CorpusPath())
		}
	})

	t.Run("JobStatePath", func(t *testing.T) {
		expected := "/tmp/test-pastq/data/extraction_state.json"
		if dir.JobStatePath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.JobStatePath())
		}
	})
}

func TestDir_DocumentPath(t *testing.T) {
	dir, _ := New("/tmp/test-pastq")

	if got := dir.DocumentPath("/abs/path.pdf"); got != "/abs/path.pdf" {
		t.Errorf("absolute path should pass through, got %s", got)
	}
	if got := dir.DocumentPath("exam_2019.pdf"); got != "/tmp/test-pastq/documents/exam_2019.pdf" {
		t.Errorf("relative path should resolve under documents, got %s", got)
	}
}

func TestDir_EnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	pqDir := filepath.Join(tmpDir, "pastq-test")

	dir, err := New(pqDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	if _, err := os.Stat(dir.DataPath()); os.IsNotExist(err) {
		t.Error("data directory should exist after EnsureExists")
	}
	if _, err := os.Stat(dir.DocumentsDir()); os.IsNotExist(err) {
		t.Error("documents directory should exist after EnsureExists")
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}
