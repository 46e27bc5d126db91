package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestControllerDrainFile(t *testing.T) {
	dir := t.TempDir()
	c, err := NewController(dir)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	defer c.Close()

	if c.Draining() {
		t.Fatal("draining before any signal")
	}

	// An operator touching the file is enough; no API call involved.
	if err := os.WriteFile(filepath.Join(dir, "drain"), nil, 0644); err != nil {
		t.Fatalf("write drain file: %v", err)
	}
	if !c.Draining() {
		t.Error("not draining after drain file created")
	}

	c.Resume()
	if c.Draining() {
		t.Error("still draining after resume")
	}
	if _, err := os.Stat(filepath.Join(dir, "drain")); !os.IsNotExist(err) {
		t.Error("drain file not cleared by resume")
	}
}

func TestControllerStartsDrainingWhenFileExists(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "drain"), nil, 0644); err != nil {
		t.Fatalf("write drain file: %v", err)
	}

	c, err := NewController(dir)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	defer c.Close()

	if !c.Draining() {
		t.Error("controller ignored pre-existing drain file")
	}
}
