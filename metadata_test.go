package autofill

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSaveAndLoadSnapshot(t *testing.T) {
	tempDir := t.TempDir()
	savedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	metadata := SnapshotMetadata{
		URL:      "https://claude.ai/new",
		Title:    "Claude",
		Provider: ProviderClaude,
		Outcome:  OutcomeInputNotFound,
		SavedAt:  savedAt,
	}
	markup := `<html><head><title>Claude</title></head><body><fieldset><textarea></textarea></fieldset></body></html>`

	filename, err := SaveSnapshot(filepath.Join(tempDir, "snapshots"), markup, metadata)
	if err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(filename), "claude-") || filepath.Ext(filename) != ".html" {
		t.Errorf("unexpected filename %v", filename)
	}

	doc, loaded, err := LoadSnapshot(filename)
	if err != nil {
		t.Fatalf("Failed to load snapshot: %v", err)
	}
	metadata.ContentType = "text/html; charset=utf-8"
	if diff := cmp.Diff(metadata, loaded); diff != "" {
		t.Errorf("Metadata mismatch (-expected +got):\n%s", diff)
	}
	if doc.BaseUrl == nil || doc.BaseUrl.String() != "https://claude.ai/new" {
		t.Errorf("BaseUrl = %v", doc.BaseUrl)
	}
	if el := doc.Element("fieldset textarea"); el == nil {
		t.Error("saved markup lost the composer")
	}
}

func TestLoadSnapshot_WithoutMetadata(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(filename, []byte(`<html><head><title> Saved </title></head><body></body></html>`), 0644); err != nil {
		t.Fatal(err)
	}
	_, metadata, err := LoadSnapshot(filename)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(SnapshotMetadata{Title: "Saved"}, metadata); diff != "" {
		t.Errorf("(-expected +got):\n%s", diff)
	}
}

func TestLoadSnapshotMetadata_Errors(t *testing.T) {
	// Test non-existent file
	_, err := LoadSnapshotMetadata("/non/existent/file.html")
	if err == nil {
		t.Error("Expected error when loading non-existent file")
	}

	// Test invalid JSON
	filename := filepath.Join(t.TempDir(), "invalid.html")
	metaFile := filename + MetadataFileExtension
	err = os.WriteFile(metaFile, []byte("invalid json"), 0644)
	if err != nil {
		t.Fatalf("Failed to write invalid JSON file: %v", err)
	}

	_, err = LoadSnapshotMetadata(filename)
	if err == nil {
		t.Error("Expected error when loading invalid JSON")
	}
	if _, _, err := LoadSnapshot(filename); err == nil {
		t.Error("Expected LoadSnapshot to fail on invalid metadata")
	}
}
