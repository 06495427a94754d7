package autofill

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const MetadataFileExtension = ".meta"

// SnapshotMetadata describes a saved page.
type SnapshotMetadata struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Title       string    `json:"title,omitempty"`
	Provider    Provider  `json:"provider,omitempty"`
	Outcome     Outcome   `json:"outcome,omitempty"`
	SavedAt     time.Time `json:"saved_at"`
}

// SaveSnapshot writes html into dir as <provider>-<unix>.html with a .meta
// file next to it, and returns the html filename.
func SaveSnapshot(dir string, html string, metadata SnapshotMetadata) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("couldn't create directory: %v", dir)
	}
	if metadata.SavedAt.IsZero() {
		metadata.SavedAt = time.Now()
	}
	if metadata.ContentType == "" {
		metadata.ContentType = "text/html; charset=utf-8"
	}
	name := fmt.Sprintf("%v-%d.html", metadata.Provider, metadata.SavedAt.UnixNano())
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, []byte(html), os.FileMode(0644)); err != nil {
		return "", err
	}
	if err := saveSnapshotMetadata(filename, metadata); err != nil {
		return "", err
	}
	return filename, nil
}

func saveSnapshotMetadata(filename string, metadata SnapshotMetadata) error {
	metadataFilename := filename + MetadataFileExtension
	metadataBytes, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %v", err)
	}
	err = os.WriteFile(metadataFilename, metadataBytes, os.FileMode(0644))
	if err != nil {
		return fmt.Errorf("failed to write metadata file %s: %v", metadataFilename, err)
	}
	return nil
}

// LoadSnapshotMetadata reads the .meta file of a saved page.
func LoadSnapshotMetadata(filename string) (SnapshotMetadata, error) {
	var metadata SnapshotMetadata
	metadataFilename := filename + MetadataFileExtension
	metadataBytes, err := os.ReadFile(metadataFilename)
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file %s: %v", metadataFilename, err)
	}

	err = json.Unmarshal(metadataBytes, &metadata)
	if err != nil {
		return metadata, fmt.Errorf("failed to parse metadata file %s: %v", metadataFilename, err)
	}
	return metadata, nil
}

// LoadSnapshot opens a saved page. The .meta file is optional; without it
// the charset comes from the page itself and the URL stays unknown.
func LoadSnapshot(filename string) (*StaticDocument, SnapshotMetadata, error) {
	var metadata SnapshotMetadata
	if _, err := os.Stat(filename + MetadataFileExtension); err == nil {
		metadata, err = LoadSnapshotMetadata(filename)
		if err != nil {
			return nil, metadata, err
		}
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, metadata, err
	}
	defer f.Close()

	var pageURL *url.URL
	if metadata.URL != "" {
		pageURL, _ = url.Parse(metadata.URL)
	}
	doc, err := LoadStaticDocument(f, metadata.ContentType, pageURL)
	if err != nil {
		return nil, metadata, err
	}
	if metadata.Title == "" {
		metadata.Title = strings.TrimSpace(doc.Find("title").Text())
	}
	return doc, metadata, nil
}
