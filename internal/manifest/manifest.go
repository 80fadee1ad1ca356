// Package manifest folds per-image results into the manifest.json
// document that describes a finished batch.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
)

const Version = "1.0"

// FileName is the manifest's name inside the output directory.
const FileName = "manifest.json"

type Entry struct {
	AspectRatio string                 `json:"aspect_ratio"`
	Variants    []domain.VariantResult `json:"variants"`
}

type Manifest struct {
	Version string            `json:"version"`
	Images  map[string]*Entry `json:"images"`
}

// Fold merges results into a manifest. Only successful results
// contribute. Two results sharing a source name append their variant
// lists; the second never overwrites the first.
func Fold(results []domain.ImageResult) *Manifest {
	m := &Manifest{
		Version: Version,
		Images:  make(map[string]*Entry),
	}
	for _, r := range results {
		if r.Status != domain.StatusSuccess {
			continue
		}
		entry, ok := m.Images[r.Source]
		if !ok {
			entry = &Entry{AspectRatio: r.AspectRatio}
			m.Images[r.Source] = entry
		}
		entry.Variants = append(entry.Variants, r.Variants...)
	}
	return m
}

// Write serializes the manifest into outputDir. The manifest is
// written even when no image succeeded.
func Write(m *Manifest, outputDir string) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(outputDir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
