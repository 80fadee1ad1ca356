// Package classify inspects candidate files and decides whether they
// qualify for variant generation.
package classify

import (
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
	"github.com/SuperGenLabs/img-velocity/internal/policy"
)

// Classifier reads image headers and applies the requirement cascade
// against a policy table.
type Classifier struct {
	table *policy.Table
}

func NewClassifier(table *policy.Table) *Classifier {
	return &Classifier{table: table}
}

// Classify opens a file and returns its dimensions, format and
// reduced aspect ratio. It returns nil for files that cannot be
// decoded or whose format is unsupported; such files are excluded
// from the batch, not treated as errors.
func (c *Classifier) Classify(path string) *domain.ImageInfo {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil || !policy.SupportedFormats[format] {
		return nil
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}

	return &domain.ImageInfo{
		Path:   path,
		Width:  cfg.Width,
		Height: cfg.Height,
		Ratio:  policy.ReduceRatio(cfg.Width, cfg.Height),
		Format: format,
	}
}

// MeetsRequirement decides whether an image qualifies for processing.
//
// The cascade when an override is present:
//
//  1. accept-all passes everything
//  2. an aspect-ratio override rejects on mismatch before anything
//     else is considered, even when a resolution override would pass
//  3. a resolution override gates on both dimensions
//  4. an aspect-ratio override alone falls back to the default
//     minimum for the override's ratio
//
// Without an override, the image's natural ratio is looked up in the
// table; an absent entry rejects.
func (c *Classifier) MeetsRequirement(info *domain.ImageInfo, override *domain.Override) bool {
	if override == nil {
		return c.meetsNatural(info.Ratio, info.Width, info.Height)
	}

	if override.AcceptAll {
		return true
	}

	if override.Ratio != nil && info.Ratio != *override.Ratio {
		return false
	}

	if override.Resolution != nil {
		return info.Width >= override.Resolution.W && info.Height >= override.Resolution.H
	}

	if override.Ratio != nil {
		return c.meetsNatural(*override.Ratio, info.Width, info.Height)
	}

	return c.meetsNatural(info.Ratio, info.Width, info.Height)
}

func (c *Classifier) meetsNatural(ratio domain.AspectRatio, width, height int) bool {
	min, ok := c.table.MinimumRequirement(ratio)
	if !ok {
		return false
	}
	return width >= min.W && height >= min.H
}
