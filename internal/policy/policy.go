// Package policy holds the aspect-ratio table that decides which
// images qualify for processing and which output sizes they expand
// into, plus the WebP quality schedule.
package policy

import (
	"fmt"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
)

// Entry is the output configuration for one aspect ratio: the minimum
// acceptable source resolution, the destination folder and the ordered
// size ladders.
type Entry struct {
	Min        domain.Size
	Folder     string
	Sizes      []domain.Size
	Thumbnails []domain.Size
}

// Table maps reduced aspect ratios to their output configuration. It
// is immutable after construction; batch runs share one instance.
type Table struct {
	entries map[domain.AspectRatio]Entry
}

// SupportedFormats are the decodable input formats, as reported by
// image.DecodeConfig.
var SupportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// ReduceRatio divides both dimensions by their greatest common
// divisor. Reduce(k*w, k*h) == Reduce(w, h) for any positive k.
func ReduceRatio(width, height int) domain.AspectRatio {
	d := gcd(width, height)
	return domain.AspectRatio{W: width / d, H: height / d}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// NewTable builds a Table from entries keyed by ratio. The entries are
// copied; callers cannot mutate the table afterwards.
func NewTable(entries map[domain.AspectRatio]Entry) *Table {
	copied := make(map[domain.AspectRatio]Entry, len(entries))
	for ratio, entry := range entries {
		copied[ratio] = entry
	}
	return &Table{entries: copied}
}

// MinimumRequirement returns the minimum source resolution for a
// ratio, or false if the ratio has no entry.
func (t *Table) MinimumRequirement(ratio domain.AspectRatio) (domain.Size, bool) {
	entry, ok := t.entries[ratio]
	if !ok {
		return domain.Size{}, false
	}
	return entry.Min, true
}

// OutputPlanFor returns the output configuration for a ratio, or
// false if the ratio has no entry.
func (t *Table) OutputPlanFor(ratio domain.AspectRatio) (Entry, bool) {
	entry, ok := t.entries[ratio]
	return entry, ok
}

// Ratios returns every ratio the table knows about.
func (t *Table) Ratios() []domain.AspectRatio {
	ratios := make([]domain.AspectRatio, 0, len(t.entries))
	for ratio := range t.entries {
		ratios = append(ratios, ratio)
	}
	return ratios
}

// Validate checks the structural invariants every table must satisfy:
// keys are reduced, minimums reduce back to their key, size ladders
// are ordered by strictly descending area, and every thumbnail is
// strictly smaller than every standard size in area and both
// dimensions.
func (t *Table) Validate() error {
	for ratio, entry := range t.entries {
		if reduced := ReduceRatio(ratio.W, ratio.H); reduced != ratio {
			return fmt.Errorf("ratio %s is not reduced", ratio)
		}
		if entry.Min.W <= 0 || entry.Min.H <= 0 {
			return fmt.Errorf("ratio %s: minimum %s is not positive", ratio, entry.Min)
		}
		if reduced := ReduceRatio(entry.Min.W, entry.Min.H); reduced != ratio {
			return fmt.Errorf("ratio %s: minimum %s reduces to %s", ratio, entry.Min, reduced)
		}
		if entry.Folder == "" {
			return fmt.Errorf("ratio %s: empty folder name", ratio)
		}
		if len(entry.Sizes) == 0 {
			return fmt.Errorf("ratio %s: no output sizes", ratio)
		}
		for i := 1; i < len(entry.Sizes); i++ {
			if entry.Sizes[i].Area() >= entry.Sizes[i-1].Area() {
				return fmt.Errorf("ratio %s: sizes not in descending area order at %s", ratio, entry.Sizes[i])
			}
		}
		for _, thumb := range entry.Thumbnails {
			for _, size := range entry.Sizes {
				if thumb.Area() >= size.Area() || thumb.W >= size.W || thumb.H >= size.H {
					return fmt.Errorf("ratio %s: thumbnail %s not strictly smaller than size %s", ratio, thumb, size)
				}
			}
		}
	}
	return nil
}

// Quality returns the WebP quality for a target size. Small images
// compress negligibly worse at lower quality; very large images drop
// slightly because perceptual loss is less visible at scale. The
// 85 -> 82 step at the top tier is intentional.
func Quality(width, height int, thumbnail bool) int {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}

	if thumbnail {
		if maxDim <= 100 {
			return 55
		}
		return 65
	}
	if maxDim <= 800 {
		return 80
	}
	if maxDim <= 2000 {
		return 85
	}
	return 82
}
