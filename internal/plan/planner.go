// Package plan turns a classified image and the active override into
// the concrete list of variant jobs to execute.
package plan

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
	"github.com/SuperGenLabs/img-velocity/internal/policy"
)

// Scale ladders used when a resolution override replaces the table's
// size list. Results below the dimension floors are dropped.
var (
	sizeFactors  = []float64{0.75, 0.5, 0.375, 0.25, 0.125}
	thumbFactors = []float64{0.05, 0.03, 0.02}
)

const (
	minSizeDim  = 50
	minThumbDim = 25
)

// Planner derives variant plans from a policy table.
type Planner struct {
	table *policy.Table
}

func NewPlanner(table *policy.Table) *Planner {
	return &Planner{table: table}
}

// PlanFor resolves the output plan for an image ratio under an
// override. An aspect-ratio override redirects the lookup to the
// override's ratio; a resolution override replaces the size ladder
// entirely, scaling down from the override resolution. Ratios with no
// table entry get a "custom-w-h" folder and, absent a resolution
// override, no sizes.
func (p *Planner) PlanFor(ratio domain.AspectRatio, override *domain.Override) domain.VariantPlan {
	target := ratio
	if override != nil && override.Ratio != nil {
		target = *override.Ratio
	}

	var out domain.VariantPlan
	if entry, ok := p.table.OutputPlanFor(target); ok {
		out = domain.VariantPlan{
			Folder:     entry.Folder,
			Sizes:      entry.Sizes,
			Thumbnails: entry.Thumbnails,
		}
	} else {
		out = domain.VariantPlan{Folder: fmt.Sprintf("custom-%d-%d", target.W, target.H)}
	}

	if override != nil && override.Resolution != nil {
		res := *override.Resolution
		out.Sizes = scaleLadder(res)
		out.Thumbnails = thumbnailLadder(res, out.Sizes)
	}

	return out
}

func scaleLadder(res domain.Size) []domain.Size {
	sizes := []domain.Size{res}
	for _, factor := range sizeFactors {
		w := int(float64(res.W) * factor)
		h := int(float64(res.H) * factor)
		if w >= minSizeDim && h >= minSizeDim {
			sizes = append(sizes, domain.Size{W: w, H: h})
		}
	}
	return sizes
}

// thumbnailLadder keeps only thumbnails strictly dominated by the
// smallest standard size in area and both dimensions.
func thumbnailLadder(res domain.Size, sizes []domain.Size) []domain.Size {
	minArea := sizes[0].Area()
	minW, minH := sizes[0].W, sizes[0].H
	for _, s := range sizes[1:] {
		if a := s.Area(); a < minArea {
			minArea = a
		}
		if s.W < minW {
			minW = s.W
		}
		if s.H < minH {
			minH = s.H
		}
	}

	var thumbs []domain.Size
	for _, factor := range thumbFactors {
		w := int(float64(res.W) * factor)
		h := int(float64(res.H) * factor)
		if w*h < minArea && w < minW && h < minH && w >= minThumbDim && h >= minThumbDim {
			thumbs = append(thumbs, domain.Size{W: w, H: h})
		}
	}
	return thumbs
}

// SanitizeBaseName lowercases, turns spaces and underscores into
// hyphens, collapses repeated hyphens and strips leading/trailing
// ones.
func SanitizeBaseName(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// ExpandJobs turns a plan into the full task for one image: one job
// per standard size and, when enabled, one per thumbnail size. Every
// destination path must resolve inside outputDir.
func ExpandJobs(info *domain.ImageInfo, vp domain.VariantPlan, outputDir string, thumbnails bool) (domain.ImageTask, error) {
	base := SanitizeBaseName(stem(info.Path))
	dir := filepath.Join(outputDir, vp.Folder, base)
	if err := ensureWithin(dir, outputDir); err != nil {
		return domain.ImageTask{}, err
	}

	original := domain.Size{W: info.Width, H: info.Height}
	task := domain.ImageTask{
		ID:   uuid.NewString(),
		Info: *info,
		Dir:  dir,
	}

	appendJob := func(target domain.Size, thumb bool) error {
		name := fmt.Sprintf("%s-%dx%d.webp", base, target.W, target.H)
		if thumb {
			name = "thumbnail-" + name
		}
		dest := filepath.Join(dir, name)
		if err := ensureWithin(dest, outputDir); err != nil {
			return err
		}
		rel, err := filepath.Rel(outputDir, dest)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", dest, err)
		}
		task.Jobs = append(task.Jobs, domain.VariantJob{
			SourcePath: info.Path,
			DestPath:   dest,
			RelPath:    filepath.ToSlash(rel),
			Target:     target,
			Original:   original,
			Thumbnail:  thumb,
		})
		return nil
	}

	for _, size := range vp.Sizes {
		if err := appendJob(size, false); err != nil {
			return domain.ImageTask{}, err
		}
	}
	if thumbnails {
		for _, size := range vp.Thumbnails {
			if err := appendJob(size, true); err != nil {
				return domain.ImageTask{}, err
			}
		}
	}

	return task, nil
}

func stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ensureWithin rejects any path that escapes root after cleaning.
func ensureWithin(path, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", root, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes output directory %q", path, root)
	}
	return nil
}
