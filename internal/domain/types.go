package domain

import (
	"fmt"
	"time"
)

// AspectRatio is a reduced width:height pair with gcd(W, H) = 1.
type AspectRatio struct {
	W int
	H int
}

func (r AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", r.W, r.H)
}

// Size is a pixel dimension pair.
type Size struct {
	W int
	H int
}

func (s Size) Area() int {
	return s.W * s.H
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// ImageInfo describes a decodable source image. Width and height are
// always positive; Ratio is the reduced form of Width:Height.
type ImageInfo struct {
	Path   string
	Width  int
	Height int
	Ratio  AspectRatio
	Format string
}

// Override narrows or widens the acceptance criteria for a batch run.
// AcceptAll never coexists with Ratio or Resolution; Ratio and
// Resolution may be combined.
type Override struct {
	AcceptAll  bool
	Ratio      *AspectRatio
	Resolution *Size
}

// VariantPlan is the ordered set of output sizes for one image,
// derived from its aspect ratio and the active override.
type VariantPlan struct {
	Folder     string
	Sizes      []Size
	Thumbnails []Size
}

// Empty reports whether the plan produces no output at all, which
// marks the image's ratio as unsupported.
func (p VariantPlan) Empty() bool {
	return len(p.Sizes) == 0 && len(p.Thumbnails) == 0
}

// VariantJob is one unit of transcode work: a single output file.
type VariantJob struct {
	SourcePath string
	DestPath   string
	RelPath    string
	Target     Size
	Original   Size
	Thumbnail  bool
}

// ImageTask bundles every variant job for one image. Tasks are the
// unit of parallelism; all jobs in a task run serially on one worker.
type ImageTask struct {
	ID   string
	Info ImageInfo
	Dir  string
	Jobs []VariantJob
}

type VariantKind string

const (
	KindStandard  VariantKind = "standard"
	KindThumbnail VariantKind = "thumbnail"
)

// VariantResult describes one written output file.
type VariantResult struct {
	Path   string      `json:"path"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Size   int64       `json:"size"`
	Kind   VariantKind `json:"type"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

const (
	ReasonUnsupportedAspectRatio = "unsupported_aspect_ratio"
	ReasonRequirements           = "requirements"
)

// ImageResult is the outcome for one image. Reason is set only for
// StatusSkipped, Err only for StatusError, Variants only for
// StatusSuccess.
type ImageResult struct {
	Status      Status
	Source      string
	AspectRatio string
	Reason      string
	Err         string
	Variants    []VariantResult
}

// BenchmarkResult is one worker-count probe measurement.
type BenchmarkResult struct {
	Workers         int
	Elapsed         time.Duration
	ImagesPerSecond float64
}

// ProgressFunc receives a completion update after each image task
// finishes, in completion order.
type ProgressFunc func(completed, total int, elapsed time.Duration)

// Transcoder executes a single variant job and reports the written
// file. Implementations must be safe for concurrent use.
type Transcoder interface {
	Transcode(job VariantJob) (*VariantResult, error)
}
