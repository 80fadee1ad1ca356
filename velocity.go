// Package imgvelocity converts a directory of source images into a
// fixed matrix of resized, compressed WebP variants plus a manifest
// describing the results.
//
// Each input image is classified by its reduced aspect ratio, checked
// against a per-ratio minimum resolution, expanded into an ordered
// ladder of output sizes and processed on a bounded worker pool. The
// unit of parallelism is the image: one worker produces every variant
// of its image serially, so a failure in one image never disturbs the
// others.
//
// # Basic Usage
//
//	proc := imgvelocity.NewProcessor(imgvelocity.Options{})
//
//	summary, err := proc.ProcessDirectory("photos/", "out/", true, 0, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d images, %d variants\n", summary.Succeeded, summary.TotalVariants)
//
// # Overrides
//
// Requirement checks can be overridden per run: accept everything,
// restrict to one aspect ratio, demand a minimum resolution, or both.
// When both are given the aspect ratio gates first; an image of the
// wrong ratio is rejected even if it exceeds the resolution. The
// override syntax consumed from the command line is
// "aspect-ratio=W:H" and "resolution=WxH"; an override with no
// key/value pairs accepts all images.
//
// # Benchmark Mode
//
// Benchmark reruns a small sample of the batch once per candidate
// worker count and reports images/second per candidate, ranked best
// first, so deployments can pick a worker count that matches their
// hardware.
package imgvelocity

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SuperGenLabs/img-velocity/internal/classify"
	"github.com/SuperGenLabs/img-velocity/internal/domain"
	"github.com/SuperGenLabs/img-velocity/internal/manifest"
	"github.com/SuperGenLabs/img-velocity/internal/plan"
	"github.com/SuperGenLabs/img-velocity/internal/policy"
	"github.com/SuperGenLabs/img-velocity/internal/transcode"
)

type (
	// Override narrows or widens which images qualify for a run.
	Override = domain.Override

	// AspectRatio is a reduced width:height pair.
	AspectRatio = domain.AspectRatio

	// Size is a pixel dimension pair.
	Size = domain.Size

	// ImageResult is the per-image outcome of a run.
	ImageResult = domain.ImageResult

	// VariantResult describes one written output file.
	VariantResult = domain.VariantResult

	// BenchmarkResult is one worker-count probe measurement.
	BenchmarkResult = domain.BenchmarkResult

	// ProgressFunc receives completion updates as image tasks finish.
	ProgressFunc = domain.ProgressFunc

	// Transcoder executes one variant job. The default implementation
	// resizes with Lanczos and encodes lossy WebP; tests may
	// substitute their own.
	Transcoder = domain.Transcoder

	// PolicyTable maps reduced aspect ratios to minimum requirements
	// and output size ladders.
	PolicyTable = policy.Table

	// Status tags an ImageResult.
	Status = domain.Status
)

const (
	StatusSuccess = domain.StatusSuccess
	StatusSkipped = domain.StatusSkipped
	StatusError   = domain.StatusError
)

// Pre-dispatch failures abort the whole run; nothing is written.
var (
	ErrNoImages      = errors.New("no image files found in the input directory")
	ErrNoValidImages = errors.New("no images meet the requirements")
)

const (
	benchmarkSampleLimit = 10
	benchmarkMinImages   = 3
	maxRequestedWorkers  = 100
)

// Extensions considered during directory scans. Files with other
// extensions are not counted at all; files with these extensions that
// fail to decode are counted as found but excluded from the batch.
var scanExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

// DefaultPolicyTable returns the built-in eleven-ratio table.
func DefaultPolicyTable() *PolicyTable {
	return policy.Default()
}

// LoadPolicyTable reads and validates a policy table from a YAML
// file, for deployments that need a different size matrix.
func LoadPolicyTable(path string) (*PolicyTable, error) {
	return policy.Load(path)
}

// Options configures a Processor. The zero value is usable: built-in
// policy table, WebP transcoder, no progress reporting, no logging.
type Options struct {
	// Table is the aspect-ratio policy table. Defaults to the
	// built-in table.
	Table *PolicyTable

	// Transcoder executes variant jobs. Defaults to the Lanczos/WebP
	// implementation.
	Transcoder Transcoder

	// Progress, when set, is called after every completed image with
	// (completed, total, elapsed).
	Progress ProgressFunc

	// Logger receives scan and summary events. Defaults to a
	// discarding logger; the library never writes to stderr on its
	// own.
	Logger *slog.Logger
}

func (o *Options) setDefaults() {
	if o.Table == nil {
		o.Table = policy.Default()
	}
	if o.Transcoder == nil {
		o.Transcoder = transcode.NewWebPTranscoder()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Summary is the outcome of a directory run.
type Summary struct {
	TotalFound    int
	Valid         int
	Skipped       int
	Succeeded     int
	Failed        int
	TotalVariants int
	Workers       int
	ManifestPath  string
	Elapsed       time.Duration
	Results       []ImageResult
}

// Processor is the entry point for batch runs. A Processor is
// immutable after construction and safe for concurrent use.
type Processor struct {
	opts       Options
	classifier *classify.Classifier
	planner    *plan.Planner
	log        *slog.Logger
}

// NewProcessor creates a Processor with the given options.
func NewProcessor(opts Options) *Processor {
	opts.setDefaults()
	return &Processor{
		opts:       opts,
		classifier: classify.NewClassifier(opts.Table),
		planner:    plan.NewPlanner(opts.Table),
		log:        opts.Logger,
	}
}

// ProcessDirectory converts every qualifying image under inputDir
// into its variant set below outputDir and writes manifest.json.
//
// workers selects the pool size; 0 means auto (min of cores, image
// count and 8). The resolved count is always clamped to the image
// count and a hard ceiling of 60.
//
// The manifest is written whenever dispatch was reached, even if
// every image failed. Pre-dispatch failures (missing input directory,
// invalid worker count, nothing to do) return an error and write
// nothing.
func (p *Processor) ProcessDirectory(inputDir, outputDir string, thumbnails bool, workers int, override *Override) (*Summary, error) {
	if err := checkInputDir(inputDir); err != nil {
		return nil, err
	}
	if workers < 0 || workers > maxRequestedWorkers {
		return nil, fmt.Errorf("worker count %d outside valid range 1-%d", workers, maxRequestedWorkers)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	totalFound, infos, err := p.scan(inputDir, override)
	if err != nil {
		return nil, err
	}
	if totalFound == 0 {
		return nil, ErrNoImages
	}

	summary := &Summary{
		TotalFound: totalFound,
		Valid:      len(infos),
		Skipped:    totalFound - len(infos),
	}
	p.log.Info("scan complete",
		"found", summary.TotalFound,
		"valid", summary.Valid,
		"skipped", summary.Skipped,
		"override", describeOverride(override))

	if len(infos) == 0 {
		return summary, ErrNoValidImages
	}

	summary.Workers = transcode.ResolveWorkers(workers, len(infos))
	p.log.Info("dispatching", "images", summary.Valid, "workers", summary.Workers)

	start := time.Now()
	results := p.runBatch(infos, outputDir, thumbnails, summary.Workers, override, p.opts.Progress)
	summary.Elapsed = time.Since(start)

	manifestPath, err := manifest.Write(manifest.Fold(results), outputDir)
	if err != nil {
		return summary, err
	}
	summary.ManifestPath = manifestPath
	summary.Results = results

	for _, r := range results {
		switch r.Status {
		case domain.StatusSuccess:
			summary.Succeeded++
			summary.TotalVariants += len(r.Variants)
		case domain.StatusSkipped:
			summary.Skipped++
		case domain.StatusError:
			summary.Failed++
		}
	}

	p.log.Info("processing complete",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"variants", summary.TotalVariants,
		"elapsed", summary.Elapsed)

	return summary, nil
}

// ProcessOne runs the full pipeline for a single image. Classification
// failures and unmet requirements are reported in the result, not as
// errors; only an unusable output directory aborts.
func (p *Processor) ProcessOne(imagePath, outputDir string, thumbnails bool, override *Override) (ImageResult, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return ImageResult{}, fmt.Errorf("create output directory: %w", err)
	}

	source := filepath.Base(imagePath)
	info := p.classifier.Classify(imagePath)
	if info == nil {
		return ImageResult{Status: domain.StatusError, Source: source, Err: "invalid image"}, nil
	}
	if !p.classifier.MeetsRequirement(info, override) {
		return ImageResult{Status: domain.StatusSkipped, Source: source, Reason: domain.ReasonRequirements}, nil
	}

	results := p.runBatch([]*domain.ImageInfo{info}, outputDir, thumbnails, 1, override, nil)
	return results[0], nil
}

// Benchmark reruns the first qualifying images (at most ten) once per
// candidate worker count against throwaway output directories and
// reports throughput per candidate, best first. It requires at least
// three qualifying images.
func (p *Processor) Benchmark(inputDir string, thumbnails bool, override *Override) ([]BenchmarkResult, error) {
	if err := checkInputDir(inputDir); err != nil {
		return nil, err
	}

	_, infos, err := p.scan(inputDir, override)
	if err != nil {
		return nil, err
	}
	if len(infos) > benchmarkSampleLimit {
		infos = infos[:benchmarkSampleLimit]
	}
	if len(infos) < benchmarkMinImages {
		return nil, fmt.Errorf("need at least %d valid images for benchmarking, found %d", benchmarkMinImages, len(infos))
	}

	cores := runtime.NumCPU()
	candidates := probeWorkerCounts(cores)
	p.log.Info("benchmarking", "images", len(infos), "cores", cores, "candidates", candidates)

	scratchRoot := filepath.Join(os.TempDir(), "img-velocity-bench-"+uuid.NewString())
	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create benchmark scratch directory: %w", err)
	}
	defer os.RemoveAll(scratchRoot)

	var results []BenchmarkResult
	for _, workers := range candidates {
		elapsed, err := p.runProbe(scratchRoot, workers, infos, thumbnails, override)
		if err != nil {
			p.log.Warn("benchmark probe failed", "workers", workers, "error", err)
			continue
		}
		results = append(results, BenchmarkResult{
			Workers:         workers,
			Elapsed:         elapsed,
			ImagesPerSecond: float64(len(infos)) / elapsed.Seconds(),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ImagesPerSecond > results[j].ImagesPerSecond
	})
	return results, nil
}

// runProbe executes one full dispatch cycle against an isolated
// scratch directory, which is removed on success and failure alike.
func (p *Processor) runProbe(scratchRoot string, workers int, infos []*domain.ImageInfo, thumbnails bool, override *Override) (time.Duration, error) {
	dir := filepath.Join(scratchRoot, fmt.Sprintf("probe-%d-workers", workers))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create probe directory: %w", err)
	}
	defer os.RemoveAll(dir)

	start := time.Now()
	p.runBatch(infos, dir, thumbnails, workers, override, nil)
	return time.Since(start), nil
}

// runBatch expands plans into tasks and executes them on a pool.
// Expansion failures become error results without being dispatched.
func (p *Processor) runBatch(infos []*domain.ImageInfo, outputDir string, thumbnails bool, workers int, override *Override, progress ProgressFunc) []domain.ImageResult {
	var preFailed []domain.ImageResult
	tasks := make([]domain.ImageTask, 0, len(infos))
	for _, info := range infos {
		vp := p.planner.PlanFor(info.Ratio, override)
		task, err := plan.ExpandJobs(info, vp, outputDir, thumbnails)
		if err != nil {
			preFailed = append(preFailed, domain.ImageResult{
				Status: domain.StatusError,
				Source: filepath.Base(info.Path),
				Err:    err.Error(),
			})
			continue
		}
		tasks = append(tasks, task)
	}

	pool := transcode.NewPool(workers, p.opts.Transcoder, progress)
	return append(pool.Run(tasks), preFailed...)
}

// scan walks the top level of inputDir, counting files with image
// extensions and classifying each against the override. It does not
// recurse.
func (p *Processor) scan(inputDir string, override *Override) (int, []*domain.ImageInfo, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return 0, nil, fmt.Errorf("read input directory: %w", err)
	}

	var total int
	var infos []*domain.ImageInfo
	for _, entry := range entries {
		if entry.IsDir() || !scanExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		total++

		path := filepath.Join(inputDir, entry.Name())
		info := p.classifier.Classify(path)
		if info == nil {
			p.log.Debug("excluding undecodable file", "path", path)
			continue
		}
		if !p.classifier.MeetsRequirement(info, override) {
			p.log.Debug("excluding image below requirements",
				"path", path, "size", fmt.Sprintf("%dx%d", info.Width, info.Height), "ratio", info.Ratio)
			continue
		}
		infos = append(infos, info)
	}
	return total, infos, nil
}

// probeWorkerCounts builds the benchmark candidate set for a machine:
// {1, cores/2, cores, cores*2} clamped to 1..60, deduplicated and
// sorted, plus a 3x-cores probe when there is headroom below the
// ceiling on machines under 30 cores.
func probeWorkerCounts(cores int) []int {
	raw := []int{1, cores / 2, cores, cores * 2}

	var candidates []int
	for _, w := range raw {
		if w > 0 && w <= 60 {
			candidates = append(candidates, w)
		}
	}
	slices.Sort(candidates)
	candidates = slices.Compact(candidates)

	if len(candidates) == 0 {
		return []int{1}
	}
	if candidates[len(candidates)-1] < 60 && cores < 30 {
		candidates = append(candidates, min(60, cores*3))
		slices.Sort(candidates)
		candidates = slices.Compact(candidates)
	}
	return candidates
}

var (
	ratioPattern      = regexp.MustCompile(`^(\d+):(\d+)$`)
	resolutionPattern = regexp.MustCompile(`^(\d+)x(\d+)$`)
)

// ParseOverride interprets the boundary override syntax: a list of
// "aspect-ratio=W:H" and "resolution=WxH" pairs. An empty list means
// accept-all. Aspect ratios are stored in reduced form, so
// "aspect-ratio=3840:2160" and "aspect-ratio=16:9" are equivalent.
func ParseOverride(args []string) (*Override, error) {
	if len(args) == 0 {
		return &Override{AcceptAll: true}, nil
	}

	o := &Override{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("override parameter must be key=value, got %q", arg)
		}
		switch key {
		case "aspect-ratio":
			m := ratioPattern.FindStringSubmatch(value)
			if m == nil {
				return nil, fmt.Errorf("invalid aspect ratio %q, use a form like 16:9", value)
			}
			w, _ := strconv.Atoi(m[1])
			h, _ := strconv.Atoi(m[2])
			if w == 0 || h == 0 {
				return nil, fmt.Errorf("aspect ratio dimensions must be positive, got %q", value)
			}
			ratio := policy.ReduceRatio(w, h)
			o.Ratio = &ratio
		case "resolution":
			// Tolerate a stray "=value" suffix; only the leading WxH
			// counts.
			value, _, _ = strings.Cut(value, "=")
			m := resolutionPattern.FindStringSubmatch(value)
			if m == nil {
				return nil, fmt.Errorf("invalid resolution %q, use a form like 1920x1080", value)
			}
			w, _ := strconv.Atoi(m[1])
			h, _ := strconv.Atoi(m[2])
			if w == 0 || h == 0 {
				return nil, fmt.Errorf("resolution dimensions must be positive, got %q", value)
			}
			o.Resolution = &Size{W: w, H: h}
		default:
			return nil, fmt.Errorf("unknown override parameter %q", key)
		}
	}
	return o, nil
}

func describeOverride(o *Override) string {
	switch {
	case o == nil:
		return "none"
	case o.AcceptAll:
		return "accept-all"
	}
	var parts []string
	if o.Ratio != nil {
		parts = append(parts, "aspect-ratio "+o.Ratio.String())
	}
	if o.Resolution != nil {
		parts = append(parts, "resolution "+o.Resolution.String())
	}
	return strings.Join(parts, ", ")
}

func checkInputDir(dir string) error {
	stat, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("invalid input directory %s: %w", dir, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("input path %s is not a directory", dir)
	}
	return nil
}
