package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
)

const (
	// Hard ceiling kept for portability; some platforms cap the
	// usable worker count near 61.
	maxWorkers = 60

	autoWorkerCap = 8
)

// ResolveWorkers clamps a requested worker count to the number of
// images and the hard ceiling. A requested count of 0 means auto:
// min(cores, images, 8).
func ResolveWorkers(requested, imageCount int) int {
	workers := requested
	if workers <= 0 {
		workers = min(runtime.NumCPU(), imageCount, autoWorkerCap)
	} else {
		workers = min(workers, imageCount)
	}
	if workers < 1 {
		workers = 1
	}
	return min(workers, maxWorkers)
}

// Pool fans image tasks out across a fixed number of workers. The
// unit of parallelism is the image: one worker runs every variant of
// its task serially. Results are collected as tasks complete, in
// whatever order the scheduler produces them.
type Pool struct {
	size       int
	transcoder domain.Transcoder
	progress   domain.ProgressFunc
}

func NewPool(size int, transcoder domain.Transcoder, progress domain.ProgressFunc) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size, transcoder: transcoder, progress: progress}
}

// Run submits every task up front and blocks until all of them have
// completed. A failure inside one task never aborts or cancels the
// others; it is converted into an error result. After each completed
// task the progress callback receives (completed, total, elapsed).
func (p *Pool) Run(tasks []domain.ImageTask) []domain.ImageResult {
	total := len(tasks)
	if total == 0 {
		return nil
	}

	taskCh := make(chan domain.ImageTask)
	resultCh := make(chan domain.ImageResult)

	var g errgroup.Group
	for i := 0; i < p.size; i++ {
		g.Go(func() error {
			for task := range taskCh {
				resultCh <- p.runTask(task)
			}
			return nil
		})
	}

	go func() {
		for _, task := range tasks {
			taskCh <- task
		}
		close(taskCh)
	}()
	go func() {
		g.Wait()
		close(resultCh)
	}()

	start := time.Now()
	results := make([]domain.ImageResult, 0, total)
	for result := range resultCh {
		results = append(results, result)
		if p.progress != nil {
			p.progress(len(results), total, time.Since(start))
		}
	}
	return results
}

// runTask executes every variant job of one image. Individual variant
// failures drop that variant only; a panic or a task-level failure
// becomes an error result.
func (p *Pool) runTask(task domain.ImageTask) (result domain.ImageResult) {
	source := filepath.Base(task.Info.Path)

	defer func() {
		if r := recover(); r != nil {
			result = domain.ImageResult{
				Status: domain.StatusError,
				Source: source,
				Err:    fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	if len(task.Jobs) == 0 {
		return domain.ImageResult{
			Status: domain.StatusSkipped,
			Source: source,
			Reason: domain.ReasonUnsupportedAspectRatio,
		}
	}

	if err := os.MkdirAll(task.Dir, 0o755); err != nil {
		return domain.ImageResult{
			Status: domain.StatusError,
			Source: source,
			Err:    err.Error(),
		}
	}

	variants := make([]domain.VariantResult, 0, len(task.Jobs))
	for _, job := range task.Jobs {
		vr, err := p.transcoder.Transcode(job)
		if err != nil || vr == nil {
			continue
		}
		variants = append(variants, *vr)
	}

	return domain.ImageResult{
		Status:      domain.StatusSuccess,
		Source:      source,
		AspectRatio: task.Info.Ratio.String(),
		Variants:    variants,
	}
}
