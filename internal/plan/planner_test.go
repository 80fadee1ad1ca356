package plan

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
	"github.com/SuperGenLabs/img-velocity/internal/policy"
)

func TestPlanForNaturalRatio(t *testing.T) {
	p := NewPlanner(policy.Default())

	vp := p.PlanFor(domain.AspectRatio{W: 1, H: 1}, nil)
	if vp.Folder != "square-1-1" {
		t.Fatalf("unexpected folder: %s", vp.Folder)
	}
	if len(vp.Sizes) != 7 || len(vp.Thumbnails) != 2 {
		t.Fatalf("unexpected ladder: %d sizes, %d thumbnails", len(vp.Sizes), len(vp.Thumbnails))
	}
	if vp.Sizes[0] != (domain.Size{W: 1600, H: 1600}) {
		t.Fatalf("largest size should lead: %s", vp.Sizes[0])
	}
}

func TestPlanForUnknownRatioIsEmptyCustom(t *testing.T) {
	p := NewPlanner(policy.Default())

	vp := p.PlanFor(domain.AspectRatio{W: 13, H: 11}, nil)
	if vp.Folder != "custom-13-11" {
		t.Fatalf("unexpected folder: %s", vp.Folder)
	}
	if !vp.Empty() {
		t.Fatalf("expected empty plan, got %#v", vp)
	}
}

func TestPlanForRatioOverrideRedirectsLookup(t *testing.T) {
	p := NewPlanner(policy.Default())
	override := &domain.Override{Ratio: &domain.AspectRatio{W: 16, H: 9}}

	// A 4:3 image planned under a 16:9 override lands in the 16:9
	// folder with the 16:9 ladder.
	vp := p.PlanFor(domain.AspectRatio{W: 4, H: 3}, override)
	if vp.Folder != "landscape-16-9" {
		t.Fatalf("unexpected folder: %s", vp.Folder)
	}
	if len(vp.Sizes) != 8 {
		t.Fatalf("expected the 16:9 ladder, got %d sizes", len(vp.Sizes))
	}
}

func TestPlanForResolutionOverrideLadder(t *testing.T) {
	p := NewPlanner(policy.Default())
	override := &domain.Override{Resolution: &domain.Size{W: 2560, H: 1440}}

	vp := p.PlanFor(domain.AspectRatio{W: 16, H: 9}, override)

	want := []domain.Size{
		{W: 2560, H: 1440},
		{W: 1920, H: 1080},
		{W: 1280, H: 720},
		{W: 960, H: 540},
		{W: 640, H: 360},
		{W: 320, H: 180},
	}
	if len(vp.Sizes) != len(want) {
		t.Fatalf("expected %d sizes, got %d: %v", len(want), len(vp.Sizes), vp.Sizes)
	}
	for i, s := range want {
		if vp.Sizes[i] != s {
			t.Fatalf("size %d: got %s, want %s", i, vp.Sizes[i], s)
		}
	}

	for i := 1; i < len(vp.Sizes); i++ {
		if vp.Sizes[i].Area() >= vp.Sizes[i-1].Area() {
			t.Fatalf("areas not strictly decreasing at %d", i)
		}
	}

	wantThumbs := []domain.Size{{W: 128, H: 72}, {W: 76, H: 43}, {W: 51, H: 28}}
	if len(vp.Thumbnails) != len(wantThumbs) {
		t.Fatalf("expected %d thumbnails, got %v", len(wantThumbs), vp.Thumbnails)
	}
	for i, s := range wantThumbs {
		if vp.Thumbnails[i] != s {
			t.Fatalf("thumbnail %d: got %s, want %s", i, vp.Thumbnails[i], s)
		}
	}
}

func TestPlanForResolutionOverrideRespectsFloors(t *testing.T) {
	p := NewPlanner(policy.Default())
	override := &domain.Override{Resolution: &domain.Size{W: 200, H: 120}}

	vp := p.PlanFor(domain.AspectRatio{W: 5, H: 3}, override)

	// 0.75 -> 150x90, 0.5 -> 100x60; everything below hits the 50px
	// floor. Thumbnails all fall below 25px and vanish.
	if len(vp.Sizes) != 3 {
		t.Fatalf("expected 3 sizes, got %v", vp.Sizes)
	}
	if len(vp.Thumbnails) != 0 {
		t.Fatalf("expected no thumbnails, got %v", vp.Thumbnails)
	}
}

func TestPlanForCombinedOverrides(t *testing.T) {
	p := NewPlanner(policy.Default())
	override := &domain.Override{
		Ratio:      &domain.AspectRatio{W: 13, H: 11},
		Resolution: &domain.Size{W: 1300, H: 1100},
	}

	vp := p.PlanFor(domain.AspectRatio{W: 1, H: 1}, override)
	if vp.Folder != "custom-13-11" {
		t.Fatalf("unexpected folder: %s", vp.Folder)
	}
	if len(vp.Sizes) == 0 || vp.Sizes[0] != (domain.Size{W: 1300, H: 1100}) {
		t.Fatalf("resolution override should seed the ladder: %v", vp.Sizes)
	}
}

func TestSanitizeBaseName(t *testing.T) {
	cases := map[string]string{
		"My File":       "my-file",
		"a__b  c":       "a-b-c",
		"--Weird--":     "weird",
		"Simple":        "simple",
		"under_score":   "under-score",
		"  spaced out ": "spaced-out",
	}
	for in, want := range cases {
		if got := SanitizeBaseName(in); got != want {
			t.Fatalf("SanitizeBaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpandJobsNamingAndPaths(t *testing.T) {
	out := t.TempDir()
	info := &domain.ImageInfo{
		Path:   "/photos/My File.jpg",
		Width:  1600,
		Height: 1600,
		Ratio:  domain.AspectRatio{W: 1, H: 1},
	}
	vp := NewPlanner(policy.Default()).PlanFor(info.Ratio, nil)

	task, err := ExpandJobs(info, vp, out, true)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if task.ID == "" {
		t.Fatalf("task should carry an id")
	}
	if task.Dir != filepath.Join(out, "square-1-1", "my-file") {
		t.Fatalf("unexpected task dir: %s", task.Dir)
	}
	if len(task.Jobs) != 9 {
		t.Fatalf("expected 7 standard + 2 thumbnail jobs, got %d", len(task.Jobs))
	}

	first := task.Jobs[0]
	if filepath.Base(first.DestPath) != "my-file-1600x1600.webp" {
		t.Fatalf("unexpected first job name: %s", first.DestPath)
	}
	if first.RelPath != "square-1-1/my-file/my-file-1600x1600.webp" {
		t.Fatalf("unexpected rel path: %s", first.RelPath)
	}
	if first.Thumbnail {
		t.Fatalf("first job should be standard")
	}

	last := task.Jobs[len(task.Jobs)-1]
	if !last.Thumbnail || !strings.HasPrefix(filepath.Base(last.DestPath), "thumbnail-my-file-") {
		t.Fatalf("unexpected last job: %#v", last)
	}

	// Thumbnails disabled drops the thumbnail jobs.
	task, err = ExpandJobs(info, vp, out, false)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(task.Jobs) != 7 {
		t.Fatalf("expected 7 jobs without thumbnails, got %d", len(task.Jobs))
	}
}

func TestExpandJobsRejectsEscapingFolder(t *testing.T) {
	out := t.TempDir()
	info := &domain.ImageInfo{Path: "/photos/x.jpg", Width: 100, Height: 100, Ratio: domain.AspectRatio{W: 1, H: 1}}
	vp := domain.VariantPlan{Folder: "../outside", Sizes: []domain.Size{{W: 100, H: 100}}}

	if _, err := ExpandJobs(info, vp, out, false); err == nil {
		t.Fatalf("expected containment error")
	}
}
