package policy

import (
	"testing"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
)

func TestReduceRatio(t *testing.T) {
	cases := []struct {
		w, h   int
		expect domain.AspectRatio
	}{
		{3840, 2160, domain.AspectRatio{W: 16, H: 9}},
		{1600, 1600, domain.AspectRatio{W: 1, H: 1}},
		{810, 1440, domain.AspectRatio{W: 9, H: 16}},
		{3440, 1440, domain.AspectRatio{W: 43, H: 18}},
		{1920, 1080, domain.AspectRatio{W: 16, H: 9}},
		{7, 3, domain.AspectRatio{W: 7, H: 3}},
	}

	for _, c := range cases {
		got := ReduceRatio(c.w, c.h)
		if got != c.expect {
			t.Fatalf("ReduceRatio(%d, %d) = %s, want %s", c.w, c.h, got, c.expect)
		}
		if gcd(got.W, got.H) != 1 {
			t.Fatalf("ReduceRatio(%d, %d) = %s is not coprime", c.w, c.h, got)
		}
	}
}

func TestReduceRatioScaleInvariant(t *testing.T) {
	base := ReduceRatio(16, 9)
	for _, k := range []int{1, 2, 3, 120, 999} {
		if got := ReduceRatio(16*k, 9*k); got != base {
			t.Fatalf("ReduceRatio(16*%d, 9*%d) = %s, want %s", k, k, got, base)
		}
	}
}

func TestDefaultTableIsValid(t *testing.T) {
	table := Default()
	if err := table.Validate(); err != nil {
		t.Fatalf("default table failed validation: %v", err)
	}
	if got := len(table.Ratios()); got != 11 {
		t.Fatalf("expected 11 table entries, got %d", got)
	}
}

func TestDefaultTableMinimumsReduceToKey(t *testing.T) {
	table := Default()
	for _, ratio := range table.Ratios() {
		min, ok := table.MinimumRequirement(ratio)
		if !ok {
			t.Fatalf("missing minimum for %s", ratio)
		}
		if reduced := ReduceRatio(min.W, min.H); reduced != ratio {
			t.Fatalf("minimum %s for %s reduces to %s", min, ratio, reduced)
		}
	}
}

func TestDefaultTableThumbnailsStrictlySmaller(t *testing.T) {
	table := Default()
	for _, ratio := range table.Ratios() {
		entry, _ := table.OutputPlanFor(ratio)
		for _, thumb := range entry.Thumbnails {
			for _, size := range entry.Sizes {
				if thumb.Area() >= size.Area() || thumb.W >= size.W || thumb.H >= size.H {
					t.Fatalf("%s: thumbnail %s not dominated by size %s", ratio, thumb, size)
				}
			}
		}
	}
}

func TestOutputPlanForKnownAndUnknown(t *testing.T) {
	table := Default()

	entry, ok := table.OutputPlanFor(domain.AspectRatio{W: 1, H: 1})
	if !ok {
		t.Fatalf("expected entry for 1:1")
	}
	if entry.Folder != "square-1-1" || len(entry.Sizes) != 7 || len(entry.Thumbnails) != 2 {
		t.Fatalf("unexpected 1:1 entry: %#v", entry)
	}

	if _, ok := table.OutputPlanFor(domain.AspectRatio{W: 13, H: 11}); ok {
		t.Fatalf("expected no entry for 13:11")
	}
}

func TestQualityTiers(t *testing.T) {
	cases := []struct {
		w, h      int
		thumbnail bool
		expect    int
	}{
		{100, 100, true, 55},
		{160, 90, true, 65},
		{800, 450, false, 80},
		{1920, 1080, false, 85},
		{2000, 1125, false, 85},
		{3840, 2160, false, 82}, // intentional drop at the top tier
	}

	for _, c := range cases {
		if got := Quality(c.w, c.h, c.thumbnail); got != c.expect {
			t.Fatalf("Quality(%d, %d, %v) = %d, want %d", c.w, c.h, c.thumbnail, got, c.expect)
		}
	}
}

func TestParseTableFromYAML(t *testing.T) {
	data := []byte(`
ratios:
  - ratio: "1:1"
    min: "1600x1600"
    folder: "square"
    sizes: ["1600x1600", "800x800"]
    thumbnails: ["64x64"]
`)
	table, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	min, ok := table.MinimumRequirement(domain.AspectRatio{W: 1, H: 1})
	if !ok || min != (domain.Size{W: 1600, H: 1600}) {
		t.Fatalf("unexpected minimum: %v %v", min, ok)
	}
}

func TestParseRejectsInconsistentTable(t *testing.T) {
	cases := map[string]string{
		"min does not reduce to key": `
ratios:
  - ratio: "16:9"
    min: "1000x1000"
    folder: "wide"
    sizes: ["1000x562"]
`,
		"thumbnail not dominated": `
ratios:
  - ratio: "1:1"
    min: "100x100"
    folder: "square"
    sizes: ["100x100"]
    thumbnails: ["100x100"]
`,
		"unreduced key": `
ratios:
  - ratio: "2:2"
    min: "100x100"
    folder: "square"
    sizes: ["100x100"]
`,
		"no ratios": `ratios: []`,
	}

	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
