package policy

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
)

type tableFile struct {
	Ratios []ratioEntry `yaml:"ratios"`
}

type ratioEntry struct {
	Ratio      string   `yaml:"ratio"`
	Min        string   `yaml:"min"`
	Folder     string   `yaml:"folder"`
	Sizes      []string `yaml:"sizes"`
	Thumbnails []string `yaml:"thumbnails"`
}

// Load reads a policy table from a YAML file. The file must satisfy
// the same invariants as the built-in table; Load fails otherwise.
//
// Format:
//
//	ratios:
//	  - ratio: "1:1"
//	    min: "1600x1600"
//	    folder: "square-1-1"
//	    sizes: ["1600x1600", "800x800"]
//	    thumbnails: ["64x64"]
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

// Parse builds and validates a table from YAML bytes.
func Parse(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	if len(file.Ratios) == 0 {
		return nil, fmt.Errorf("policy file declares no ratios")
	}

	entries := make(map[domain.AspectRatio]Entry, len(file.Ratios))
	for _, re := range file.Ratios {
		ratio, err := parsePair(re.Ratio, ":")
		if err != nil {
			return nil, fmt.Errorf("ratio %q: %w", re.Ratio, err)
		}
		min, err := parsePair(re.Min, "x")
		if err != nil {
			return nil, fmt.Errorf("ratio %q: min %q: %w", re.Ratio, re.Min, err)
		}
		sizes, err := parseSizes(re.Sizes)
		if err != nil {
			return nil, fmt.Errorf("ratio %q: %w", re.Ratio, err)
		}
		thumbs, err := parseSizes(re.Thumbnails)
		if err != nil {
			return nil, fmt.Errorf("ratio %q: %w", re.Ratio, err)
		}

		key := domain.AspectRatio{W: ratio.W, H: ratio.H}
		if _, exists := entries[key]; exists {
			return nil, fmt.Errorf("duplicate ratio %s", key)
		}
		entries[key] = Entry{
			Min:        min,
			Folder:     re.Folder,
			Sizes:      sizes,
			Thumbnails: thumbs,
		}
	}

	table := NewTable(entries)
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func parseSizes(raw []string) ([]domain.Size, error) {
	sizes := make([]domain.Size, 0, len(raw))
	for _, s := range raw {
		size, err := parsePair(s, "x")
		if err != nil {
			return nil, fmt.Errorf("size %q: %w", s, err)
		}
		sizes = append(sizes, size)
	}
	return sizes, nil
}

func parsePair(s, sep string) (domain.Size, error) {
	left, right, ok := strings.Cut(s, sep)
	if !ok {
		return domain.Size{}, fmt.Errorf("expected two values separated by %q", sep)
	}
	w, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return domain.Size{}, fmt.Errorf("invalid number %q", left)
	}
	h, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return domain.Size{}, fmt.Errorf("invalid number %q", right)
	}
	if w <= 0 || h <= 0 {
		return domain.Size{}, fmt.Errorf("values must be positive")
	}
	return domain.Size{W: w, H: h}, nil
}
