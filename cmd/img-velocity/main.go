package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	imgvelocity "github.com/SuperGenLabs/img-velocity"
	"github.com/SuperGenLabs/img-velocity/internal/progress"
)

type options struct {
	inputDir     string
	outputDir    string
	workers      int
	thumbnails   bool
	benchmark    bool
	overrideCSV  string
	policyFile   string
	logLevel     string
	showRequires bool
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: img-velocity INPUT_DIR [options]

Convert a directory of images into responsive WebP variants plus a
manifest.json describing every output.

Options:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Override syntax (comma-separated in -override):
  aspect-ratio=W:H     only process images of this aspect ratio
  resolution=WxH       require at least this resolution
Use -accept-all to process every decodable image.

Examples:
  img-velocity photos/
  img-velocity photos/ -output dist/ -thumbnails -workers 8
  img-velocity photos/ -override aspect-ratio=16:9,resolution=1920x1080
  img-velocity photos/ -benchmark
`)
}

// turn --flag into -flag so the stdlib flag parser accepts it.
func normalizeDoubleDash() {
	for i := 1; i < len(os.Args); i++ {
		if strings.HasPrefix(os.Args[i], "--") {
			os.Args[i] = "-" + strings.TrimLeft(os.Args[i], "-")
		}
	}
}

func parseOptions() (options, bool) {
	var o options
	var acceptAll bool
	flag.Usage = printUsage

	flag.StringVar(&o.outputDir, "output", "output", "Output directory for variants and manifest.json")
	flag.IntVar(&o.workers, "workers", 0, "Worker count 1-100 (0 = auto: min of cores, images, 8)")
	flag.BoolVar(&o.thumbnails, "thumbnails", false, "Also generate thumbnail variants")
	flag.BoolVar(&o.benchmark, "benchmark", false, "Probe several worker counts on a sample and report throughput")
	flag.StringVar(&o.overrideCSV, "override", "", "Requirement overrides, comma-separated key=value pairs")
	flag.BoolVar(&acceptAll, "accept-all", false, "Process every decodable image regardless of requirements")
	flag.StringVar(&o.policyFile, "policy", "", "YAML policy table replacing the built-in size matrix")
	flag.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flag.BoolVar(&o.showRequires, "requirements", false, "Print the minimum requirements table and exit")

	normalizeDoubleDash()
	flag.Parse()

	if o.showRequires {
		return o, true
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "ERROR: exactly one input directory is required.")
		flag.Usage()
		os.Exit(2)
	}
	o.inputDir = flag.Arg(0)

	if acceptAll && o.overrideCSV != "" {
		fmt.Fprintln(os.Stderr, "ERROR: -accept-all and -override are mutually exclusive.")
		os.Exit(2)
	}
	if acceptAll {
		o.overrideCSV = "accept-all"
	}
	if o.workers != 0 && (o.workers < 1 || o.workers > 100) {
		fmt.Fprintf(os.Stderr, "ERROR: -workers must be between 1 and 100, got %d.\n", o.workers)
		os.Exit(2)
	}
	return o, false
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func parseOverrideFlag(csv string) (*imgvelocity.Override, error) {
	if csv == "" {
		return nil, nil
	}
	if csv == "accept-all" {
		return imgvelocity.ParseOverride(nil)
	}
	return imgvelocity.ParseOverride(strings.Split(csv, ","))
}

func printRequirements(table *imgvelocity.PolicyTable) {
	ratios := table.Ratios()
	sort.Slice(ratios, func(i, j int) bool {
		if ratios[i].W != ratios[j].W {
			return ratios[i].W < ratios[j].W
		}
		return ratios[i].H < ratios[j].H
	})
	fmt.Println("Minimum requirements per aspect ratio:")
	for _, r := range ratios {
		min, _ := table.MinimumRequirement(r)
		fmt.Printf("  %-6s %s\n", r.String(), min.String())
	}
}

func main() {
	o, requirementsOnly := parseOptions()

	table := imgvelocity.DefaultPolicyTable()
	if o.policyFile != "" {
		var err error
		table, err = imgvelocity.LoadPolicyTable(o.policyFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "FATAL:", err)
			os.Exit(1)
		}
	}

	if requirementsOnly {
		printRequirements(table)
		return
	}

	override, err := parseOverrideFlag(o.overrideCSV)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(o.logLevel),
	}))

	tracker := progress.NewTracker(os.Stdout)
	proc := imgvelocity.NewProcessor(imgvelocity.Options{
		Table:  table,
		Logger: logger,
		Progress: func(completed, total int, elapsed time.Duration) {
			tracker.Display(completed, total, elapsed)
		},
	})

	if o.benchmark {
		runBenchmark(proc, o, override)
		return
	}

	summary, err := proc.ProcessDirectory(o.inputDir, o.outputDir, o.thumbnails, o.workers, override)
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	fmt.Printf("\nScanned %d files: %d valid, %d excluded\n",
		summary.TotalFound, summary.Valid, summary.Skipped)
	fmt.Printf("Processed %d images with %d workers in %s\n",
		summary.Succeeded, summary.Workers, progress.FormatDuration(summary.Elapsed))
	if summary.Failed > 0 {
		fmt.Printf("Failed: %d\n", summary.Failed)
		for _, r := range summary.Results {
			if r.Status == imgvelocity.StatusError {
				fmt.Printf("  %s: %s\n", r.Source, r.Err)
			}
		}
	}
	fmt.Printf("Created %d variants\n", summary.TotalVariants)
	fmt.Printf("Manifest: %s\n", summary.ManifestPath)

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func runBenchmark(proc *imgvelocity.Processor, o options, override *imgvelocity.Override) {
	fmt.Println("Benchmarking worker counts (sample of up to 10 images)...")
	results, err := proc.Benchmark(o.inputDir, o.thumbnails, override)
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	fmt.Printf("\n%-9s %-10s %s\n", "Workers", "Time", "Images/sec")
	for i, r := range results {
		marker := "  "
		if i == 0 {
			marker = "* "
		}
		fmt.Printf("%s%-7d %-10s %.2f\n", marker, r.Workers, progress.FormatDuration(r.Elapsed), r.ImagesPerSecond)
	}
	if len(results) > 0 {
		fmt.Printf("\nBest: %d workers. Run with -workers %d.\n", results[0].Workers, results[0].Workers)
	}
}
