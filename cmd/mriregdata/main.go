package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mriregdata/internal/ctxlog"
	"mriregdata/internal/models"
	"mriregdata/pkg/config"
	"mriregdata/pkg/dataset"
	"mriregdata/pkg/grid"
	"mriregdata/pkg/nifti"
	"mriregdata/pkg/preparation"
	"mriregdata/pkg/visualization"
	"mriregdata/pkg/volume"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "mriregdata.yaml", "YAML configuration file (defaults are used if it does not exist)")
	mode := flag.String("mode", "", "Operation: grid, pairs, predict, inspect or init-config")
	shape := flag.String("shape", "", "Grid shape as X,Y,Z")
	unit := flag.Bool("unit", false, "Generate the normalized [-1, 1] grid")
	input := flag.String("input", "", "Glob of training volumes (pairs) or a single volume (inspect)")
	sampling := flag.String("sampling", "", "Pair sampling: random or epoch")
	iterations := flag.Int("iterations", 0, "Number of random pairs")
	seed := flag.Int64("seed", 0, "Seed for random pairs and epoch shuffling")
	norm := flag.Bool("norm", false, "Min-max normalize images after loading")
	fixed := flag.String("fixed", "", "Fixed image for prediction")
	fixedLabel := flag.String("fixed-label", "", "Fixed label map for prediction")
	moving := flag.String("moving", "", "Glob of moving images for prediction")
	movingLabel := flag.String("moving-label", "", "Glob of moving label maps for prediction")
	numCores := flag.Int("cores", 0, "Number of volumes loaded in parallel (default from config)")
	outputDir := flag.String("output", "", "Output directory")
	crop := flag.String("crop", "", "Region to crop when inspecting, as X,Y,Z,SX,SY,SZ")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save every prepared volume as NIfTI")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *mode == "" {
		flag.Usage()
		os.Exit(1)
	}

	if *mode == "init-config" {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags given on the command line override the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shape":
			dims, err := parseInts(*shape, 3)
			if err != nil {
				log.Fatalf("Invalid -shape: %v", err)
			}
			cfg.Grid.Shape = dims
		case "unit":
			cfg.Grid.Unit = *unit
		case "input":
			cfg.Data.Pattern = *input
		case "sampling":
			cfg.Sampling.Mode = *sampling
		case "iterations":
			cfg.Sampling.Iterations = *iterations
		case "seed":
			cfg.Sampling.Seed = *seed
		case "norm":
			cfg.Data.Norm = *norm
		case "fixed":
			cfg.Prediction.Fixed = *fixed
		case "fixed-label":
			cfg.Prediction.FixedLabel = *fixedLabel
		case "moving":
			cfg.Prediction.MovingPattern = *moving
		case "moving-label":
			cfg.Prediction.MovingLabelPattern = *movingLabel
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "output":
			cfg.Output.Dir = *outputDir
		case "save-intermediary":
			cfg.Output.SaveIntermediaryResults = *saveIntermediary
		case "verbose":
			cfg.Output.Verbose = *verbose
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	fmt.Println("================================")
	fmt.Println("MRI REGISTRATION DATA PREPARATION")
	fmt.Println("================================")

	startTime := time.Now()
	switch *mode {
	case "grid":
		err = runGrid(cfg)
	case "pairs":
		err = runPairs(ctx, cfg)
	case "predict":
		err = runPredict(ctx, cfg)
	case "inspect":
		err = runInspect(cfg, *crop)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", *mode, err)
	}

	fmt.Printf("\nCompleted in %.2f seconds\n", time.Since(startTime).Seconds())
}

// runGrid writes the sampling grid for the configured shape
func runGrid(cfg *config.Config) error {
	shape := cfg.GridShape()

	var g models.Field
	var err error
	name := "grid.nii"
	if cfg.Grid.Unit {
		g, err = grid.GenerateGridUnit(shape)
		name = "grid_unit.nii"
	} else {
		g, err = grid.GenerateGrid(shape)
	}
	if err != nil {
		return err
	}

	outputPath := filepath.Join(cfg.Output.Dir, name)
	if err := nifti.SaveFlow(outputPath, g); err != nil {
		return err
	}

	fmt.Printf("Grid of shape %v saved to: %s\n", g.Shape, outputPath)
	for c, axis := range []string{"z", "y", "x"} {
		lo, hi := g.Data[c], g.Data[len(g.Data)-3+c]
		fmt.Printf("- channel %d (%s): %.3f to %.3f\n", c, axis, lo, hi)
	}
	return nil
}

// runPairs builds the training dataset and scores every pair
func runPairs(ctx context.Context, cfg *config.Config) error {
	names, err := dataset.Glob(cfg.Data.Pattern)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d volumes matching %s\n", len(names), cfg.Data.Pattern)

	opts := loaderOptions(cfg)

	var ds dataset.Dataset[models.Pair]
	switch cfg.Sampling.Mode {
	case config.ModeRandom:
		rng := rand.New(rand.NewSource(cfg.Sampling.Seed))
		ds, err = dataset.NewRandomPairs(names, cfg.Sampling.Iterations, cfg.Data.Norm, rng, opts...)
	case config.ModeEpoch:
		var epoch *dataset.EpochPairs
		epoch, err = dataset.NewEpochPairs(names, cfg.Data.Norm, opts...)
		if err == nil && cfg.Sampling.Shuffle {
			epoch.Shuffle(cfg.Sampling.Seed)
		}
		ds = epoch
	}
	if err != nil {
		return err
	}
	fmt.Printf("Sampling %d %s pairs...\n", ds.Len(), cfg.Sampling.Mode)

	preparer := preparation.NewPreparer(&preparation.Params{
		NumCores:                cfg.Processing.NumCores,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         filepath.Join(cfg.Output.Dir, "pairs"),
	})
	summary, err := preparer.ProcessPairs(ctx, ds)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

// runPredict pairs the fixed image with every moving image
func runPredict(ctx context.Context, cfg *config.Config) error {
	p := cfg.Prediction
	if p.Fixed == "" || p.FixedLabel == "" || p.MovingPattern == "" || p.MovingLabelPattern == "" {
		return fmt.Errorf("prediction needs -fixed, -fixed-label, -moving and -moving-label")
	}

	moving, err := dataset.Glob(p.MovingPattern)
	if err != nil {
		return err
	}
	movingLabels, err := dataset.Glob(p.MovingLabelPattern)
	if err != nil {
		return err
	}

	ds, err := dataset.NewPrediction(p.Fixed, p.FixedLabel, moving, movingLabels, cfg.Data.Norm, loaderOptions(cfg)...)
	if err != nil {
		return err
	}
	fmt.Printf("Scoring %d moving volumes against %s...\n", ds.Len(), p.Fixed)

	preparer := preparation.NewPreparer(&preparation.Params{
		NumCores:                cfg.Processing.NumCores,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         filepath.Join(cfg.Output.Dir, "predict"),
	})
	summary, err := preparer.ProcessPrediction(ctx, ds)
	if err != nil {
		return err
	}

	for _, r := range summary.Reports {
		name, _ := ds.MovingName(r.Index)
		fmt.Printf("[%d] %s: Dice %.4f, RMSE %.4f\n", r.Index, name, r.Dice, r.Metrics.RMSE)
	}
	printSummary(summary)
	fmt.Printf("Mean label Dice: %.4f\n", summary.MeanDice)
	return nil
}

// runInspect prints statistics of one volume and saves previews
func runInspect(cfg *config.Config, crop string) error {
	path := cfg.Data.Pattern
	v, err := nifti.Load4D(path)
	if err != nil {
		return err
	}

	stats := volume.Describe(v)
	fmt.Printf("Volume: %s\n", path)
	fmt.Printf("Shape: %v (%d voxels)\n", v.Shape, stats.Voxels)
	fmt.Printf("Intensity: min %.4f, max %.4f, mean %.4f, std %.4f\n", stats.Min, stats.Max, stats.Mean, stats.Std)

	viewer, err := visualization.NewViewer(v)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ".gz"), ".nii")
	previewDir := filepath.Join(cfg.Output.Dir, "inspect", base)
	if err := viewer.SaveMiddleSlices(previewDir); err != nil {
		return err
	}
	fmt.Printf("Middle slices saved to: %s\n", previewDir)

	histPath := filepath.Join(previewDir, "histogram.png")
	if err := visualization.SaveHistogram(v, 64, base, histPath); err != nil {
		log.Printf("Warning: Failed to save histogram: %v", err)
	} else {
		fmt.Printf("Histogram saved to: %s\n", histPath)
	}

	if crop != "" {
		box, err := parseInts(crop, 6)
		if err != nil {
			return fmt.Errorf("invalid -crop: %w", err)
		}
		region, err := viewer.ExtractRegion(box[0], box[1], box[2], box[3], box[4], box[5])
		if err != nil {
			return err
		}
		cropPath := filepath.Join(previewDir, "crop.nii")
		if err := nifti.SaveImage(cropPath, region); err != nil {
			return err
		}
		fmt.Printf("Cropped region %v saved to: %s\n", region.Shape, cropPath)
	}
	return nil
}

func loaderOptions(cfg *config.Config) []dataset.Option {
	if cfg.Data.Batched {
		return []dataset.Option{dataset.WithLoader(nifti.Load5D)}
	}
	return nil
}

func printSummary(s *preparation.Summary) {
	fmt.Printf("\nProcessed %d samples in %.2f seconds\n", s.Samples, s.Elapsed.Seconds())
	fmt.Printf("Baseline similarity (before registration):\n")
	fmt.Printf("=======================================\n")
	fmt.Printf("Mutual Information (MI): %.3f\n", s.Mean.MI)
	fmt.Printf("Entropy Difference: %.3f\n", s.Mean.EntropyDiff)
	fmt.Printf("Root Mean Square Error (RMSE): %.6f\n", s.Mean.RMSE)
	fmt.Printf("Structural Similarity Index (SSIM): %.3f\n", s.Mean.SSIM)
}

// parseInts parses exactly n comma-separated integers
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma-separated values, got %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
