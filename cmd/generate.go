package main

import (
	"bufio"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mapscene/internal/scene"
)

var (
	genLat    float64
	genLon    float64
	genRadius float64
	genSeed   uint64
	genOut    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a scene for a single center coordinate",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		gcfg := cfg.Generation
		if genRadius > 0 {
			gcfg.RadiusM = genRadius
		}
		if genSeed != 0 {
			gcfg.Seed = genSeed
		}

		gen := scene.NewGenerator(env.Service, gcfg)
		if err := gen.Start(ctx, genLat, genLon); err != nil {
			return err
		}
		out, err := gen.Run(ctx)
		if err != nil {
			return err
		}

		return writeScene(out, genOut)
	},
}

var (
	batchFile        string
	batchConcurrency int
	batchOutDir      string
)

var generateBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate scenes for every center in a file",
	Long:  "Reads one \"lat,lon\" pair per line and generates a scene for each, writing <run_id>.json into the output directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		centers, err := readCenters(batchFile)
		if err != nil {
			return err
		}
		if len(centers) == 0 {
			return eris.New("no centers in input file")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := os.MkdirAll(batchOutDir, 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}

		eg, gCtx := errgroup.WithContext(ctx)
		eg.SetLimit(batchConcurrency)
		for _, c := range centers {
			eg.Go(func() error {
				gcfg := cfg.Generation
				if genRadius > 0 {
					gcfg.RadiusM = genRadius
				}
				gen := scene.NewGenerator(env.Service, gcfg)
				if err := gen.Start(gCtx, c.lat, c.lon); err != nil {
					return err
				}
				out, err := gen.Run(gCtx)
				if err != nil {
					return eris.Wrapf(err, "center %g,%g", c.lat, c.lon)
				}
				path := batchOutDir + "/" + out.RunID + ".json"
				if err := writeScene(out, path); err != nil {
					return err
				}
				zap.L().Info("scene written",
					zap.Float64("lat", c.lat),
					zap.Float64("lon", c.lon),
					zap.String("path", path),
				)
				return nil
			})
		}
		return eg.Wait()
	},
}

type center struct {
	lat, lon float64
}

func readCenters(path string) ([]center, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open centers file")
	}
	defer f.Close()

	var out []center
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			return nil, eris.Errorf("bad center line %q", line)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "bad latitude in %q", line)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "bad longitude in %q", line)
		}
		out = append(out, center{lat: lat, lon: lon})
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "read centers file")
	}
	return out, nil
}

func writeScene(s *scene.Scene, path string) error {
	var w *os.File
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "encode scene")
	}
	return nil
}

func init() {
	generateCmd.Flags().Float64Var(&genLat, "lat", 0, "center latitude (required)")
	generateCmd.Flags().Float64Var(&genLon, "lon", 0, "center longitude (required)")
	generateCmd.Flags().Float64Var(&genRadius, "radius", 0, "generation radius in meters (default from config)")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0, "deterministic seed (0 = time-based)")
	generateCmd.Flags().StringVar(&genOut, "out", "-", "output path for scene JSON (- = stdout)")
	generateCmd.MarkFlagRequired("lat")
	generateCmd.MarkFlagRequired("lon")

	generateBatchCmd.Flags().StringVar(&batchFile, "file", "", "file with one lat,lon per line (required)")
	generateBatchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "parallel generations")
	generateBatchCmd.Flags().StringVar(&batchOutDir, "out-dir", "scenes", "output directory")
	generateBatchCmd.MarkFlagRequired("file")

	generateCmd.AddCommand(generateBatchCmd)
	rootCmd.AddCommand(generateCmd)
}
