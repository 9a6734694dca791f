package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssv/config"
	"cssv/state"
	"cssv/vars"
)

// OptionsFromConfig maps the document configuration onto pipeline options.
func OptionsFromConfig(cfg *config.DocumentConfig) Options {
	return Options{
		DisallowedProperties:      cfg.DisallowedProperties,
		RewriteAttributeSelectors: cfg.RewriteAttributeSelectors,
		Variables: vars.Options{
			MaxIterations: cfg.Variables.MaxIterations,
			LogWarnings:   cfg.Variables.LogWarnings,
		},
	}
}

// Run implements the "process" subcommand: transform CSS file(s) from
// SOURCE into DESTINATION.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")

	pipeline := NewPipeline(env.Log, OptionsFromConfig(&env.Cfg.Document))

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}
	if fi.Mode().IsDir() {
		return processDir(ctx, pipeline, src, dst, env.Overwrite, log)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}
	return processFile(pipeline, src, filepath.Base(src), dst, env.Overwrite, log)
}

// processDir walks directory tree finding css files and processes them,
// keeping the input directory structure under dst. Per-file failures are
// logged and do not stop the walk.
func processDir(ctx context.Context, pipeline *Pipeline, dir, dst string, overwrite bool, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".css") {
			log.Debug("Skipping file, not a stylesheet", zap.String("file", path))
			return nil
		}

		count++

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processFile(pipeline, path, src, dst, overwrite, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// processFile transforms a single stylesheet. "src" is the source path
// relative to the original input (just the base name when a file was given
// directly), used to derive the output location under dst.
func processFile(pipeline *Pipeline, path, src, dst string, overwrite bool, log *zap.Logger) (rerr error) {
	log.Info("Transformation starting", zap.String("from", src))

	outputName := filepath.Join(dst, src)
	defer func(start time.Time) {
		log.Info("Transformation completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
	}(time.Now())

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet (%s): %w", path, err)
	}

	res, err := pipeline.Run(data, src)
	if err != nil {
		return fmt.Errorf("unable to transform stylesheet (%s): %w", src, err)
	}
	if len(res.Warnings) > 0 {
		log.Debug("Transformation produced warnings", zap.String("file", src), zap.Int("count", len(res.Warnings)))
	}

	if _, err := os.Stat(outputName); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer func() {
		rerr = multierr.Append(rerr, out.Close())
	}()

	if _, err := out.Write(res.CSS); err != nil {
		return fmt.Errorf("unable to write output file: %w", err)
	}
	return nil
}

// DumpVars implements the "vars" subcommand: collect and resolve variable
// scopes of a single stylesheet and print the resulting table.
func DumpVars(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("vars")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet (%s): %w", src, err)
	}

	pipeline := NewPipeline(env.Log, OptionsFromConfig(&env.Cfg.Document))
	sheet := pipeline.parser.Parse(data, src)

	table := vars.Collect(sheet)
	iterations, reachedLimit := pipeline.engine.Resolve(table)
	if reachedLimit {
		log.Warn(vars.WarningMaxIterations, zap.Int("iterations", iterations))
	}

	fmt.Fprint(os.Stdout, table.String())
	return nil
}
