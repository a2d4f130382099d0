package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssnitro/css"
	"cssnitro/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inspect")

	env.Stylesheet = cmd.Args().Get(0)
	if len(env.Stylesheet) == 0 {
		return errors.New("no stylesheet has been specified")
	}
	env.Scenario = cmd.Args().Get(1)
	env.Output = cmd.Args().Get(2)
	if cmd.Args().Len() > 3 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[3:]))
	}

	if cmd.Bool("no-colors") {
		env.Cfg.Engine.ColorProcessing = false
	}

	sheet, err := css.NewLoader(env.Log).LoadFile(env.Stylesheet)
	if err != nil {
		return err
	}
	if err := env.Rpt.StoreCopy("input/stylesheet"+filepath.Ext(env.Stylesheet), env.Stylesheet); err != nil {
		log.Warn("Unable to store stylesheet in the report", zap.Error(err))
	}
	for _, w := range sheet.Warnings {
		log.Warn("Suspicious stylesheet content", zap.String("source", env.Stylesheet), zap.String("problem", w))
	}

	var sc *Scenario
	if len(env.Scenario) == 0 {
		sc = DefaultScenario(sheet)
	} else {
		if sc, err = LoadScenario(env.Scenario); err != nil {
			return err
		}
		if err := env.Rpt.StoreCopy("input/scenario"+filepath.Ext(env.Scenario), env.Scenario); err != nil {
			log.Warn("Unable to store scenario in the report", zap.Error(err))
		}
	}

	var out io.Writer = os.Stdout
	if len(env.Output) != 0 && env.Output != "-" {
		f, err := os.Create(env.Output)
		if err != nil {
			return fmt.Errorf("unable to create destination: %w", err)
		}
		defer f.Close()
		out = f
	}

	in := New(env.Log, env.NewRegistry, env.Rpt, out)
	defer func() {
		err = multierr.Append(err, in.Close())
	}()

	log.Debug("Inspection starting", zap.String("stylesheet", env.Stylesheet), zap.String("scenario", env.Scenario),
		zap.Int("components", len(sc.Components)), zap.Int("steps", len(sc.Steps)))
	defer func(start time.Time) {
		log.Debug("Inspection completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return in.Run(ctx, sheet, sc)
}
