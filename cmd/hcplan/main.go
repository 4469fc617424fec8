// Package main runs scenario files through the homotopy class planner and reports the commands it produces.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/hcplanner/logging"
	"go.viam.com/hcplanner/utils"
)

const (
	flagScenario = "scenario"
	flagCycles   = "cycles"
	flagPlot     = "plot"
	flagRealtime = "realtime"
	flagLogLevel = "log-level"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "hcplan",
		Usage:     "run a homotopy class planner over a scenario",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     flagScenario,
				Aliases:  []string{"s"},
				Usage:    "load the scenario from `FILE`",
				Required: true,
			},
			&cli.IntFlag{
				Name:  flagCycles,
				Usage: "override the number of planning cycles",
			},
			&cli.StringFlag{
				Name:  flagPlot,
				Usage: "write a plot of the final planner state to `FILE` (.png, .svg, .pdf)",
			},
			&cli.BoolFlag{
				Name:  flagRealtime,
				Usage: "pace cycles at the scenario cycle time",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "one of debug, info, warn, error",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	level, err := logging.LevelFromString(c.String(flagLogLevel))
	if err != nil {
		return err
	}
	logger := logging.NewLogger("hcplan")
	logger.SetLevel(level)
	logging.ReplaceGlobal(logger)
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()

	scn, err := loadScenario(c.String(flagScenario))
	if err != nil {
		return err
	}
	if c.IsSet(flagCycles) {
		scn.Cycles = c.Int(flagCycles)
		if err := scn.validate(); err != nil {
			return err
		}
	}

	r, err := newRunner(scn, clock.New(), c.Bool(flagRealtime), c.App.Writer, logger)
	if err != nil {
		return err
	}

	var res runResult
	var runErr error
	workers := utils.NewStoppableWorkers(c.Context, func(ctx context.Context) {
		res, runErr = r.run(ctx)
	})
	workers.Wait()
	workers.Stop()
	if runErr != nil {
		return runErr
	}

	if res.reached {
		fmt.Fprintf(c.App.Writer, "goal reached after %d cycles\n", res.cycles)
	} else {
		fmt.Fprintf(c.App.Writer, "goal not reached after %d cycles\n", res.cycles)
	}

	if path := c.String(flagPlot); path != "" {
		if err := r.viz.Save(path); err != nil {
			return errors.Wrap(err, "cannot write plot")
		}
		logger.Infow("plot written", "path", path)
	}
	return nil
}
