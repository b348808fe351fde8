// Package main is the labelfill command: it replays polygon annotation jobs
// onto labeled voxel volumes.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"labelfill/internal/logging"
	"labelfill/pkg/config"
	"labelfill/pkg/replay"
)

const (
	flagConfig = "config"
	flagOut    = "out"
	flagDebug  = "debug"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp returns the CLI with Writer set to out and ErrWriter set to errOut
func newApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "labelfill",
		Usage:     "fill polygon annotations into labeled voxel volumes",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "replay a job file on a fresh volume",
				ArgsUsage: "JOB.yaml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load configuration from `FILE`",
						Value:   "labelfill.yaml",
					},
					&cli.StringFlag{
						Name:    flagOut,
						Aliases: []string{"o"},
						Usage:   "write label slices under `DIR`",
					},
				},
				Action: runAction,
			},
			{
				Name:      "init-config",
				Usage:     "write the default configuration",
				ArgsUsage: "PATH",
				Action:    initConfigAction,
			},
		},
	}
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one job file")
	}

	cfg, err := config.LoadConfig(c.String(flagConfig))
	if err != nil {
		return err
	}
	logger := logging.NewLogger("labelfill", cfg.Output.Verbose || c.Bool(flagDebug))
	//nolint:errcheck
	defer logger.Sync()

	r := replay.NewReplayer(&replay.Params{
		JobFile:   c.Args().First(),
		OutputDir: c.String(flagOut),
		Config:    cfg,
	}, logger)

	start := time.Now()
	if err := r.Process(c.Context); err != nil {
		return errors.Wrap(err, "replay failed")
	}
	printReport(c.App.Writer, r, time.Since(start))
	return nil
}

func printReport(w io.Writer, r *replay.Replayer, elapsed time.Duration) {
	fmt.Fprintf(w, "Replay completed in %.3f seconds\n\n", elapsed.Seconds())

	fmt.Fprintln(w, "Operations:")
	for _, res := range r.Results() {
		fmt.Fprintf(w, "  #%-3d %-6s %-12s polygons=%d samples=%d changed=%d clipped=%d\n",
			res.Index, res.Op, res.Label, res.Polygons,
			res.Stats.Samples, res.Stats.Changed, res.Stats.Clipped)
	}

	fmt.Fprintln(w, "\nLabels:")
	for _, ls := range r.Summary() {
		c := ls.Centroid
		fmt.Fprintf(w, "  %-12s voxels=%d centroid=(%.2f, %.2f, %.2f) extent=%v-%v\n",
			ls.Label, ls.Voxels, c.X, c.Y, c.Z, ls.Extent.Min, ls.Extent.Max)
	}

	fmt.Fprintf(w, "\nRepaint requests: %d\n", r.Repaints())
	if n := r.SlicesWritten(); n > 0 {
		fmt.Fprintf(w, "Slices written: %d\n", n)
	}
}

func initConfigAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one config path")
	}
	path := c.Args().First()
	if err := config.CreateDefaultConfigFile(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Default configuration written to %s\n", path)
	return nil
}
