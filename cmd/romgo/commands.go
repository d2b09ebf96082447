package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/hupe1980/romgo"
	"github.com/hupe1980/romgo/basis"
	"github.com/hupe1980/romgo/projection"
	"github.com/hupe1980/romgo/scaling"
)

func modesFlag() cli.Flag {
	return &cli.StringFlag{Name: "modes", Value: "0", Usage: `mode count, or one count per domain ("8,6,6,8"); 0 keeps all`}
}

func parseModes(c *cli.Context) (basis.ModeSpec, error) {
	return basis.ParseModeSpec(c.String("modes"))
}

func buildCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "build a POD basis from snapshot files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mesh-dir", Required: true},
			&cli.StringSliceFlag{Name: "data-dir", Required: true, Usage: "snapshot directory, repeatable"},
			&cli.StringFlag{Name: "data-root", Required: true, Usage: "snapshot file root"},
			&cli.IntFlag{Name: "nvars", Required: true},
			&cli.StringFlag{Name: "basis-dir", Required: true},
			&cli.IntFlag{Name: "start"},
			&cli.IntFlag{Name: "stop", Usage: "exclusive, 0 means through the end, negative counts from the end"},
			&cli.IntFlag{Name: "step", Value: 1},
			&cli.BoolFlag{Name: "concat", Usage: "join all datasets along time"},
			&cli.BoolFlag{Name: "decompose", Usage: "build one basis per domain of the mesh"},
			&cli.StringFlag{Name: "center", Value: string(scaling.CenterZero), Usage: "zero, init_cond or mean"},
			&cli.StringFlag{Name: "norm", Value: string(scaling.NormOne), Usage: "one or l2"},
			modesFlag(),
		},
		Action: func(c *cli.Context) error {
			modes, err := parseModes(c)
			if err != nil {
				return err
			}
			b, err := e.rom.BuildBases(c.Context, romgo.BuildRequest{
				MeshDir:      c.String("mesh-dir"),
				DataDirs:     c.StringSlice("data-dir"),
				DataRoot:     c.String("data-root"),
				NVars:        c.Int("nvars"),
				BasisDir:     c.String("basis-dir"),
				Start:        c.Int("start"),
				Stop:         c.Int("stop"),
				Step:         c.Int("step"),
				Concat:       c.Bool("concat"),
				Decompose:    c.Bool("decompose"),
				CenterMethod: scaling.CenterMethod(c.String("center")),
				NormMethod:   scaling.NormMethod(c.String("norm")),
				Modes:        modes,
			})
			if err != nil {
				return err
			}
			for i, blk := range b.Blocks() {
				fmt.Fprintf(c.App.Writer, "block %d: dof %d, modes %d\n", i, blk.DOF(), blk.Modes())
			}
			return nil
		},
	}
}

func reconstructCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "reconstruct",
		Usage: "expand reduced coefficients to full-order snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mesh-dir", Required: true},
			&cli.StringFlag{Name: "data-dir", Required: true, Usage: "directory of the coefficient files"},
			&cli.StringFlag{Name: "coeff-root", Required: true, Usage: "coefficient file root"},
			&cli.StringFlag{Name: "basis-dir", Required: true},
			&cli.IntFlag{Name: "nvars", Required: true},
			&cli.BoolFlag{Name: "merge", Usage: "merge per-domain output into the global grid"},
			&cli.StringFlag{Name: "out-dir", Usage: "write the snapshots here"},
			&cli.StringFlag{Name: "out-root", Usage: "file root of the written snapshots"},
			modesFlag(),
		},
		Action: func(c *cli.Context) error {
			modes, err := parseModes(c)
			if err != nil {
				return err
			}
			res, err := e.rom.Reconstruct(c.Context, romgo.ReconstructRequest{
				MeshDir:  c.String("mesh-dir"),
				DataDir:  c.String("data-dir"),
				Root:     c.String("coeff-root"),
				BasisDir: c.String("basis-dir"),
				NVars:    c.Int("nvars"),
				Modes:    modes,
				Merge:    c.Bool("merge"),
				OutDir:   c.String("out-dir"),
				OutRoot:  c.String("out-root"),
			})
			if err != nil {
				return err
			}
			if res.Global != nil {
				fmt.Fprintf(c.App.Writer, "global: shape %v\n", res.Global.Shape())
			}
			for i, blk := range res.Blocks {
				fmt.Fprintf(c.App.Writer, "block %d: shape %v\n", i, blk.Shape())
			}
			return nil
		},
	}
}

func projectCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "project",
		Usage: "round-trip snapshots through a basis and report the error",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mesh-dir", Required: true},
			&cli.StringSliceFlag{Name: "data-dir", Required: true},
			&cli.StringFlag{Name: "data-root", Required: true},
			&cli.StringFlag{Name: "basis-dir", Required: true},
			&cli.IntFlag{Name: "nvars", Required: true},
			&cli.BoolFlag{Name: "merge"},
			&cli.StringFlag{Name: "out-dir", Usage: "write coefficients and projected snapshots here"},
			modesFlag(),
		},
		Action: func(c *cli.Context) error {
			modes, err := parseModes(c)
			if err != nil {
				return err
			}
			out, err := e.rom.Project(c.Context, romgo.ProjectRequest{
				MeshDir:  c.String("mesh-dir"),
				DataDirs: c.StringSlice("data-dir"),
				DataRoot: c.String("data-root"),
				BasisDir: c.String("basis-dir"),
				NVars:    c.Int("nvars"),
				Modes:    modes,
				Merge:    c.Bool("merge"),
				OutDir:   c.String("out-dir"),
			})
			if err != nil {
				return err
			}
			printProjected(c.App.Writer, c.StringSlice("data-dir"), out)
			return nil
		},
	}
}

func energyCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "energy",
		Usage: "print the modes needed to capture 99%, 99.9% and 99.99% of the energy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "basis-dir", Required: true},
		},
		Action: func(c *cli.Context) error {
			reports, err := e.rom.Energy(c.Context, c.String("basis-dir"))
			if err != nil {
				return err
			}
			for i, r := range reports {
				if len(reports) > 1 {
					fmt.Fprintf(c.App.Writer, "domain %d\n", i)
				}
				if _, err := r.WriteTo(c.App.Writer); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func runCommand(e *env, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run the steps of a YAML job file; storage and logging come from the file",
		ArgsUsage: "<job.yaml>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("run expects exactly one job file, got %d arguments", c.NArg())
			}
			job, err := romgo.LoadJobConfig(c.Args().First())
			if err != nil {
				return err
			}
			if err := e.setup(c.Context, job, c.Bool("log-json"), stderr); err != nil {
				return err
			}
			if job.Build != nil {
				if _, err := e.rom.BuildBases(c.Context, *job.Build); err != nil {
					return fmt.Errorf("build: %w", err)
				}
			}
			if job.Project != nil {
				out, err := e.rom.Project(c.Context, *job.Project)
				if err != nil {
					return fmt.Errorf("project: %w", err)
				}
				printProjected(c.App.Writer, job.Project.DataDirs, out)
			}
			if job.Reconstruct != nil {
				if _, err := e.rom.Reconstruct(c.Context, *job.Reconstruct); err != nil {
					return fmt.Errorf("reconstruct: %w", err)
				}
			}
			return nil
		},
	}
}

func printProjected(w io.Writer, dirs []string, out []*projection.Projected) {
	for i, p := range out {
		fmt.Fprintf(w, "%s: relative error %.6e\n", dirs[i], p.RelativeError)
	}
}
