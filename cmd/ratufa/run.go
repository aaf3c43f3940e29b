package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ratufa/internal/engine"
	"github.com/samcharles93/ratufa/internal/logger"
	"github.com/samcharles93/ratufa/internal/task"
)

func runCmd() *cli.Command {
	var (
		roms         []string
		romDir       string
		mainClass    string
		scaffoldName string
		fork         bool
		stdoutMode   string
		stderrMode   string
		defines      []string
	)

	return &cli.Command{
		Name:      "run",
		Usage:     "Boot a root VM task from ROMs and run its main class",
		ArgsUsage: "[-- main args...]",
		Flags: append(romFlags(&roms, &romDir),
			&cli.StringFlag{
				Name:        "main-class",
				Aliases:     []string{"main"},
				Usage:       "main class to enter",
				Required:    true,
				Destination: &mainClass,
			},
			&cli.StringFlag{
				Name:        "scaffold",
				Usage:       "interpreter backend (empty selects the default)",
				Destination: &scaffoldName,
			},
			&cli.BoolFlag{
				Name:        "fork",
				Usage:       "run the main thread on its own goroutine",
				Destination: &fork,
			},
			&cli.StringFlag{
				Name:        "stdout-mode",
				Usage:       "stdout redirect (discard, buffer, terminal)",
				Value:       "terminal",
				Destination: &stdoutMode,
			},
			&cli.StringFlag{
				Name:        "stderr-mode",
				Usage:       "stderr redirect (discard, buffer, terminal)",
				Value:       "terminal",
				Destination: &stderrMode,
			},
			&cli.StringSliceFlag{
				Name:        "define",
				Aliases:     []string{"D"},
				Usage:       "system property key=value, repeatable",
				Destination: &defines,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyRunConfig(c, cfg, &scaffoldName, &romDir, &stdoutMode, &stderrMode, &fork)

			if len(roms) == 0 {
				return cli.Exit("error: at least one --rom is required", 1)
			}
			outMode, err := task.ParseRedirectMode(stdoutMode)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: --stdout-mode: %v", err), 1)
			}
			errMode, err := task.ParseRedirectMode(stderrMode)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: --stderr-mode: %v", err), 1)
			}
			props, err := parseDefines(defines)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			eng, err := engine.New(engine.Config{
				Scaffold:    scaffoldName,
				Terminal:    task.HostTerminal(),
				Logger:      log,
				BaseContext: ctx,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() {
				if err := eng.Close(); err != nil {
					log.Warn("engine shutdown", "error", err)
				}
			}()

			names := make([]string, 0, len(roms))
			for _, r := range roms {
				path, err := resolveROMPath(r, romDir)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				ct, err := eng.OpenROM(path)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: load rom: %v", err), 1)
				}
				names = append(names, ct.Name())
			}
			cp, err := eng.ClassPath(names...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			tk, th, err := eng.SpawnTask(ctx, task.Request{
				ClassPath:        cp,
				MainClass:        mainClass,
				MainArgs:         c.Args().Slice(),
				SystemProperties: props,
				StdOut:           outMode,
				StdErr:           errMode,
				ForkThread:       fork,
				RootVM:           true,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: spawn: %v", err), 1)
			}
			log.Debug("task ready", "task", tk.ID(), "io", fmt.Sprintf("%+v", tk.IO()))

			code, err := drive(ctx, th)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return cli.Exit("interrupted", 130)
				}
				return cli.Exit(fmt.Sprintf("error: %v", err), max(code, 1))
			}
			if code != 0 {
				return cli.Exit("", code)
			}
			return nil
		},
	}
}

// drive runs an inline thread on the caller, or waits out a forked one.
func drive(ctx context.Context, th *task.Thread) (int, error) {
	if th.Policy() == task.Inline {
		if err := th.Run(ctx); err != nil {
			code, _ := th.Result()
			return code, err
		}
		return th.Result()
	}
	return th.Wait(ctx)
}
