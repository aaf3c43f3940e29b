package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ratufa/internal/api"
	"github.com/samcharles93/ratufa/internal/engine"
	"github.com/samcharles93/ratufa/internal/logger"
	"github.com/samcharles93/ratufa/internal/task"
)

func serveCmd() *cli.Command {
	var (
		roms         []string
		romDir       string
		scaffoldName string
		addr         string
		readTimeout  time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP control surface for loaded ROMs",
		Flags: append(romFlags(&roms, &romDir),
			&cli.StringFlag{
				Name:        "scaffold",
				Usage:       "default interpreter backend",
				Destination: &scaffoldName,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(c, cfg, &scaffoldName, &romDir, &addr)

			// Tasks started over HTTP never see the server's terminal.
			eng, err := engine.New(engine.Config{
				Scaffold:    scaffoldName,
				Terminal:    task.Terminal{},
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

			for _, r := range roms {
				path, err := resolveROMPath(r, romDir)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				if _, err := eng.OpenROM(path); err != nil {
					return cli.Exit(fmt.Sprintf("error: load rom: %v", err), 1)
				}
			}

			server := api.NewServer(eng, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "roms", len(roms), "scaffold", eng.Scaffold())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
