package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/ratufa/internal/version"
	"github.com/samcharles93/ratufa/pkg/sqc"

	"github.com/urfave/cli/v3"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			fmt.Printf("ratufa      %s\n", version.String())
			if info.Commit != "" {
				fmt.Printf("commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Printf("build time: %s\n", info.BuildTime)
			}
			fmt.Printf("sqc class:  %d\n", sqc.ClassVersion)
			return nil
		},
	}
}
