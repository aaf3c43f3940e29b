package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ratufa/internal/engine"
	"github.com/samcharles93/ratufa/internal/scaffold"
)

func scaffoldsCmd() *cli.Command {
	return &cli.Command{
		Name:  "scaffolds",
		Usage: "List compiled-in interpreter backends and ROM drivers",
		Action: func(ctx context.Context, c *cli.Command) error {
			def := scaffold.Default
			if cfg.Scaffold != "" {
				def = cfg.Scaffold
			}
			fmt.Println("Scaffolds:")
			for _, n := range scaffold.Names() {
				marker := " "
				if n == def {
					marker = "*"
				}
				fmt.Printf("  %s %s\n", marker, n)
			}
			fmt.Println("Drivers (detection order):")
			for _, d := range engine.Drivers.Drivers() {
				fmt.Printf("    %-12s %s\n", d.Name, d.Kind)
			}
			return nil
		},
	}
}
