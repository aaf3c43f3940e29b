package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/ratufa/internal/logger"
	"github.com/samcharles93/ratufa/pkg/sqc"
)

// packManifest describes a synthetic SQC container.
//
//	kind: pack
//	libraries: 2
//	properties:
//	  2: 42
type packManifest struct {
	Kind       string          `yaml:"kind" validate:"required,oneof=pack library lib jar"`
	Version    *int16          `yaml:"version"`
	Libraries  *int32          `yaml:"libraries"`
	Properties map[int32]int32 `yaml:"properties"`
}

func loadManifest(path string) (packManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return packManifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m packManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return packManifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := validate.Struct(m); err != nil {
		return packManifest{}, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	if m.Libraries != nil && m.Kind != "pack" {
		return packManifest{}, fmt.Errorf("invalid manifest %s: libraries is only valid for packs", path)
	}
	for i := range m.Properties {
		if i < 0 || i >= sqc.MaxProperties {
			return packManifest{}, fmt.Errorf("invalid manifest %s: property index %d out of range", path, i)
		}
	}
	return m, nil
}

// build encodes the manifest. Explicit properties are applied last so they
// can override the version and library count slots.
func (m packManifest) build() ([]byte, error) {
	kind, _ := sqc.ParseKind(m.Kind)
	b := sqc.NewBuilder(kind)
	if m.Version != nil {
		b.SetVersion(*m.Version)
	}
	if m.Libraries != nil {
		if err := b.SetNumLibraries(*m.Libraries); err != nil {
			return nil, err
		}
	}
	idx := make([]int, 0, len(m.Properties))
	for i := range m.Properties {
		idx = append(idx, int(i))
	}
	sort.Ints(idx)
	for _, i := range idx {
		if err := b.Set(i, m.Properties[int32(i)]); err != nil {
			return nil, fmt.Errorf("property %d: %w", i, err)
		}
	}
	return b.Bytes()
}

func packCmd() *cli.Command {
	var (
		manifestPath string
		outPath      string
	)

	return &cli.Command{
		Name:  "pack",
		Usage: "Build an SQC container from a YAML manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "manifest",
				Aliases:     []string{"m"},
				Usage:       "path to manifest .yaml",
				Required:    true,
				Destination: &manifestPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output .sqc path",
				Required:    true,
				Destination: &outPath,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)

			m, err := loadManifest(manifestPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			data, err := m.build()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: encode: %v", err), 1)
			}
			if err := os.MkdirAll(filepath.Dir(filepath.Clean(outPath)), 0o755); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return cli.Exit(fmt.Sprintf("error: write: %v", err), 1)
			}
			log.Info("wrote container", "path", outPath, "kind", m.Kind, "bytes", len(data))
			return nil
		},
	}
}
