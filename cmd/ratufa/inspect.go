package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ratufa/internal/engine"
	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/pkg/sqc"
)

// inspectReport is what inspect prints, as text or JSON.
type inspectReport struct {
	Path          string  `json:"path"`
	Size          int     `json:"size"`
	Mapped        bool    `json:"mapped"`
	Magic         string  `json:"magic"`
	Kind          string  `json:"kind"`
	Driver        string  `json:"driver,omitempty"`
	Version       int16   `json:"version"`
	NumProperties int32   `json:"num_properties"`
	NumLibraries  *int32  `json:"num_libraries,omitempty"`
	Properties    []int32 `json:"properties"`
	Truncated     bool    `json:"truncated,omitempty"`
	Error         string  `json:"error,omitempty"`
}

func inspectCmd() *cli.Command {
	var (
		romPath string
		asJSON  bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect the header and properties of an SQC ROM",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "rom",
				Aliases:     []string{"r"},
				Usage:       "path to .sqc file",
				Required:    true,
				Destination: &romPath,
			},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			img, err := sqc.Open(romPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open rom: %v", err), 1)
			}
			defer func() { _ = img.Close() }()

			report := inspectImage(romPath, img)
			if asJSON {
				return writeReportJSON(os.Stdout, report)
			}
			writeReportText(os.Stdout, report)
			if report.Error != "" {
				return cli.Exit("", 2)
			}
			return nil
		},
	}
}

// inspectImage decodes the raw header for display, then asks the driver
// registry whether it accepts the ROM. Files too short for a header and
// driver rejections are reported in the Error field rather than failing.
func inspectImage(path string, img *sqc.Image) inspectReport {
	report := inspectReport{
		Path:   path,
		Size:   len(img.Data),
		Mapped: img.Mapped(),
		Kind:   sqc.KindUnknown.String(),
	}
	if h, err := sqc.DecodeHeader(img.Data); err == nil {
		props, complete := sqc.ReadProperties(img.Data, h)
		report.Magic = fmt.Sprintf("%#08x", h.Magic)
		report.Kind = h.Kind().String()
		report.Version = h.Version
		report.NumProperties = h.NumProperties
		report.Properties = props
		report.Truncated = !complete
	}

	ct, err := engine.Drivers.Load(filepath.Base(path), img.Data)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	defer func() { _ = ct.Close() }()
	report.Driver = ct.Driver()
	if p, ok := ct.(*format.Pack); ok {
		if n, err := p.NumLibraries(); err == nil {
			report.NumLibraries = &n
		} else {
			report.Error = err.Error()
		}
	}
	return report
}

func writeReportJSON(w io.Writer, r inspectReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeReportText(w io.Writer, r inspectReport) {
	fmt.Fprintf(w, "SQC Inspect: %s\n", r.Path)
	fmt.Fprintf(w, "Size: %d bytes (mapped: %t)\n", r.Size, r.Mapped)
	if r.Magic != "" {
		fmt.Fprintf(w, "Magic: %s (%s)\n", r.Magic, r.Kind)
	} else {
		fmt.Fprintf(w, "Magic: none (%s)\n", r.Kind)
	}
	if r.Driver != "" {
		fmt.Fprintf(w, "Driver: %s\n", r.Driver)
	}
	fmt.Fprintf(w, "Class version: %d\n", r.Version)
	if r.NumLibraries != nil {
		fmt.Fprintf(w, "Libraries: %d\n", *r.NumLibraries)
	}
	fmt.Fprintf(w, "Properties: %d\n", r.NumProperties)
	for i, v := range r.Properties {
		fmt.Fprintf(w, "  [%d] %d (%#08x)\n", i, v, uint32(v))
	}
	if r.Truncated {
		fmt.Fprintf(w, "  ... table truncated after %d of %d\n", len(r.Properties), r.NumProperties)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Rejected: %s\n", r.Error)
	}
}
