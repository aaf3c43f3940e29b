// Package scaffold is the catalogue of interpreter backends a task can run on.
//
// The catalogue is assembled once at init and never mutated, so lookups need
// no locking. Selection is strictly by name: an unknown name is an error and
// never falls back to the default backend.
package scaffold

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samcharles93/ratufa/internal/format"
	"github.com/samcharles93/ratufa/internal/vmerr"
)

const (
	SpringCoat = "springcoat"

	// Default is used when no backend is named.
	Default = SpringCoat
)

// Program is everything a backend needs to run one task's main entry point.
type Program struct {
	TaskID           string
	ClassPath        format.ClassPath
	MainClass        string
	MainArgs         []string
	SystemProperties map[string]string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Scaffold is one interpreter backend.
type Scaffold interface {
	Name() string
	// Run executes the program's main class on the calling goroutine and
	// returns its exit code. Backends should return once ctx is done.
	Run(ctx context.Context, p *Program) (int, error)
}

var catalogue = []Scaffold{
	springCoat{},
}

// Names lists every compiled-in backend in catalogue order.
func Names() []string {
	out := make([]string, len(catalogue))
	for i, s := range catalogue {
		out[i] = s.Name()
	}
	return out
}

// Available returns a comma-separated list of available backends.
func Available() string {
	return strings.Join(Names(), ",")
}

// Has reports whether name is in the catalogue.
func Has(name string) bool {
	return slices.Contains(Names(), name)
}

// Normalize lowercases and trims name. An empty name selects Default.
func Normalize(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Default, nil
	}
	if !Has(n) {
		return "", vmerr.New(vmerr.KindUnknownScaffold).
			Detail(fmt.Sprintf("unknown scaffold %q (expected one of %s)", n, Available())).
			Build()
	}
	return n, nil
}

// Lookup resolves a backend by name.
func Lookup(name string) (Scaffold, error) {
	n, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	for _, s := range catalogue {
		if s.Name() == n {
			return s, nil
		}
	}
	return nil, vmerr.New(vmerr.KindUnknownScaffold).Detail(n).Build()
}
