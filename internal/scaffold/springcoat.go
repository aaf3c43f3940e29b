package scaffold

import (
	"context"
	"fmt"
	"io"

	"github.com/samcharles93/ratufa/internal/vmerr"
)

// springCoat is the reference backend. It boots the classpath (every entry
// must be live and report its class version) and hands control to the main
// class. Bytecode execution lives behind this boundary.
type springCoat struct{}

func (springCoat) Name() string { return SpringCoat }

func (springCoat) Run(ctx context.Context, p *Program) (int, error) {
	if p == nil {
		return -1, vmerr.Of(vmerr.KindNullArgs, 0)
	}
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	if err := p.ClassPath.Validate(); err != nil {
		return 1, err
	}
	for i, c := range p.ClassPath {
		if _, err := c.Version(); err != nil {
			return 1, fmt.Errorf("boot classpath entry %d (%s): %w", i, c.Name(), err)
		}
	}

	out := p.Stdout
	if out == nil {
		out = io.Discard
	}
	_, err := fmt.Fprintf(out, "springcoat: %s [%s] %d arg(s)\n", p.MainClass, p.ClassPath, len(p.MainArgs))
	if err != nil {
		return 1, err
	}
	return 0, nil
}
