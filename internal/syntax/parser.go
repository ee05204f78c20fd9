package syntax

import (
	"context"
	"errors"
	"fmt"
)

// Parser turns source text into the syntax model.
type Parser interface {
	// Name identifies the grammar in logs and in the tag cache.
	Name() string
	// Parse parses src. A parser that cannot fully understand the input
	// returns an error rather than a partial tree.
	Parse(ctx context.Context, src []byte) (*File, error)
}

// ErrNoParsers is returned by an empty Chain.
var ErrNoParsers = errors.New("no parsers configured")

// Chain tries parsers in order and keeps the first success.
type Chain []Parser

// Parse returns the first successful parse and the name of the parser that
// produced it. When every parser fails the errors are joined in order.
func (c Chain) Parse(ctx context.Context, src []byte) (*File, string, error) {
	if len(c) == 0 {
		return nil, "", ErrNoParsers
	}
	var errs []error
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		f, err := p.Parse(ctx, src)
		if err == nil {
			return f, p.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, "", errors.Join(errs...)
}

// Names lists the parser names in order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return names
}
