package graph

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"runtime/debug"

	graphql "github.com/graph-gophers/graphql-go"
)

//go:embed schema.graphql
var schemaSDL string

// DefaultMaxDepth bounds query nesting when the caller does not configure it.
const DefaultMaxDepth = 12

// NewSchema parses the SDL against res. maxDepth <= 0 selects DefaultMaxDepth.
func NewSchema(res *Resolver, maxDepth int) (*graphql.Schema, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	s, err := graphql.ParseSchema(schemaSDL, res,
		graphql.MaxDepth(maxDepth),
		graphql.Logger(panicLogger{log: res.log}),
	)
	if err != nil {
		return nil, fmt.Errorf("graph: parse schema: %w", err)
	}
	return s, nil
}

// panicLogger routes resolver panics to slog instead of the stdlib logger.
type panicLogger struct {
	log *slog.Logger
}

func (l panicLogger) LogPanic(ctx context.Context, value interface{}) {
	l.log.ErrorContext(ctx, "graphql.resolver.panic",
		"panic", fmt.Sprint(value),
		"stack", string(debug.Stack()),
	)
}
