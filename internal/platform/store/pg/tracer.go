package pg

import (
	"context"
	"strings"

	"harborlist/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives every statement the sql adapter runs
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs each statement through root. The logger is pinned to debug so
// SQL stays visible when the process level is raised
func Tracer(root logger.Logger) QueryTracer {
	return sqlLog{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type sqlLog struct{ log logger.Logger }

func (s sqlLog) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := s.log.Info()
	switch {
	case ev.Err != nil:
		evt = s.log.Error()
	case ev.Slow:
		evt = s.log.Warn()
	}
	if rid := logger.RequestID(ctx); rid != "" {
		evt = evt.Str("request_id", rid)
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Str("sql", squash(ev.SQL)).
		Interface("args", ev.Args).
		Err(ev.Err).
		Msg("pg query")
}

// squash folds every whitespace run into one space
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	gap := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			if !gap {
				b.WriteByte(' ')
			}
			gap = true
		default:
			gap = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
