// Package eventbus delivers committed reconciler changes to the outside
// world: the application log and, when configured, a RabbitMQ exchange.
package eventbus

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arkantrust/dealership-admin/backend/reconciler"
)

// Logger writes every change to a zerolog logger.
type Logger struct {
	log zerolog.Logger
}

// NewLogger uses the global logger when l is nil.
func NewLogger(l *zerolog.Logger) *Logger {
	if l == nil {
		return &Logger{log: log.Logger}
	}
	return &Logger{log: *l}
}

func (l *Logger) Notify(_ context.Context, changes ...reconciler.Change) {
	for _, c := range changes {
		l.log.Info().
			Str("changeId", c.ID).
			Str("kind", string(c.Kind)).
			Str("collection", c.Collection).
			Str("entityId", c.EntityID).
			Time("at", c.At).
			Msg("Change")
	}
}

// Multi fans changes out to every notifier in order.
type Multi []reconciler.Notifier

func (m Multi) Notify(ctx context.Context, changes ...reconciler.Change) {
	for _, n := range m {
		if n == nil {
			continue
		}
		n.Notify(ctx, changes...)
	}
}
