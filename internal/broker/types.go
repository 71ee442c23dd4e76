package broker

import (
	"context"
	"log/slog"

	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/slogx"
	"github.com/google/uuid"
)

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, particle.Envelope) error
	Subscribe(context.Context, particle.Transmitter) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}

// Transmitter returns a particle.Transmitter that stamps every particle of the connection
// connID and publishes it on topic. Publish failures are logged and the particle is dropped,
// the stream that feeds the transmitter is never interrupted by a slow or absent consumer.
func Transmitter(ctx context.Context, topic Topic, connID uuid.UUID) particle.Transmitter {
	return particle.Stamp(connID, func(env particle.Envelope) {
		if err := topic.Publish(ctx, env); err != nil {
			slog.ErrorContext(ctx, "failed to publish particle",
				slogx.Error(err),
				slogx.Stringer("conn_id", env.ConnID),
				slog.Uint64("seq", env.Seq),
			)
		}
	})
}
