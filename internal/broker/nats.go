package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/slogx"
	"github.com/casualjim/aix/pkg/uuidx"
	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// subscriptionBuffer is the number of envelopes a subscriber may lag behind before the
// message handler starts waiting on it.
const subscriptionBuffer = 50

type natsBroker struct {
	client *nats.Conn
	topics *haxmap.Map[string, *natsTopic]
}

// NATS returns a broker that publishes envelopes as JSON on the subject named by the topic.
func NATS(client *nats.Conn) *natsBroker {
	return &natsBroker{
		client: client,
		topics: haxmap.New[string, *natsTopic](),
	}
}

func (b *natsBroker) Topic(ctx context.Context, id string) Topic {
	top, _ := b.topics.GetOrCompute(id, func() *natsTopic {
		return &natsTopic{
			subject: id,
			client:  b.client,
		}
	})
	return top
}

type natsTopic struct {
	client  *nats.Conn
	subject string
}

func (t *natsTopic) Publish(ctx context.Context, env particle.Envelope) error {
	if env.Particle == nil {
		return fmt.Errorf("envelope %s/%d has no particle", env.ConnID, env.Seq)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	eb, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return t.client.Publish(t.subject, eb)
}

func (t *natsTopic) Subscribe(ctx context.Context, tx particle.Transmitter) (Subscription, error) {
	if tx == nil {
		return nil, fmt.Errorf("transmitter is required")
	}
	sub := make(chan particle.Envelope, subscriptionBuffer)
	done := make(chan struct{})
	nsub, err := t.client.Subscribe(t.subject, func(msg *nats.Msg) {
		var env particle.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			slog.Error("failed to unmarshal envelope", slogx.Error(err), slog.String("subject", msg.Subject))
			return
		}

		select {
		case sub <- env:
		case <-done:
			return
		case <-ctx.Done():
			return
		}

		if msg.Reply != "" {
			if nerr := msg.Ack(); nerr != nil {
				slog.Error("failed to ack message", slogx.Error(nerr))
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	nsub.SetClosedHandler(func(_ string) { close(done) })

	s := &natsSubscription{
		id:  uuidx.NewString(),
		sub: nsub,
	}
	go func() {
		for {
			select {
			case env := <-sub:
				particle.Replay(tx, env.Particle)
			case <-done:
				return
			case <-ctx.Done():
				s.Unsubscribe()
				return
			}
		}
	}()
	return s, nil
}

type natsSubscription struct {
	id  string
	sub *nats.Subscription
}

func (n *natsSubscription) ID() string {
	return n.id
}

func (n *natsSubscription) Unsubscribe() {
	if !n.sub.IsValid() {
		return
	}
	if err := n.sub.Unsubscribe(); err != nil {
		slog.Error("failed to unsubscribe", slogx.Error(err), slog.String("subscription", n.id))
	}
}
