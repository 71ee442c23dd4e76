package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casualjim/aix/internal/broker"
	"github.com/casualjim/aix/internal/config"
	"github.com/casualjim/aix/particle"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// handoffTopic passes the subscribed transmitter to the test, which then plays the role
// of the publishing connection.
type handoffTopic struct {
	subscribed chan particle.Transmitter
	err        error
}

func (h *handoffTopic) Publish(context.Context, particle.Envelope) error { return nil }

func (h *handoffTopic) Subscribe(_ context.Context, tx particle.Transmitter) (broker.Subscription, error) {
	if h.err != nil {
		return nil, h.err
	}
	h.subscribed <- tx
	return noopSubscription{}, nil
}

type noopSubscription struct{}

func (noopSubscription) ID() string   { return "noop" }
func (noopSubscription) Unsubscribe() {}

func startWatch(t *testing.T, wo *watchOptions) (particle.Transmitter, *bytes.Buffer, chan error) {
	t.Helper()
	color.NoColor = true
	topic := &handoffTopic{subscribed: make(chan particle.Transmitter, 1)}
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- watch(context.Background(), topic, &out, wo) }()

	select {
	case tx := <-topic.subscribed:
		return tx, &out, done
	case <-time.After(time.Second):
		t.Fatal("watch did not subscribe")
		return nil, nil, nil
	}
}

func TestWatch_StopsAfterResponses(t *testing.T) {
	tx, out, done := startWatch(t, &watchOptions{responses: 2, usage: true})

	tx.SetModelName("gpt-4o")
	tx.AppendText("first")
	tx.End()
	// a timed out response reports a cancel and an issue, it counts once
	tx.AppendText("slow")
	tx.Cancel("timeout")
	tx.SetIssue(particle.Issue{Class: particle.IssueTimeout, Message: "deadline exceeded", Terminal: true})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after two responses")
	}

	output := out.String()
	assert.Contains(t, output, "Assistant: first\n[gpt-4o] in=0 out=0\n")
	assert.Contains(t, output, "Assistant: slow\nCanceled: timeout\nError: deadline exceeded\n")
}

func TestWatch_KeepsGoingOnWarnings(t *testing.T) {
	tx, _, done := startWatch(t, &watchOptions{responses: 1})

	tx.SetIssue(particle.Issue{Class: particle.IssueMalformed, Message: "bad chunk"})
	select {
	case <-done:
		t.Fatal("a warning does not end a response")
	case <-time.After(50 * time.Millisecond):
	}

	tx.End()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_SubscribeError(t *testing.T) {
	err := watch(context.Background(), &handoffTopic{err: errors.New("no responders")}, &bytes.Buffer{}, &watchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
}

func TestWatch_UntilCanceled(t *testing.T) {
	color.NoColor = true
	topic := &handoffTopic{subscribed: make(chan particle.Transmitter, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watch(ctx, topic, &bytes.Buffer{}, &watchOptions{}) }()

	tx := <-topic.subscribed
	tx.AppendText("a")
	tx.End()
	cancel()
	require.NoError(t, <-done)
}

func TestWatchSubject(t *testing.T) {
	assert.Equal(t, "aix.particles.>", watchSubject(config.NATSConfig{}, nil))
	assert.Equal(t, "team.chat.>", watchSubject(config.NATSConfig{Subject: "team.chat"}, nil))
	assert.Equal(t, "aix.particles.abc", watchSubject(config.NATSConfig{}, []string{"aix.particles.abc"}))
}
