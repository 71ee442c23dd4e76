package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/casualjim/aix"
	"github.com/casualjim/aix/internal/broker"
	"github.com/casualjim/aix/internal/config"
	"github.com/casualjim/aix/internal/console"
	"github.com/casualjim/aix/internal/shorttermmemory"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/messages"
	"github.com/casualjim/aix/pkg/natsx"
	"github.com/casualjim/aix/pkg/slogx"
	"github.com/casualjim/aix/pkg/uuidx"
	"github.com/fatih/color"
	"github.com/fogfish/opts"
	"github.com/spf13/cobra"
)

type chatOptions struct {
	req       requestFlags
	markdown  bool
	reasoning bool
	usage     bool
	timeout   time.Duration
	publish   bool
}

func newChatCmd(ro *rootOptions) *cobra.Command {
	co := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Run one chat turn, or an interactive session when no prompt is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, ro, co, strings.Join(args, " "))
		},
	}
	co.req.register(cmd)
	cmd.Flags().BoolVar(&co.markdown, "markdown", false, "render the response as markdown once it completes")
	cmd.Flags().BoolVar(&co.reasoning, "reasoning", false, "print visible reasoning")
	cmd.Flags().BoolVar(&co.usage, "usage", false, "print model, stop reason and token usage after each response")
	cmd.Flags().DurationVar(&co.timeout, "timeout", 5*time.Minute, "timeout for a single response")
	cmd.Flags().BoolVar(&co.publish, "publish", false, "also publish particles to NATS (nats.url in the config or NATS_URL)")
	return cmd
}

// session holds what stays the same across the turns of one chat.
type session struct {
	target  *target
	client  *aix.Client
	conv    *shorttermmemory.Aggregator
	base    messages.Request
	out     io.Writer
	printer []opts.Option[console.Printer]
	topic   broker.Topic
}

func runChat(cmd *cobra.Command, ro *rootOptions, co *chatOptions, prompt string) error {
	t, err := resolve(cmd, ro, &co.req)
	if err != nil {
		return err
	}
	logger := slog.Default().With(slogx.Dialect(t.access.Dialect), slogx.Model(t.model.ID))

	client, err := aix.New(aix.WithTimeout(co.timeout), aix.WithLogger(logger))
	if err != nil {
		return err
	}

	s := &session{
		target: t,
		client: client,
		conv:   shorttermmemory.New(),
		base:   t.request(),
		out:    cmd.OutOrStdout(),
	}
	if t.name != "" {
		s.printer = append(s.printer, console.WithLabel(t.name))
	}
	s.printer = append(s.printer, console.WithReasoning(co.reasoning), console.WithUsage(co.usage))
	if co.markdown {
		renderer, err := console.NewMarkdownRenderer()
		if err != nil {
			return fmt.Errorf("failed to create markdown renderer: %w", err)
		}
		s.printer = append(s.printer, console.WithMarkdown(renderer))
	}

	if co.publish {
		nc, err := natsx.Connect(t.nats.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to nats: %w", err)
		}
		defer nc.Close()
		subject := t.nats.Subject
		if subject == "" {
			subject = config.DefaultSubject
		}
		s.topic = broker.NATS(nc).Topic(cmd.Context(), subject+"."+s.conv.ID().String())
		logger.Info("publishing particles", slog.String("subject", subject+"."+s.conv.ID().String()))
	}

	if prompt != "" {
		return s.turn(cmd.Context(), prompt)
	}
	return s.repl(cmd.Context(), cmd.InOrStdin())
}

func (s *session) repl(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanLines)
	for {
		fmt.Fprintf(s.out, "%s: ", color.CyanString("User"))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}
		if err := s.turn(ctx, input); err != nil && !errors.Is(err, context.Canceled) {
			// the printer already showed the issue; keep the session going
			slog.Debug("turn failed", slogx.Error(err))
		}
	}
}

// turn sends one user message and prints the response. Interrupting the process cancels
// the response in flight without leaving the session.
func (s *session) turn(ctx context.Context, input string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	printer, err := console.NewPrinter(s.out, s.printer...)
	if err != nil {
		return err
	}
	// the turn is joined into the conversation only once the response completed
	branch := s.conv.Fork()
	branch.AddUser(messages.Text(input))
	resp := branch.Collect()

	sinks := []particle.Transmitter{printer, resp}
	if s.topic != nil {
		sinks = append(sinks, broker.Transmitter(ctx, s.topic, uuidx.New()))
	}

	req := branch.Request(s.base)
	if err := s.client.ChatGenerate(ctx, s.target.access, s.target.model, req, s.target.streaming, particle.Tee(sinks...)); err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	s.conv.Join(branch)
	return nil
}
