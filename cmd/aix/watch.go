package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/casualjim/aix/internal/broker"
	"github.com/casualjim/aix/internal/config"
	"github.com/casualjim/aix/internal/console"
	"github.com/casualjim/aix/particle"
	"github.com/casualjim/aix/pkg/natsx"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	reasoning bool
	usage     bool
	responses int
}

func newWatchCmd(ro *rootOptions) *cobra.Command {
	wo := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [subject]",
		Short: "Print the responses chat sessions publish to NATS",
		Long: "Subscribes to the particles published by `aix chat --publish` and prints every response.\n" +
			"Without a subject all conversations under the configured subject prefix are followed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ro)
			if err != nil {
				return err
			}
			subject := watchSubject(cfg.NATS, args)

			nc, err := natsx.Connect(cfg.NATS.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to nats: %w", err)
			}
			defer nc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			slog.Info("watching particles", slog.String("subject", subject))
			return watch(ctx, broker.NATS(nc).Topic(ctx, subject), cmd.OutOrStdout(), wo)
		},
	}
	cmd.Flags().BoolVar(&wo.reasoning, "reasoning", false, "print visible reasoning")
	cmd.Flags().BoolVar(&wo.usage, "usage", false, "print model, stop reason and token usage after each response")
	cmd.Flags().IntVarP(&wo.responses, "responses", "n", 0, "exit after this many responses (0 watches until interrupted)")
	return cmd
}

func watchSubject(cfg config.NATSConfig, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	prefix := cfg.Subject
	if prefix == "" {
		prefix = config.DefaultSubject
	}
	return prefix + ".>"
}

// watch prints what arrives on topic until ctx is done or the requested number of
// responses finished.
func watch(ctx context.Context, topic broker.Topic, out io.Writer, wo *watchOptions) error {
	printer, err := console.NewPrinter(out, console.WithReasoning(wo.reasoning), console.WithUsage(wo.usage))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tx particle.Transmitter = printer
	if wo.responses > 0 {
		tx = countResponses(printer, wo.responses, cancel)
	}
	sub, err := topic.Subscribe(ctx, tx)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	return nil
}

// countResponses calls done once n responses have ended, failed or been canceled. The
// cancel and timeout issue of one response count once.
func countResponses(tx particle.Transmitter, n int, done func()) particle.Transmitter {
	var ended bool
	return particle.Emit(func(p particle.Particle) {
		particle.Replay(tx, p)

		var terminal bool
		switch p := p.(type) {
		case particle.End, particle.Cancel:
			terminal = true
		case particle.Issue:
			terminal = p.Terminal
		}
		if !terminal {
			ended = false
			return
		}
		if ended {
			return
		}
		ended = true
		if n--; n == 0 {
			done()
		}
	})
}
