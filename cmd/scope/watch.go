package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/codescope/internal/events"
	"github.com/alfredjeanlab/codescope/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream session and view events published by other scope commands",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		if cfg.NATSURL == "" {
			return fmt.Errorf("no NATS URL configured; set SCOPE_NATS_URL or add one with 'scope remote add --nats'")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.WithError(err).Warn("nats: disconnected")
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats: reconnected")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(events.TopicAll)
		if err != nil {
			return err
		}
		defer cancel()
		return watchEvents(ctx, ch, cmd.OutOrStdout(), count)
	},
}

// watchEvents prints events from ch until ctx is done, the channel closes
// or count events have been printed (count <= 0 means no limit).
func watchEvents(ctx context.Context, ch <-chan events.Message, w io.Writer, count int) error {
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := printEvent(w, msg); err != nil {
				return err
			}
			seen++
			if count > 0 && seen >= count {
				return nil
			}
		}
	}
}

func printEvent(w io.Writer, msg events.Message) error {
	if format() != "table" {
		var payload any
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			payload = string(msg.Data)
		}
		return printDoc(w, map[string]any{"topic": msg.Topic, "event": payload})
	}

	switch msg.Topic {
	case events.TopicSessionTransition:
		var e events.SessionTransition
		if err := json.Unmarshal(msg.Data, &e); err == nil {
			_, err = fmt.Fprintf(w, "%s  %s  %s -> %s\n", e.At.Format("15:04:05"), ui.RenderAccent(orNone(e.ProjectID)), e.From, ui.RenderStatus(e.To))
			return err
		}
	case events.TopicSessionPollError:
		var e events.SessionPollError
		if err := json.Unmarshal(msg.Data, &e); err == nil {
			_, err = fmt.Fprintf(w, "%s  %s  status check failed: %s\n", e.At.Format("15:04:05"), ui.RenderAccent(e.ProjectID), e.Error)
			return err
		}
	case events.TopicViewResult:
		var e events.ViewResult
		if err := json.Unmarshal(msg.Data, &e); err == nil {
			line := fmt.Sprintf("%s  %s view: %d %s results", ui.RenderAccent(e.ProjectID), e.View, e.Count, e.Kind)
			if e.NoMatches {
				line = fmt.Sprintf("%s  %s view: no matches", ui.RenderAccent(e.ProjectID), e.View)
			}
			if e.Score != nil {
				line += fmt.Sprintf(", score %d (%s)", e.Score.Value, ui.RenderGrade(e.Score.Grade))
			}
			_, err = fmt.Fprintln(w, line)
			return err
		}
	case events.TopicViewFailed:
		var e events.ViewFailed
		if err := json.Unmarshal(msg.Data, &e); err == nil {
			_, err = fmt.Fprintf(w, "%s  %s view failed: %s\n", ui.RenderAccent(e.ProjectID), e.View, e.Error)
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s  %s\n", msg.Topic, msg.Data)
	return err
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	watchCmd.Flags().Int("count", 0, "exit after this many events (0 = until interrupted)")
}
