// Package notify forwards submission outcomes from the signal bus to operator
// chat channels (Telegram, Discord). Operators pick which events they receive.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/dropmarket/internal/domain"
)

// Event names accepted in the notify.events filter.
const (
	EventSubmissionOK     = "submission_ok"
	EventSubmissionFailed = "submission_failed"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. Only events in
// the allowed set are forwarded; an empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether any sender is configured.
func (n *Notifier) Enabled() bool {
	return len(n.senders) > 0
}

// Notify sends a notification to all senders if event passes the filter.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "notify: event filtered out",
			slog.String("event", event),
		)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// Run subscribes to submission events and forwards each one until ctx is
// cancelled. Delivery failures are logged and never stop the loop.
func (n *Notifier) Run(ctx context.Context, bus domain.SignalBus) error {
	ch, err := bus.Subscribe(ctx, domain.ChannelSubmissions)
	if err != nil {
		return fmt.Errorf("notify: subscribe: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-ch:
			if !ok {
				return ctx.Err()
			}
			n.handle(ctx, data)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, data []byte) {
	var evt domain.Event
	if err := json.Unmarshal(data, &evt); err != nil || evt.Type != domain.EventSubmission {
		return
	}
	var sub domain.SubmissionEvent
	if err := json.Unmarshal(evt.Payload, &sub); err != nil {
		n.logger.WarnContext(ctx, "notify: malformed submission event",
			slog.String("error", err.Error()),
		)
		return
	}
	event, title, message := describe(sub)
	_ = n.Notify(ctx, event, title, message)
}

// describe renders a submission event as an operator alert.
func describe(sub domain.SubmissionEvent) (event, title, message string) {
	target := string(sub.Kind) + " on " + sub.TargetID
	if sub.OK {
		event = EventSubmissionOK
		title = "Submitted " + target
	} else {
		event = EventSubmissionFailed
		title = "Failed " + target
	}

	var b strings.Builder
	fmt.Fprintf(&b, "wallet: %s", sub.Wallet)
	if sub.Category != "" {
		fmt.Fprintf(&b, "\ncategory: %s", sub.Category)
	}
	if sub.RequestID != "" {
		fmt.Fprintf(&b, "\nrequest: %s", sub.RequestID)
	}
	return event, title, b.String()
}

// dispatch sends to every sender. One sender failing does not prevent
// delivery to the rest; all failures are returned together.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "notify: sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notify: sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
