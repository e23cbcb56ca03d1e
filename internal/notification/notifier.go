// Package notification turns call lifecycle events into operator alerts.
// It subscribes to the event bus and emails the configured address when a
// finished call classifies the lead as hot. Delivery is best effort: a failed
// email never affects call processing.
package notification

import (
	"context"
	"fmt"
	"html"

	"callops_backend/internal/calls/domain"
	"callops_backend/internal/email"
	"callops_backend/internal/events"
	"callops_backend/platform/config"
	"callops_backend/platform/logger"
)

type Notifier struct {
	sender email.Sender
	notify string
	log    *logger.Logger
}

func New(sender email.Sender, cfg config.EmailConfig, log *logger.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		notify: cfg.GetHotLeadNotifyEmail(),
		log:    log,
	}
}

// Register subscribes the notifier to call-ended events on the bus.
func (n *Notifier) Register(bus events.Bus) {
	bus.Subscribe(events.CallEnded{}.EventName(), events.HandlerFunc(n.onCallEnded))
}

func (n *Notifier) onCallEnded(ctx context.Context, event events.Event) error {
	ended, ok := event.(events.CallEnded)
	if !ok {
		return nil
	}
	if ended.InterestLevel != string(domain.InterestHot) || n.notify == "" {
		return nil
	}

	subject := fmt.Sprintf("Hot lead: %s", displayName(ended))
	if err := n.sender.Send(ctx, n.notify, subject, n.renderBody(ended)); err != nil {
		n.log.Error("hot lead notification failed", "call_id", ended.CallID, "error", err)
		return nil
	}

	n.log.Info("hot lead notification sent", "call_id", ended.CallID, "to", n.notify)
	return nil
}

func displayName(e events.CallEnded) string {
	if e.LeadName != "" {
		return e.LeadName
	}
	return e.Phone
}

func (n *Notifier) renderBody(e events.CallEnded) string {
	return fmt.Sprintf(
		"<h2>Hot lead from AI call</h2>"+
			"<p><b>Lead:</b> %s</p>"+
			"<p><b>Phone:</b> %s</p>"+
			"<p><b>Call outcome:</b> %s</p>"+
			"<p><b>Next action:</b> %s</p>"+
			"<p>Call id: %s</p>",
		html.EscapeString(displayName(e)),
		html.EscapeString(e.Phone),
		html.EscapeString(e.Status),
		html.EscapeString(e.NextAction),
		e.CallID,
	)
}
