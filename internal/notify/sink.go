// Delivery sinks for fired reminders.
//
// The scheduler is sink-agnostic: a Notifier decides how a due reminder
// reaches the user. The default sink writes structured logs (useful when the
// backend runs headless and clients poll the diagnostic endpoint); the
// desktop sink raises a native OS notification.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// LogSink records fired reminders in the application log.
type LogSink struct {
	Log zerolog.Logger
}

// Notify implements Notifier.
func (s LogSink) Notify(n Notification) error {
	s.Log.Info().
		Str("identifier", n.Identifier).
		Str("title", n.Title).
		Str("body", n.Body).
		Uint("plan_id", n.Payload.PlanID).
		Bool("is_next_day", n.Payload.IsNextDay).
		Msg("reminder")
	return nil
}

// DesktopSink raises a native desktop notification for each fired reminder.
type DesktopSink struct{}

// Notify implements Notifier.
func (DesktopSink) Notify(n Notification) error {
	return beeep.Notify(n.Title, n.Body, "")
}

// MultiSink fans a reminder out to several sinks; the first failure wins.
type MultiSink []Notifier

// Notify implements Notifier.
func (m MultiSink) Notify(n Notification) error {
	var first error
	for _, s := range m {
		if err := s.Notify(n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
