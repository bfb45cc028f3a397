/*
Package notify decides when an incoming message should surface an
out-of-band alert.

The trigger itself is stateless: it consumes reconciliation results and
forwards to a pluggable Sink. The platform-specific delivery (desktop
notification, mobile banner) lives behind the Sink interface; the default
sink only logs, which is also what headless deployments want.
*/
package notify

import (
	"github.com/rs/zerolog"

	"nexchat/internal/app/model"
	"nexchat/internal/pkg/logx"
)

// DismissAfterSeconds is how long a surfaced alert stays on screen before
// the sink auto-dismisses it.
const DismissAfterSeconds = 4

// Placeholder is shown when the alerting message has no text body (for
// example an attachment-only message).
const Placeholder = "New message"

// Sink delivers one platform notification. Implementations must not
// block; delivery is fire-and-forget.
type Sink interface {
	Notify(title, body, icon string)
}

// Trigger turns "this session's last message changed" events into alerts.
type Trigger struct {
	sink Sink

	// foreground reports the id of the chat currently open on screen,
	// or "" when none is.
	foreground func() string

	logger zerolog.Logger
}

// New returns a Trigger delivering through sink. foreground may be nil,
// in which case no session is ever considered open.
func New(sink Sink, foreground func() string) *Trigger {
	if foreground == nil {
		foreground = func() string { return "" }
	}
	return &Trigger{
		sink:       sink,
		foreground: foreground,
		logger:     logx.Component("notify"),
	}
}

// MessageArrived surfaces an alert for the session's last message unless
// that exact session is the one open in the foreground. Callers are
// expected to have filtered out self- and system-authored tails already;
// the trigger guards it once more because a duplicate alert is worse
// than a wasted check.
func (t *Trigger) MessageArrived(session *model.ChatSession) {
	last := session.LastMessage
	if last == nil {
		return
	}
	if last.Sender == model.SenderSelf || last.Sender == model.SenderSystem {
		return
	}

	if t.foreground() == session.ID {
		t.logger.Debug().Str("session_id", session.ID).Msg("Alert suppressed for foreground chat")
		return
	}

	body := last.Text
	if body == "" {
		body = Placeholder
	}

	t.sink.Notify(session.Participant.Name, body, session.Participant.Avatar)
}

// LogSink is the default Sink: it writes the alert to the log.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink returns a Sink that logs alerts.
func NewLogSink() *LogSink {
	return &LogSink{logger: logx.Component("notification")}
}

// Notify implements Sink.
func (s *LogSink) Notify(title, body, icon string) {
	s.logger.Info().
		Str("title", title).
		Str("body", body).
		Str("icon", icon).
		Int("dismiss_after_s", DismissAfterSeconds).
		Msg("Notification")
}
