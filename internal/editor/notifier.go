package editor

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/internal/playback"
)

// DefaultMessageTTL is how long a message stays visible
const DefaultMessageTTL = 4 * time.Second

// Severity of a user-facing message
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Message is a dismissible notice shown to the user
type Message struct {
	ID       uint64    `json:"id"`
	Text     string    `json:"text"`
	Severity Severity  `json:"severity"`
	Expires  time.Time `json:"expires"`
}

// Notifier keeps auto-expiring messages. It is safe for concurrent use since
// capture failures are reported from the sidecar reader goroutine.
type Notifier struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	msgs   []Message
	nextID uint64
	logger zerolog.Logger
}

// NewNotifier creates a notifier; ttl <= 0 uses DefaultMessageTTL
func NewNotifier(ttl time.Duration, now func() time.Time, logger zerolog.Logger) *Notifier {
	if ttl <= 0 {
		ttl = DefaultMessageTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Notifier{
		ttl:    ttl,
		now:    now,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
}

// Info posts an informational message
func (n *Notifier) Info(text string) Message {
	return n.post(text, SeverityInfo)
}

// Error posts a message describing err
func (n *Notifier) Error(err error) Message {
	n.logger.Warn().Err(err).Msg("reported to user")
	return n.post(Describe(err), SeverityError)
}

// Active returns unexpired messages, oldest first
func (n *Notifier) Active() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	kept := n.msgs[:0]
	for _, m := range n.msgs {
		if now.Before(m.Expires) {
			kept = append(kept, m)
		}
	}
	n.msgs = kept
	return append([]Message(nil), kept...)
}

// Dismiss removes a message before it expires
func (n *Notifier) Dismiss(id uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, m := range n.msgs {
		if m.ID == id {
			n.msgs = append(n.msgs[:i], n.msgs[i+1:]...)
			return true
		}
	}
	return false
}

func (n *Notifier) post(text string, sev Severity) Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	m := Message{ID: n.nextID, Text: text, Severity: sev, Expires: n.now().Add(n.ttl)}
	n.msgs = append(n.msgs, m)
	return m
}

// Describe turns known failures into short user-facing text
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, clips.ErrPlacementRejected):
		return "There is no room for the clip there"
	case errors.Is(err, capture.ErrDeviceAccess):
		return "Capture device unavailable. Check screen and camera permissions."
	case errors.Is(err, playback.ErrAssetLoad):
		return "Could not load media: " + err.Error()
	case errors.Is(err, ffmpeg.ErrComposite):
		return "Picture-in-picture compositing failed; the screen recording was kept"
	default:
		return err.Error()
	}
}
