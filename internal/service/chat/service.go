package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/llm-server/internal/model/chat"
)

const (
	// SessionTimeout is how long a session stays active after its last exchange.
	SessionTimeout = 5 * time.Minute

	// DefaultMaxExchanges bounds the stored history; oldest entries are evicted first.
	DefaultMaxExchanges = 40

	contextPreamble = "[Previous dictations in this session]"
	contextMarker   = "[Current dictation]"
)

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMaxExchanges bounds the stored history. Zero or less disables the bound.
func WithMaxExchanges(n int) Option {
	return func(s *Service) {
		s.maxExchanges = n
	}
}

// Service is the single conversational memory shared by every request of
// the process. There is no per-client identity: all callers read and extend
// the same session.
type Service struct {
	mu           sync.Mutex
	exchanges    []chat.Exchange
	lastActivity time.Time
	now          func() time.Time
	maxExchanges int
}

// NewService returns an empty, inactive session store.
func NewService(opts ...Option) *Service {
	s := &Service{
		exchanges:    make([]chat.Exchange, 0, 16),
		now:          time.Now,
		maxExchanges: DefaultMaxExchanges,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsActive reports whether the last activity is strictly less than
// SessionTimeout ago.
func (s *Service) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isActiveLocked()
}

func (s *Service) isActiveLocked() bool {
	if s.lastActivity.IsZero() {
		return false
	}
	return s.now().Sub(s.lastActivity) < SessionTimeout
}

// CurrentContext returns a snapshot of the session, or nil when inactive.
func (s *Service) CurrentContext() *chat.SessionContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contextLocked()
}

func (s *Service) contextLocked() *chat.SessionContext {
	if !s.isActiveLocked() {
		return nil
	}
	copied := make([]chat.Exchange, len(s.exchanges))
	copy(copied, s.exchanges)
	return &chat.SessionContext{
		Exchanges:             copied,
		MessageCount:          len(copied),
		TimeSinceLastActivity: s.sinceLocked(),
	}
}

// Append records one exchange stamped with the current time.
func (s *Service) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(role, content)
}

func (s *Service) appendLocked(role, content string) {
	now := s.now()
	s.exchanges = append(s.exchanges, chat.Exchange{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	if s.maxExchanges > 0 && len(s.exchanges) > s.maxExchanges {
		evicted := len(s.exchanges) - s.maxExchanges
		s.exchanges = append(s.exchanges[:0:0], s.exchanges[evicted:]...)
	}
	s.lastActivity = now
}

// Reset clears all exchanges and the activity timestamp.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Service) resetLocked() {
	s.exchanges = make([]chat.Exchange, 0, 16)
	s.lastActivity = time.Time{}
}

// StartFresh resets the session and marks it active with no exchanges.
func (s *Service) StartFresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.lastActivity = s.now()
}

// Turn is the carry-over decision taken at the start of a request.
type Turn struct {
	CarryOver bool
	Context   *chat.SessionContext
	Stats     chat.SessionStats
}

// Begin atomically reads the session and decides carry-over. An inactive
// session is replaced by a fresh one before returning. Checking does not
// extend the activity window; only Commit and StartFresh do.
func (s *Service) Begin() Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.statsLocked()
	if ctx := s.contextLocked(); ctx != nil {
		return Turn{CarryOver: true, Context: ctx, Stats: stats}
	}

	s.resetLocked()
	s.lastActivity = s.now()
	return Turn{Stats: stats}
}

// Commit appends a user and an assistant exchange as one unit, so pairs of
// concurrent requests never interleave.
func (s *Service) Commit(userContent, assistantContent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(chat.RoleUser, userContent)
	s.appendLocked(chat.RoleAssistant, assistantContent)
}

// Snapshot reads stats and the carry-over exchanges under one lock.
func (s *Service) Snapshot() chat.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := chat.SessionSnapshot{
		SessionStats: s.statsLocked(),
		Exchanges:    []chat.Exchange{},
	}
	if ctx := s.contextLocked(); ctx != nil {
		snapshot.Exchanges = ctx.Exchanges
	}
	return snapshot
}

// Stats summarises the session.
func (s *Service) Stats() chat.SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *Service) statsLocked() chat.SessionStats {
	return chat.SessionStats{
		Active:                s.isActiveLocked(),
		MessageCount:          len(s.exchanges),
		TimeSinceLastActivity: s.sinceLocked(),
	}
}

func (s *Service) sinceLocked() string {
	if s.lastActivity.IsZero() {
		return ""
	}
	return formatElapsed(s.now().Sub(s.lastActivity))
}

func formatElapsed(elapsed time.Duration) string {
	seconds := int(elapsed / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%ds ago", seconds)
	}
	return fmt.Sprintf("%dm ago", seconds/60)
}

// FormatContextForPrompt renders prior exchanges as an in-band prompt
// prefix. It returns false for a nil or empty context.
func FormatContextForPrompt(ctx *chat.SessionContext) (string, bool) {
	if ctx == nil || len(ctx.Exchanges) == 0 {
		return "", false
	}

	lines := make([]string, 0, len(ctx.Exchanges)+3)
	lines = append(lines, contextPreamble)
	for _, exchange := range ctx.Exchanges {
		if exchange.Role == chat.RoleUser {
			lines = append(lines, `Input: "`+exchange.Content+`"`)
		} else {
			lines = append(lines, `Output: "`+exchange.Content+`"`)
		}
	}
	lines = append(lines, "", contextMarker)

	return strings.Join(lines, "\n"), true
}
