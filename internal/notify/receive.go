package notify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fuelops/task-tracker/internal/constants"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/sound"
)

// Banner is the transient toast shown for a notification.
type Banner struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	DurationMS int64  `json:"duration_ms"`
}

// Effects is what the client should do for one delivered notification.
type Effects struct {
	Banner    Banner `json:"banner"`
	PlaySound bool   `json:"play_sound"`
}

// Session is one connected feed: its sound service and the ids it has already sounded for.
type Session struct {
	ID     string
	UserID string
	Sound  *sound.Service

	mu     sync.Mutex
	played map[string]struct{}
}

func NewSession(userID string, svc *sound.Service) *Session {
	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		Sound:  svc,
		played: make(map[string]struct{}),
	}
}

// OnReceive always shows a banner and plays a sound at most once per
// notification id, only while the session's sound is enabled.
func OnReceive(n models.Notification, s *Session) Effects {
	fx := Effects{
		Banner: Banner{
			Title:      n.Title,
			Message:    n.Message,
			DurationMS: constants.BannerDuration.Milliseconds(),
		},
	}
	if s == nil || s.Sound == nil || !s.Sound.Enabled() {
		return fx
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.played[n.ID]; done {
		return fx
	}
	s.played[n.ID] = struct{}{}
	fx.PlaySound = true
	return fx
}

// Registry tracks live feed sessions so requests other than the stream can reach them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns the session only if it belongs to userID.
func (r *Registry) Get(id, userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok || s.UserID != userID {
		return nil, false
	}
	return s, true
}

// ForUser returns every live session of userID.
func (r *Registry) ForUser(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}
