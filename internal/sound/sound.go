// Package sound models whether a feed session may play notification sounds.
// Playback needs a user gesture first (unlock), then the user's opt-in.
package sound

import (
	"sync"
	"time"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
)

var ErrNotUnlocked = apierrors.Conflict("sound must be unlocked by a user gesture before it can be enabled")

type State int

const (
	Uninitialized State = iota
	Unlocked
	Enabled
)

func (s State) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Enabled:
		return "enabled"
	default:
		return "uninitialized"
	}
}

// Service is owned by one feed session. It is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	state   State
	pref    models.SoundPreference
	loginAt time.Time
}

// NewService starts uninitialized with the user's stored preference.
func NewService(pref models.SoundPreference, loginAt time.Time) *Service {
	if !pref.State.Valid() {
		pref.State = models.SoundUnset
	}
	return &Service{pref: pref, loginAt: loginAt}
}

// Unlock records the user gesture. A stored opt-in takes effect immediately.
func (s *Service) Unlock() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Uninitialized {
		s.state = Unlocked
	}
	if s.state == Unlocked && s.pref.State == models.SoundEnabled {
		s.state = Enabled
	}
	return s.state
}

// Enable opts in. Before Unlock the choice is kept and ErrNotUnlocked is
// returned; the next Unlock then enables playback.
func (s *Service) Enable(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pref.State = models.SoundEnabled
	s.pref.DismissedAt = nil
	s.pref.UpdatedAt = now
	if s.state == Uninitialized {
		return ErrNotUnlocked
	}
	s.state = Enabled
	return nil
}

// Dismiss records "not now"; the prompt returns after an hour.
func (s *Service) Dismiss(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Enabled {
		s.state = Unlocked
	}
	s.pref.State = models.SoundDismissed
	s.pref.DismissedAt = &now
	s.pref.UpdatedAt = now
}

// Apply moves the session to a preference chosen elsewhere (another tab or device).
func (s *Service) Apply(pref models.SoundPreference, now time.Time) error {
	switch pref.State {
	case models.SoundEnabled:
		return s.Enable(now)
	case models.SoundDismissed:
		at := now
		if pref.DismissedAt != nil {
			at = *pref.DismissedAt
		}
		s.Dismiss(at)
		return nil
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == Enabled {
			s.state = Unlocked
		}
		s.pref.State = models.SoundUnset
		s.pref.DismissedAt = nil
		return nil
	}
}

// Enabled reports whether a sound may be played now.
func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Enabled
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Preference returns the current persisted form.
func (s *Service) Preference() models.SoundPreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pref
}

// ShouldPrompt is true when the preference is unset and a second has passed
// since login, or it was dismissed at least an hour ago.
func (s *Service) ShouldPrompt(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ShouldPrompt(s.pref, s.loginAt, now)
}

// ShouldPrompt is the stateless form used where no feed session exists.
func ShouldPrompt(pref models.SoundPreference, loginAt, now time.Time) bool {
	switch pref.State {
	case models.SoundEnabled:
		return false
	case models.SoundDismissed:
		if pref.DismissedAt == nil {
			return true
		}
		return now.Sub(*pref.DismissedAt) >= constants.SoundRepromptInterval
	default:
		return now.Sub(loginAt) >= constants.SoundPromptDelay
	}
}
