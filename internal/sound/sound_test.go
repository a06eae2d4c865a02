package sound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelops/task-tracker/internal/models"
)

var login = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func TestService_Lifecycle(t *testing.T) {
	s := NewService(models.SoundPreference{UserID: "u"}, login)
	assert.Equal(t, Uninitialized, s.State())
	assert.False(t, s.Enabled())

	assert.Equal(t, Unlocked, s.Unlock())
	assert.False(t, s.Enabled(), "unlock alone does not opt in")

	require.NoError(t, s.Enable(login))
	assert.Equal(t, Enabled, s.State())
	assert.Equal(t, models.SoundEnabled, s.Preference().State)
}

func TestService_StoredOptInAppliesOnUnlock(t *testing.T) {
	s := NewService(models.SoundPreference{UserID: "u", State: models.SoundEnabled}, login)
	assert.False(t, s.Enabled(), "no sound before a gesture even when opted in")

	assert.Equal(t, Enabled, s.Unlock())
	assert.True(t, s.Enabled())
}

func TestService_Dismiss(t *testing.T) {
	s := NewService(models.SoundPreference{UserID: "u"}, login)
	s.Unlock()
	require.NoError(t, s.Enable(login))

	at := login.Add(time.Minute)
	s.Dismiss(at)

	assert.False(t, s.Enabled())
	pref := s.Preference()
	assert.Equal(t, models.SoundDismissed, pref.State)
	require.NotNil(t, pref.DismissedAt)
	assert.Equal(t, at, *pref.DismissedAt)
}

func TestService_ApplyFromAnotherDevice(t *testing.T) {
	s := NewService(models.SoundPreference{UserID: "u"}, login)

	assert.ErrorIs(t, s.Apply(models.SoundPreference{State: models.SoundEnabled}, login), ErrNotUnlocked)

	s.Unlock()
	require.NoError(t, s.Apply(models.SoundPreference{State: models.SoundEnabled}, login))
	assert.True(t, s.Enabled())

	require.NoError(t, s.Apply(models.SoundPreference{State: models.SoundUnset}, login))
	assert.False(t, s.Enabled())
	assert.Equal(t, models.SoundUnset, s.Preference().State)
}

func TestService_OptInBeforeUnlockIsKept(t *testing.T) {
	s := NewService(models.SoundPreference{UserID: "u"}, login)

	err := s.Apply(models.SoundPreference{State: models.SoundEnabled}, login)
	assert.ErrorIs(t, err, ErrNotUnlocked)
	assert.False(t, s.Enabled())
	assert.Equal(t, models.SoundEnabled, s.Preference().State)
	assert.False(t, s.ShouldPrompt(login.Add(time.Hour)), "no prompt once opted in")

	assert.Equal(t, Enabled, s.Unlock())
	assert.True(t, s.Enabled())
}

func TestShouldPrompt(t *testing.T) {
	dismissedAt := login.Add(10 * time.Minute)

	tests := []struct {
		name string
		pref models.SoundPreference
		now  time.Time
		want bool
	}{
		{"unset right after login", models.SoundPreference{State: models.SoundUnset}, login.Add(500 * time.Millisecond), false},
		{"unset one second after login", models.SoundPreference{State: models.SoundUnset}, login.Add(time.Second), true},
		{"enabled never prompts", models.SoundPreference{State: models.SoundEnabled}, login.Add(24 * time.Hour), false},
		{"dismissed recently", models.SoundPreference{State: models.SoundDismissed, DismissedAt: &dismissedAt}, dismissedAt.Add(59 * time.Minute), false},
		{"dismissed an hour ago", models.SoundPreference{State: models.SoundDismissed, DismissedAt: &dismissedAt}, dismissedAt.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldPrompt(tt.pref, login, tt.now))
			assert.Equal(t, tt.want, NewService(tt.pref, login).ShouldPrompt(tt.now))
		})
	}
}
