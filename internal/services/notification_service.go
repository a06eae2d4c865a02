package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/notify"
	"github.com/fuelops/task-tracker/internal/realtime"
	"github.com/fuelops/task-tracker/internal/repository"
)

const unreadListLimit = 50

var (
	ErrNotificationNotFound  = apierrors.NotFound("notification not found")
	ErrNotificationForbidden = apierrors.Authorization("notification belongs to another user")
	ErrInvalidSoundState     = apierrors.Validation("state must be unset, enabled or dismissed")
)

// NotificationService persists notifications, pushes them to live feeds and
// stores the per-user sound preference.
type NotificationService struct {
	repo  repository.NotificationRepository
	prefs repository.SoundPreferenceRepository
	hub   realtime.Hub
	log   *zap.Logger
	now   func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo repository.NotificationRepository, prefs repository.SoundPreferenceRepository, hub realtime.Hub, log *zap.Logger) *NotificationService {
	return &NotificationService{
		repo:  repo,
		prefs: prefs,
		hub:   hub,
		log:   log,
		now:   time.Now,
	}
}

// Dispatch stores one notification per newly responsible user and publishes
// each on the user's feed. Publish failures are logged; the rows stay.
func (s *NotificationService) Dispatch(ctx context.Context, e notify.Event) ([]models.Notification, error) {
	planned := notify.Plan(e)
	if len(planned) == 0 {
		return nil, nil
	}

	if err := s.repo.CreateBatch(ctx, planned); err != nil {
		return nil, storeFailure("store notifications", err)
	}

	for _, n := range planned {
		if err := s.hub.Publish(ctx, n); err != nil {
			s.log.Warn("failed to publish notification",
				zap.String("notification_id", n.ID),
				zap.String("user_id", n.UserID),
				zap.Error(err),
			)
		}
	}

	s.log.Debug("notifications dispatched", zap.String("event", string(e.Kind)), zap.Int("count", len(planned)))
	return planned, nil
}

// expire marks the user's unread rows older than a week as read.
func (s *NotificationService) expire(ctx context.Context, userID string) {
	cutoff := s.now().Add(-constants.NotificationExpiry)
	if expired, err := s.repo.ExpireBefore(ctx, userID, cutoff); err != nil {
		s.log.Warn("failed to expire notifications", zap.String("user_id", userID), zap.Error(err))
	} else if expired > 0 {
		s.log.Debug("expired notifications", zap.String("user_id", userID), zap.Int64("count", expired))
	}
}

// ListUnread expires week-old unread rows, then returns the rest newest first.
func (s *NotificationService) ListUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	s.expire(ctx, userID)

	var list []models.Notification
	err := retryRead(ctx, func() error {
		var err error
		list, err = s.repo.ListUnread(ctx, userID, unreadListLimit)
		return err
	})
	if err != nil {
		return nil, storeFailure("list notifications", err)
	}
	return list, nil
}

// UnreadCount counts unread notifications after the same expiry ListUnread runs.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	s.expire(ctx, userID)

	var count int64
	err := retryRead(ctx, func() error {
		var err error
		count, err = s.repo.CountUnread(ctx, userID)
		return err
	})
	if err != nil {
		return 0, storeFailure("count notifications", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return storeFailure("find notification", err)
	}
	if n.UserID != userID {
		return ErrNotificationForbidden
	}
	if n.IsRead {
		return nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return storeFailure("mark notification read", err)
	}
	return nil
}

// MarkAllRead marks every notification of the user read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storeFailure("mark notifications read", err)
	}
	return n, nil
}

// Subscribe opens the user's live feed. Callers must Cancel the subscription.
func (s *NotificationService) Subscribe(ctx context.Context, userID string) (*realtime.Subscription, error) {
	sub, err := s.hub.Subscribe(ctx, userID)
	if err != nil {
		return nil, apierrors.External("notification feed is unavailable", err)
	}
	return sub, nil
}

// SoundPreference returns the stored preference, unset when never chosen
func (s *NotificationService) SoundPreference(ctx context.Context, userID string) (models.SoundPreference, error) {
	var pref models.SoundPreference
	err := retryRead(ctx, func() error {
		var err error
		pref, err = s.prefs.Get(ctx, userID)
		return err
	})
	if err != nil {
		return models.SoundPreference{}, storeFailure("load sound preference", err)
	}
	return pref, nil
}

// SetSoundPreference stores the user's choice. Dismissal records the time so
// the prompt can come back an hour later.
func (s *NotificationService) SetSoundPreference(ctx context.Context, userID string, state models.SoundPreferenceState) (models.SoundPreference, error) {
	if !state.Valid() {
		return models.SoundPreference{}, ErrInvalidSoundState
	}

	now := s.now()
	pref := models.SoundPreference{UserID: userID, State: state, UpdatedAt: now}
	if state == models.SoundDismissed {
		pref.DismissedAt = &now
	}

	if err := s.prefs.Save(ctx, &pref); err != nil {
		return models.SoundPreference{}, storeFailure("save sound preference", err)
	}
	return pref, nil
}
