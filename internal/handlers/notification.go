package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fuelops/task-tracker/internal/constants"
	"github.com/fuelops/task-tracker/internal/dto"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/notify"
	"github.com/fuelops/task-tracker/internal/services"
	"github.com/fuelops/task-tracker/internal/sound"
)

var errSessionNotFound = apierrors.NotFound("feed session not found")

// NotificationHandler serves the notification list, the live feed and the sound preference.
type NotificationHandler struct {
	notifications *services.NotificationService
	registry      *notify.Registry
	heartbeat     time.Duration
	log           *zap.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, registry *notify.Registry, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		registry:      registry,
		heartbeat:     constants.FeedHeartbeat,
		log:           log,
	}
}

// ListNotifications returns unread notifications, newest first
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.notifications.ListUnread(c.Request.Context(), user.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": dto.ToNotificationDTOs(list)})
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	n, err := h.notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// Stream is the server-sent event feed. The first event, "session", names the
// feed session used to unlock sound; each "notification" event carries the
// banner and whether to play a sound.
func (h *NotificationHandler) Stream(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	pref, err := h.notifications.SoundPreference(ctx, user.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	sub, err := h.notifications.Subscribe(ctx, user.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	defer sub.Cancel()

	session := notify.NewSession(user.ID, sound.NewService(pref, loginTime(c)))
	h.registry.Add(session)
	defer h.registry.Remove(session.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("session", dto.FeedSessionDTO{
		SessionID:   session.ID,
		Sound:       session.Sound.State().String(),
		PromptSound: session.Sound.ShouldPrompt(time.Now()),
	})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, open := <-sub.C:
			if !open {
				return
			}
			c.SSEvent("notification", dto.FeedEventDTO{
				Notification: dto.ToNotificationDTO(n),
				Effects:      notify.OnReceive(n, session),
			})
			c.Writer.Flush()
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"prompt_sound": session.Sound.ShouldPrompt(time.Now())})
			c.Writer.Flush()
		}
	}
}

// UnlockSound records the user gesture for one feed session
func (h *NotificationHandler) UnlockSound(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	session, found := h.registry.Get(c.Param("sessionId"), user.ID)
	if !found {
		apierrors.Respond(c, errSessionNotFound)
		return
	}

	state := session.Sound.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"sound":        state.String(),
		"prompt_sound": session.Sound.ShouldPrompt(time.Now()),
	})
}

func (h *NotificationHandler) GetSoundPreference(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	pref, err := h.notifications.SoundPreference(c.Request.Context(), user.ID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"preference":   dto.ToSoundPreferenceDTO(pref),
		"prompt_sound": sound.ShouldPrompt(pref, loginTime(c), time.Now()),
	})
}

// UpdateSoundPreference stores the choice and applies it to the user's open feeds.
// Feeds that were never unlocked keep the choice for their next unlock.
func (h *NotificationHandler) UpdateSoundPreference(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.SoundPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	pref, err := h.notifications.SetSoundPreference(c.Request.Context(), user.ID, req.State)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	now := time.Now()
	for _, session := range h.registry.ForUser(user.ID) {
		if err := session.Sound.Apply(pref, now); err != nil && !errors.Is(err, sound.ErrNotUnlocked) {
			h.log.Warn("failed to apply sound preference",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		}
	}

	c.JSON(http.StatusOK, dto.ToSoundPreferenceDTO(pref))
}
