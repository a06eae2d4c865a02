package dto

import (
	"time"

	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/notify"
)

// NotificationDTO represents a notification in API responses
type NotificationDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	AssignmentID *string   `json:"assignment_id"`
	IsRead       bool      `json:"is_read"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedEventDTO is one notification pushed on the live feed with what the client should do.
type FeedEventDTO struct {
	Notification NotificationDTO `json:"notification"`
	Effects      notify.Effects  `json:"effects"`
}

// FeedSessionDTO is the first event of a feed: the session id and the sound state.
type FeedSessionDTO struct {
	SessionID   string `json:"session_id"`
	Sound       string `json:"sound"`
	PromptSound bool   `json:"prompt_sound"`
}

// SoundPreferenceDTO represents the stored sound choice
type SoundPreferenceDTO struct {
	State       models.SoundPreferenceState `json:"state"`
	DismissedAt *time.Time                  `json:"dismissed_at"`
}

// CommentDTO represents a manager comment
type CommentDTO struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Author    UserSummaryDTO `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToNotificationDTO converts a Notification model
func ToNotificationDTO(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:           n.ID,
		Title:        n.Title,
		Message:      n.Message,
		AssignmentID: n.AssignmentID,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
}

// ToNotificationDTOs converts a slice of notifications
func ToNotificationDTOs(list []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(list))
	for _, n := range list {
		out = append(out, ToNotificationDTO(n))
	}
	return out
}

// ToSoundPreferenceDTO converts a SoundPreference model
func ToSoundPreferenceDTO(p models.SoundPreference) SoundPreferenceDTO {
	return SoundPreferenceDTO{State: p.State, DismissedAt: p.DismissedAt}
}

// ToCommentDTOs converts comments with their authors
func ToCommentDTOs(list []models.Comment) []CommentDTO {
	out := make([]CommentDTO, 0, len(list))
	for _, c := range list {
		out = append(out, CommentDTO{
			ID:        c.ID,
			Text:      c.Text,
			Author:    toUserSummary(c.User),
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}
