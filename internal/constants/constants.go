package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUser      = "current_user"
	ContextKeyRequestID = "request_id"
	SessionCookieName   = "task_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Auth
const (
	MinPasswordLength  = 6
	RememberMeMaxAge   = 30 * 24 * 60 * 60
	DefaultSessionDays = 7
)

// DateLayout is the wire format of assignment dates.
const DateLayout = "2006-01-02"

// Attachments
const (
	MaxAttachmentSize    = 10 * 1024 * 1024
	DefaultAttachmentCap = 5
	MaxMultipartMemory   = 32 << 20
)

// Notifications
const (
	NotificationExpiry    = 7 * 24 * time.Hour
	BannerDuration        = 5 * time.Second
	SoundPromptDelay      = time.Second
	SoundRepromptInterval = time.Hour
	FeedHeartbeat         = 25 * time.Second
)

// MaxAIGeneratedTasks caps the drafts returned from a single AI request.
const MaxAIGeneratedTasks = 20
