package services

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/ledger"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/repository"
	"github.com/fuelops/task-tracker/internal/storage"
	"github.com/fuelops/task-tracker/internal/utils"
)

var (
	ErrNotUploader  = apierrors.Authorization("only the uploader can remove this file")
	ErrLedgerClosed = apierrors.Conflict("attachments cannot be changed in the current status")
)

// Upload is one file received from a client.
type Upload struct {
	Name         string
	DeclaredType string
	Content      []byte
}

// AttachmentService manages the evidence files of assignments.
type AttachmentService struct {
	assignments repository.AssignmentRepository
	store       storage.ObjectStore
	capacity    int
	log         *zap.Logger
	now         func() time.Time
}

// NewAttachmentService creates a new AttachmentService. capacity <= 0 uses the default cap.
func NewAttachmentService(assignments repository.AssignmentRepository, store storage.ObjectStore, capacity int, log *zap.Logger) *AttachmentService {
	return &AttachmentService{
		assignments: assignments,
		store:       store,
		capacity:    capacity,
		log:         log,
		now:         time.Now,
	}
}

// List returns the attachments of an assignment, optionally only those of one uploader.
func (s *AttachmentService) List(ctx context.Context, user *models.User, assignmentID, uploadedBy string) ([]models.Attachment, error) {
	a, err := loadAssignment(ctx, s.assignments, assignmentID)
	if err != nil {
		return nil, err
	}
	if !canView(user, a) {
		return nil, ErrAssignmentForbidden
	}
	return ledger.New(a.Attachments, s.capacity).List(uploadedBy), nil
}

// Add uploads one file and records it on the assignment. The object is
// removed again if the record cannot be written.
func (s *AttachmentService) Add(ctx context.Context, user *models.User, assignmentID string, up Upload) (*models.Attachment, error) {
	a, err := loadAssignment(ctx, s.assignments, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := ledgerEditor(user, a); err != nil {
		return nil, err
	}

	l := ledger.New(a.Attachments, s.capacity)
	if l.Len() >= l.Cap() {
		return nil, ledger.ErrFull.WithDetails(map[string]int{"cap": l.Cap()})
	}

	staged, err := s.stage(ctx, a.ID, user.ID, []Upload{up})
	if err != nil {
		return nil, err
	}
	if err := l.Add(staged[0]); err != nil {
		s.discard(ctx, staged)
		return nil, err
	}

	next := *a
	next.Attachments = l.List("")
	if err := s.assignments.UpdateIfCurrent(ctx, &next, a.Status); err != nil {
		s.discard(ctx, staged)
		return nil, mapWriteError(err)
	}

	s.log.Info("attachment added",
		zap.String("assignment_id", a.ID),
		zap.String("attachment_id", staged[0].ID),
		zap.String("user_id", user.ID),
	)
	return &staged[0], nil
}

// Remove deletes one of the caller's own attachments. Removing an id that is
// not there succeeds.
func (s *AttachmentService) Remove(ctx context.Context, user *models.User, assignmentID, attachmentID string) error {
	a, err := loadAssignment(ctx, s.assignments, assignmentID)
	if err != nil {
		return err
	}
	if err := ledgerEditor(user, a); err != nil {
		return err
	}

	l := ledger.New(a.Attachments, s.capacity)
	att, ok := l.Find(attachmentID)
	if !ok {
		return nil
	}
	if att.UploadedBy != user.ID {
		return ErrNotUploader
	}
	l.Remove(attachmentID)

	next := *a
	next.Attachments = l.List("")
	if err := s.assignments.UpdateIfCurrent(ctx, &next, a.Status); err != nil {
		return mapWriteError(err)
	}

	s.discard(ctx, []models.Attachment{att})
	return nil
}

// stage validates and uploads files, returning their unsaved records.
// On any failure the files already uploaded are deleted.
func (s *AttachmentService) stage(ctx context.Context, assignmentID, uploaderID string, ups []Upload) ([]models.Attachment, error) {
	staged := make([]models.Attachment, 0, len(ups))
	for _, up := range ups {
		att, err := s.put(ctx, assignmentID, uploaderID, up)
		if err != nil {
			s.discard(ctx, staged)
			return nil, err
		}
		staged = append(staged, att)
	}
	return staged, nil
}

func (s *AttachmentService) put(ctx context.Context, assignmentID, uploaderID string, up Upload) (models.Attachment, error) {
	size := int64(len(up.Content))
	mime := ledger.DetectMIME(up.Content, up.DeclaredType)
	if err := ledger.Validate(up.Name, mime, size); err != nil {
		return models.Attachment{}, err
	}

	suffix, err := utils.RandomSuffix(4)
	if err != nil {
		return models.Attachment{}, err
	}
	now := s.now()
	key := ledger.ObjectKey(assignmentID, uploaderID, now, suffix, ledger.Extension(up.Name, mime))

	url, err := s.store.Put(ctx, key, mime, bytes.NewReader(up.Content), size)
	if err != nil {
		return models.Attachment{}, apierrors.External("file upload failed", err)
	}

	return models.Attachment{
		ID:         uuid.NewString(),
		Name:       up.Name,
		URL:        url,
		Key:        key,
		MimeType:   mime,
		SizeBytes:  size,
		UploadedAt: now.UTC(),
		UploadedBy: uploaderID,
	}, nil
}

// discard deletes stored objects; failures are logged and never returned.
func (s *AttachmentService) discard(ctx context.Context, atts []models.Attachment) {
	for _, att := range atts {
		if att.Key == "" {
			continue
		}
		if err := s.store.Delete(ctx, att.Key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("failed to delete stored object",
				zap.String("key", att.Key),
				zap.Error(err),
			)
		}
	}
}

// withUploads stages ups and returns a ledger holding the assignment's items plus the new ones.
// The returned cleanup deletes the staged objects and must be called if the write fails.
func (s *AttachmentService) withUploads(ctx context.Context, a *models.Assignment, uploaderID string, ups []Upload) ([]models.Attachment, func(), error) {
	noop := func() {}
	if len(ups) == 0 {
		return a.Attachments, noop, nil
	}

	l := ledger.New(a.Attachments, s.capacity)
	if l.Len()+len(ups) > l.Cap() {
		return nil, noop, ledger.ErrFull.WithDetails(map[string]int{"cap": l.Cap()})
	}

	staged, err := s.stage(ctx, a.ID, uploaderID, ups)
	if err != nil {
		return nil, noop, err
	}
	for _, att := range staged {
		if err := l.Add(att); err != nil {
			s.discard(ctx, staged)
			return nil, noop, storeFailure("record upload", err)
		}
	}

	cleanup := func() {
		// The request context may already be cancelled when the write fails.
		s.discard(context.Background(), staged)
	}
	return l.List(""), cleanup, nil
}
