package services

import (
	"context"
	"strings"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/repository"
)

var ErrCommentEmpty = apierrors.Validation("comment text is required")

// CommentService handles the general manager's notes on assignments.
type CommentService struct {
	comments    repository.CommentRepository
	assignments repository.AssignmentRepository
}

func NewCommentService(comments repository.CommentRepository, assignments repository.AssignmentRepository) *CommentService {
	return &CommentService{comments: comments, assignments: assignments}
}

// List returns the comments of an assignment user may see, oldest first.
func (s *CommentService) List(ctx context.Context, user *models.User, assignmentID string) ([]models.Comment, error) {
	a, err := loadAssignment(ctx, s.assignments, assignmentID)
	if err != nil {
		return nil, err
	}
	if !canView(user, a) {
		return nil, ErrAssignmentForbidden
	}

	list, err := s.comments.ListByAssignment(ctx, a.ID)
	if err != nil {
		return nil, storeFailure("list comments", err)
	}
	return list, nil
}

// Create appends a comment. Only the general manager comments.
func (s *CommentService) Create(ctx context.Context, user *models.User, assignmentID, text string) (*models.Comment, error) {
	if !isGeneralManager(user) {
		return nil, ErrGeneralManagerOnly
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentEmpty
	}
	if _, err := loadAssignment(ctx, s.assignments, assignmentID); err != nil {
		return nil, err
	}

	c := &models.Comment{AssignmentID: assignmentID, UserID: user.ID, Text: text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, storeFailure("create comment", err)
	}
	c.User = *user
	return c, nil
}
