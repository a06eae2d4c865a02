package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
)

const assignmentKey = "assignment"

// AssignmentReader loads an assignment the user may see.
type AssignmentReader interface {
	Get(ctx context.Context, user *models.User, id string) (*models.Assignment, error)
}

// RequireAssignmentAccess loads the assignment named by the :id parameter
// and rejects users who may not see it.
func RequireAssignmentAccess(assignments AssignmentReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		a, err := assignments.Get(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			apierrors.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(assignmentKey, a)
		c.Next()
	}
}

// CurrentAssignment retrieves the assignment loaded by RequireAssignmentAccess
func CurrentAssignment(c *gin.Context) (*models.Assignment, bool) {
	v, exists := c.Get(assignmentKey)
	if !exists {
		return nil, false
	}
	a, ok := v.(*models.Assignment)
	return a, ok
}
