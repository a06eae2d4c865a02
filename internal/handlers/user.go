package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fuelops/task-tracker/internal/dto"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/services"
)

// UserHandler serves user administration.
type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers returns the users the caller manages.
func (h *UserHandler) ListUsers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.users.List(c.Request.Context(), user)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserDTOs(list)})
}

// ListEligibleStaff returns the staff a supervisor can forward to.
func (h *UserHandler) ListEligibleStaff(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.users.EligibleStaff(c.Request.Context(), user)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserDTOs(list)})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	target, err := h.users.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*target))
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	created, err := h.users.Create(c.Request.Context(), user, services.CreateUserInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Role:         req.Role,
		Department:   req.Department,
		SupervisorID: req.SupervisorID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToUserDTO(*created))
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.users.Update(c.Request.Context(), user, c.Param("id"), services.UpdateUserInput{
		FullName:     req.FullName,
		Password:     req.Password,
		Role:         req.Role,
		Department:   req.Department,
		SupervisorID: req.SupervisorID,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*updated))
}

// ToggleActive enables or disables an account.
func (h *UserHandler) ToggleActive(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	updated, err := h.users.ToggleActive(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*updated))
}
