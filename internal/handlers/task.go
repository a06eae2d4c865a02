package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fuelops/task-tracker/internal/dto"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/services"
)

// TaskHandler serves the task catalog.
type TaskHandler struct {
	catalog *services.CatalogService
}

func NewTaskHandler(catalog *services.CatalogService) *TaskHandler {
	return &TaskHandler{catalog: catalog}
}

// ListTasks returns live catalog tasks, filtered by department or custom=true
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.catalog.List(c.Request.Context(), services.ListTasksInput{
		Department: c.Query("department"),
		CustomOnly: c.Query("custom") == "true",
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskDTOs(tasks)})
}

// CreateTask adds an ad-hoc task, optionally assigning it right away
func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.catalog.CreateCustom(c.Request.Context(), user, services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Department:    req.Department,
		Priority:      req.Priority,
		RequiresPhoto: req.RequiresPhoto,
		AssignDate:    req.AssignDate,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"task":        dto.ToTaskDTO(*result.Task),
		"assignments": len(result.Assignments),
	})
}

// ImportTasks replaces the catalog from an uploaded workbook in the "file" field
func (h *TaskHandler) ImportTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A spreadsheet file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		apierrors.BadRequest(c, "Uploaded file could not be opened")
		return
	}
	defer f.Close()

	result, err := h.catalog.Import(c.Request.Context(), user, f)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportTasks downloads the active catalog in the import format
func (h *TaskHandler) ExportTasks(c *gin.Context) {
	filename := "gorevler-" + time.Now().Format("2006-01-02") + ".xlsx"
	sendWorkbook(c, filename, func(w io.Writer) error {
		return h.catalog.Export(c.Request.Context(), w)
	})
}

// GenerateTasks drafts ad-hoc tasks from free text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.catalog.GenerateDrafts(c.Request.Context(), user, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrAIServiceNotConfigured) {
			apierrors.ServiceUnavailable(c, "AI service is not configured. Set OPENAI_API_KEY to enable it.")
			return
		}
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": drafts})
}
