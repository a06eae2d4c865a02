package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fuelops/task-tracker/internal/dto"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/middleware"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/services"
	"github.com/fuelops/task-tracker/internal/utils"
)

// AssignmentHandler serves assignments, their lifecycle actions, attachments and comments.
type AssignmentHandler struct {
	assignments *services.AssignmentService
	attachments *services.AttachmentService
	comments    *services.CommentService
}

func NewAssignmentHandler(assignments *services.AssignmentService, attachments *services.AttachmentService, comments *services.CommentService) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		attachments: attachments,
		comments:    comments,
	}
}

func listInput(c *gin.Context) services.ListAssignmentsInput {
	return services.ListAssignmentsInput{
		Department: c.Query("department"),
		Status:     c.Query("status"),
		Result:     c.Query("result"),
		Query:      c.Query("q"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
	}
}

func (h *AssignmentHandler) toDTO(a models.Assignment, viewer *models.User) dto.AssignmentDTO {
	return dto.ToAssignmentDTO(a, h.assignments.Delay(a), *viewer)
}

func (h *AssignmentHandler) respond(c *gin.Context, status int, a *models.Assignment, viewer *models.User) {
	c.JSON(status, h.toDTO(*a, viewer))
}

// ListAssignments returns the caller's assignments in list order
// Query: department, status, result, q, start_date, end_date, page, limit
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)
	input := listInput(c)
	input.Page = params

	list, total, err := h.assignments.List(c.Request.Context(), user, input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	out := make([]dto.AssignmentDTO, 0, len(list))
	for _, a := range list {
		out = append(out, h.toDTO(a, user))
	}
	c.JSON(http.StatusOK, dto.AssignmentListResponse{
		Assignments: out,
		Pagination:  utils.NewPaginationResponse(params, total),
	})
}

// GetStats returns the dashboard counters under the list filters
func (h *AssignmentHandler) GetStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	stats, err := h.assignments.Stats(c.Request.Context(), user, listInput(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportAssignments downloads the filtered view as a workbook
func (h *AssignmentHandler) ExportAssignments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	filename := "gorev-raporu-" + h.assignments.Today() + ".xlsx"
	sendWorkbook(c, filename, func(w io.Writer) error {
		return h.assignments.Export(c.Request.Context(), user, listInput(c), w)
	})
}

func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	a, err := h.assignments.Create(c.Request.Context(), user, services.CreateAssignmentInput{
		TaskID:       req.TaskID,
		AssignedTo:   req.AssignedTo,
		AssignedDate: req.AssignedDate,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.respond(c, http.StatusCreated, a, user)
}

// GetAssignment returns the assignment loaded by RequireAssignmentAccess
func (h *AssignmentHandler) GetAssignment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	a, ok := middleware.CurrentAssignment(c)
	if !ok {
		apierrors.InternalError(c, "")
		return
	}
	h.respond(c, http.StatusOK, a, user)
}

func (h *AssignmentHandler) Forward(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.ForwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	a, err := h.assignments.Forward(c.Request.Context(), user, c.Param("id"), req.StaffID, req.Note)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.respond(c, http.StatusOK, a, user)
}

func (h *AssignmentHandler) Start(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	a, err := h.assignments.Start(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.respond(c, http.StatusOK, a, user)
}

// Submit accepts JSON {notes} or multipart with a notes field and files
func (h *AssignmentHandler) Submit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.SubmitRequest
	files, ok := bindWithFiles(c, &req)
	if !ok {
		return
	}

	a, err := h.assignments.Submit(c.Request.Context(), user, c.Param("id"), services.SubmitInput{
		Notes: req.Notes,
		Files: files,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.respond(c, http.StatusOK, a, user)
}

// Approve accepts JSON {result, notes} or multipart with those fields and files
func (h *AssignmentHandler) Approve(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.ApproveRequest
	files, ok := bindWithFiles(c, &req)
	if !ok {
		return
	}

	a, err := h.assignments.Approve(c.Request.Context(), user, c.Param("id"), services.ApproveInput{
		Result: req.Result,
		Notes:  req.Notes,
		Files:  files,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.respond(c, http.StatusOK, a, user)
}

func (h *AssignmentHandler) Reject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	a, err := h.assignments.Reject(c.Request.Context(), user, c.Param("id"), req.Notes)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	h.respond(c, http.StatusOK, a, user)
}

// ListAttachments returns the ledger, optionally only ?uploaded_by=<user id>
func (h *AssignmentHandler) ListAttachments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.attachments.List(c.Request.Context(), user, c.Param("id"), c.Query("uploaded_by"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachments": list})
}

// AddAttachment uploads the multipart "file" field
func (h *AssignmentHandler) AddAttachment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A file is required")
		return
	}
	up, err := readUpload(fh)
	if err != nil {
		apierrors.BadRequest(c, "Uploaded file could not be read")
		return
	}

	att, err := h.attachments.Add(c.Request.Context(), user, c.Param("id"), up)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

func (h *AssignmentHandler) RemoveAttachment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.attachments.Remove(c.Request.Context(), user, c.Param("id"), c.Param("attachmentId")); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AssignmentHandler) ListComments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.comments.List(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": dto.ToCommentDTOs(list)})
}

func (h *AssignmentHandler) CreateComment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), user, c.Param("id"), req.Text)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToCommentDTOs([]models.Comment{*comment})[0])
}

// bindWithFiles binds a multipart form with its "files", or a JSON body without files.
func bindWithFiles(c *gin.Context, req interface{}) ([]services.Upload, bool) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if c.Request.ContentLength == 0 {
			return nil, true
		}
		if err := c.ShouldBindJSON(req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return nil, false
		}
		return nil, true
	}

	if err := c.ShouldBind(req); err != nil {
		apierrors.BadRequest(c, "Invalid form data")
		return nil, false
	}
	files, err := readUploads(c, "files")
	if err != nil {
		apierrors.BadRequest(c, "Uploaded files could not be read")
		return nil, false
	}
	return files, true
}
