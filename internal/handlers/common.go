package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/middleware"
	"github.com/fuelops/task-tracker/internal/models"
	"github.com/fuelops/task-tracker/internal/services"
	"github.com/fuelops/task-tracker/internal/spreadsheet"
)

// currentUser returns the user loaded by RequireAuth, answering 401 when missing.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, false
	}
	return user, true
}

// readUploads reads the files of a multipart field. Oversized files are cut one
// byte past the limit so that validation reports them without buffering them whole.
func readUploads(c *gin.Context, field string) ([]services.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	headers := form.File[field]
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (services.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, constants.MaxAttachmentSize+1))
	if err != nil {
		return services.Upload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return services.Upload{
		Name:         fh.Filename,
		DeclaredType: fh.Header.Get("Content-Type"),
		Content:      content,
	}, nil
}

// sendWorkbook renders a workbook in memory so that a failure can still be answered as JSON.
func sendWorkbook(c *gin.Context, filename string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, spreadsheet.ContentType, buf.Bytes())
}
