// Package ledger validates and tracks the evidence files attached to one assignment.
package ledger

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fuelops/task-tracker/internal/constants"
	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/models"
)

var (
	ErrUnsupportedType = apierrors.Validation("file type is not allowed; upload an image, PDF, Excel, Word or PowerPoint file")
	ErrTooLarge        = apierrors.Validation("file exceeds the 10 MB limit")
	ErrEmptyFile       = apierrors.Validation("file is empty")
	ErrFull            = apierrors.Capacity("attachment limit reached for this assignment")
)

var allowedTypes = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.ms-excel":                                                  "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"application/vnd.ms-powerpoint":                                             "ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
}

// containers are sniffed types too generic to decide on; the declared type is used instead.
var containers = map[string]bool{
	"application/zip":           true,
	"application/x-ole-storage": true,
	"application/octet-stream":  true,
}

// DetectMIME sniffs content and falls back to declared when sniffing only finds a container.
func DetectMIME(content []byte, declared string) string {
	sniffed := baseType(mimetype.Detect(content).String())
	if containers[sniffed] && declared != "" {
		return baseType(declared)
	}
	return sniffed
}

func baseType(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.ToLower(strings.TrimSpace(m))
}

// Allowed reports whether mime is an image, PDF or Office document.
func Allowed(mime string) bool {
	mime = baseType(mime)
	if strings.HasPrefix(mime, "image/") {
		return true
	}
	_, ok := allowedTypes[mime]
	return ok
}

// Validate checks type and size of an incoming file.
func Validate(name, mime string, size int64) error {
	if size <= 0 {
		return ErrEmptyFile.WithDetails(map[string]string{"name": name})
	}
	if size > constants.MaxAttachmentSize {
		return ErrTooLarge.WithDetails(map[string]interface{}{"name": name, "size_bytes": size})
	}
	if !Allowed(mime) {
		return ErrUnsupportedType.WithDetails(map[string]string{"name": name, "mime_type": mime})
	}
	return nil
}

// Extension picks the key extension from the file name, then from the MIME type.
func Extension(name, mime string) string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), "."); ext != "" {
		return ext
	}
	mime = baseType(mime)
	if ext, ok := allowedTypes[mime]; ok {
		return ext
	}
	if strings.HasPrefix(mime, "image/") {
		return strings.TrimPrefix(mime, "image/")
	}
	return "bin"
}

// ObjectKey is <assignmentID>/<uploaderID>_<unixMillis>_<suffix>.<ext>.
func ObjectKey(assignmentID, uploaderID string, ts time.Time, suffix, ext string) string {
	return fmt.Sprintf("%s/%s_%d_%s.%s", assignmentID, uploaderID, ts.UnixMilli(), suffix, ext)
}

// Ledger is the ordered attachment list of one assignment, bounded by a cap.
type Ledger struct {
	items []models.Attachment
	limit int
}

// New wraps a copy of items; a non-positive limit means the default of 5.
func New(items []models.Attachment, limit int) *Ledger {
	if limit <= 0 {
		limit = constants.DefaultAttachmentCap
	}
	return &Ledger{
		items: append([]models.Attachment(nil), items...),
		limit: limit,
	}
}

// Add appends att or fails with ErrFull once the cap is reached.
func (l *Ledger) Add(att models.Attachment) error {
	if len(l.items) >= l.limit {
		return ErrFull.WithDetails(map[string]int{"cap": l.limit})
	}
	l.items = append(l.items, att)
	return nil
}

// Remove drops the item with id and returns it. Absent ids are a no-op.
func (l *Ledger) Remove(id string) (models.Attachment, bool) {
	for i, att := range l.items {
		if att.ID == id {
			l.items = append(l.items[:i:i], l.items[i+1:]...)
			return att, true
		}
	}
	return models.Attachment{}, false
}

// Find returns the item with id.
func (l *Ledger) Find(id string) (models.Attachment, bool) {
	for _, att := range l.items {
		if att.ID == id {
			return att, true
		}
	}
	return models.Attachment{}, false
}

// List returns every item, or only those uploaded by uploader when it is non-empty.
func (l *Ledger) List(uploader string) []models.Attachment {
	out := make([]models.Attachment, 0, len(l.items))
	for _, att := range l.items {
		if uploader == "" || att.UploadedBy == uploader {
			out = append(out, att)
		}
	}
	return out
}

func (l *Ledger) Len() int { return len(l.items) }

func (l *Ledger) Cap() int { return l.limit }
