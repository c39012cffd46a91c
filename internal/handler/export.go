package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack/internal/export"
	"fintrack/internal/models"
	"fintrack/internal/report"

	"github.com/gin-gonic/gin"
)

// ExportHandler serves the user's ledger as a file download.
type ExportHandler struct {
	Reports *report.Service
	now     func() time.Time
}

func NewExportHandler(r *report.Service) *ExportHandler {
	return &ExportHandler{Reports: r, now: time.Now}
}

type writeFunc func(io.Writer, []models.Transaction) error

// ExportCSV downloads every entry as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	h.download(c, "csv", export.ContentTypeCSV, export.WriteCSV)
}

// ExportXLSX downloads every entry as an Excel workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	h.download(c, "xlsx", export.ContentTypeXLSX, export.WriteXLSX)
}

// download renders into memory first so a failure can still produce an error envelope.
func (h *ExportHandler) download(c *gin.Context, ext, contentType string, write writeFunc) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.Reports.Entries(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, entries); err != nil {
		respondError(c, fmt.Errorf("export %s: %w", ext, err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(ext, h.now())))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
