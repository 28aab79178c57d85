package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anyulbade/ratecard-recon/internal/dto"
	"github.com/anyulbade/ratecard-recon/internal/ingest"
	"github.com/anyulbade/ratecard-recon/internal/service"
)

type UploadHandler struct {
	svc     *service.ImportService
	maxRows int
}

func NewUploadHandler(svc *service.ImportService, maxRows int) *UploadHandler {
	return &UploadHandler{svc: svc, maxRows: maxRows}
}

// Preview parses an uploaded rate-card file (csv or xlsx), runs the
// full analysis pipeline and returns the per-row classification for
// human review. Nothing is persisted here.
func (h *UploadHandler) Preview(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "a 'file' form field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to open upload: " + err.Error()})
		return
	}
	defer file.Close()

	rows, err := ingest.ReadTable(file, fileHeader.Filename)
	if err != nil {
		status := http.StatusBadRequest
		msg := "failed to parse upload: " + err.Error()
		if errors.Is(err, ingest.ErrNoHeader) {
			msg = "upload has no parseable header row"
		}
		c.JSON(status, dto.ErrorResponse{Error: msg})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "upload contains no data rows"})
		return
	}
	if len(rows) > h.maxRows {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{
			Error: "upload exceeds the maximum row count for a single batch",
		})
		return
	}

	result, err := h.svc.Analyze(c.Request.Context(), rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Commit persists rows selected from a preview. The request carries the
// previewed rows back, so commit holds no server-side session state and
// can re-check every row against the store as it stands now.
func (h *UploadHandler) Commit(c *gin.Context) {
	var req dto.CommitUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation failed: " + err.Error()})
		return
	}

	rows := make([]service.CommitRow, len(req.Rows))
	for i, r := range req.Rows {
		rows[i] = service.CommitRow{RowID: r.RowID, RowNumber: r.RowNumber, Card: r.Card}
	}

	result, err := h.svc.Commit(c.Request.Context(), req.Mode, req.RowIDs, rows)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrBadCommitRequest) {
			status = http.StatusBadRequest
		}
		c.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
