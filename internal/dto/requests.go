package dto

import "github.com/anyulbade/ratecard-recon/internal/model"

// CommitRowPayload is one previewed row handed back for commit. The
// card is the normalized payload returned by the preview call.
type CommitRowPayload struct {
	RowID     string          `json:"row_id" binding:"required"`
	RowNumber int             `json:"row_number"`
	Card      *model.RateCard `json:"card" binding:"required"`
}

// CommitUploadRequest selects previewed rows for persistence. RowIDs is
// the explicit commit list; including a similar row's id there is its
// approval when mode is valid_and_approved.
type CommitUploadRequest struct {
	Mode   string             `json:"mode" binding:"required,oneof=valid_only valid_and_approved"`
	RowIDs []string           `json:"row_ids" binding:"required,min=1"`
	Rows   []CommitRowPayload `json:"rows" binding:"required,min=1,dive"`
}
