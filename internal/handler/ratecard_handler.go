package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anyulbade/ratecard-recon/internal/dto"
	"github.com/anyulbade/ratecard-recon/internal/middleware"
	"github.com/anyulbade/ratecard-recon/internal/service"
)

type RateCardHandler struct {
	svc *service.RateCardService
}

func NewRateCardHandler(svc *service.RateCardService) *RateCardHandler {
	return &RateCardHandler{svc: svc}
}

func (h *RateCardHandler) List(c *gin.Context) {
	params := dto.ParsePagination(c)

	var archived *bool
	switch c.Query("archived") {
	case "true":
		v := true
		archived = &v
	case "false":
		v := false
		archived = &v
	}

	cards, total, err := h.svc.List(c.Request.Context(),
		c.Query("platform"), c.Query("category"), archived, params.PageSize, params.Offset)
	if err != nil {
		status, resp := middleware.MapDBError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, dto.RateCardListResponse{
		Items:      cards,
		Pagination: dto.NewPagination(params.Page, params.PageSize, total),
	})
}

func (h *RateCardHandler) Get(c *gin.Context) {
	card, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, resp := middleware.MapDBError(err)
		c.JSON(status, resp)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *RateCardHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		status, resp := middleware.MapDBError(err)
		c.JSON(status, resp)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RateCardHandler) Archive(c *gin.Context) {
	if err := h.svc.Archive(c.Request.Context(), c.Param("id")); err != nil {
		status, resp := middleware.MapDBError(err)
		c.JSON(status, resp)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RateCardHandler) Unarchive(c *gin.Context) {
	err := h.svc.Unarchive(c.Request.Context(), c.Param("id"))
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var conflictErr *service.ErrUnarchiveConflict
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "unarchiving would reintroduce a conflict",
			Details: conflictErr.Error(),
		})
		return
	}

	status, resp := middleware.MapDBError(err)
	c.JSON(status, resp)
}
