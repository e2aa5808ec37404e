package souvenir

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var stockErr *InsufficientStockError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     stockErr.Error(),
			"stock":     stockErr.Stock,
			"requested": stockErr.Requested,
		})
	case errors.Is(err, ErrAlreadyRedeemed), errors.Is(err, ErrNotCheckedIn):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrCategoryRestricted):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}

func eventIDParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("eventID"), 10, 32)
	return uint(id)
}

func souvenirIDParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("souvenirID"), 10, 32)
	return uint(id)
}

// POST /events/:eventID/souvenirs
func (h *Handler) Create(c *gin.Context) {
	var req CreateSouvenirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.svc.Create(c.Request.Context(), eventIDParam(c), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GET /events/:eventID/souvenirs
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), eventIDParam(c), c.GetUint("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// PUT /events/:eventID/souvenirs/:souvenirID
func (h *Handler) Update(c *gin.Context) {
	var req UpdateSouvenirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.svc.Update(c.Request.Context(), eventIDParam(c), souvenirIDParam(c), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DELETE /events/:eventID/souvenirs/:souvenirID
func (h *Handler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), eventIDParam(c), souvenirIDParam(c), c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "souvenir deleted"})
}

// POST /events/:eventID/souvenirs/:souvenirID/redeem
func (h *Handler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Redeem(c.Request.Context(), eventIDParam(c), souvenirIDParam(c), req.GuestID, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
