package event

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/danuartha/wedding-management-backend/internal/subscription"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var qErr *subscription.QuotaExceededError
	var neErr *EventNotEmptyError

	switch {
	case errors.As(err, &qErr):
		c.JSON(http.StatusForbidden, gin.H{
			"error": qErr.Error(),
			"kind":  qErr.Kind,
			"limit": qErr.Limit,
			"used":  qErr.Used,
		})
	case errors.As(err, &neErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":  neErr.Error(),
			"guests": neErr.Guests,
			"tables": neErr.Tables,
		})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}

func eventIDParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("eventID"), 10, 32)
	return uint(id)
}

// POST /events
func (h *Handler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.svc.Create(c.Request.Context(), c.GetUint("user_id"), req, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GET /events
func (h *Handler) List(c *gin.Context) {
	events, err := h.svc.ListForUser(c.Request.Context(), c.GetUint("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// GET /events/:eventID
func (h *Handler) Get(c *gin.Context) {
	e, err := h.svc.GetByID(c.Request.Context(), eventIDParam(c), c.GetUint("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// PUT /events/:eventID
func (h *Handler) Update(c *gin.Context) {
	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := h.svc.Update(c.Request.Context(), eventIDParam(c), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// DELETE /events/:eventID
func (h *Handler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), eventIDParam(c), c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}
