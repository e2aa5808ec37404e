package rbac

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
	switch {
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, ErrSystemRoleImmutable),
		errors.Is(err, ErrRoleInUse),
		errors.Is(err, ErrAlreadyStaff),
		errors.Is(err, ErrUnknownPermission):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
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

// GET /permissions
func (h *Handler) ListPermissions(c *gin.Context) {
	perms, err := h.svc.ListPermissions(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, perms)
}

// GET /events/:eventID/roles
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles(c.Request.Context(), eventIDParam(c), c.GetUint("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// POST /events/:eventID/roles
func (h *Handler) CreateRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := h.svc.CreateRole(c.Request.Context(), eventIDParam(c), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

// PUT /events/:eventID/roles/:roleID
func (h *Handler) UpdateRole(c *gin.Context) {
	roleID, _ := strconv.ParseUint(c.Param("roleID"), 10, 32)

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := h.svc.UpdateRole(c.Request.Context(), eventIDParam(c), uint(roleID), req, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// DELETE /events/:eventID/roles/:roleID
func (h *Handler) DeleteRole(c *gin.Context) {
	roleID, _ := strconv.ParseUint(c.Param("roleID"), 10, 32)

	err := h.svc.DeleteRole(c.Request.Context(), eventIDParam(c), uint(roleID), c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
}

// PUT /events/:eventID/roles/:roleID/permissions
func (h *Handler) SetPermissions(c *gin.Context) {
	roleID, _ := strconv.ParseUint(c.Param("roleID"), 10, 32)

	var req SetPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := h.svc.SetPermissions(c.Request.Context(), eventIDParam(c), uint(roleID), req.PermissionIDs, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// GET /events/:eventID/staff
func (h *Handler) ListStaff(c *gin.Context) {
	staff, err := h.svc.ListStaff(c.Request.Context(), eventIDParam(c), c.GetUint("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// POST /events/:eventID/staff
func (h *Handler) InviteStaff(c *gin.Context) {
	var req InviteStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := h.svc.InviteStaff(c.Request.Context(), eventIDParam(c), req.Email, req.RoleID, c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// DELETE /events/:eventID/staff/:userID
func (h *Handler) RemoveStaff(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Param("userID"), 10, 32)

	err := h.svc.RemoveStaff(c.Request.Context(), eventIDParam(c), uint(userID), c.GetUint("user_id"), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "staff removed"})
}
