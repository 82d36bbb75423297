package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nexus-response-backend/internal/auth"
	"nexus-response-backend/internal/model"
	"nexus-response-backend/internal/store"
)

// userInfoResponse exposes a user without credential material.
type userInfoResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func userInfo(u model.User) userInfoResponse {
	return userInfoResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.store.Users(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	resp := make([]userInfoResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userInfo(u))
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser handles GET /api/users/:id.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.store.User(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, userInfo(user))
}

type createUserRequest struct {
	Name       string `json:"name" binding:"required"`
	NationalID string `json:"nationalId" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
}

// CreateUser handles POST /api/users. The email/national-id pre-checks are an
// optimization; the unique indexes are the source of truth under concurrent
// creation.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.registerUser(c, req)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email or national id already registered"})
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userInfo(*user))
}

// registerUser hashes the credential and persists the user; shared with the
// auth register endpoint.
func (h *Handler) registerUser(c *gin.Context, req createUserRequest) (*model.User, error) {
	ctx := c.Request.Context()

	if _, err := h.store.UserByEmail(ctx, req.Email); err == nil {
		return nil, store.ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Name:         req.Name,
		NationalID:   req.NationalID,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.AddUser(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type updateUserRequest struct {
	Name            string `json:"name"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateUser handles PUT /api/users/:id. Password changes require the current
// password.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.store.User(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		internalError(c, err)
		return
	}

	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "current password is required to change the password"})
			return
		}
		if !auth.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
			return
		}
		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			internalError(c, err)
			return
		}
		user.PasswordHash = hash
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateUser(c.Request.Context(), &user); err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user updated"})
}

// DeleteUser handles DELETE /api/users/:id. Deletion is rejected while
// incidents still reference the user.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, store.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "user still has reported incidents"})
		default:
			internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
