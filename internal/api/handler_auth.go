package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nexus-response-backend/internal/auth"
	"nexus-response-backend/internal/model"
	"nexus-response-backend/internal/store"
)

type authResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func (h *Handler) authResponseFor(user model.User) (authResponse, error) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		return authResponse{}, err
	}
	return authResponse{Token: token, UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login. Unknown email and wrong password are
// indistinguishable to the caller.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.store.UserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		internalError(c, err)
		return
	}
	if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	resp, err := h.authResponseFor(user)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(c *gin.Context) {
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

	resp, err := h.authResponseFor(*user)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
