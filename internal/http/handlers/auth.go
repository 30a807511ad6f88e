package handlers

import (
	"net/http"

	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.Auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		h.respondError(c, err, "during registration")
		return
	}

	respondOK(c, http.StatusCreated, "User registered successfully", res)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.Auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err, "during login")
		return
	}

	respondOK(c, http.StatusOK, "Login successful", res)
}

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		respondFail(c, http.StatusUnauthorized, "Not authorized")
		return
	}

	user, err := h.Auth.Me(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "fetching user")
		return
	}

	respondOK(c, http.StatusOK, "", user)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), getClaims(c)); err != nil {
		h.respondError(c, err, "during logout")
		return
	}
	respondOK(c, http.StatusOK, "Logged out successfully", nil)
}
