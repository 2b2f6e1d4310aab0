package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"eshop/internal/service"
)

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   req.Avatar,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": fmt.Sprintf("Please check your email: %s to activate your account!", user.Email),
	})
}

type resendActivationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendActivation answers the same way whether or not the address is known.
func (h HandlerSet) ResendActivation(c *gin.Context) {
	var req resendActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.users.ResendActivation(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If the account is waiting for activation, a new link is on its way.",
	})
}

type activationRequest struct {
	ActivationToken string `json:"activation_token" binding:"required"`
}

func (h HandlerSet) Activate(c *gin.Context) {
	var req activationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, token, err := h.users.Activate(c.Request.Context(), req.ActivationToken)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cookie.set(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    newUserResponse(user),
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cookie.set(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    newUserResponse(user),
		"token":   token,
	})
}

// Logout only clears the cookie; issued tokens stay valid until they expire.
func (h HandlerSet) Logout(c *gin.Context) {
	h.cookie.clear(c)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Log out successful!",
	})
}
