package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/service"
)

func (h HandlerSet) GetUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.writeError(c, service.ErrUserNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": newUserResponse(user)})
}

type updateUserInfoRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

func (h HandlerSet) UpdateUserInfo(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	var req updateUserInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.UpdateInfo(c.Request.Context(), current.IDHex(), service.UpdateInfoInput{
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Name:        req.Name,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": newUserResponse(user)})
}

type updateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

func (h HandlerSet) UpdateAvatar(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	var req updateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.UpdateAvatar(c.Request.Context(), current.IDHex(), req.Avatar)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": newUserResponse(user)})
}

type addressRequest struct {
	ID          string `json:"_id"`
	AddressType string `json:"addressType"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	ZipCode     string `json:"zipCode"`
}

func (h HandlerSet) UpdateAddresses(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.UpsertAddress(c.Request.Context(), current.IDHex(), models.Address(req))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": newUserResponse(user)})
}

func (h HandlerSet) DeleteAddress(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	user, err := h.users.DeleteAddress(c.Request.Context(), current.IDHex(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": newUserResponse(user)})
}

type updatePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h HandlerSet) UpdatePassword(c *gin.Context) {
	current, _ := middleware.CurrentUser(c)

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.users.ChangePassword(c.Request.Context(), current.IDHex(), service.ChangePasswordInput(req))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully!"})
}

func (h HandlerSet) UserInfo(c *gin.Context) {
	user, err := h.users.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": newUserResponse(user)})
}
