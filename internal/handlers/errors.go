package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eshop/internal/avatar"
	"eshop/internal/service"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrDuplicateUser),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrOldPasswordIncorrect),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrDuplicateAddressType),
		errors.Is(err, service.ErrAvatarRequired),
		errors.Is(err, service.ErrAddressTypeRequired),
		errors.Is(err, avatar.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, avatar.ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h HandlerSet) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal server error"
	case errors.Is(err, avatar.ErrUploadFailed):
		h.log.Warn().Err(err).Str("path", c.FullPath()).Msg("avatar rejected")
		message = avatar.ErrUploadFailed.Error()
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"success": false, "message": message})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
}
