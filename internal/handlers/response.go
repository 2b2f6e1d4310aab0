package handlers

import (
	"time"

	"eshop/internal/models"
)

type avatarResponse struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type addressResponse struct {
	ID          string `json:"_id"`
	AddressType string `json:"addressType"`
	Country     string `json:"country,omitempty"`
	City        string `json:"city,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
}

// userResponse is the only shape a user leaves the API in. It has no
// password field.
type userResponse struct {
	ID          string            `json:"_id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	PhoneNumber string            `json:"phoneNumber,omitempty"`
	Role        string            `json:"role"`
	Avatar      avatarResponse    `json:"avatar"`
	Addresses   []addressResponse `json:"addresses"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func newUserResponse(user models.User) userResponse {
	addresses := make([]addressResponse, 0, len(user.Addresses))
	for _, a := range user.Addresses {
		addresses = append(addresses, addressResponse(a))
	}
	return userResponse{
		ID:          user.IDHex(),
		Name:        user.Name,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		Role:        string(user.Role),
		Avatar:      avatarResponse(user.Avatar),
		Addresses:   addresses,
		Active:      user.Active,
		CreatedAt:   user.CreatedAt,
	}
}

func newUserResponses(users []models.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newUserResponse(u))
	}
	return out
}
