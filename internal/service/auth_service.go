package service

import (
	"time"

	"eshop/internal/config"
	"eshop/internal/models"
	"eshop/internal/security"
)

// AuthService owns password hashing and the two token kinds. It never
// touches storage.
type AuthService struct {
	cfg config.SecurityConfig
}

func NewAuthService(cfg config.SecurityConfig) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.ActivationTTL <= 0 {
		cfg.ActivationTTL = 5 * time.Minute
	}
	return &AuthService{cfg: cfg}
}

func (a *AuthService) HashPassword(password string) (string, error) {
	return security.HashPassword(password)
}

func (a *AuthService) VerifyPassword(password, hash string) bool {
	ok, err := security.VerifyPassword(password, hash)
	return err == nil && ok
}

func (a *AuthService) IssueActivationToken(userID string) (string, error) {
	return security.GenerateActivationToken(a.cfg.ActivationSecret, userID, a.cfg.ActivationTTL)
}

// VerifyActivationToken returns the user id carried by token.
func (a *AuthService) VerifyActivationToken(token string) (string, error) {
	claims, err := security.ParseActivationToken(token, a.cfg.ActivationSecret)
	if err != nil || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func (a *AuthService) IssueSessionToken(user models.User) (string, error) {
	return security.GenerateSessionToken(a.cfg.SessionSecret, user.IDHex(), string(user.Role), a.cfg.SessionTTL)
}

func (a *AuthService) ParseSessionToken(token string) (*security.SessionClaims, error) {
	claims, err := security.ParseSessionToken(token, a.cfg.SessionSecret)
	if err != nil || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *AuthService) SessionTTL() time.Duration {
	return a.cfg.SessionTTL
}
