package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"eshop/internal/config"
	"eshop/internal/mail"
	"eshop/internal/models"
	"eshop/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Save(ctx context.Context, user models.User) error
	PullAddress(ctx context.Context, userID string, addressID string) error
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

type AvatarStore interface {
	Upload(ctx context.Context, dataURI string) (models.Avatar, error)
	Remove(ctx context.Context, publicID string) error
}

type Recorder interface {
	Record(userID string, action string)
}

type Notifier interface {
	Deliver(ctx context.Context, msg mail.Message) error
}

type UserService struct {
	users         UserStore
	avatars       AvatarStore
	auth          *AuthService
	recorder      Recorder
	notifier      Notifier
	activationURL string
	log           zerolog.Logger
}

func NewUserService(
	users UserStore,
	avatars AvatarStore,
	auth *AuthService,
	recorder Recorder,
	notifier Notifier,
	app config.AppConfig,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		users:         users,
		avatars:       avatars,
		auth:          auth,
		recorder:      recorder,
		notifier:      notifier,
		activationURL: app.ActivationURL,
		log:           log,
	}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Avatar   string
}

// Signup stores the account as pending and then mails the activation link.
// A mail failure is logged and leaves the account in place so the link can
// be requested again.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return models.User{}, ErrMissingField
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return models.User{}, ErrDuplicateUser
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}

	hash, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hash,
		Role:     models.UserRoleUser,
		Active:   false,
	}

	if input.Avatar != "" {
		avatar, err := s.avatars.Upload(ctx, input.Avatar)
		if err != nil {
			return models.User{}, err
		}
		user.Avatar = avatar
	}

	if err := s.users.Create(ctx, &user); err != nil {
		s.removeAvatar(ctx, user.Avatar.PublicID)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}

	s.sendActivation(ctx, user)
	s.recorder.Record(user.IDHex(), models.ActionSignedUp)
	return user, nil
}

// ResendActivation mails a fresh link to a pending account. Unknown and
// already active addresses are ignored.
func (s *UserService) ResendActivation(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingField
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.Active {
		return nil
	}

	s.sendActivation(ctx, user)
	return nil
}

func (s *UserService) sendActivation(ctx context.Context, user models.User) {
	token, err := s.auth.IssueActivationToken(user.IDHex())
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.IDHex()).Msg("issue activation token failed")
		return
	}

	msg := mail.ActivationMessage(user.Name, user.Email, mail.ActivationLink(s.activationURL, token))
	if err := s.notifier.Deliver(ctx, msg); err != nil {
		s.log.Error().Err(err).Str("user_id", user.IDHex()).Msg("deliver activation mail failed")
	}
}

// Activate marks the account active and opens a session for it.
func (s *UserService) Activate(ctx context.Context, token string) (models.User, string, error) {
	if strings.TrimSpace(token) == "" {
		return models.User{}, "", ErrInvalidToken
	}

	userID, err := s.auth.VerifyActivationToken(token)
	if err != nil {
		return models.User{}, "", err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, "", ErrInvalidToken
		}
		return models.User{}, "", err
	}

	if !user.Active {
		user.Active = true
		if err := s.users.Save(ctx, user); err != nil {
			return models.User{}, "", s.mapStoreErr(err)
		}
		s.recorder.Record(user.IDHex(), models.ActionActivated)
	}

	session, err := s.auth.IssueSessionToken(user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, session, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, "", ErrMissingField
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", err
	}

	if !s.auth.VerifyPassword(password, user.Password) {
		return models.User{}, "", ErrInvalidCredentials
	}

	session, err := s.auth.IssueSessionToken(user)
	if err != nil {
		return models.User{}, "", fmt.Errorf("issue session: %w", err)
	}

	s.recorder.Record(user.IDHex(), models.ActionLoggedIn)
	return user, session, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, s.mapStoreErr(err)
	}
	return user, nil
}

type UpdateInfoInput struct {
	Email       string
	Password    string
	PhoneNumber string
	Name        string
}

// UpdateInfo changes the profile of the session user after re-checking its
// password. Blank fields keep their stored values.
func (s *UserService) UpdateInfo(ctx context.Context, userID string, input UpdateInfoInput) (models.User, error) {
	if input.Password == "" {
		return models.User{}, ErrMissingField
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if !s.auth.VerifyPassword(input.Password, user.Password) {
		return models.User{}, ErrInvalidCredentials
	}

	if email := normalizeEmail(input.Email); email != "" && email != user.Email {
		other, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && other.ID != user.ID:
			return models.User{}, ErrDuplicateUser
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return models.User{}, err
		}
		user.Email = email
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		user.Name = name
	}
	if phone := strings.TrimSpace(input.PhoneNumber); phone != "" {
		user.PhoneNumber = phone
	}

	if err := s.users.Save(ctx, user); err != nil {
		return models.User{}, s.mapStoreErr(err)
	}
	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID string, dataURI string) (models.User, error) {
	if strings.TrimSpace(dataURI) == "" {
		return models.User{}, ErrAvatarRequired
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	previous := user.Avatar.PublicID
	avatar, err := s.avatars.Upload(ctx, dataURI)
	if err != nil {
		return models.User{}, err
	}
	user.Avatar = avatar

	if err := s.users.Save(ctx, user); err != nil {
		s.removeAvatar(ctx, avatar.PublicID)
		return models.User{}, s.mapStoreErr(err)
	}

	s.removeAvatar(ctx, previous)
	return user, nil
}

// UpsertAddress keeps at most one address per type. An address whose id
// matches an existing entry replaces it in place; anything else is appended
// with a new id.
func (s *UserService) UpsertAddress(ctx context.Context, userID string, address models.Address) (models.User, error) {
	address.AddressType = strings.TrimSpace(address.AddressType)
	if address.AddressType == "" {
		return models.User{}, ErrAddressTypeRequired
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	existing := -1
	if address.ID != "" {
		for i, a := range user.Addresses {
			if a.ID == address.ID {
				existing = i
				break
			}
		}
	}

	for _, a := range user.Addresses {
		if a.AddressType == address.AddressType && (existing < 0 || a.ID != address.ID) {
			return models.User{}, fmt.Errorf("%s %w", address.AddressType, ErrDuplicateAddressType)
		}
	}

	if existing >= 0 {
		user.Addresses[existing] = address
	} else {
		address.ID = bson.NewObjectID().Hex()
		user.Addresses = append(user.Addresses, address)
	}

	if err := s.users.Save(ctx, user); err != nil {
		return models.User{}, s.mapStoreErr(err)
	}
	return user, nil
}

// DeleteAddress removes the address if present and returns the updated user.
func (s *UserService) DeleteAddress(ctx context.Context, userID string, addressID string) (models.User, error) {
	if err := s.users.PullAddress(ctx, userID, addressID); err != nil {
		return models.User{}, s.mapStoreErr(err)
	}
	return s.GetUser(ctx, userID)
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

func (s *UserService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if !s.auth.VerifyPassword(input.OldPassword, user.Password) {
		return ErrOldPasswordIncorrect
	}
	if input.NewPassword != input.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if input.NewPassword == "" {
		return ErrMissingField
	}

	hash, err := s.auth.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = hash

	if err := s.users.Save(ctx, user); err != nil {
		return s.mapStoreErr(err)
	}

	s.recorder.Record(user.IDHex(), models.ActionChangedPassword)
	return nil
}

// GetPublic looks a user up by id without a session.
func (s *UserService) GetPublic(ctx context.Context, id string) (models.User, error) {
	return s.GetUser(ctx, id)
}

func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	s.removeAvatar(ctx, user.Avatar.PublicID)

	if err := s.users.Delete(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}

	s.recorder.Record(user.IDHex(), models.ActionDeletedByAdmin)
	return nil
}

func (s *UserService) removeAvatar(ctx context.Context, publicID string) {
	removeAvatar(ctx, s.avatars, s.log, publicID)
}

// removeAvatar deletes a stored avatar, logging instead of failing.
func removeAvatar(ctx context.Context, avatars AvatarStore, log zerolog.Logger, publicID string) {
	if publicID == "" {
		return
	}
	if err := avatars.Remove(ctx, publicID); err != nil {
		log.Warn().Err(err).Str("public_id", publicID).Msg("remove avatar failed")
	}
}

func (s *UserService) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrDuplicateUser
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
