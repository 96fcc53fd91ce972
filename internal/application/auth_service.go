package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
	"github.com/oksasatya/issue-tracker-api/pkg/helpers"
)

// AuthService owns registration, credentials and token issuance.
// Tokens are stateless: logout is a client-side concern.
type AuthService struct {
	Users    repo.UserRepository
	JWT      *helpers.JWTManager
	Notifier *Notifier
	Logger   logrus.FieldLogger
}

func NewAuthService(users repo.UserRepository, jwt *helpers.JWTManager, notifier *Notifier, logger logrus.FieldLogger) *AuthService {
	return &AuthService{Users: users, JWT: jwt, Notifier: notifier, Logger: logger}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthResult struct {
	User   UserView           `json:"user"`
	Tokens *helpers.TokenPair `json:"tokens"`
}

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := entity.NormalizeEmail(in.Email)
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("User with this email already exists")
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.Database(err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:     email,
		Password:  hash,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperror.Conflict("User with this email already exists")
		}
		return nil, apperror.Database(err)
	}

	res, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	s.Notifier.Welcome(ctx, u)
	return res, nil
}

// Login answers every failure with the same message so callers cannot tell
// an unknown email from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.Database(err)
		}
		// burn comparable time on unknown emails
		helpers.CompareHashAndPassword(dummyHash, password)
		return nil, apperror.Authentication(msgInvalidCredentials)
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, apperror.Authentication(msgInvalidCredentials)
	}
	return s.issue(u)
}

// dummyHash is a well-formed bcrypt hash (cost 10) that matches no password.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z5Q0Fu7ZuZ8QkJmY0G8ZQZ1e"

func (s *AuthService) issue(u *entity.User) (*AuthResult, error) {
	pair, err := s.JWT.GeneratePair(u.ID, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return nil, apperror.Internal(err)
	}
	return &AuthResult{User: NewUserView(u), Tokens: pair}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*helpers.TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Authentication("Invalid or expired refresh token")
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.Authentication("Invalid or expired refresh token")
		}
		return nil, apperror.Database(err)
	}
	res, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	return res.Tokens, nil
}

// Authenticate resolves an access token to a live user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*entity.User, error) {
	claims, err := s.JWT.ParseAccessToken(accessToken)
	if err != nil {
		return nil, apperror.Authentication("Invalid or expired token")
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.Authentication("User no longer exists")
		}
		return nil, apperror.Database(err)
	}
	return u, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*UserView, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}
	v := NewUserView(u)
	return &v, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*UserView, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, msgUserNotFound)
	}
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		email := entity.NormalizeEmail(*in.Email)
		if email != u.Email {
			other, err := s.Users.GetByEmail(ctx, email)
			if err == nil && other.ID != u.ID {
				return nil, apperror.Conflict("Email is already in use")
			}
			if err != nil && !errors.Is(err, repo.ErrNotFound) {
				return nil, apperror.Database(err)
			}
			u.Email = email
		}
	}
	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperror.Conflict("Email is already in use")
		}
		return nil, storeErr(err, msgUserNotFound)
	}
	v := NewUserView(u)
	return &v, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return storeErr(err, msgUserNotFound)
	}
	if !helpers.CompareHashAndPassword(u.Password, current) {
		return apperror.Authentication("Current password is incorrect")
	}
	if current == next {
		return apperror.Validation("New password must be different from the current password")
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	u.Password = hash
	if err := s.Users.Update(ctx, u); err != nil {
		return storeErr(err, msgUserNotFound)
	}
	return nil
}

func hashPassword(plain string) (string, error) {
	hash, err := helpers.HashPassword(plain)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return "", apperror.Validation("Password is too long").WithDetails(map[string]string{"password": "must be at most 72 bytes"})
	}
	if err != nil {
		return "", apperror.Internal(err)
	}
	return hash, nil
}
