package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/auth"
	"github.com/satheeshds/invoicehub/models"
)

// RegisterUser creates a user with a hashed password. Usernames and emails
// are unique.
func (s *Service) RegisterUser(ctx context.Context, in models.UserInput) (models.User, error) {
	if msg := in.Validate(); msg != "" {
		return models.User{}, validation(msg)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.stamp()
	u := models.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Lastname:     in.Lastname,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.WithTx(ctx, func(q Querier) error {
		existing, err := q.FindUserByLogin(ctx, in.Username, in.Email)
		switch {
		case err == nil:
			if existing.Username == in.Username {
				return validation("username already exists")
			}
			return validation("email already exists")
		case !errors.Is(err, ErrNotFound):
			return err
		}
		return q.CreateUser(ctx, u)
	})
	if err != nil {
		return models.User{}, err
	}
	s.log.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// Authenticate returns the user matching username and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, forbidden("incorrect username or password")
		}
		return models.User{}, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return models.User{}, forbidden("incorrect username or password")
	}
	return u, nil
}

// User returns the user with the given id.
func (s *Service) User(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return u, lookup(err, "user not found")
	}
	return u, nil
}

// ListUsers returns every user other than actor.
func (s *Service) ListUsers(ctx context.Context, actor uuid.UUID) ([]models.User, error) {
	return s.store.ListUsers(ctx, actor)
}

// SearchUsers finds other users whose username contains term. term must be
// at least two characters long.
func (s *Service) SearchUsers(ctx context.Context, actor uuid.UUID, term string) ([]models.User, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < 2 {
		return nil, validation("search string must be at least 2 characters long")
	}
	return s.store.SearchUsers(ctx, term, actor)
}
