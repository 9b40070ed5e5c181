/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package accounts

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"smartcare-ledger-go/internal/models"
	"smartcare-ledger-go/internal/store"
	"smartcare-ledger-go/internal/wallet"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Registration is the sign-up form. Every field is required.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// ProfileUpdate replaces the editable profile fields. Every field is required.
type ProfileUpdate struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Service manages customer accounts. Credentials are stored and compared as
// plain attributes.
type Service struct {
	users   store.UserStore
	wallets *wallet.Service
}

func NewService(users store.UserStore, wallets *wallet.Service) *Service {
	return &Service{users: users, wallets: wallets}
}

// Register creates a customer with an empty wallet.
func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Address = strings.TrimSpace(reg.Address)
	reg.Phone = strings.TrimSpace(reg.Phone)

	if err := validateName(reg.Name); err != nil {
		return nil, err
	}
	if err := validateEmail(reg.Email); err != nil {
		return nil, err
	}
	if reg.Password == "" {
		return nil, models.NewValidationError("password", "is required")
	}
	if err := validateContact(reg.Address, reg.Phone); err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Id:       uuid.New().String(),
		Name:     reg.Name,
		Email:    reg.Email,
		Password: reg.Password,
		Address:  reg.Address,
		Phone:    reg.Phone,
		Role:     models.RoleCustomer,
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return nil, models.NewValidationError("email", "%s is already registered", reg.Email)
		}
		return nil, models.StoreUnavailable("create user", err)
	}
	return user, nil
}

// Login returns the customer whose email and password match.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, models.StoreUnavailable("get user", err)
	}
	if user.Password != password || user.Role != models.RoleCustomer {
		zap.L().Info("Login rejected", zap.String("user_id", user.Id))
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// Profile returns the user with a snapshot of their wallet.
func (s *Service) Profile(ctx context.Context, ownerId string) (*models.Profile, error) {
	user, err := s.user(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.wallets.Snapshot(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: *user, Wallet: *snapshot}, nil
}

// UpdateProfile replaces the editable profile fields of ownerId.
func (s *Service) UpdateProfile(ctx context.Context, ownerId string, update ProfileUpdate) (*models.Profile, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Email = strings.ToLower(strings.TrimSpace(update.Email))
	update.Address = strings.TrimSpace(update.Address)
	update.Phone = strings.TrimSpace(update.Phone)

	if err := validateName(update.Name); err != nil {
		return nil, err
	}
	if err := validateEmail(update.Email); err != nil {
		return nil, err
	}
	if err := validateContact(update.Address, update.Phone); err != nil {
		return nil, err
	}

	user, err := s.user(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	user.Name = update.Name
	user.Email = update.Email
	user.Address = update.Address
	user.Phone = update.Phone

	if err := s.users.UpdateUser(ctx, *user); err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			return nil, models.NewValidationError("email", "%s is already registered", update.Email)
		case errors.Is(err, store.ErrUserNotFound):
			return nil, err
		}
		return nil, models.StoreUnavailable("update user", err)
	}

	zap.L().Info("Profile updated", zap.String("user_id", ownerId))
	return s.Profile(ctx, ownerId)
}

func (s *Service) user(ctx context.Context, ownerId string) (*models.User, error) {
	user, err := s.users.GetUserById(ctx, ownerId)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		return nil, models.StoreUnavailable("get user", err)
	}
	return user, nil
}

func validateEmail(email string) error {
	if email == "" {
		return models.NewValidationError("email", "cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return models.NewValidationError("email", "invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return models.NewValidationError("name", "cannot be empty")
	}
	if len(name) < 2 {
		return models.NewValidationError("name", "must be at least 2 characters")
	}
	return nil
}

func validateContact(address, phone string) error {
	if address == "" {
		return models.NewValidationError("address", "cannot be empty")
	}
	if phone == "" {
		return models.NewValidationError("phone", "cannot be empty")
	}
	return nil
}
