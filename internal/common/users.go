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

package common

import (
	"context"
	"fmt"

	"smartcare-ledger-go/internal/store"

	"go.uber.org/zap"
)

// UserInfo represents simplified user information for command-line utilities
type UserInfo struct {
	Id    string
	Name  string
	Email string
}

// InitializeUsers returns the user with emailFilter, or every active user when
// emailFilter is empty.
func InitializeUsers(ctx context.Context, users store.UserStore, emailFilter string, logger *zap.Logger) ([]UserInfo, error) {
	var infos []UserInfo

	if emailFilter != "" {
		logger.Info("Looking up user by email", zap.String("email", emailFilter))
		user, err := users.GetUserByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		infos = append(infos, UserInfo{Id: user.Id, Name: user.Name, Email: user.Email})
	} else {
		all, err := users.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		for _, u := range all {
			infos = append(infos, UserInfo{Id: u.Id, Name: u.Name, Email: u.Email})
		}
	}

	logger.Info("Retrieved users", zap.Int("count", len(infos)))
	return infos, nil
}
