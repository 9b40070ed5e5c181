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

package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"smartcare-ledger-go/internal/models"

	"github.com/gowebpki/jcs"
)

type requestShape struct {
	OwnerId    string `json:"owner_id"`
	Kind       string `json:"kind"`
	Amount     int64  `json:"amount"`
	EntityId   string `json:"entity_id"`
	Transition string `json:"transition"`
}

// RequestHash is the SHA-256 of the RFC 8785 canonical JSON form of the request.
// Two deliveries of the same transition hash identically.
func RequestHash(kind models.PostingKind, entry Entry) (string, error) {
	raw, err := json.Marshal(requestShape{
		OwnerId:    entry.OwnerId,
		Kind:       string(kind),
		Amount:     entry.Amount,
		EntityId:   entry.EntityId,
		Transition: entry.Transition,
	})
	if err != nil {
		return "", err
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
