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

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"smartcare-ledger-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Len(t, c.Services(), 4)

	svc, ok := c.Lookup("fisioterapi")
	require.True(t, ok)
	assert.Equal(t, "Fisioterapi", svc.Name)

	assert.NoError(t, c.ValidateDescription("Layanan Suntik - vitamin C"))
	assert.ErrorIs(t, c.ValidateDescription("Operasi Besar - darurat"), models.ErrValidation)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.yaml")
	data := []byte(`services:
  - name: Pemeriksaan Umum
    description: Cek kesehatan di rumah
    suggested_price: 150000
  - name: Perawatan Luka
    suggested_price: 90000
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Services(), 2)

	svc, ok := c.Lookup("Perawatan Luka")
	require.True(t, ok)
	assert.Equal(t, int64(90_000), svc.SuggestedPrice)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":          "services: []\n",
		"missing name":   "services:\n  - description: x\n",
		"duplicate":      "services:\n  - name: A\n  - name: a\n",
		"separator":      "services:\n  - name: A - B\n",
		"negative price": "services:\n  - name: A\n    suggested_price: -1\n",
		"not yaml":       "services: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	c, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Len(t, c.Services(), 4)

	_, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
