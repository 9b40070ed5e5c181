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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smartcare-ledger-go/internal/models"

	"gopkg.in/yaml.v2"
)

// Service is one bookable home-care service.
type Service struct {
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description" json:"description"`
	SuggestedPrice int64  `yaml:"suggested_price" json:"suggested_price,omitempty"`
}

type servicesFile struct {
	Services []Service `yaml:"services"`
}

// Catalog is an immutable, case-insensitive lookup of services.
type Catalog struct {
	services []Service
	byName   map[string]Service
}

// Default is the catalog used when no file is configured.
func Default() *Catalog {
	c, _ := New([]Service{
		{Name: "Pemeriksaan Umum", Description: "Pemeriksaan kesehatan komprehensif di rumah"},
		{Name: "Layanan Suntik", Description: "Layanan suntik vitamin dan imunisasi"},
		{Name: "Perawatan Jantung", Description: "Pemeriksaan dan monitoring kesehatan jantung"},
		{Name: "Fisioterapi", Description: "Terapi fisik dan rehabilitasi di rumah"},
	})
	return c
}

// New validates services and builds a catalog.
func New(services []Service) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Service, len(services))}
	for i, svc := range services {
		svc.Name = strings.TrimSpace(svc.Name)
		if svc.Name == "" {
			return nil, fmt.Errorf("service at index %d missing name", i)
		}
		if strings.Contains(svc.Name, " - ") {
			return nil, fmt.Errorf("service %q must not contain \" - \"", svc.Name)
		}
		if svc.SuggestedPrice < 0 {
			return nil, fmt.Errorf("service %q has negative suggested price", svc.Name)
		}
		key := strings.ToLower(svc.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate service %q", svc.Name)
		}
		c.byName[key] = svc
		c.services = append(c.services, svc)
	}
	return c, nil
}

// Load reads a YAML catalog file. A relative path is resolved against the working directory.
func Load(servicesFile string) (*Catalog, error) {
	var servicesPath string
	if filepath.IsAbs(servicesFile) {
		servicesPath = servicesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		servicesPath = filepath.Join(wd, servicesFile)
	}

	data, err := os.ReadFile(servicesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", servicesFile, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var file servicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse catalog: %w", err)
	}
	if len(file.Services) == 0 {
		return nil, fmt.Errorf("catalog has no services")
	}
	return New(file.Services)
}

// LoadOrDefault loads servicesFile, or returns Default when it is empty.
func LoadOrDefault(servicesFile string) (*Catalog, error) {
	if strings.TrimSpace(servicesFile) == "" {
		return Default(), nil
	}
	return Load(servicesFile)
}

// Services returns the services in file order.
func (c *Catalog) Services() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Lookup finds a service by name, ignoring case.
func (c *Catalog) Lookup(name string) (Service, bool) {
	svc, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return svc, ok
}

// ValidateDescription checks that the service part of an order description is in the catalog.
func (c *Catalog) ValidateDescription(description string) error {
	name := models.ServiceName(description)
	if _, ok := c.Lookup(name); !ok {
		return models.NewValidationError("description", "unknown service %q", name)
	}
	return nil
}
