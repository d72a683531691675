package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rpattn/planledger/internal/domain"
)

// TemplateStore persists mapping templates as a JSON list on disk. A
// missing or malformed file reads as an empty store, never an error; the
// file is only written on Upsert. Concurrent writers from different
// processes are not serialized.
type TemplateStore struct {
	path string
}

// NewTemplateStore wires a store backed by the given JSON file path.
func NewTemplateStore(path string) *TemplateStore {
	return &TemplateStore{path: path}
}

// List returns every saved template, in file order.
func (s *TemplateStore) List() ([]domain.MappingTemplate, error) {
	return s.load(), nil
}

// Find looks a template up first by exact name, then by exact header
// signature. A miss returns nil, not an error.
func (s *TemplateStore) Find(name, signature string) (*domain.MappingTemplate, error) {
	templates := s.load()
	if name != "" {
		for i := range templates {
			if templates[i].Name == name {
				return &templates[i], nil
			}
		}
	}
	for i := range templates {
		if templates[i].HeaderSignature == signature {
			return &templates[i], nil
		}
	}
	return nil, nil
}

// Upsert replaces any template with the same name, or appends a new one.
// Replace-by-name means a name reused across header shapes is last-write-wins.
func (s *TemplateStore) Upsert(template domain.MappingTemplate) error {
	template.UpdatedAt = time.Now().UTC()

	templates := s.load()
	replaced := false
	for i := range templates {
		if templates[i].Name == template.Name {
			templates[i] = template
			replaced = true
			break
		}
	}
	if !replaced {
		templates = append(templates, template)
	}

	payload, err := json.MarshalIndent(templates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode template store: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write template store: %w", err)
	}
	return nil
}

func (s *TemplateStore) load() []domain.MappingTemplate {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var templates []domain.MappingTemplate
	if err := json.Unmarshal(payload, &templates); err != nil {
		return nil
	}
	return templates
}
