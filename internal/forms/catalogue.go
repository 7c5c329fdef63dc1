package forms

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	domainagg "github.com/yungbote/disaforms-backend/internal/domain/aggregates"
	"github.com/yungbote/disaforms-backend/internal/platform/logger"
)

const SchemasEnv = "FORM_SCHEMAS_YAML"

//go:embed catalogue.yaml
var catalogueFS embed.FS

type yamlCatalogue struct {
	Version int       `yaml:"version"`
	Forms   []*Schema `yaml:"forms"`
}

// Catalogue is the immutable set of form schemas known to the service.
type Catalogue struct {
	order []string
	forms map[string]*Schema
}

// LoadCatalogue reads the schema file named by path, or the embedded
// catalogue when path is empty. A broken override falls back to the
// embedded catalogue.
func LoadCatalogue(log *logger.Logger, path string) (*Catalogue, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var cat *Catalogue
			cat, err = ParseCatalogue(data)
			if err == nil {
				return cat, nil
			}
		}
		if log != nil {
			log.Warn("form schema override failed; using embedded catalogue", "path", path, "error", err)
		}
	}
	data, err := catalogueFS.ReadFile("catalogue.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

func ParseCatalogue(data []byte) (*Catalogue, error) {
	var raw yamlCatalogue
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse form catalogue: %w", err)
	}
	if len(raw.Forms) == 0 {
		return nil, errors.New("form catalogue has no forms")
	}
	return NewCatalogue(raw.Forms...)
}

func NewCatalogue(schemas ...*Schema) (*Catalogue, error) {
	cat := &Catalogue{forms: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if s == nil {
			continue
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := cat.forms[s.Type]; dup {
			return nil, fmt.Errorf("duplicate form type %q", s.Type)
		}
		cat.forms[s.Type] = s
		cat.order = append(cat.order, s.Type)
	}
	return cat, nil
}

func (c *Catalogue) Get(formType string) (*Schema, error) {
	s, ok := c.forms[strings.TrimSpace(formType)]
	if !ok {
		return nil, domainagg.NotFound("forms.get", fmt.Sprintf("unknown form type %q", formType))
	}
	return s, nil
}

func (c *Catalogue) All() []*Schema {
	out := make([]*Schema, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.forms[t])
	}
	return out
}
