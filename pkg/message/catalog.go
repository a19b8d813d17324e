package message

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formguard/pkg/rule"
)

// Catalog maps rule names to default message text. On disk it is a YAML
// document with a top-level "messages" mapping:
//
//	messages:
//	  required: "Please fill in this field."
//	  minlength: "Use at least __min__ characters."
type Catalog map[string]string

type catalogFile struct {
	Messages map[string]string `yaml:"messages"`
}

// ParseCatalog decodes a catalog document. Keys are lower-cased and blank
// messages are dropped.
func ParseCatalog(data []byte) (Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrParseCatalog, err)
	}
	c := make(Catalog, len(f.Messages))
	for name, msg := range f.Messages {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || strings.TrimSpace(msg) == "" {
			continue
		}
		c[name] = msg
	}
	return c, nil
}

// LoadCatalog reads and parses the catalog at path.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadCatalog, path, err)
	}
	return ParseCatalog(data)
}

// Apply overrides the default messages of the registry's rules and returns
// how many rules changed.
func (c Catalog) Apply(reg *rule.Registry) int {
	if reg == nil || len(c) == 0 {
		return 0
	}
	return reg.OverrideDefaults(c)
}
