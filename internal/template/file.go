package template

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cv-status/internal/apperr"
	"cv-status/internal/storage"
)

// fileTemplate is one entry of a template seed file. Active defaults to true.
type fileTemplate struct {
	Name     string `yaml:"name"`
	Subject  string `yaml:"subject"`
	HTML     string `yaml:"body_html"`
	Text     string `yaml:"body_text"`
	Markdown string `yaml:"body_markdown"`
	Active   *bool  `yaml:"active"`
}

type templateFile struct {
	Templates []fileTemplate `yaml:"templates"`
}

// ParseYAML decodes a seed file of the form
//
//	templates:
//	  - name: intro
//	    subject: "Hi {{first_name}}"
//	    body_markdown: |
//	      ...
//
// and validates every entry. Names must be unique within the file.
func ParseYAML(data []byte) ([]*storage.EmailTemplate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperr.Validation("template file is empty")
	}
	var f templateFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, apperr.Validationf("decode template file: %v", err)
	}

	seen := make(map[string]bool, len(f.Templates))
	out := make([]*storage.EmailTemplate, 0, len(f.Templates))
	for i, ft := range f.Templates {
		name := strings.TrimSpace(ft.Name)
		if name == "" {
			return nil, apperr.Validationf("template %d has no name", i+1)
		}
		if seen[strings.ToLower(name)] {
			return nil, apperr.Validationf("template %q appears twice", name)
		}
		seen[strings.ToLower(name)] = true

		t := &storage.EmailTemplate{
			Name:         name,
			Subject:      ft.Subject,
			BodyHTML:     ft.HTML,
			BodyText:     ft.Text,
			BodyMarkdown: ft.Markdown,
			IsActive:     ft.Active == nil || *ft.Active,
		}
		if err := Prepare(t); err != nil {
			return nil, apperr.Validationf("template %q: %v", name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadFile reads and validates a seed file.
func LoadFile(path string) ([]*storage.EmailTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	tmpls, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tmpls, nil
}
