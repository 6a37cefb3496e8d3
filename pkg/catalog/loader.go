package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formprompt/pkg/identity"
	"github.com/goliatone/go-formprompt/pkg/model"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

type documentFile struct {
	Categories []Entry `json:"categories" yaml:"categories"`
}

// Default returns the embedded merchant category catalog.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		return nil, fmt.Errorf("catalog: open defaults: %w", err)
	}
	return LoadFS(sub)
}

// LoadFS walks fsys and parses every JSON or YAML catalog document. Category
// codes must be unique across all files.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry)}
	if fsys == nil {
		return c, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		for _, item := range doc.Categories {
			if err := c.add(item, path); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.sort()
	return c, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("catalog: file %s is empty", source)
	}
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("catalog: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("catalog: parse %s: %w", source, err)
	}
	return doc, nil
}

func normalizeEntry(entry Entry, source string) (Entry, error) {
	code := strings.TrimSpace(entry.Code)
	if code == "" {
		return Entry{}, fmt.Errorf("catalog: %s defines a category with an empty code", source)
	}
	label := strings.TrimSpace(entry.Label)
	if label == "" {
		label = code
	}

	formID := strings.TrimSpace(entry.Form.ID)
	if formID == "" {
		formID = "form_" + code
	}

	names := make(map[string]struct{}, len(entry.Form.Fields))
	ids := make(map[string]struct{}, len(entry.Form.Fields))
	for idx, field := range entry.Form.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return Entry{}, fmt.Errorf("catalog: category %q (%s) field %d has no name", code, source, idx)
		}
		if _, exists := names[name]; exists {
			return Entry{}, fmt.Errorf("catalog: category %q (%s) defines duplicate field name %q", code, source, name)
		}
		names[name] = struct{}{}

		if field.ID == "" {
			continue
		}
		if _, exists := ids[field.ID]; exists {
			return Entry{}, fmt.Errorf("catalog: category %q (%s) defines duplicate field id %q", code, source, field.ID)
		}
		ids[field.ID] = struct{}{}
	}

	fields := identity.Allocate(nil, entry.Form.Fields)
	if fields == nil {
		fields = []model.Field{}
	}
	for i := range fields {
		fields[i].Name = strings.TrimSpace(fields[i].Name)
		if fields[i].Type == "" {
			fields[i].Type = model.FieldTypeText
		}
		if fields[i].Label == "" {
			fields[i].Label = fields[i].Name
		}
		if fields[i].Options == nil {
			fields[i].Options = []model.Option{}
		}
	}

	return Entry{
		Category: Category{Code: code, Label: label},
		Form:     model.Form{ID: formID, Fields: fields},
	}, nil
}
