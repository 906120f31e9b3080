package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingType is returned when a descriptor omits its type.
	ErrMissingType = errors.New("schema: field type is required")
	// ErrMissingFields is returned when a repeater or section has no nested schema.
	ErrMissingFields = errors.New("schema: container field requires nested fields")
	// ErrEmptyDocument is returned for blank schema files.
	ErrEmptyDocument = errors.New("schema: document is empty")
)

type descriptor struct {
	Type        string    `yaml:"type"`
	Label       string    `yaml:"label"`
	Description string    `yaml:"description"`
	Default     any       `yaml:"default"`
	Sanitize    string    `yaml:"sanitize"`
	Rows        int       `yaml:"rows"`
	Library     string    `yaml:"library"`
	Choose      string    `yaml:"choose"`
	Update      string    `yaml:"update"`
	ItemName    string    `yaml:"item_name"`
	Class       string    `yaml:"class"`
	Hide        bool      `yaml:"hide"`
	Options     yaml.Node `yaml:"options"`
	Fields      yaml.Node `yaml:"fields"`
}

// Decode parses a YAML or JSON schema document. The top level is a mapping of
// field identifiers to descriptors; declaration order is preserved.
func Decode(data []byte) (Schema, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmptyDocument
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, ErrEmptyDocument
		}
		node = node.Content[0]
	}
	return decodeMapping(node, "")
}

// ReadFile loads a single schema document from fsys.
func ReadFile(fsys fs.FS, name string) (Schema, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", name, err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("schema: decode %s: %w", name, err)
	}
	return s, nil
}

// LoadFS walks fsys and decodes every JSON/YAML file, keyed by file name
// without extension. Duplicate keys are rejected.
func LoadFS(fsys fs.FS) (map[string]Schema, error) {
	out := make(map[string]Schema)
	if fsys == nil {
		return out, nil
	}
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}
		key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, exists := out[key]; exists {
			return fmt.Errorf("schema: duplicate schema %q (file %s)", key, path)
		}
		s, err := ReadFile(fsys, path)
		if err != nil {
			return err
		}
		out[key] = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func decodeMapping(node *yaml.Node, parent string) (Schema, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("schema: %s: expected mapping of fields", pathOrRoot(parent))
	}
	out := make(Schema, 0, len(node.Content)/2)
	for idx := 0; idx+1 < len(node.Content); idx += 2 {
		name := strings.TrimSpace(node.Content[idx].Value)
		if name == "" {
			return nil, fmt.Errorf("schema: %s: empty field identifier", pathOrRoot(parent))
		}
		field, err := decodeField(name, node.Content[idx+1], joinPath(parent, name))
		if err != nil {
			return nil, err
		}
		out = append(out, field)
	}
	return out, nil
}

func decodeField(name string, node *yaml.Node, path string) (Field, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("schema: field %q: expected descriptor mapping", path)
	}
	var raw descriptor
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("schema: field %q: %w", path, err)
	}
	kind := Type(strings.ToLower(strings.TrimSpace(raw.Type)))
	if kind == "" {
		return nil, fmt.Errorf("schema: field %q: %w", path, ErrMissingType)
	}

	base := Base{
		Name:        name,
		Label:       raw.Label,
		Description: raw.Description,
		Default:     raw.Default,
		Sanitize:    strings.ToLower(strings.TrimSpace(raw.Sanitize)),
	}

	switch kind {
	case TypeText:
		return &TextField{Base: base}, nil
	case TypeTextarea:
		return &TextareaField{Base: base, Rows: raw.Rows}, nil
	case TypeEditor:
		return &EditorField{Base: base, Rows: raw.Rows}, nil
	case TypeColor:
		return &ColorField{Base: base}, nil
	case TypeNumber:
		return &NumberField{Base: base}, nil
	case TypeSelect:
		options, err := decodeOptions(&raw.Options, path)
		if err != nil {
			return nil, err
		}
		return &SelectField{Base: base, Options: options}, nil
	case TypeCheckbox:
		return &CheckboxField{Base: base}, nil
	case TypeMedia:
		return &MediaField{Base: base, Library: raw.Library, Choose: raw.Choose, Update: raw.Update}, nil
	case TypePosts:
		return &PostsField{Base: base}, nil
	case TypeIcon:
		return &IconField{Base: base}, nil
	case TypeRepeater, TypeSection:
		if raw.Fields.Kind == 0 {
			return nil, fmt.Errorf("schema: field %q: %w", path, ErrMissingFields)
		}
		nested, err := decodeMapping(&raw.Fields, path)
		if err != nil {
			return nil, err
		}
		if kind == TypeRepeater {
			return &RepeaterField{Base: base, ItemName: raw.ItemName, Fields: nested}, nil
		}
		return &SectionField{Base: base, Hide: raw.Hide, Fields: nested}, nil
	case TypeWidget:
		return &WidgetField{Base: base, Class: strings.TrimSpace(raw.Class), Hide: raw.Hide}, nil
	default:
		return &UnknownField{Base: base, TypeName: string(kind)}, nil
	}
}

func decodeOptions(node *yaml.Node, path string) ([]Option, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		out := make([]Option, 0, len(node.Content)/2)
		for idx := 0; idx+1 < len(node.Content); idx += 2 {
			out = append(out, Option{
				Value: node.Content[idx].Value,
				Label: node.Content[idx+1].Value,
			})
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]Option, 0, len(node.Content))
		for _, item := range node.Content {
			out = append(out, Option{Value: item.Value, Label: item.Value})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("schema: field %q: options must be a mapping or list", path)
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func pathOrRoot(path string) string {
	if path == "" {
		return "root"
	}
	return fmt.Sprintf("field %q", path)
}
