package loaders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	cserrors "github.com/credstore/credstore/internal/errors"
	"github.com/credstore/credstore/internal/secrets"
)

// FileLoader serves credentials from a YAML file parsed once at
// construction. Two document shapes are accepted:
//
//	AWS_ACCESS_KEY_ID: "AKIA..."           # flat: keys apply to any profile
//
//	default:                               # sectioned: keys grouped by profile
//	  AWS_ACCESS_KEY_ID: "AKIA..."
//	production:
//	  AWS_ACCESS_KEY_ID: "AKIA..."
//
// The requested profile's section is used whenever it is a top-level key,
// even alongside unrelated keys; an empty section yields no credentials.
// Without that key the document is flat unless some other top-level key
// names a profile, which means the requested profile is missing.
// Non-string values are stringified.
type FileLoader struct {
	values map[string]string
}

// NewFileLoader reads and parses path for the given profile. A missing file
// keeps the underlying fs error in the chain so callers can test for it
// with errors.Is.
func NewFileLoader(path string, profile secrets.Profile) (*FileLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credentials file '%s': %w", path, err)
	}

	var root map[string]interface{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, cserrors.ConfigError{
			Field:      "credentials_file",
			Value:      path,
			Message:    "file is not valid YAML",
			Suggestion: "The file must be a YAML mapping of credential keys to values",
		}
	}
	if root == nil {
		root = map[string]interface{}{}
	}

	values, err := sectionFor(root, profile)
	if err != nil {
		return nil, err
	}
	return &FileLoader{values: values}, nil
}

// NewFileLoaderFromValues builds a loader from an already-resolved map,
// used by tests and by callers that parse configuration themselves.
func NewFileLoaderFromValues(values map[string]string) *FileLoader {
	if values == nil {
		values = map[string]string{}
	}
	return &FileLoader{values: values}
}

func sectionFor(root map[string]interface{}, profile secrets.Profile) (map[string]string, error) {
	if section, ok := root[string(profile)]; ok {
		if section == nil {
			return map[string]string{}, nil
		}
		mapping, ok := section.(map[string]interface{})
		if !ok {
			return nil, cserrors.ConfigError{
				Field:      "profile",
				Value:      string(profile),
				Message:    fmt.Sprintf("profile section '%s' must be a mapping of credentials", profile),
				Suggestion: "Each profile section must map credential keys to values",
			}
		}
		return stringify(mapping), nil
	}

	for name := range root {
		if _, err := secrets.ParseProfile(name); err == nil {
			return nil, cserrors.ConfigError{
				Field:      "profile",
				Value:      string(profile),
				Message:    fmt.Sprintf("profile '%s' not found in credentials file", profile),
				Suggestion: "Add a section for the profile or select one that exists in the file",
			}
		}
	}
	return stringify(root), nil
}

func stringify(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

// Name returns the loader name.
func (l *FileLoader) Name() string {
	return "file"
}

// Contains reports whether the key was present in the parsed document.
func (l *FileLoader) Contains(key string) bool {
	_, ok := l.values[key]
	return ok
}

// Get returns the parsed value for key.
func (l *FileLoader) Get(key string) (string, bool) {
	v, ok := l.values[key]
	return v, ok
}
