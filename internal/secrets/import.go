package secrets

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/credstore/credstore/internal/audit"
	"github.com/credstore/credstore/internal/db"
	"github.com/credstore/credstore/internal/metrics"
)

// ImportResult summarizes a YAML import: rows created, rows updated in
// place, and rows skipped with their error strings.
type ImportResult struct {
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

func (r *ImportResult) fail(format string, args ...interface{}) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	metrics.RecordImportRow("failed")
}

// ImportYAML upserts credentials from a profile-sectioned YAML document:
//
//	default:
//	  AWS_ACCESS_KEY_ID: "AKIA..."
//	production:
//	  AWS_ACCESS_KEY_ID: "AKIA..."
//
// An unparseable document or a non-mapping root fails wholesale with
// ImportError. Everything else is per-row: unknown profile names,
// non-mapping sections and non-string values are counted as failed and the
// import continues. Rows are keyed by (principal, name, profile), so
// re-running the same document updates in place and never duplicates.
func (s *Service) ImportYAML(ctx context.Context, q db.Querier, principalID, document, origin string) (ImportResult, error) {
	var root map[string]yaml.Node
	if err := yaml.Unmarshal([]byte(document), &root); err != nil {
		return ImportResult{}, ImportError{Reason: "invalid YAML format", Err: err}
	}
	if root == nil {
		return ImportResult{}, ImportError{Reason: "document must be a mapping of profile sections"}
	}

	var result ImportResult
	for profileName, section := range root {
		profile, err := ParseProfile(profileName)
		if err != nil {
			result.fail("invalid profile name: %s", profileName)
			continue
		}

		var credentials map[string]yaml.Node
		if err := section.Decode(&credentials); err != nil {
			result.fail("profile '%s' must contain a mapping of credentials", profileName)
			continue
		}

		for key, node := range credentials {
			var value string
			if node.Kind != yaml.ScalarNode || node.Tag != "!!str" {
				result.fail("value for '%s' in profile '%s' must be a string", key, profileName)
				continue
			}
			if err := node.Decode(&value); err != nil {
				result.fail("value for '%s' in profile '%s' must be a string", key, profileName)
				continue
			}

			if err := s.importRow(ctx, q, principalID, key, value, profile, origin, &result); err != nil {
				result.fail("failed to import '%s' in profile '%s': %v", key, profileName, err)
			}
		}
	}

	s.logger.Debug("yaml import: imported=%d updated=%d failed=%d",
		result.Imported, result.Updated, result.Failed)
	return result, nil
}

func (s *Service) importRow(ctx context.Context, q db.Querier, principalID, key, value string, profile Profile, origin string, result *ImportResult) error {
	existing, err := s.store.FindByNameProfile(ctx, q, principalID, key, profile)
	if err != nil {
		return err
	}

	if existing != nil {
		ciphertext, err := s.engine.Encrypt(value)
		if err != nil {
			return err
		}
		existing.EncryptedValue = ciphertext
		existing.UpdatedAt = s.now().UTC()
		if err := s.store.Update(ctx, q, existing); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, q, principalID, audit.ActionUpdate, existing.ID, origin); err != nil {
			return err
		}
		result.Updated++
		metrics.RecordImportRow("updated")
		return nil
	}

	// The credential key serves as both display name and key for imported
	// rows; category defaults to custom.
	_, err = s.Create(ctx, q, principalID, CreateInput{
		Name:     key,
		Key:      key,
		Value:    value,
		Category: CategoryCustom,
		Profile:  profile,
	}, origin)
	if err != nil {
		return err
	}
	result.Imported++
	metrics.RecordImportRow("imported")
	return nil
}
