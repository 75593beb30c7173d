package secrets

import (
	"fmt"
	"time"
)

// Category classifies a stored secret.
type Category string

const (
	CategoryAWS      Category = "AWS"
	CategoryAzure    Category = "Azure"
	CategoryGCP      Category = "GCP"
	CategoryDatabase Category = "Database"
	CategorySSH      Category = "SSH"
	CategoryCustom   Category = "Custom"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryAWS, CategoryAzure, CategoryGCP,
	CategoryDatabase, CategorySSH, CategoryCustom,
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Profile partitions secrets by environment. Uniqueness of secret names and
// YAML import sections are both scoped by profile.
type Profile string

const (
	ProfileDefault     Profile = "default"
	ProfileDevelopment Profile = "development"
	ProfileStaging     Profile = "staging"
	ProfileProduction  Profile = "production"
)

// Profiles lists every valid profile.
var Profiles = []Profile{
	ProfileDefault, ProfileDevelopment, ProfileStaging, ProfileProduction,
}

// ParseProfile validates a profile string.
func ParseProfile(s string) (Profile, error) {
	for _, p := range Profiles {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown profile: %q", s)
}

// MaskedValue is the fixed placeholder returned in place of a secret's
// value on every read path.
const MaskedValue = "********"

// Secret is the persisted row. EncryptedValue only ever holds ciphertext;
// the plaintext exists transiently inside Create/Update/Decrypt.
type Secret struct {
	ID             string
	PrincipalID    string
	Name           string
	Key            string
	EncryptedValue string
	Category       Category
	Profile        Profile
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Masked is the read projection. It carries neither the plaintext nor the
// ciphertext.
type Masked struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Key         string    `json:"key"`
	MaskedValue string    `json:"value"`
	Category    Category  `json:"category"`
	Profile     Profile   `json:"profile"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Decrypted extends Masked with the plaintext value. It is only
// constructible through the Decrypt operation's authorization path.
type Decrypted struct {
	Masked
	Value string `json:"plaintext"`
}

func maskedFrom(s *Secret) Masked {
	return Masked{
		ID:          s.ID,
		Name:        s.Name,
		Key:         s.Key,
		MaskedValue: MaskedValue,
		Category:    s.Category,
		Profile:     s.Profile,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// CreateInput carries the fields for a new secret. Zero-value Category and
// Profile default to Custom and default.
type CreateInput struct {
	Name     string
	Key      string
	Value    string
	Category Category
	Profile  Profile
}

// Patch carries a partial update; nil fields are left unchanged. Value, when
// present, is re-encrypted.
type Patch struct {
	Name     *string
	Key      *string
	Value    *string
	Category *Category
	Profile  *Profile
}

// Filter narrows List results. Search matches case-insensitively against
// name or key.
type Filter struct {
	Category *Category
	Profile  *Profile
	Search   string
}
