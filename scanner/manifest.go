package scanner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"smapi-profiles/mods"
)

// ManifestFile is the identity file every mod directory carries.
const ManifestFile = "manifest.json"

// Manifests have used both spellings of the id key over time.
var uniqueIDKeys = []string{"UniqueID", "UniqueId"}

var utf8BOM = []byte("\xef\xbb\xbf")

// Manifest is the subset of manifest.json this tool reads. Other fields
// are ignored.
type Manifest struct {
	Name        string `json:"Name"`
	Version     string `json:"Version"`
	Description string `json:"Description"`
	UniqueID    string `json:"-"`
}

// ParseManifest decodes manifest content, resolving the id under either
// accepted key. Name, Version and Description must be present and not null;
// an empty string is allowed.
func ParseManifest(data []byte) (Manifest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &fields); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", mods.ErrMalformedManifest, err)
	}

	var m Manifest
	required := []struct {
		key string
		dst *string
	}{
		{"Name", &m.Name},
		{"Version", &m.Version},
		{"Description", &m.Description},
	}
	for _, f := range required {
		if raw, ok := fields[f.key]; !ok || string(raw) == "null" {
			return Manifest{}, fmt.Errorf("%w: missing %s", mods.ErrMalformedManifest, f.key)
		}
		if err := decodeString(fields, f.key, f.dst); err != nil {
			return Manifest{}, err
		}
	}

	for _, key := range uniqueIDKeys {
		if err := decodeString(fields, key, &m.UniqueID); err != nil {
			return Manifest{}, err
		}
		if strings.TrimSpace(m.UniqueID) != "" {
			break
		}
	}
	m.UniqueID = strings.TrimSpace(m.UniqueID)
	if m.UniqueID == "" {
		return Manifest{}, fmt.Errorf("%w: missing %s", mods.ErrMalformedManifest, strings.Join(uniqueIDKeys, "/"))
	}
	return m, nil
}

func decodeString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %s: %v", mods.ErrMalformedManifest, key, err)
	}
	return nil
}
