package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profile is one named set of connection defaults for the fleet CLI.
type Profile struct {
	Host      string `yaml:"host,omitempty" json:"host,omitempty"`
	Token     string `yaml:"token,omitempty" json:"token,omitempty"`
	Output    string `yaml:"output,omitempty" json:"output,omitempty"`
	SchemaDir string `yaml:"schema_dir,omitempty" json:"schema_dir,omitempty"`
}

// Profiles is the on-disk profile file. FLEET_CONFIG overrides its location,
// which otherwise is ~/.fleet/profiles.yaml.
type Profiles struct {
	Current string             `yaml:"current,omitempty" json:"current,omitempty"`
	Entries map[string]Profile `yaml:"profiles" json:"profiles"`
}

func profilesPath() string {
	if p := os.Getenv("FLEET_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".fleet", "profiles.yaml")
	}
	return filepath.Join(home, ".fleet", "profiles.yaml")
}

// LoadProfiles reads the profile file. A missing file yields an empty set.
func LoadProfiles() (*Profiles, error) {
	ps := &Profiles{Entries: map[string]Profile{}}
	data, err := os.ReadFile(profilesPath())
	if errors.Is(err, fs.ErrNotExist) {
		return ps, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	if err := yaml.Unmarshal(data, ps); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", profilesPath(), err)
	}
	if ps.Entries == nil {
		ps.Entries = map[string]Profile{}
	}
	return ps, nil
}

// Save writes the profile file with owner-only permissions.
func (ps *Profiles) Save() error {
	path := profilesPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	data, err := yaml.Marshal(ps)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Active returns the named profile, or the current one when name is empty.
// Unknown names resolve to the zero Profile.
func (ps *Profiles) Active(name string) Profile {
	if name == "" {
		name = ps.Current
	}
	return ps.Entries[name]
}

// Names returns the profile names in sorted order.
func (ps *Profiles) Names() []string {
	names := make([]string, 0, len(ps.Entries))
	for n := range ps.Entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Remove deletes a profile. Removing the current profile clears Current.
func (ps *Profiles) Remove(name string) error {
	if _, ok := ps.Entries[name]; !ok {
		return fmt.Errorf("profile %q not found", name)
	}
	delete(ps.Entries, name)
	if ps.Current == name {
		ps.Current = ""
	}
	return nil
}

// maskToken hides all but the last four characters of a token.
func maskToken(tok string) string {
	switch {
	case tok == "":
		return ""
	case len(tok) <= 8:
		return "****"
	default:
		return "****" + tok[len(tok)-4:]
	}
}
