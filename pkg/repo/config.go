package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Identity is the author/committer identity used when creating commits.
type Identity struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type configFile struct {
	User Identity `toml:"user"`
}

const (
	defaultAuthorName  = "grit"
	defaultAuthorEmail = "grit@localhost"
)

func (r *Repo) configPath() string {
	return filepath.Join(r.GitDir, "config.toml")
}

// LoadIdentity resolves the commit identity.
//
// Resolution order:
//  1. [user] section of .git/config.toml
//  2. GRIT_AUTHOR_NAME / GRIT_AUTHOR_EMAIL environment variables
//  3. a fixed fallback identity
func (r *Repo) LoadIdentity() (Identity, error) {
	var cfg configFile
	if _, err := toml.DecodeFile(r.configPath(), &cfg); err != nil && !os.IsNotExist(err) {
		return Identity{}, fmt.Errorf("read config: %w", err)
	}

	ident := cfg.User
	if ident.Name == "" {
		ident.Name = strings.TrimSpace(os.Getenv("GRIT_AUTHOR_NAME"))
	}
	if ident.Email == "" {
		ident.Email = strings.TrimSpace(os.Getenv("GRIT_AUTHOR_EMAIL"))
	}
	if ident.Name == "" {
		ident.Name = defaultAuthorName
	}
	if ident.Email == "" {
		ident.Email = defaultAuthorEmail
	}
	return ident, nil
}

// SetIdentity writes the [user] section of .git/config.toml atomically.
func (r *Repo) SetIdentity(ident Identity) error {
	if strings.TrimSpace(ident.Name) == "" {
		return fmt.Errorf("set identity: name is required")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(configFile{User: ident}); err != nil {
		return fmt.Errorf("set identity: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.GitDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("set identity: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("set identity: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("set identity: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("set identity: rename: %w", err)
	}
	return nil
}
