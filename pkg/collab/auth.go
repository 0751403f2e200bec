package collab

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/akramer/linechat/pkg/crypto"
)

// UserYAML is one credential entry in the users file. Either Password
// (legacy plaintext) or PasswordHash+Salt (base64 Argon2id) must be set.
type UserYAML struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
	Salt         string `yaml:"salt,omitempty"`
}

// UsersConfig is the top-level YAML credentials file.
type UsersConfig struct {
	Users []UserYAML `yaml:"users"`
}

type credential struct {
	plaintext string // empty when hashed
	hash      []byte
	salt      []byte
}

// StaticAuthenticator verifies credentials against a fixed set loaded at
// startup. The set is immutable after construction, so Verify needs no lock.
type StaticAuthenticator struct {
	creds map[string]credential
}

var _ Authenticator = (*StaticAuthenticator)(nil)

// NewStaticAuthenticator builds an authenticator from parsed user entries.
func NewStaticAuthenticator(users []UserYAML) (*StaticAuthenticator, error) {
	creds := make(map[string]credential, len(users))
	for _, u := range users {
		if u.Username == "" {
			return nil, fmt.Errorf("collab: user entry with empty username")
		}
		if _, dup := creds[u.Username]; dup {
			return nil, fmt.Errorf("collab: duplicate credential entry for %q", u.Username)
		}

		switch {
		case u.PasswordHash != "":
			hash, err := base64.StdEncoding.DecodeString(u.PasswordHash)
			if err != nil {
				return nil, fmt.Errorf("collab: decode password hash for %q: %w", u.Username, err)
			}
			salt, err := base64.StdEncoding.DecodeString(u.Salt)
			if err != nil {
				return nil, fmt.Errorf("collab: decode salt for %q: %w", u.Username, err)
			}
			creds[u.Username] = credential{hash: hash, salt: salt}
		case u.Password != "":
			creds[u.Username] = credential{plaintext: u.Password}
		default:
			return nil, fmt.Errorf("collab: user %q has neither password nor password_hash", u.Username)
		}
	}
	return &StaticAuthenticator{creds: creds}, nil
}

// LoadAuthenticator reads a YAML credentials file and builds an authenticator.
func LoadAuthenticator(path string) (*StaticAuthenticator, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from server config
	if err != nil {
		return nil, fmt.Errorf("collab: read users file: %w", err)
	}
	var cfg UsersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("collab: parse users file: %w", err)
	}
	return NewStaticAuthenticator(cfg.Users)
}

// Verify reports whether the username/password pair matches a known
// credential. Comparison is constant-time in both storage modes.
func (a *StaticAuthenticator) Verify(username, password string) bool {
	cred, ok := a.creds[username]
	if !ok {
		return false
	}
	if cred.hash != nil {
		return crypto.VerifyPassword(password, cred.salt, cred.hash)
	}
	return subtle.ConstantTimeCompare([]byte(cred.plaintext), []byte(password)) == 1
}
