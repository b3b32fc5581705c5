package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"spielapi/internal/platform/crypto"

	"gopkg.in/yaml.v3"
)

// User is an account from the users file.
type User struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	// Password is a plain text password for local setups. It is hashed on
	// load and ignored when PasswordHash is set.
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// UserStore looks up accounts by name.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// StaticUsers is an in-memory UserStore keyed by lower-cased username.
type StaticUsers struct {
	users map[string]User
}

func NewStaticUsers(users []User) *StaticUsers {
	m := make(map[string]User, len(users))
	for _, u := range users {
		u.Roles = NormalizeRoles(u.Roles)
		m[strings.ToLower(u.Username)] = u
	}
	return &StaticUsers{users: m}
}

// LoadUsers reads a YAML users file of the form
//
//	users:
//	  - username: admin
//	    password_hash: $2a$10$...
//	    roles: [admin, mitarbeiter]
func LoadUsers(path string) (*StaticUsers, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return ParseUsers(raw)
}

func ParseUsers(raw []byte) (*StaticUsers, error) {
	var f usersFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	for i := range f.Users {
		u := &f.Users[i]
		if strings.TrimSpace(u.Username) == "" || (u.PasswordHash == "" && u.Password == "") {
			return nil, fmt.Errorf("users file entry %d: username and password or password_hash are required", i)
		}
		if u.PasswordHash == "" {
			hash, err := crypto.HashPassword(u.Password)
			if err != nil {
				return nil, fmt.Errorf("hash password of %s: %w", u.Username, err)
			}
			u.PasswordHash = hash
		}
		u.Password = ""
	}
	return NewStaticUsers(f.Users), nil
}

// FindByUsername returns nil when the user does not exist.
func (s *StaticUsers) FindByUsername(_ context.Context, username string) (*User, error) {
	u, ok := s.users[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *StaticUsers) Len() int {
	return len(s.users)
}
