package main

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/huddlechat/huddle-sdk-go/huddle"
)

type storedCredentials struct {
	Token   string           `yaml:"token"`
	Profile *huddle.Identity `yaml:"profile,omitempty"`
}

// fileStore persists the credential store to a yaml file so the token
// and cached profile survive restarts. Writes are last-write-wins, same
// as the in-memory store it wraps.
type fileStore struct {
	*huddle.MemoryCredentialStore
	path string
	log  *zerolog.Logger
}

func newFileStore(path string, log *zerolog.Logger) *fileStore {
	s := &fileStore{
		MemoryCredentialStore: huddle.NewMemoryCredentialStore(""),
		path:                  path,
		log:                   log,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var sc storedCredentials
	if err := yaml.Unmarshal(data, &sc); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable credentials file")
		return s
	}
	s.MemoryCredentialStore.SetToken(sc.Token)
	if sc.Profile != nil {
		s.MemoryCredentialStore.SetProfile(*sc.Profile)
	}
	return s
}

func (s *fileStore) SetToken(token string) {
	s.MemoryCredentialStore.SetToken(token)
	s.persist()
}

func (s *fileStore) SetProfile(p huddle.Identity) {
	s.MemoryCredentialStore.SetProfile(p)
	s.persist()
}

func (s *fileStore) Clear() {
	s.MemoryCredentialStore.Clear()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", s.path).Msg("failed to remove credentials file")
	}
}

func (s *fileStore) persist() {
	sc := storedCredentials{}
	if token, ok := s.Token(); ok {
		sc.Token = token
	}
	if p, ok := s.Profile(); ok {
		sc.Profile = &p
	}
	data, err := yaml.Marshal(sc)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to marshal credentials")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("failed to create credentials dir")
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("failed to write credentials file")
	}
}
