/*
Package store implements the per-device Local Store of the sync engine.

It persists each user's session list and invitation inbox, the cached user
directory, the maintenance flag, the configured channel code, and the
typing-signal map in a single Pebble database. Every value is a whole
JSON-encoded collection under a `<collection>:<ownerUserId>` key; there
are no partial updates, callers read-modify-write entire collections.

Malformed persisted data is absorbed: a value that fails to decode is
treated as "no prior state" and logged, never propagated as an error.
*/
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/rs/zerolog"

	"nexchat/internal/app/model"
	"nexchat/internal/pkg/logx"
)

// Key prefixes and fixed keys. Per-user collections append the owner's
// user id after the colon.
const (
	keySessionsPrefix = "sessions:"
	keyInvitesPrefix  = "invites:"
	keyDirectory      = "directory"
	keyTyping         = "typing"
	keyMaintenance    = "maintenance"
	keyChannel        = "channel"
)

// Store is a Pebble-backed local persistence layer. A device opens
// exactly one Store; access is effectively sequential because every
// mutation path runs on the one logical application thread.
type Store struct {
	db     *pebble.DB
	logger zerolog.Logger
}

// Open opens (or creates) the Pebble database at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open local store at %s: %w", path, err)
	}

	s := &Store{
		db:     db,
		logger: logx.Component("store"),
	}
	s.logger.Info().Str("path", path).Msg("Local store opened")

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// getJSON decodes the value under key into dst. Missing keys and decode
// failures both leave dst untouched and report false.
func (s *Store) getJSON(key string, dst any) bool {
	value, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if !errors.Is(err, pebble.ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Local store read failed")
		}
		return false
	}
	defer closer.Close()

	if err := json.Unmarshal(value, dst); err != nil {
		// Treated as no prior state. The next save overwrites the
		// corrupt value.
		s.logger.Warn().Err(err).Str("key", key).Msg("Discarding malformed persisted value")
		return false
	}

	return true
}

// setJSON encodes v and overwrites the value under key.
func (s *Store) setJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode value for %s: %w", key, err)
	}

	if err := s.db.Set([]byte(key), raw, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}

// LoadSessions returns the persisted session list of the given user,
// seeded with the welcome chat and the default public group when either
// is missing. The seeded list is persisted before returning so that a
// subsequent raw read observes it.
func (s *Store) LoadSessions(userID string) ([]*model.ChatSession, error) {
	sessions := s.RawSessions(userID)

	if seedDefaults(&sessions) {
		if err := s.SaveSessions(userID, sessions); err != nil {
			return nil, err
		}
	}

	return sessions, nil
}

// RawSessions returns the persisted session list without seeding.
// The reconciliation loop uses this form: adoption must compare against
// exactly what is stored.
func (s *Store) RawSessions(userID string) []*model.ChatSession {
	var sessions []*model.ChatSession
	s.getJSON(keySessionsPrefix+userID, &sessions)
	return sessions
}

// SaveSessions overwrites the full session list of the given user.
func (s *Store) SaveSessions(userID string, sessions []*model.ChatSession) error {
	return s.setJSON(keySessionsPrefix+userID, sessions)
}

// LoadInvites returns the persisted invitation queue of the given user.
func (s *Store) LoadInvites(userID string) []model.Invitation {
	var invites []model.Invitation
	s.getJSON(keyInvitesPrefix+userID, &invites)
	return invites
}

// SaveInvites overwrites the full invitation queue of the given user.
func (s *Store) SaveInvites(userID string, invites []model.Invitation) error {
	return s.setJSON(keyInvitesPrefix+userID, invites)
}

// ClearInvites removes the invitation queue of the given user.
func (s *Store) ClearInvites(userID string) error {
	return s.SaveInvites(userID, []model.Invitation{})
}

// LoadDirectory returns the locally cached user directory.
func (s *Store) LoadDirectory() []model.User {
	var users []model.User
	s.getJSON(keyDirectory, &users)
	return users
}

// SaveDirectory overwrites the locally cached user directory.
func (s *Store) SaveDirectory(users []model.User) error {
	return s.setJSON(keyDirectory, users)
}

// LoadMaintenance returns the locally cached maintenance flag.
func (s *Store) LoadMaintenance() bool {
	var on bool
	s.getJSON(keyMaintenance, &on)
	return on
}

// SaveMaintenance overwrites the locally cached maintenance flag.
func (s *Store) SaveMaintenance(on bool) error {
	return s.setJSON(keyMaintenance, on)
}

// LoadChannel returns the configured channel code, or "" when the device
// runs local-only.
func (s *Store) LoadChannel() string {
	var code string
	s.getJSON(keyChannel, &code)
	return code
}

// SaveChannel overwrites the configured channel code. An empty code
// switches the device back to local-only operation.
func (s *Store) SaveChannel(code string) error {
	return s.setJSON(keyChannel, code)
}

// LoadTyping returns the typing-signal map: chat id -> user id -> last
// keystroke timestamp (Unix milliseconds).
func (s *Store) LoadTyping() map[string]map[string]int64 {
	signals := make(map[string]map[string]int64)
	s.getJSON(keyTyping, &signals)
	return signals
}

// SaveTyping overwrites the typing-signal map.
func (s *Store) SaveTyping(signals map[string]map[string]int64) error {
	return s.setJSON(keyTyping, signals)
}
