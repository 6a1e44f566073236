package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdash/task-dashboard-api/internal/core/password"
	"github.com/taskdash/task-dashboard-api/internal/core/ports"
)

// placeholderPassword replaces legacy digests during migration. The original
// plaintext cannot be recovered from a one-way hash, so affected users end up
// with this password and must reset it. The summary makes that visible.
const placeholderPassword = "temporary_password"

// MigrationState tracks the migrator's single-shot lifecycle.
type MigrationState string

const (
	MigrationNotStarted MigrationState = "not_started"
	MigrationRunning    MigrationState = "running"
	MigrationCompleted  MigrationState = "completed"
)

// MigrationSummary reports what a migration run did. ResetUsers lists every
// identity whose password was destructively replaced with the placeholder.
type MigrationSummary struct {
	Examined      int
	Migrated      int
	SkippedModern int
	ResetUsers    []string
}

// PasswordMigrator upgrades legacy "<salt>$<hex>" digests to bcrypt. The
// operation is idempotent: identities whose digest already carries a modern
// marker are skipped, so a second run migrates nothing.
type PasswordMigrator struct {
	repo   ports.UserRepository
	hasher *password.Hasher
	log    zerolog.Logger

	mu    sync.Mutex
	state MigrationState
}

func NewPasswordMigrator(repo ports.UserRepository, hasher *password.Hasher, log zerolog.Logger) *PasswordMigrator {
	return &PasswordMigrator{repo: repo, hasher: hasher, log: log, state: MigrationNotStarted}
}

// State returns the migrator's current lifecycle state.
func (m *PasswordMigrator) State() MigrationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Migrate scans every identity and replaces legacy digests with a bcrypt hash
// of the placeholder password. Returns an error if a run is already in
// progress.
func (m *PasswordMigrator) Migrate(ctx context.Context) (*MigrationSummary, error) {
	m.mu.Lock()
	if m.state == MigrationRunning {
		m.mu.Unlock()
		return nil, fmt.Errorf("password migration: already running")
	}
	m.state = MigrationRunning
	m.mu.Unlock()

	summary := &MigrationSummary{}

	users, err := m.repo.All(ctx)
	if err != nil {
		m.setState(MigrationNotStarted)
		return nil, fmt.Errorf("password migration: list users: %w", err)
	}

	for _, user := range users {
		summary.Examined++

		if password.IsModern(user.PasswordHash) {
			summary.SkippedModern++
			continue
		}
		if !password.IsLegacy(user.PasswordHash) {
			// Neither format. Leave it alone; Verify will flag it.
			m.log.Warn().Str("username", user.Username).Msg("digest matches no known format, skipping")
			continue
		}

		digest, err := m.hasher.Hash(placeholderPassword)
		if err != nil {
			m.setState(MigrationNotStarted)
			return summary, fmt.Errorf("password migration: hash placeholder: %w", err)
		}
		if err := m.repo.UpdatePasswordHash(ctx, user.ID, digest, time.Now().UTC()); err != nil {
			m.setState(MigrationNotStarted)
			return summary, fmt.Errorf("password migration: update %s: %w", user.Username, err)
		}

		summary.Migrated++
		summary.ResetUsers = append(summary.ResetUsers, user.Username)
		m.log.Info().Str("username", user.Username).Msg("legacy digest replaced, password reset to placeholder")
	}

	m.setState(MigrationCompleted)
	m.log.Info().
		Int("examined", summary.Examined).
		Int("migrated", summary.Migrated).
		Int("skipped_modern", summary.SkippedModern).
		Msg("password migration finished")

	return summary, nil
}

// Verify rescans all identities and returns the usernames whose digest is
// still not in the modern format. A non-empty result after Migrate signals a
// bug, not a recoverable condition.
func (m *PasswordMigrator) Verify(ctx context.Context) ([]string, error) {
	users, err := m.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("password migration verify: list users: %w", err)
	}

	var stale []string
	for _, user := range users {
		if !password.IsModern(user.PasswordHash) {
			stale = append(stale, user.Username)
		}
	}
	return stale, nil
}

func (m *PasswordMigrator) setState(s MigrationState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
