// Package store persists users, projects, memberships and document
// snapshots. Postgres backs production; SQLite serves single-machine
// installs and tests.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/design/internal/typeid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

//go:embed schema/*.sql
var schemaFS embed.FS

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

type Project struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	ProjectID   string
	UserID      string
	Role        Role
	DisplayName string
	Email       string
}

type Snapshot struct {
	ID        string
	ProjectID string
	Version   int
	Document  []byte
	CreatedAt time.Time
}

// Store is implemented by Postgres and SQLite. Lookups of missing rows
// return ErrNotFound; unique violations return ErrDuplicate.
type Store interface {
	Migrate(ctx context.Context) error

	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	CreateProject(ctx context.Context, p Project) (Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]Project, error)
	DeleteProject(ctx context.Context, id string) error

	AddMember(ctx context.Context, projectID, userID string, role Role) error
	GetMember(ctx context.Context, projectID, userID string) (Member, error)
	ListMembers(ctx context.Context, projectID string) ([]Member, error)
	RemoveMember(ctx context.Context, projectID, userID string) error

	CreateSnapshot(ctx context.Context, s Snapshot) (Snapshot, error)
	LatestSnapshot(ctx context.Context, projectID string) (Snapshot, error)

	Close()
}

// SaveDocument stores doc as the next snapshot version of a project.
func SaveDocument(ctx context.Context, s Store, projectID string, doc []byte) (Snapshot, error) {
	next := 1
	latest, err := s.LatestSnapshot(ctx, projectID)
	switch {
	case err == nil:
		next = latest.Version + 1
	case !errors.Is(err, ErrNotFound):
		return Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
	}
	snap, err := s.CreateSnapshot(ctx, Snapshot{
		ID:        typeid.NewSnapshotID(),
		ProjectID: projectID,
		Version:   next,
		Document:  doc,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot: %w", err)
	}
	return snap, nil
}

func schema(name string) (string, error) {
	b, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return "", fmt.Errorf("read schema: %w", err)
	}
	return string(b), nil
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*SQLite)(nil)
)
