package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/store"
	"github.com/inamate/design/internal/typeid"
)

var (
	ErrNotFound          = errors.New("project not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotMember         = errors.New("not a project member")
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyMember     = errors.New("user is already a member")
	ErrCannotRemoveOwner = errors.New("cannot remove project owner")
	ErrInvalidDocument   = errors.New("invalid document")
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Create makes a project owned by ownerID and seeds it with an empty
// document as version 1.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	p, err := s.store.CreateProject(ctx, store.Project{
		ID:      typeid.NewProjectID(),
		Name:    name,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	empty, err := document.New().Encode()
	if err != nil {
		return nil, fmt.Errorf("encode empty document: %w", err)
	}
	if _, err := store.SaveDocument(ctx, s.store, p.ID, empty); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return toProject(p), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}
	p, err := s.project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return toProject(p), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	stored, err := s.store.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, len(stored))
	for i, p := range stored {
		projects[i] = *toProject(p)
	}
	return projects, nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if _, err := s.owned(ctx, projectID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (s *Service) InviteByEmail(ctx context.Context, projectID, ownerID, inviteeEmail string) error {
	if _, err := s.owned(ctx, projectID, ownerID); err != nil {
		return err
	}

	invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.store.AddMember(ctx, projectID, invitee.ID, store.RoleEditor); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, projectID, userID string) ([]Member, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	stored, err := s.store.ListMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]Member, len(stored))
	for i, m := range stored {
		members[i] = Member{
			UserID:      m.UserID,
			Role:        string(m.Role),
			DisplayName: m.DisplayName,
			Email:       m.Email,
		}
	}
	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, projectID, ownerID, targetUserID string) error {
	if _, err := s.owned(ctx, projectID, ownerID); err != nil {
		return err
	}
	if targetUserID == ownerID {
		return ErrCannotRemoveOwner
	}
	if err := s.store.RemoveMember(ctx, projectID, targetUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// Document returns the latest saved document of a project the user
// belongs to.
func (s *Service) Document(ctx context.Context, projectID, userID string) ([]byte, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.LatestSnapshot(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return document.New().Encode()
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap.Document, nil
}

// SaveDocument validates doc and stores it as a new version.
func (s *Service) SaveDocument(ctx context.Context, projectID, userID string, doc []byte) (int, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return 0, err
	}
	if _, err := document.Decode(doc); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return s.Persist(ctx, projectID, doc)
}

// Persist stores doc without a membership check. The session hub uses it
// for autosave after the connection was already authorized.
func (s *Service) Persist(ctx context.Context, projectID string, doc []byte) (int, error) {
	snap, err := store.SaveDocument(ctx, s.store, projectID, doc)
	if err != nil {
		return 0, err
	}
	return snap.Version, nil
}

func (s *Service) project(ctx context.Context, projectID string) (store.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Project{}, ErrNotFound
		}
		return store.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *Service) owned(ctx context.Context, projectID, userID string) (store.Project, error) {
	p, err := s.project(ctx, projectID)
	if err != nil {
		return store.Project{}, err
	}
	if p.OwnerID != userID {
		return store.Project{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) checkMembership(ctx context.Context, projectID, userID string) error {
	_, err := s.store.GetMember(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotMember
		}
		return fmt.Errorf("check membership: %w", err)
	}
	return nil
}

func toProject(p store.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
