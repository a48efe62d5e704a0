package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "design.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func seedUser(t *testing.T, s Store, id, email, name string) User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), User{ID: id, Email: email, PasswordHash: "x", DisplayName: name})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func TestSQLiteUsers(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seedUser(t, s, "user_1", "a@example.com", "Ada")

	if _, err := s.CreateUser(ctx, User{ID: "user_2", Email: "a@example.com", PasswordHash: "y", DisplayName: "Dup"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateUser() duplicate email error = %v, want ErrDuplicate", err)
	}
	got, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil || got.ID != "user_1" || got.DisplayName != "Ada" {
		t.Errorf("GetUserByEmail() = %+v, %v", got, err)
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("CreatedAt not set")
	}
	if _, err := s.GetUser(ctx, "user_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser() missing error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteProjectsAndMembers(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seedUser(t, s, "user_1", "a@example.com", "Ada")
	seedUser(t, s, "user_2", "b@example.com", "Bob")

	p, err := s.CreateProject(ctx, Project{ID: "proj_1", Name: "Poster", OwnerID: "user_1"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Errorf("CreatedAt not set")
	}
	m, err := s.GetMember(ctx, "proj_1", "user_1")
	if err != nil || m.Role != RoleOwner || m.Email != "a@example.com" {
		t.Errorf("owner membership = %+v, %v", m, err)
	}

	if err := s.AddMember(ctx, "proj_1", "user_2", RoleEditor); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if err := s.AddMember(ctx, "proj_1", "user_2", RoleEditor); !errors.Is(err, ErrDuplicate) {
		t.Errorf("AddMember() twice error = %v, want ErrDuplicate", err)
	}
	members, err := s.ListMembers(ctx, "proj_1")
	if err != nil || len(members) != 2 || members[0].DisplayName != "Ada" || members[1].DisplayName != "Bob" {
		t.Errorf("ListMembers() = %+v, %v", members, err)
	}

	projects, err := s.ListProjectsForUser(ctx, "user_2")
	if err != nil || len(projects) != 1 || projects[0].Name != "Poster" {
		t.Errorf("ListProjectsForUser() = %+v, %v", projects, err)
	}

	if err := s.RemoveMember(ctx, "proj_1", "user_2"); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if err := s.RemoveMember(ctx, "proj_1", "user_2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveMember() twice error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteProject(ctx, "proj_1"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := s.GetProject(ctx, "proj_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProject() after delete error = %v", err)
	}
	if _, err := s.GetMember(ctx, "proj_1", "user_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("membership survived project delete: %v", err)
	}
}

func TestSaveDocumentVersions(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	seedUser(t, s, "user_1", "a@example.com", "Ada")
	if _, err := s.CreateProject(ctx, Project{ID: "proj_1", Name: "P", OwnerID: "user_1"}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LatestSnapshot(ctx, "proj_1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestSnapshot() on empty project error = %v", err)
	}
	for i, doc := range []string{`{"version":1,"objects":[]}`, `{"version":1,"objects":[{"id":"obj_a"}]}`} {
		snap, err := SaveDocument(ctx, s, "proj_1", []byte(doc))
		if err != nil {
			t.Fatalf("SaveDocument() error = %v", err)
		}
		if snap.Version != i+1 {
			t.Errorf("version = %d, want %d", snap.Version, i+1)
		}
	}
	latest, err := s.LatestSnapshot(ctx, "proj_1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Version != 2 || string(latest.Document) != `{"version":1,"objects":[{"id":"obj_a"}]}` {
		t.Errorf("LatestSnapshot() = v%d %s", latest.Version, latest.Document)
	}
}
