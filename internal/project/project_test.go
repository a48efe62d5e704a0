package project

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inamate/design/internal/auth"
	"github.com/inamate/design/internal/document"
	"github.com/inamate/design/internal/store"
)

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "project.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(st.Close)
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, u := range []store.User{
		{ID: "user_owner", Email: "owner@example.com", PasswordHash: "x", DisplayName: "Owner"},
		{ID: "user_guest", Email: "guest@example.com", PasswordHash: "x", DisplayName: "Guest"},
	} {
		if _, err := st.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	}
	return NewService(st), st
}

func TestCreateSeedsEmptyDocument(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)

	p, err := s.Create(ctx, "Poster", "user_owner")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(p.ID, "proj_") || p.OwnerID != "user_owner" {
		t.Errorf("Create() = %+v", p)
	}

	raw, err := s.Document(ctx, p.ID, "user_owner")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	doc, err := document.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(doc.Objects) != 0 || doc.Version != document.FormatVersion {
		t.Errorf("seeded document = %+v", doc)
	}

	if _, err := s.Document(ctx, p.ID, "user_guest"); !errors.Is(err, ErrNotMember) {
		t.Errorf("Document() for non-member error = %v, want ErrNotMember", err)
	}
}

func TestSaveDocument(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	p, err := s.Create(ctx, "Poster", "user_owner")
	if err != nil {
		t.Fatal(err)
	}

	sample, err := document.NewSampleDocument().Encode()
	if err != nil {
		t.Fatal(err)
	}
	v, err := s.SaveDocument(ctx, p.ID, "user_owner", sample)
	if err != nil || v != 2 {
		t.Fatalf("SaveDocument() = %d, %v; want version 2", v, err)
	}
	got, err := s.Document(ctx, p.ID, "user_owner")
	if err != nil || string(got) != string(sample) {
		t.Errorf("Document() after save differs: %v", err)
	}

	if _, err := s.SaveDocument(ctx, p.ID, "user_owner", []byte("{")); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("SaveDocument() malformed error = %v, want ErrInvalidDocument", err)
	}
	if _, err := s.SaveDocument(ctx, p.ID, "user_guest", sample); !errors.Is(err, ErrNotMember) {
		t.Errorf("SaveDocument() non-member error = %v, want ErrNotMember", err)
	}
}

func TestMembership(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	p, err := s.Create(ctx, "Poster", "user_owner")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{"guest cannot invite", func() error { return s.InviteByEmail(ctx, p.ID, "user_guest", "owner@example.com") }, ErrForbidden},
		{"unknown invitee", func() error { return s.InviteByEmail(ctx, p.ID, "user_owner", "nobody@example.com") }, ErrUserNotFound},
		{"invite guest", func() error { return s.InviteByEmail(ctx, p.ID, "user_owner", "guest@example.com") }, nil},
		{"invite twice", func() error { return s.InviteByEmail(ctx, p.ID, "user_owner", "guest@example.com") }, ErrAlreadyMember},
		{"remove owner", func() error { return s.RemoveMember(ctx, p.ID, "user_owner", "user_owner") }, ErrCannotRemoveOwner},
		{"guest cannot delete", func() error { return s.Delete(ctx, p.ID, "user_guest") }, ErrForbidden},
		{"missing project", func() error { return s.Delete(ctx, "proj_missing", "user_owner") }, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	members, err := s.ListMembers(ctx, p.ID, "user_guest")
	if err != nil || len(members) != 2 {
		t.Fatalf("ListMembers() = %+v, %v", members, err)
	}
	list, err := s.List(ctx, "user_guest")
	if err != nil || len(list) != 1 || list[0].ID != p.ID {
		t.Errorf("List() = %+v, %v", list, err)
	}

	if err := s.RemoveMember(ctx, p.ID, "user_owner", "user_guest"); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if _, err := s.Get(ctx, p.ID, "user_guest"); !errors.Is(err, ErrNotMember) {
		t.Errorf("Get() after removal error = %v", err)
	}
	if err := s.Delete(ctx, p.ID, "user_owner"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestDocumentHandlers(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t)
	h := NewHandler(s)
	p, err := s.Create(ctx, "Poster", "user_owner")
	if err != nil {
		t.Fatal(err)
	}

	do := func(method, user, body string, fn http.HandlerFunc) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/projects/"+p.ID+"/document", strings.NewReader(body))
		req = mux.SetURLVars(req, map[string]string{"projectId": p.ID})
		req = req.WithContext(auth.WithUserID(req.Context(), user))
		rec := httptest.NewRecorder()
		fn(rec, req)
		return rec
	}

	tests := []struct {
		name   string
		method string
		user   string
		body   string
		fn     http.HandlerFunc
		want   int
	}{
		{"get", http.MethodGet, "user_owner", "", h.GetDocument, http.StatusOK},
		{"get non-member", http.MethodGet, "user_guest", "", h.GetDocument, http.StatusForbidden},
		{"put", http.MethodPut, "user_owner", `{"version":1,"objects":[]}`, h.PutDocument, http.StatusOK},
		{"put malformed", http.MethodPut, "user_owner", `[`, h.PutDocument, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.method, tt.user, tt.body, tt.fn)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}
