package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLite stores timestamps as Unix milliseconds.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() { s.db.Close() }

func (s *SQLite) Migrate(ctx context.Context) error {
	ddl, err := schema("sqlite.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func now() int64 { return time.Now().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func (s *SQLite) CreateUser(ctx context.Context, u User) (User, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)`, u.ID, u.Email, u.PasswordHash, u.DisplayName, ts)
	if err != nil {
		return User{}, liteError("create user", err)
	}
	u.CreatedAt = fromMillis(ts)
	return u, nil
}

func (s *SQLite) GetUser(ctx context.Context, id string) (User, error) {
	return s.user(ctx, `WHERE id = ?`, id)
}

func (s *SQLite) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.user(ctx, `WHERE email = ?`, email)
}

func (s *SQLite) user(ctx context.Context, where, arg string) (User, error) {
	var (
		u  User
		ts int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password, display_name, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &ts)
	if err != nil {
		return User{}, liteError("get user", err)
	}
	u.CreatedAt = fromMillis(ts)
	return u, nil
}

func (s *SQLite) CreateProject(ctx context.Context, p Project) (Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Project{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, p.ID, p.Name, p.OwnerID, ts, ts)
	if err != nil {
		return Project{}, liteError("create project", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES (?, ?, ?)`, p.ID, p.OwnerID, string(RoleOwner))
	if err != nil {
		return Project{}, liteError("add owner as member", err)
	}
	if err := tx.Commit(); err != nil {
		return Project{}, fmt.Errorf("commit: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = fromMillis(ts), fromMillis(ts)
	return p, nil
}

func (s *SQLite) GetProject(ctx context.Context, id string) (Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return Project{}, liteError("get project", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (Project, error) {
	var (
		p            Project
		created, upd int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &created, &upd); err != nil {
		return Project{}, err
	}
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(upd)
	return p, nil
}

func (s *SQLite) ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.owner_id, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.updated_at DESC, p.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *SQLite) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return affected(res)
}

func (s *SQLite) AddMember(ctx context.Context, projectID, userID string, role Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES (?, ?, ?)`, projectID, userID, string(role))
	if err != nil {
		return liteError("add member", err)
	}
	return nil
}

func (s *SQLite) GetMember(ctx context.Context, projectID, userID string) (Member, error) {
	var m Member
	err := s.db.QueryRowContext(ctx, `
		SELECT m.project_id, m.user_id, m.role, u.display_name, u.email
		FROM project_members m JOIN users u ON u.id = m.user_id
		WHERE m.project_id = ? AND m.user_id = ?`, projectID, userID).
		Scan(&m.ProjectID, &m.UserID, &m.Role, &m.DisplayName, &m.Email)
	if err != nil {
		return Member{}, liteError("get member", err)
	}
	return m, nil
}

func (s *SQLite) ListMembers(ctx context.Context, projectID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.project_id, m.user_id, m.role, u.display_name, u.email
		FROM project_members m JOIN users u ON u.id = m.user_id
		WHERE m.project_id = ?
		ORDER BY u.display_name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.DisplayName, &m.Email); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *SQLite) RemoveMember(ctx context.Context, projectID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return affected(res)
}

func (s *SQLite) CreateSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, project_id, version, document, created_at)
		VALUES (?, ?, ?, ?, ?)`, snap.ID, snap.ProjectID, snap.Version, snap.Document, ts)
	if err != nil {
		return Snapshot{}, liteError("create snapshot", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, ts, snap.ProjectID); err != nil {
		return Snapshot{}, fmt.Errorf("touch project: %w", err)
	}
	snap.CreatedAt = fromMillis(ts)
	return snap, nil
}

func (s *SQLite) LatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	var (
		snap Snapshot
		ts   int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, version, document, created_at
		FROM snapshots WHERE project_id = ?
		ORDER BY version DESC LIMIT 1`, projectID).
		Scan(&snap.ID, &snap.ProjectID, &snap.Version, &snap.Document, &ts)
	if err != nil {
		return Snapshot{}, liteError("latest snapshot", err)
	}
	snap.CreatedAt = fromMillis(ts)
	return snap, nil
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func liteError(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, sqlite3.CONSTRAINT_UNIQUE), errors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
