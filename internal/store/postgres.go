package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and pings it.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) Migrate(ctx context.Context) error {
	ddl, err := schema("postgres.sql")
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, u User) (User, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`, u.ID, u.Email, u.PasswordHash, u.DisplayName)
	if err := row.Scan(&u.CreatedAt); err != nil {
		return User{}, pgError("create user", err)
	}
	return u, nil
}

func (p *Postgres) GetUser(ctx context.Context, id string) (User, error) {
	return p.user(ctx, `WHERE id = $1`, id)
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return p.user(ctx, `WHERE email = $1`, email)
}

func (p *Postgres) user(ctx context.Context, where string, arg string) (User, error) {
	var u User
	err := p.pool.QueryRow(ctx, `SELECT id, email, password, display_name, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		return User{}, pgError("get user", err)
	}
	return u, nil
}

// CreateProject inserts the project and its owner membership in one
// transaction.
func (p *Postgres) CreateProject(ctx context.Context, pr Project) (Project, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return Project{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO projects (id, name, owner_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`, pr.ID, pr.Name, pr.OwnerID).
		Scan(&pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		return Project{}, pgError("create project", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)`, pr.ID, pr.OwnerID, string(RoleOwner))
	if err != nil {
		return Project{}, pgError("add owner as member", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Project{}, fmt.Errorf("commit: %w", err)
	}
	return pr, nil
}

func (p *Postgres) GetProject(ctx context.Context, id string) (Project, error) {
	var pr Project
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, owner_id, created_at, updated_at
		FROM projects WHERE id = $1`, id).
		Scan(&pr.ID, &pr.Name, &pr.OwnerID, &pr.CreatedAt, &pr.UpdatedAt)
	if err != nil {
		return Project{}, pgError("get project", err)
	}
	return pr, nil
}

func (p *Postgres) ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT p.id, p.name, p.owner_id, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = $1
		ORDER BY p.updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Project, error) {
		var pr Project
		err := row.Scan(&pr.ID, &pr.Name, &pr.OwnerID, &pr.CreatedAt, &pr.UpdatedAt)
		return pr, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan projects: %w", err)
	}
	return projects, nil
}

func (p *Postgres) DeleteProject(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) AddMember(ctx context.Context, projectID, userID string, role Role) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id, role)
		VALUES ($1, $2, $3)`, projectID, userID, string(role))
	if err != nil {
		return pgError("add member", err)
	}
	return nil
}

func (p *Postgres) GetMember(ctx context.Context, projectID, userID string) (Member, error) {
	var m Member
	err := p.pool.QueryRow(ctx, `
		SELECT m.project_id, m.user_id, m.role, u.display_name, u.email
		FROM project_members m JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1 AND m.user_id = $2`, projectID, userID).
		Scan(&m.ProjectID, &m.UserID, &m.Role, &m.DisplayName, &m.Email)
	if err != nil {
		return Member{}, pgError("get member", err)
	}
	return m, nil
}

func (p *Postgres) ListMembers(ctx context.Context, projectID string) ([]Member, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT m.project_id, m.user_id, m.role, u.display_name, u.email
		FROM project_members m JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY u.display_name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Member, error) {
		var m Member
		err := row.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.DisplayName, &m.Email)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan members: %w", err)
	}
	return members, nil
}

func (p *Postgres) RemoveMember(ctx context.Context, projectID, userID string) error {
	tag, err := p.pool.Exec(ctx, `
		DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateSnapshot(ctx context.Context, s Snapshot) (Snapshot, error) {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO snapshots (id, project_id, version, document)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`, s.ID, s.ProjectID, s.Version, s.Document).
		Scan(&s.CreatedAt)
	if err != nil {
		return Snapshot{}, pgError("create snapshot", err)
	}
	if _, err := p.pool.Exec(ctx, `UPDATE projects SET updated_at = now() WHERE id = $1`, s.ProjectID); err != nil {
		return Snapshot{}, fmt.Errorf("touch project: %w", err)
	}
	return s, nil
}

func (p *Postgres) LatestSnapshot(ctx context.Context, projectID string) (Snapshot, error) {
	var s Snapshot
	err := p.pool.QueryRow(ctx, `
		SELECT id, project_id, version, document, created_at
		FROM snapshots WHERE project_id = $1
		ORDER BY version DESC LIMIT 1`, projectID).
		Scan(&s.ID, &s.ProjectID, &s.Version, &s.Document, &s.CreatedAt)
	if err != nil {
		return Snapshot{}, pgError("latest snapshot", err)
	}
	return s, nil
}

// pgError maps driver errors to the package sentinels.
func pgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}
