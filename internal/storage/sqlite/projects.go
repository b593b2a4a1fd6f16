package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskhive/internal/models"
)

// CreateProject persists a new project inside a room. The creator is
// auto-inserted as an approved member; the role tag records whether they
// designated themselves leader.
func (s *Store) CreateProject(ctx context.Context, roomID, title, description, creator string, leader bool) (models.Project, error) {
	if strings.TrimSpace(title) == "" {
		return models.Project{}, fmt.Errorf("project title must not be empty")
	}
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return models.Project{}, err
	}

	role := models.RoleMember
	if leader {
		role = models.RoleLeader
	}

	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Project{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO projects(id, room_id, title, description, creator_email, role)
        VALUES(?, ?, ?, ?, ?, ?)`,
		id, roomID, strings.TrimSpace(title), strings.TrimSpace(description), creator, role); err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO project_members(project_id, email, status) VALUES(?, ?, ?)`,
		id, creator, models.MemberApproved); err != nil {
		return models.Project{}, fmt.Errorf("insert project member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Project{}, fmt.Errorf("commit project: %w", err)
	}

	return s.GetProject(ctx, roomID, id)
}

// GetProject fetches a project scoped to its room, with its member set.
func (s *Store) GetProject(ctx context.Context, roomID, projectID string) (models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx, `SELECT id, room_id, title, description, creator_email, role, created_at, updated_at
        FROM projects WHERE id = ? AND room_id = ?`, projectID, roomID).
		Scan(&p.ID, &p.RoomID, &p.Title, &p.Description, &p.CreatorEmail, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project: %w", ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}

	p.Members, err = s.projectMembers(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	return p, nil
}

func (s *Store) projectMembers(ctx context.Context, projectID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, status FROM project_members WHERE project_id = ? ORDER BY email`, projectID)
	if err != nil {
		return nil, fmt.Errorf("project members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.Email, &m.Status); err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListProjects returns the projects of a room ordered by creation date.
func (s *Store) ListProjects(ctx context.Context, roomID string) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM projects WHERE room_id = ? ORDER BY created_at ASC, id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	projects := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProject(ctx, roomID, id)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// AddProjectMember adds an identity to a project's member set with the given
// status. Identities already listed, whatever their status, are rejected.
func (s *Store) AddProjectMember(ctx context.Context, projectID, email string, status models.MemberStatus) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO project_members(project_id, email, status)
        VALUES(?, ?, ?) ON CONFLICT(project_id, email) DO NOTHING`, projectID, email, status)
	if err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyMember
	}
	return nil
}

// SetProjectMemberStatus promotes or rejects a listed member.
func (s *Store) SetProjectMemberStatus(ctx context.Context, projectID, email string, status models.MemberStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE project_members SET status = ? WHERE project_id = ? AND email = ?`,
		status, projectID, email)
	if err != nil {
		return fmt.Errorf("set member status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("project member: %w", ErrNotFound)
	}
	return nil
}

// RemoveProjectMember drops an identity from the member set.
func (s *Store) RemoveProjectMember(ctx context.Context, projectID, email string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = ? AND email = ?`, projectID, email)
	if err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("project member: %w", ErrNotFound)
	}
	return nil
}
