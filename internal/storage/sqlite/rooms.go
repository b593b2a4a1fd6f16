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

// CreateRoom persists a new room. The creator is inserted into the member
// set as approved; rooms have no pending state.
func (s *Store) CreateRoom(ctx context.Context, name, createdBy string) (models.Room, error) {
	if strings.TrimSpace(name) == "" {
		return models.Room{}, fmt.Errorf("room name must not be empty")
	}

	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Room{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO rooms(id, name, created_by) VALUES(?, ?, ?)`,
		id, strings.TrimSpace(name), createdBy); err != nil {
		return models.Room{}, fmt.Errorf("insert room: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO room_members(room_id, email, status) VALUES(?, ?, ?)`,
		id, createdBy, models.MemberApproved); err != nil {
		return models.Room{}, fmt.Errorf("insert room member: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Room{}, fmt.Errorf("commit room: %w", err)
	}

	return s.GetRoom(ctx, id)
}

// GetRoom fetches a room together with its normalized member set.
func (s *Store) GetRoom(ctx context.Context, id string) (models.Room, error) {
	var r models.Room
	err := s.db.QueryRowContext(ctx, `SELECT id, name, created_by, created_at, updated_at FROM rooms WHERE id = ?`, id).
		Scan(&r.ID, &r.Name, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, fmt.Errorf("room: %w", ErrNotFound)
	}
	if err != nil {
		return models.Room{}, fmt.Errorf("get room: %w", err)
	}

	r.Members, err = s.roomMembers(ctx, id)
	if err != nil {
		return models.Room{}, err
	}
	return r, nil
}

func (s *Store) roomMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, status FROM room_members WHERE room_id = ? ORDER BY email`, roomID)
	if err != nil {
		return nil, fmt.Errorf("room members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.Email, &m.Status); err != nil {
			return nil, fmt.Errorf("scan room member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListRoomsForUser returns the rooms the identity belongs to, either as a
// listed member or as creator.
func (s *Store) ListRoomsForUser(ctx context.Context, identity string) ([]models.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT r.id FROM rooms r
        LEFT JOIN room_members m ON m.room_id = r.id
        WHERE r.created_by = ? OR m.email = ?
        ORDER BY r.id`, identity, identity)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan room id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rooms := make([]models.Room, 0, len(ids))
	for _, id := range ids {
		r, err := s.GetRoom(ctx, id)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, nil
}

// RenameRoom changes the room's display name.
func (s *Store) RenameRoom(ctx context.Context, id, name string) (models.Room, error) {
	if strings.TrimSpace(name) == "" {
		return models.Room{}, fmt.Errorf("room name must not be empty")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE rooms SET name = ? WHERE id = ?`, strings.TrimSpace(name), id)
	if err != nil {
		return models.Room{}, fmt.Errorf("rename room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Room{}, err
	}
	if affected == 0 {
		return models.Room{}, fmt.Errorf("room: %w", ErrNotFound)
	}
	return s.GetRoom(ctx, id)
}

// DeleteRoom hard-deletes a room. Projects, tasks and comments beneath it go
// with it through the cascading foreign keys.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("room: %w", ErrNotFound)
	}
	return nil
}

// AddRoomMember adds an identity to a room as approved. Room joining has no
// approval step; the only guard is against duplicates.
func (s *Store) AddRoomMember(ctx context.Context, roomID, email string) error {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO room_members(room_id, email, status)
        VALUES(?, ?, ?) ON CONFLICT(room_id, email) DO NOTHING`, roomID, email, models.MemberApproved)
	if err != nil {
		return fmt.Errorf("add room member: %w", err)
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
