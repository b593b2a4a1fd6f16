package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhive/internal/models"
	"taskhive/internal/workflow"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoomLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "  Design Crew ", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Design Crew", room.Name)
	assert.Equal(t, "a@x.com", room.CreatedBy)
	// The creator lands in the member set as approved.
	require.Len(t, room.Members, 1)
	assert.Equal(t, models.MemberApproved, room.Members[0].Status)

	renamed, err := s.RenameRoom(ctx, room.ID, "Design Guild")
	require.NoError(t, err)
	assert.Equal(t, "Design Guild", renamed.Name)

	require.NoError(t, s.AddRoomMember(ctx, room.ID, "b@x.com"))
	assert.ErrorIs(t, s.AddRoomMember(ctx, room.ID, "b@x.com"), ErrAlreadyMember)

	rooms, err := s.ListRoomsForUser(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	rooms, err = s.ListRoomsForUser(ctx, "stranger@x.com")
	require.NoError(t, err)
	assert.Empty(t, rooms)

	require.NoError(t, s.DeleteRoom(ctx, room.ID))
	_, err = s.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRoom_EmptyName(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateRoom(context.Background(), "   ", "a@x.com")
	assert.Error(t, err)
}

func TestProjectMembershipFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "Room", "lead@x.com")
	require.NoError(t, err)

	project, err := s.CreateProject(ctx, room.ID, "Rollout", "ship it", "lead@x.com", true)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLeader, project.Role)
	require.Len(t, project.Members, 1)
	assert.Equal(t, models.MemberApproved, project.Members[0].Status)

	// New members always start pending.
	require.NoError(t, s.AddProjectMember(ctx, project.ID, "dev@x.com", models.MemberPending))
	assert.ErrorIs(t, s.AddProjectMember(ctx, project.ID, "dev@x.com", models.MemberPending), ErrAlreadyMember)

	project, err = s.GetProject(ctx, room.ID, project.ID)
	require.NoError(t, err)
	require.Len(t, project.Members, 2)

	require.NoError(t, s.SetProjectMemberStatus(ctx, project.ID, "dev@x.com", models.MemberApproved))
	project, err = s.GetProject(ctx, room.ID, project.ID)
	require.NoError(t, err)
	for _, m := range project.Members {
		assert.Equal(t, models.MemberApproved, m.Status)
	}

	require.NoError(t, s.RemoveProjectMember(ctx, project.ID, "dev@x.com"))
	assert.ErrorIs(t, s.RemoveProjectMember(ctx, project.ID, "dev@x.com"), ErrNotFound)
}

func TestGetProject_ScopedToRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room1, err := s.CreateRoom(ctx, "One", "a@x.com")
	require.NoError(t, err)
	room2, err := s.CreateRoom(ctx, "Two", "a@x.com")
	require.NoError(t, err)

	project, err := s.CreateProject(ctx, room1.ID, "P", "", "a@x.com", false)
	require.NoError(t, err)

	_, err = s.GetProject(ctx, room2.ID, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "Room", "a@x.com")
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, room.ID, "P", "", "a@x.com", true)
	require.NoError(t, err)

	task, err := s.CreateTask(ctx, models.Task{
		ProjectID:  project.ID,
		RoomID:     room.ID,
		Title:      "Write docs",
		DueDate:    "2024-06-14",
		Priority:   "bogus",
		AssignedTo: "a@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPriority, task.Priority, "unknown priority falls back")
	assert.Equal(t, workflow.StatusNotStarted, task.Status)

	updated, err := s.UpdateTask(ctx, project.ID, task.ID, map[string]any{
		"description": "public draft",
		"priority":    "High",
		"assigned_to": "a@x.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "public draft", updated.Description)
	assert.Equal(t, "High", updated.Priority)

	moved, err := s.SetTaskStatus(ctx, project.ID, task.ID, workflow.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, moved.Status)

	require.NoError(t, s.DeleteTask(ctx, project.ID, task.ID))
	_, err = s.GetTask(ctx, project.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetTaskStatus_NormalizesLegacyDone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "Room", "a@x.com")
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, room.ID, "P", "", "a@x.com", true)
	require.NoError(t, err)
	task, err := s.CreateTask(ctx, models.Task{ProjectID: project.ID, RoomID: room.ID, Title: "T"})
	require.NoError(t, err)

	// The legacy alias is accepted on input but never written back.
	moved, err := s.SetTaskStatus(ctx, project.ID, task.ID, workflow.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCompleted, moved.Status)
}

func TestListTasksByAssignee_CrossesRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"One", "Two"} {
		room, err := s.CreateRoom(ctx, name, "a@x.com")
		require.NoError(t, err)
		project, err := s.CreateProject(ctx, room.ID, "P "+name, "", "a@x.com", true)
		require.NoError(t, err)
		_, err = s.CreateTask(ctx, models.Task{ProjectID: project.ID, RoomID: room.ID, Title: "T " + name, AssignedTo: "a@x.com"})
		require.NoError(t, err)
	}

	tasks, err := s.ListTasksByAssignee(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = s.ListTasksByAssignee(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestComments_AppendOnlyOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "Room", "a@x.com")
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, room.ID, "P", "", "a@x.com", true)
	require.NoError(t, err)
	task, err := s.CreateTask(ctx, models.Task{ProjectID: project.ID, RoomID: room.ID, Title: "T"})
	require.NoError(t, err)

	_, err = s.AddComment(ctx, task.ID, "first", "a@x.com")
	require.NoError(t, err)
	_, err = s.AddComment(ctx, task.ID, "second", "b@x.com")
	require.NoError(t, err)

	got, err := s.GetTask(ctx, project.ID, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first", got.Comments[0].Text)
	assert.Equal(t, "second", got.Comments[1].Text)
}

func TestChatMessages_FlatRoomTaskFeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "Room", "a@x.com")
	require.NoError(t, err)

	_, err = s.AddChatMessage(ctx, room.ID, "task-1", "hello", "a@x.com")
	require.NoError(t, err)
	_, err = s.AddChatMessage(ctx, room.ID, "task-2", "elsewhere", "a@x.com")
	require.NoError(t, err)

	messages, err := s.ListChatMessages(ctx, room.ID, "task-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Text)
}

func TestDeleteRoom_CascadesToProjectsAndTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "Room", "a@x.com")
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, room.ID, "P", "", "a@x.com", true)
	require.NoError(t, err)
	task, err := s.CreateTask(ctx, models.Task{ProjectID: project.ID, RoomID: room.ID, Title: "T"})
	require.NoError(t, err)
	_, err = s.AddComment(ctx, task.ID, "gone with the room", "a@x.com")
	require.NoError(t, err)

	require.NoError(t, s.DeleteRoom(ctx, room.ID))

	_, err = s.GetProject(ctx, room.ID, project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetTask(ctx, project.ID, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRole_DefaultsToMember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	role, err := s.UserRole(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Equal(t, "member", role)

	require.NoError(t, s.EnsureUser(ctx, "a@x.com"))
	require.NoError(t, s.EnsureUser(ctx, "a@x.com"))
	role, err = s.UserRole(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "member", role)
}
