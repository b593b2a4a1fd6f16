package models

import "time"

// MemberStatus tracks where an identity stands inside a project's member set.
type MemberStatus string

const (
	MemberPending  MemberStatus = "pending"
	MemberApproved MemberStatus = "approved"
	MemberRejected MemberStatus = "rejected"
)

// Project role tags. The tag describes whether the creator designated
// themselves leader when the project was created; it is not a per-member role.
const (
	RoleLeader = "leader"
	RoleMember = "member"
)

// User carries the global display role ("admin"/"member"). The role is
// informational only and never gates an operation.
type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Member is a single membership entry. Legacy records stored bare identity
// strings; the storage layer normalizes those into an approved Member, so
// nothing above it ever branches on representation.
type Member struct {
	Email  string       `json:"email"`
	Status MemberStatus `json:"status"`
}

// Room is a top-level collaboration workspace containing projects.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is a unit of work within a room, with its own membership and
// optional self-designated leader.
type Project struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"room_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatorEmail string    `json:"creator_email"`
	Role         string    `json:"role"`
	Members      []Member  `json:"members"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Task is a single tracked item inside a project. DueDate is a bare calendar
// date in DueDateLayout form, empty when not set.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	RoomID      string    `json:"room_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"due_date"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	AssignedTo  string    `json:"assigned_to"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DueDateLayout is the calendar-date form tasks carry; no time component.
const DueDateLayout = "2006-01-02"

// Comment is one append-only discussion entry embedded in a task.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one entry of the flat per-task discussion feed, keyed by
// room and task rather than nested under a project.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	TaskID    string    `json:"task_id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidPriorities enumerates the supported task priorities.
var ValidPriorities = map[string]struct{}{
	"Low":    {},
	"Medium": {},
	"High":   {},
}

// DefaultPriority is applied when a task arrives without one.
const DefaultPriority = "Low"
