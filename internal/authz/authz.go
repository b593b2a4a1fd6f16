// Package authz classifies an identity's standing within a room or project
// and gates mutating operations. All functions are pure: the authenticated
// identity is passed explicitly and no ambient session state is consulted.
package authz

import "taskhive/internal/models"

// ProjectStanding is the result of classifying an identity against a project.
type ProjectStanding string

const (
	Leader         ProjectStanding = "leader"
	ApprovedMember ProjectStanding = "approved"
	PendingMember  ProjectStanding = "pending"
	RejectedOrNone ProjectStanding = "none"
)

// IsRoomOwner reports whether the identity created the room. No other
// room-level role exists; the global "admin"/"member" role never gates
// room operations.
func IsRoomOwner(room models.Room, identity string) bool {
	return identity != "" && room.CreatedBy == identity
}

// IsRoomMember reports whether the identity may see the room. The creator is
// implicitly a member even when absent from the member set. Rooms carry no
// pending state: every listed member is approved.
func IsRoomMember(room models.Room, identity string) bool {
	if identity == "" {
		return false
	}
	if room.CreatedBy == identity {
		return true
	}
	for _, m := range room.Members {
		if m.Email == identity {
			return true
		}
	}
	return false
}

// ProjectRole classifies the identity's standing inside a project. The
// creator is Leader only when they designated themselves leader at creation;
// a creator without the leader tag is still implicitly approved.
func ProjectRole(project models.Project, identity string) ProjectStanding {
	if identity == "" {
		return RejectedOrNone
	}
	if project.CreatorEmail == identity {
		if project.Role == models.RoleLeader {
			return Leader
		}
		return ApprovedMember
	}
	for _, m := range project.Members {
		if m.Email != identity {
			continue
		}
		switch m.Status {
		case models.MemberApproved:
			return ApprovedMember
		case models.MemberPending:
			return PendingMember
		}
		return RejectedOrNone
	}
	return RejectedOrNone
}

// CanAccessProject reports whether the identity may view the project and its
// tasks: the leader or any approved member.
func CanAccessProject(project models.Project, identity string) bool {
	r := ProjectRole(project, identity)
	return r == Leader || r == ApprovedMember
}

// CanPerformTaskActions gates task creation, assignment changes, status
// changes and comment posting uniformly. There is no finer split between
// "can comment" and "can reassign".
func CanPerformTaskActions(project models.Project, identity string) bool {
	return CanAccessProject(project, identity)
}

// CanManageMembers reports whether the identity may approve, reject or
// remove project members. Leader-exclusive.
func CanManageMembers(project models.Project, identity string) bool {
	return ProjectRole(project, identity) == Leader
}

// CanDeleteTask reports whether the identity may hard-delete a task.
// Stricter than general task actions: deletion is leader-exclusive even
// though editing is not.
func CanDeleteTask(project models.Project, identity string) bool {
	return ProjectRole(project, identity) == Leader
}

// AssignableMembers returns the identities a task may be assigned to: the
// approved members plus the creator, who is implicitly approved. Pending and
// rejected members are excluded until promoted.
func AssignableMembers(project models.Project) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(email string) {
		if email == "" {
			return
		}
		if _, ok := seen[email]; ok {
			return
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	add(project.CreatorEmail)
	for _, m := range project.Members {
		if m.Status == models.MemberApproved {
			add(m.Email)
		}
	}
	return out
}
