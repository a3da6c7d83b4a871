package store

import (
	"strconv"
	"time"
)

// Kind names an entity type. Its value is the public type name and shows
// up in not-found messages.
type Kind string

const (
	KindUser          Kind = "User"
	KindTeam          Kind = "Team"
	KindWorkflowState Kind = "WorkflowState"
	KindProject       Kind = "Project"
	KindIssue         Kind = "Issue"
	KindLabel         Kind = "IssueLabel"
	KindComment       Kind = "Comment"
)

// ProjectState is the lifecycle stage of a project.
type ProjectState string

const (
	ProjectPlanned   ProjectState = "planned"
	ProjectStarted   ProjectState = "started"
	ProjectPaused    ProjectState = "paused"
	ProjectCompleted ProjectState = "completed"
	ProjectCanceled  ProjectState = "canceled"
)

// ProjectStates lists every valid ProjectState.
var ProjectStates = []ProjectState{ProjectPlanned, ProjectStarted, ProjectPaused, ProjectCompleted, ProjectCanceled}

// Valid reports whether ps is a known project state.
func (ps ProjectState) Valid() bool {
	for _, v := range ProjectStates {
		if ps == v {
			return true
		}
	}
	return false
}

// StateType classifies a workflow state.
type StateType string

const (
	StateTriage    StateType = "triage"
	StateBacklog   StateType = "backlog"
	StateUnstarted StateType = "unstarted"
	StateStarted   StateType = "started"
	StateCompleted StateType = "completed"
	StateCanceled  StateType = "canceled"
)

// StateTypes lists every valid StateType.
var StateTypes = []StateType{StateTriage, StateBacklog, StateUnstarted, StateStarted, StateCompleted, StateCanceled}

// Node is any row that can be addressed by a pagination cursor.
type Node interface {
	Cursor(o Order) Cursor
}

// User is a person. The first user created is the viewer.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) Cursor(o Order) Cursor { return timeCursor(o, u.ID, u.CreatedAt, u.UpdatedAt) }

// Team owns workflow states and issues. IssueCount is the last issue
// number handed out for the team.
type Team struct {
	ID         string
	Name       string
	Key        string
	IssueCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (t *Team) Cursor(o Order) Cursor { return timeCursor(o, t.ID, t.CreatedAt, t.UpdatedAt) }

type WorkflowState struct {
	ID        string
	TeamID    string
	Name      string
	Type      StateType
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ws *WorkflowState) Cursor(o Order) Cursor {
	if o == OrderPosition {
		return Cursor{Order: o, Key: strconv.Itoa(ws.Position), ID: ws.ID}
	}
	return timeCursor(o, ws.ID, ws.CreatedAt, ws.UpdatedAt)
}

type Project struct {
	ID         string
	Name       string
	SlugID     string
	State      ProjectState
	ArchivedAt *time.Time
	URL        string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (p *Project) Cursor(o Order) Cursor { return timeCursor(o, p.ID, p.CreatedAt, p.UpdatedAt) }

type Issue struct {
	ID          string
	TeamID      string
	ProjectID   *string
	Number      int
	Identifier  string
	Title       string
	Description *string
	StateID     string
	AssigneeID  *string
	URL         string
	ArchivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i *Issue) Cursor(o Order) Cursor { return timeCursor(o, i.ID, i.CreatedAt, i.UpdatedAt) }

type Label struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *Label) Cursor(o Order) Cursor { return timeCursor(o, l.ID, l.CreatedAt, l.UpdatedAt) }

type Comment struct {
	ID        string
	IssueID   string
	Body      string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Comment) Cursor(o Order) Cursor { return timeCursor(o, c.ID, c.CreatedAt, c.UpdatedAt) }

func timeCursor(o Order, id string, created, updated time.Time) Cursor {
	if o == OrderUpdatedAt {
		return Cursor{Order: o, Key: formatTime(updated), ID: id}
	}
	return Cursor{Order: OrderCreatedAt, Key: formatTime(created), ID: id}
}
