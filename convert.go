package sublinear

import (
	"time"

	"github.com/sockerless/sublinear/store"
)

// Response maps carry the public fields under their GraphQL names plus
// foreign keys (teamId, stateId, ...) for the relation resolvers.

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func optString(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func optTimestamp(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTimestamp(*t)
}

func userToGQL(u *store.User) map[string]interface{} {
	return map[string]interface{}{
		"id":          u.ID,
		"name":        u.Name,
		"displayName": u.Name,
		"email":       u.Email,
		"createdAt":   formatTimestamp(u.CreatedAt),
		"updatedAt":   formatTimestamp(u.UpdatedAt),
	}
}

func teamToGQL(t *store.Team) map[string]interface{} {
	return map[string]interface{}{
		"id":         t.ID,
		"name":       t.Name,
		"key":        t.Key,
		"issueCount": t.IssueCount,
		"createdAt":  formatTimestamp(t.CreatedAt),
		"updatedAt":  formatTimestamp(t.UpdatedAt),
	}
}

func stateToGQL(ws *store.WorkflowState) map[string]interface{} {
	return map[string]interface{}{
		"id":        ws.ID,
		"name":      ws.Name,
		"type":      string(ws.Type),
		"position":  float64(ws.Position),
		"createdAt": formatTimestamp(ws.CreatedAt),
		"updatedAt": formatTimestamp(ws.UpdatedAt),
		"teamId":    ws.TeamID,
	}
}

func projectToGQL(p *store.Project) map[string]interface{} {
	return map[string]interface{}{
		"id":         p.ID,
		"name":       p.Name,
		"slugId":     p.SlugID,
		"state":      string(p.State),
		"archivedAt": optTimestamp(p.ArchivedAt),
		"url":        p.URL,
		"createdAt":  formatTimestamp(p.CreatedAt),
		"updatedAt":  formatTimestamp(p.UpdatedAt),
	}
}

func issueToGQL(is *store.Issue) map[string]interface{} {
	return map[string]interface{}{
		"id":          is.ID,
		"identifier":  is.Identifier,
		"number":      float64(is.Number),
		"title":       is.Title,
		"description": optString(is.Description),
		"url":         is.URL,
		"archivedAt":  optTimestamp(is.ArchivedAt),
		"createdAt":   formatTimestamp(is.CreatedAt),
		"updatedAt":   formatTimestamp(is.UpdatedAt),
		"teamId":      is.TeamID,
		"stateId":     is.StateID,
		"projectId":   optString(is.ProjectID),
		"assigneeId":  optString(is.AssigneeID),
	}
}

func labelToGQL(l *store.Label) map[string]interface{} {
	return map[string]interface{}{
		"id":        l.ID,
		"name":      l.Name,
		"createdAt": formatTimestamp(l.CreatedAt),
		"updatedAt": formatTimestamp(l.UpdatedAt),
	}
}

func commentToGQL(c *store.Comment) map[string]interface{} {
	return map[string]interface{}{
		"id":        c.ID,
		"body":      c.Body,
		"url":       c.URL,
		"createdAt": formatTimestamp(c.CreatedAt),
		"updatedAt": formatTimestamp(c.UpdatedAt),
		"issueId":   c.IssueID,
	}
}
