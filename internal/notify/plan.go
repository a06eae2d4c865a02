// Package notify decides who hears about an assignment change and what a
// feed session does when a notification arrives. It performs no I/O.
package notify

import (
	"fmt"

	"github.com/fuelops/task-tracker/internal/models"
)

type EventKind string

const (
	EventForwarded   EventKind = "forwarded"
	EventSubmitted   EventKind = "submitted"
	EventRejected    EventKind = "rejected"
	EventAssigned    EventKind = "assigned"
	EventTaskCreated EventKind = "task_created"
)

// Event describes a write that may change who is responsible for work.
type Event struct {
	Kind       EventKind
	Task       models.Task
	Assignment models.Assignment
	Actor      models.User
	// Candidates is the department roster for EventTaskCreated.
	Candidates []models.User
}

// Plan returns one unsaved notification per newly responsible user.
// The actor never notifies themselves.
func Plan(e Event) []models.Notification {
	var recipients []string
	var title, message string

	switch e.Kind {
	case EventForwarded:
		if e.Assignment.ForwardedTo != nil {
			recipients = []string{*e.Assignment.ForwardedTo}
		}
		title = "Yeni görev"
		message = fmt.Sprintf("%s size \"%s\" görevini iletti.", actorName(e.Actor), e.Task.Title)

	case EventSubmitted:
		recipients = []string{e.Assignment.AssignedTo}
		title = "Görev onay bekliyor"
		message = fmt.Sprintf("%s \"%s\" görevini tamamlayıp onaya gönderdi.", actorName(e.Actor), e.Task.Title)

	case EventRejected:
		if e.Assignment.ForwardedTo != nil {
			recipients = []string{*e.Assignment.ForwardedTo}
		}
		title = "Görev revize istendi"
		message = fmt.Sprintf("\"%s\" görevi geri gönderildi: %s", e.Task.Title, e.Assignment.SupervisorNotes)

	case EventAssigned:
		recipients = []string{e.Assignment.AssignedTo}
		title = "Yeni görev atandı"
		message = fmt.Sprintf("\"%s\" görevi %s tarihi için size atandı.", e.Task.Title, e.Assignment.AssignedDate)

	case EventTaskCreated:
		for _, u := range e.Candidates {
			if u.IsActive && u.Role.Supervises() && u.Department == e.Task.Department {
				recipients = append(recipients, u.ID)
			}
		}
		title = "Yeni anlık görev"
		message = fmt.Sprintf("Genel müdür \"%s\" görevini oluşturdu.", e.Task.Title)

	default:
		return nil
	}

	var assignmentID *string
	if e.Assignment.ID != "" {
		id := e.Assignment.ID
		assignmentID = &id
	}

	seen := make(map[string]struct{}, len(recipients))
	out := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		if userID == "" || userID == e.Actor.ID {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		out = append(out, models.Notification{
			UserID:       userID,
			Title:        title,
			Message:      message,
			AssignmentID: assignmentID,
		})
	}
	return out
}

func actorName(u models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return "Bir kullanıcı"
}
