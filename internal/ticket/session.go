// Package ticket runs the IT support desk: a classifier, knowledge
// base, and web search team answers user queries, and tickets move
// through open, resolved, and escalated states with email notifications.
package ticket

import (
	"github.com/google/uuid"
)

const (
	StatusOpen      = "Open"
	StatusResolved  = "Resolved"
	StatusEscalated = "Escalated"
)

// Session is one user's support interaction. A session keeps its user
// identity across resets while the ticket itself starts over.
type Session struct {
	TicketID  string `json:"ticket_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	Status    string `json:"status"`
	Category  string `json:"category,omitempty"`
	Query     string `json:"query,omitempty"`
	Answer    string `json:"answer,omitempty"`
}

func NewSession(userName, userEmail string) *Session {
	return &Session{
		TicketID:  newTicketID(),
		UserName:  userName,
		UserEmail: userEmail,
		Status:    StatusOpen,
	}
}

// Reset starts a fresh ticket for the same user.
func (s *Session) Reset() {
	s.TicketID = newTicketID()
	s.Status = StatusOpen
	s.Category = ""
	s.Query = ""
	s.Answer = ""
}

func newTicketID() string {
	return uuid.NewString()[:8]
}
