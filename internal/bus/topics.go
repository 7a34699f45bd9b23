package bus

import "fmt"

// Topic patterns for NATS pub/sub communication.

func TopicRunTurns(runID string) string {
	return fmt.Sprintf("run.%s.turn", runID)
}

func TopicRunDone(runID string) string {
	return fmt.Sprintf("run.%s.done", runID)
}

func TopicEventsTicket(ticketID string) string {
	return fmt.Sprintf("events.ticket.%s", ticketID)
}

const (
	TopicEventsAll      = "events.>"
	TopicEventsTickets  = "events.ticket.*"
	TopicEventsReminder = "events.reminder"
)
