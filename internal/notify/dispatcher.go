// Package notify delivers best-effort notifications for complaint lifecycle
// events and records every attempt.
package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"civiclink/api/internal/email"
	"civiclink/api/internal/store"
)

// Event kinds the dispatcher knows how to render.
const (
	EventComplaintSubmitted     = "complaint_submitted"
	EventComplaintAssigned      = "complaint_assigned"
	EventComplaintStatusUpdated = "complaint_status_updated"
)

const ChannelEmail = "email"

// Event describes one lifecycle change worth telling somebody about.
type Event struct {
	Kind      string
	Complaint store.Complaint
	Recipient store.User
	Notes     string
}

// Sender delivers a rendered message to one recipient. Implementations must
// honor ctx cancellation; the dispatcher additionally abandons sends that
// outlive the context.
type Sender interface {
	SendComplaintEmail(ctx context.Context, to, subject string, data email.ComplaintEmailData) error
}

// LogWriter records one delivery attempt.
type LogWriter interface {
	InsertNotificationLog(ctx context.Context, entry store.NotificationLogEntry) error
}

// Dispatcher renders and sends notifications. Delivery failures are recorded
// in the notification log and never returned to the triggering operation.
type Dispatcher struct {
	sender  Sender
	logs    LogWriter
	timeout time.Duration
}

func NewDispatcher(sender Sender, logs LogWriter) *Dispatcher {
	return &Dispatcher{
		sender:  sender,
		logs:    logs,
		timeout: 10 * time.Second,
	}
}

// Dispatch delivers the event in the background. The caller's request
// finishes regardless of the outcome.
func (d *Dispatcher) Dispatch(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.Deliver(ctx, event)
	}()
}

// Deliver renders the event, attempts delivery and writes exactly one log
// entry for the attempt. It never returns an error; problems are logged.
func (d *Dispatcher) Deliver(ctx context.Context, event Event) {
	subject, data, ok := render(event)
	if !ok {
		// Unknown kinds produce no notification at all.
		return
	}

	entry := store.NotificationLogEntry{
		Recipient: event.Recipient.ID,
		Channel:   ChannelEmail,
		EventKind: event.Kind,
		Subject:   subject,
		Body:      data.Notes,
		Status:    store.NotifySent,
	}

	// The send runs in its own goroutine so a sender that ignores ctx still
	// cannot hold up the attempt past the deadline.
	sendErr := make(chan error, 1)
	go func() {
		sendErr <- d.sender.SendComplaintEmail(ctx, event.Recipient.Email, subject, data)
	}()

	var err error
	select {
	case err = <-sendErr:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		entry.Status = store.NotifyFailed
		entry.ErrorDetail = err.Error()
		log.Printf("notification delivery failed: kind=%s recipient=%s: %v", event.Kind, event.Recipient.ID, err)
	}

	// The log write gets its own context: a timed-out send must still leave
	// its row behind.
	logCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.logs.InsertNotificationLog(logCtx, entry); err != nil {
		log.Printf("notification log write failed: kind=%s recipient=%s: %v", event.Kind, event.Recipient.ID, err)
	}
}

func render(event Event) (string, email.ComplaintEmailData, bool) {
	data := email.ComplaintEmailData{
		UserName:      event.Recipient.DisplayName,
		ComplaintCode: event.Complaint.Code,
		Title:         event.Complaint.Title,
		Status:        event.Complaint.Status,
		Notes:         event.Notes,
	}

	switch event.Kind {
	case EventComplaintSubmitted:
		if data.Notes == "" {
			data.Notes = "Your complaint has been received and will be reviewed."
		}
		return fmt.Sprintf("Complaint %s received", event.Complaint.Code), data, true
	case EventComplaintAssigned:
		if data.Notes == "" {
			data.Notes = "This complaint has been assigned to you."
		}
		return fmt.Sprintf("Complaint %s assigned to you", event.Complaint.Code), data, true
	case EventComplaintStatusUpdated:
		return fmt.Sprintf("Complaint %s is now %s", event.Complaint.Code, event.Complaint.Status), data, true
	}
	return "", email.ComplaintEmailData{}, false
}
