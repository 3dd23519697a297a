package audit

import (
	"context"

	"github.com/Domenick1991/bookingadmin/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sink writes consumed audit events to the audit log.
type Sink struct {
	log *logrus.Entry
}

func NewSink(log *logrus.Entry) *Sink {
	return &Sink{log: log.WithField("component", "audit")}
}

func (s *Sink) Record(_ context.Context, event kafka.AuditEvent) error {
	entry := s.log.WithFields(logrus.Fields{
		"event":       event.Type,
		"admin_id":    event.AdminID,
		"admin_email": event.AdminEmail,
		"session_id":  event.SessionID,
		"occurred_at": event.OccurredAt,
	})
	if event.Detail != "" {
		entry = entry.WithField("detail", event.Detail)
	}

	if event.Type == kafka.EventSignInFailed {
		entry.Warn("admin sign-in failed")
		return nil
	}
	entry.Info("admin activity")
	return nil
}
