package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/admissions-service/internal/config"
	"github.com/spec-kit/admissions-service/internal/events"
)

// Mailer delivers outbound mail. Delivery is fire-and-forget from the
// caller's perspective; failures are logged, never fatal.
type Mailer interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

// LogMailer is the default Mailer, writing messages to the log instead of
// an SMTP relay.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer builds the logging mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the outgoing message.
func (m *LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("outbound mail", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// NotificationService turns domain events into outbound mail.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     Mailer
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer Mailer, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, mailer: mailer, logger: logger, cfg: cfg}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserCreated, n.handleUserCreated)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventSchoolApproved, n.handleSchoolStatus)
	n.dispatcher.Subscribe(events.EventSchoolRejected, n.handleSchoolStatus)
	n.dispatcher.Subscribe(events.EventStudentAdmitted, n.handleStudentAdmitted)
}

func (n *NotificationService) handleUserCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserCreatedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("<p>Welcome %s, your %s account is ready.</p>", payload.Name, payload.Role)
	n.send(ctx, payload.Email, "Your account has been created", body)
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("<p>Use this code to reset your password: %s</p>", payload.Ticket)
	n.send(ctx, payload.Email, "Password reset requested", body)
	return nil
}

func (n *NotificationService) handleSchoolStatus(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SchoolStatusPayload)
	if !ok || payload.ManagerEmail == "" {
		return nil
	}
	body := fmt.Sprintf("<p>School %s is now %s. %s</p>", payload.SchoolName, payload.NewStatus, payload.Comment)
	n.send(ctx, payload.ManagerEmail, "School registration update", body)
	return nil
}

func (n *NotificationService) handleStudentAdmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StudentAdmittedPayload)
	if !ok {
		return nil
	}
	body := fmt.Sprintf("<p>%s has been admitted. Document number: %s</p>", payload.StudentName, payload.DocumentNumber)
	n.send(ctx, payload.GuardianEmail, "Admission confirmed", body)
	return nil
}

func (n *NotificationService) send(ctx context.Context, to, subject, body string) {
	if n.mailer == nil || to == "" {
		return
	}
	if err := n.mailer.Send(ctx, to, subject, body); err != nil {
		n.logger.Warn("mail delivery failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}
