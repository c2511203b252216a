package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/mektep/mektep/internal/jobs"
)

var metrics = jobmetrics.NewMetrics(nil)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeJoinDecision is the task type for join-request decision emails.
	TaskTypeJoinDecision = "mail:join_decision"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	tracker := metrics.Track("send_email")
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	return tracker.End(sendEmail(payload))
}

// sendEmail delivers the message. Placeholder: integrate with SMTP/Mailpit in
// phase 2.
func sendEmail(payload SendEmailPayload) error {
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// JoinDecisionPayload carries everything the worker needs to mail a
// join-request decision; recipient and school name are resolved at enqueue
// time so the worker stays database free.
type JoinDecisionPayload struct {
	To         string `json:"to"`
	SchoolName string `json:"school_name"`
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason,omitempty"`
}

// NewJoinDecisionTask constructs an Asynq task for a decision email.
func NewJoinDecisionTask(payload JoinDecisionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeJoinDecision, data), nil
}

// HandleJoinDecisionTask processes TaskTypeJoinDecision tasks.
func HandleJoinDecisionTask(ctx context.Context, t *asynq.Task) error {
	tracker := metrics.Track("join_decision_email")
	var payload JoinDecisionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	subject := "Your join request for " + payload.SchoolName + " was rejected"
	body := "Your request to join " + payload.SchoolName + " was rejected."
	if payload.Approved {
		subject = "Your join request for " + payload.SchoolName + " was approved"
		body = "Your request to join " + payload.SchoolName + " was approved. Welcome!"
	} else if payload.Reason != "" {
		body += " Reason: " + payload.Reason
	}
	return tracker.End(sendEmail(SendEmailPayload{To: payload.To, Subject: subject, Body: body}))
}
