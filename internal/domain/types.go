package domain

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

// Submission is one form entry flowing through the moderation pipeline.
// FormData keeps the original field bag verbatim for audit and display.
type Submission struct {
	ID            string         `json:"id"`
	Message       string         `json:"message"`
	Email         string         `json:"email,omitempty"`
	Status        Status         `json:"status"`
	TargetPageKey string         `json:"target_page_key"`
	FormData      map[string]any `json:"form_data"`
	CreatedAt     time.Time      `json:"created_at"`
	IPAddress     string         `json:"ip_address"`
	FBPostID      string         `json:"fb_post_id,omitempty"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// CanApprove reports whether the approve transition is legal.
func (s *Submission) CanApprove() bool { return s.Status == StatusPending }

// CanReject reports whether the reject transition is legal.
func (s *Submission) CanReject() bool {
	return s.Status == StatusPending || s.Status == StatusApproved
}

// CanPublish reports whether a publish attempt is legal.
func (s *Submission) CanPublish() bool { return s.Status == StatusApproved }

// CanChangePage reports whether the target page may still be switched.
// Once published the routing key is frozen.
func (s *Submission) CanChangePage() bool { return s.Status != StatusPublished }

// MarkPublished records a successful publish attempt.
func (s *Submission) MarkPublished(postID string, now time.Time) {
	s.Status = StatusPublished
	s.FBPostID = postID
	s.PublishedAt = &now
	s.Error = ""
}

// MarkPublishFailed records a failed publish attempt. The submission stays
// approved so the admin can retry.
func (s *Submission) MarkPublishFailed(reason string) {
	s.Error = reason
}

// WebhookResponse is the JSON envelope returned to the form tool.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BatchRequest is the admin batch-action payload.
type BatchRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

func (r BatchRequest) Validate() error {
	switch r.Action {
	case "approve", "reject", "publish", "delete":
	default:
		return ErrBadAction
	}
	if len(r.IDs) == 0 {
		return ErrMissingIDs
	}
	return nil
}

var (
	ErrBadAction  = errors.New("unknown batch action")
	ErrMissingIDs = errors.New("missing ids")
)
