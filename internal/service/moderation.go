package service

import (
	"context"
	"fmt"
	"time"

	"modq/internal/domain"
	"modq/internal/extract"
	"modq/internal/observability"
	"modq/internal/pages"
	"modq/internal/store"
	"modq/internal/util"
)

// Publisher delivers one formatted message to a target page.
type Publisher interface {
	Publish(ctx context.Context, p pages.Page, message string) (string, error)
}

// Moderation drives the submission lifecycle: webhook intake, the admin
// transitions and the publish flow. All mutations go through a single store
// transaction; the outbound publish call happens outside the lock.
type Moderation struct {
	Store     store.Store
	Pages     *pages.Config
	Publisher Publisher
	IDGen     func() string
	Now       func() time.Time
}

func (m *Moderation) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return util.NowUTC()
}

// Intake turns a webhook field bag into a stored pending submission.
func (m *Moderation) Intake(ctx context.Context, fields []extract.Field, pageSelector, ip string) (domain.Submission, error) {
	res, err := extract.Extract(fields)
	if err != nil {
		return domain.Submission{}, err
	}

	sub := domain.Submission{
		ID:            m.IDGen(),
		Message:       res.Message,
		Email:         res.Email,
		Status:        domain.StatusPending,
		TargetPageKey: m.Pages.Resolve(pageSelector),
		FormData:      res.FormData,
		CreatedAt:     m.now(),
		IPAddress:     ip,
	}
	if err := m.Store.Append(ctx, sub); err != nil {
		return domain.Submission{}, err
	}
	return sub, nil
}

// List returns the current submission sequence for the presentation layer.
func (m *Moderation) List(ctx context.Context) ([]domain.Submission, error) {
	return m.Store.Load(ctx)
}

// Get returns one submission by id.
func (m *Moderation) Get(ctx context.Context, id string) (domain.Submission, bool, error) {
	return m.Store.Get(ctx, id)
}

func (m *Moderation) Approve(ctx context.Context, id string) ([]domain.Submission, error) {
	return m.ApproveBatch(ctx, []string{id})
}

func (m *Moderation) Reject(ctx context.Context, id string) ([]domain.Submission, error) {
	return m.RejectBatch(ctx, []string{id})
}

func (m *Moderation) Delete(ctx context.Context, id string) ([]domain.Submission, error) {
	return m.DeleteBatch(ctx, []string{id})
}

func (m *Moderation) Publish(ctx context.Context, id string) ([]domain.Submission, error) {
	return m.PublishBatch(ctx, []string{id})
}

// ApproveBatch moves every pending submission in the id set to approved.
// Unknown ids and illegal transitions are skipped in place.
func (m *Moderation) ApproveBatch(ctx context.Context, ids []string) ([]domain.Submission, error) {
	return m.transition(ctx, "approve", ids, func(sub *domain.Submission) bool {
		if !sub.CanApprove() {
			return false
		}
		sub.Status = domain.StatusApproved
		return true
	})
}

// RejectBatch moves every pending or approved submission in the id set to
// rejected.
func (m *Moderation) RejectBatch(ctx context.Context, ids []string) ([]domain.Submission, error) {
	return m.transition(ctx, "reject", ids, func(sub *domain.Submission) bool {
		if !sub.CanReject() {
			return false
		}
		sub.Status = domain.StatusRejected
		return true
	})
}

// ChangePage points a not-yet-published submission at another configured
// page. Unknown keys are a no-op.
func (m *Moderation) ChangePage(ctx context.Context, id, newKey string) ([]domain.Submission, error) {
	if !m.Pages.Has(newKey) {
		observability.Transitions.WithLabelValues("change_page", "skipped").Inc()
		return m.List(ctx)
	}
	return m.transition(ctx, "change_page", []string{id}, func(sub *domain.Submission) bool {
		if !sub.CanChangePage() {
			return false
		}
		sub.TargetPageKey = newKey
		return true
	})
}

// DeleteBatch removes the id set from the store, any status.
func (m *Moderation) DeleteBatch(ctx context.Context, ids []string) ([]domain.Submission, error) {
	idSet := toSet(ids)
	var out []domain.Submission
	err := m.Store.Transact(ctx, func(subs []domain.Submission) ([]domain.Submission, error) {
		out = make([]domain.Submission, 0, len(subs))
		for _, sub := range subs {
			if idSet[sub.ID] {
				observability.Transitions.WithLabelValues("delete", "ok").Inc()
				continue
			}
			out = append(out, sub)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PublishBatch publishes every approved submission in the id set. The
// posting-API calls run outside the store lock; each item's outcome is
// independent and recorded on that item only.
func (m *Moderation) PublishBatch(ctx context.Context, ids []string) ([]domain.Submission, error) {
	idSet := toSet(ids)

	subs, err := m.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	var targets []domain.Submission
	for _, sub := range subs {
		if idSet[sub.ID] && sub.CanPublish() {
			targets = append(targets, sub)
		}
	}

	type outcome struct {
		postID string
		errMsg string
	}
	results := make(map[string]outcome, len(targets))
	for _, sub := range targets {
		page, ok := m.Pages.Get(sub.TargetPageKey)
		if !ok {
			observability.Publishes.WithLabelValues("unknown_page").Inc()
			err := fmt.Errorf("%w: %s", pages.ErrUnknownPage, sub.TargetPageKey)
			results[sub.ID] = outcome{errMsg: err.Error()}
			continue
		}
		start := time.Now()
		postID, err := m.Publisher.Publish(ctx, page, sub.Message)
		observability.PublishLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			observability.Publishes.WithLabelValues("error").Inc()
			results[sub.ID] = outcome{errMsg: err.Error()}
			continue
		}
		observability.Publishes.WithLabelValues("ok").Inc()
		results[sub.ID] = outcome{postID: postID}
	}

	now := m.now()
	var out []domain.Submission
	err = m.Store.Transact(ctx, func(subs []domain.Submission) ([]domain.Submission, error) {
		for i := range subs {
			res, ok := results[subs[i].ID]
			if !ok {
				continue
			}
			// a racing admin action wins; drop the stale outcome
			if !subs[i].CanPublish() {
				continue
			}
			if res.errMsg != "" {
				subs[i].MarkPublishFailed(res.errMsg)
			} else {
				subs[i].MarkPublished(res.postID, now)
			}
		}
		out = subs
		return subs, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Batch dispatches one batch request to the matching transition.
func (m *Moderation) Batch(ctx context.Context, req domain.BatchRequest) ([]domain.Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	switch req.Action {
	case "approve":
		return m.ApproveBatch(ctx, req.IDs)
	case "reject":
		return m.RejectBatch(ctx, req.IDs)
	case "publish":
		return m.PublishBatch(ctx, req.IDs)
	default:
		return m.DeleteBatch(ctx, req.IDs)
	}
}

func (m *Moderation) transition(ctx context.Context, action string, ids []string, apply func(*domain.Submission) bool) ([]domain.Submission, error) {
	idSet := toSet(ids)
	var out []domain.Submission
	err := m.Store.Transact(ctx, func(subs []domain.Submission) ([]domain.Submission, error) {
		for i := range subs {
			if !idSet[subs[i].ID] {
				continue
			}
			if apply(&subs[i]) {
				observability.Transitions.WithLabelValues(action, "ok").Inc()
			} else {
				observability.Transitions.WithLabelValues(action, "skipped").Inc()
			}
		}
		out = subs
		return subs, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
