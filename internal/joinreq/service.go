package joinreq

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// ListFilter narrows join-request listings. SchoolIDs is populated from the
// reviewer's reviewable set, never from the caller.
type ListFilter struct {
	UserID    *uuid.UUID
	SchoolIDs []uuid.UUID
	Status    *string
	Limit     int32
	Offset    int32
}

// RepositoryPort defines data access methods for join requests.
type RepositoryPort interface {
	Create(ctx context.Context, req JoinRequest) error
	Get(ctx context.Context, id uuid.UUID) (*JoinRequest, error)
	List(ctx context.Context, filter ListFilter) ([]JoinRequest, error)
	Decide(ctx context.Context, id uuid.UUID, status Status, reviewerID uuid.UUID, reason string) (bool, error)
	Reopen(ctx context.Context, id uuid.UUID) error
}

// SchoolLinker backfills a user's linked school on approval.
type SchoolLinker interface {
	BackfillLinkedSchool(ctx context.Context, userID, schoolID uuid.UUID) (bool, error)
}

// Notifier stores an in-app notification for the requester.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error
}

// AuditSink records approve/reject decisions.
type AuditSink interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Mailer enqueues a decision email. Failures are logged, never surfaced.
type Mailer interface {
	EnqueueJoinDecision(ctx context.Context, userID uuid.UUID, schoolID uuid.UUID, approved bool, reason string) error
}

// Service handles the join-request workflow.
type Service struct {
	repo   RepositoryPort
	rbac   *rbac.Service
	linker SchoolLinker
	notify Notifier
	audit  AuditSink
	mailer Mailer
	logger *slog.Logger
}

// NewService builds Service instance. audit and mailer may be nil in tests.
func NewService(repo RepositoryPort, rbacSvc *rbac.Service, linker SchoolLinker, notify Notifier, audit AuditSink, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{repo: repo, rbac: rbacSvc, linker: linker, notify: notify, audit: audit, mailer: mailer, logger: logger}
}

// Create files a pending request for a role in a school. The superadmin role
// is never requestable; it is granted only through seeding or an existing
// superadmin.
func (s *Service) Create(ctx context.Context, ident shared.Identity, schoolID uuid.UUID, roleName, message string) (*JoinRequest, error) {
	role, err := rbac.ParseRole(roleName)
	if err != nil {
		return nil, httpx.FieldErrors{"role": "unknown role"}
	}
	if role == rbac.RoleSuperAdmin {
		return nil, httpx.FieldErrors{"role": "this role cannot be requested"}
	}
	req := JoinRequest{
		ID:       uuid.New(),
		UserID:   ident.ID,
		SchoolID: schoolID,
		Role:     role,
		Status:   StatusPending,
		Message:  message,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, req.ID)
}

// List returns requests visible to the identity. Reviewers see requests for
// the schools they can decide; everyone else sees only their own.
func (s *Service) List(ctx context.Context, ident shared.Identity, status *string, limit, offset int32) ([]JoinRequest, error) {
	filter := ListFilter{Status: status, Limit: limit, Offset: offset}
	all, schools, err := s.rbac.ReviewableSchools(ctx, ident)
	if err != nil {
		return nil, err
	}
	switch {
	case all:
		// no narrowing
	case len(schools) > 0:
		filter.SchoolIDs = schools
	default:
		filter.UserID = &ident.ID
	}
	return s.repo.List(ctx, filter)
}

// Approve grants the requested role and finalizes the request. Approving an
// already-decided request is a conflict; the role grant itself is
// get-or-create, so replaying a decision never duplicates assignments.
func (s *Service) Approve(ctx context.Context, ident shared.Identity, id uuid.UUID) (*JoinRequest, error) {
	req, err := s.authorizeReview(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	decided, err := s.repo.Decide(ctx, id, StatusApproved, ident.ID, "")
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, httpx.ErrConflict
	}
	if _, err := s.rbac.AssignRole(ctx, req.UserID, req.SchoolID, req.Role); err != nil {
		// the approval must not stick without the grant; put the request
		// back so it can be retried
		if rerr := s.repo.Reopen(ctx, id); rerr != nil {
			s.logger.Error("reopen after failed grant", slog.Any("error", rerr))
		}
		return nil, err
	}
	if _, err := s.linker.BackfillLinkedSchool(ctx, req.UserID, req.SchoolID); err != nil {
		s.logger.Warn("backfill linked school", slog.Any("error", err))
	}
	s.finalize(ctx, ident, req, true, "")
	return s.repo.Get(ctx, id)
}

// Reject finalizes the request with a reason.
func (s *Service) Reject(ctx context.Context, ident shared.Identity, id uuid.UUID, reason string) (*JoinRequest, error) {
	req, err := s.authorizeReview(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	decided, err := s.repo.Decide(ctx, id, StatusRejected, ident.ID, reason)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, httpx.ErrConflict
	}
	s.finalize(ctx, ident, req, false, reason)
	return s.repo.Get(ctx, id)
}

// authorizeReview loads the request and checks the identity may decide it.
// The terminal-state check here gives a friendly conflict before the UPDATE
// guard catches races.
func (s *Service) authorizeReview(ctx context.Context, ident shared.Identity, id uuid.UUID) (*JoinRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed, err := s.rbac.CanReviewForSchool(ctx, ident, req.SchoolID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, httpx.ErrForbidden
	}
	if req.Status != StatusPending {
		return nil, httpx.ErrConflict
	}
	return req, nil
}

// finalize emits the side effects of a decision. The notification and audit
// entry must land; the email is best-effort.
func (s *Service) finalize(ctx context.Context, reviewer shared.Identity, req *JoinRequest, approved bool, reason string) {
	title, body := decisionCopy(approved, reason)
	if err := s.notify.Notify(ctx, req.UserID, "join_request", title, body); err != nil {
		s.logger.Error("join decision notification", slog.Any("error", err))
	}
	if s.audit != nil {
		action := "join_request.rejected"
		if approved {
			action = "join_request.approved"
		}
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  reviewer.ID,
			Action:   action,
			Target:   "join_request",
			TargetID: req.ID,
			Payload: map[string]any{
				"user_id":   req.UserID.String(),
				"school_id": req.SchoolID.String(),
				"role":      string(req.Role),
				"reason":    reason,
			},
		})
		if err != nil {
			s.logger.Error("join decision audit", slog.Any("error", err))
		}
	}
	if s.mailer != nil {
		if err := s.mailer.EnqueueJoinDecision(ctx, req.UserID, req.SchoolID, approved, reason); err != nil {
			s.logger.Warn("join decision email", slog.Any("error", err))
		}
	}
}

func decisionCopy(approved bool, reason string) (title, body string) {
	if approved {
		return "Join request approved", "Your school join request was approved."
	}
	body = "Your school join request was rejected."
	if reason != "" {
		body += " Reason: " + reason
	}
	return "Join request rejected", body
}
