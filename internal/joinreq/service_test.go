package joinreq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/rbac/rbactest"
	"github.com/mektep/mektep/internal/shared"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRequestRepo struct {
	requests map[uuid.UUID]*JoinRequest
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[uuid.UUID]*JoinRequest)}
}

func (m *mockRequestRepo) Create(ctx context.Context, req JoinRequest) error {
	for _, existing := range m.requests {
		if existing.UserID == req.UserID && existing.SchoolID == req.SchoolID && existing.Status == StatusPending {
			return httpx.ErrConflict
		}
	}
	req.CreatedAt = time.Now()
	stored := req
	m.requests[req.ID] = &stored
	return nil
}

func (m *mockRequestRepo) Get(ctx context.Context, id uuid.UUID) (*JoinRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (m *mockRequestRepo) List(ctx context.Context, filter ListFilter) ([]JoinRequest, error) {
	var out []JoinRequest
	for _, req := range m.requests {
		if filter.UserID != nil && req.UserID != *filter.UserID {
			continue
		}
		if filter.SchoolIDs != nil {
			found := false
			for _, id := range filter.SchoolIDs {
				if id == req.SchoolID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.Status != nil && string(req.Status) != *filter.Status {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (m *mockRequestRepo) Decide(ctx context.Context, id uuid.UUID, status Status, reviewerID uuid.UUID, reason string) (bool, error) {
	req, ok := m.requests[id]
	if !ok || req.Status != StatusPending {
		return false, nil
	}
	now := time.Now()
	req.Status = status
	req.ReviewerID = &reviewerID
	req.ReviewedAt = &now
	req.RejectReason = reason
	return true, nil
}

func (m *mockRequestRepo) Reopen(ctx context.Context, id uuid.UUID) error {
	req, ok := m.requests[id]
	if !ok || req.Status != StatusApproved {
		return nil
	}
	req.Status = StatusPending
	req.ReviewerID = nil
	req.ReviewedAt = nil
	req.RejectReason = ""
	return nil
}

type mockLinker struct {
	linked map[uuid.UUID]uuid.UUID
	calls  int
}

func newMockLinker() *mockLinker { return &mockLinker{linked: make(map[uuid.UUID]uuid.UUID)} }

func (m *mockLinker) BackfillLinkedSchool(ctx context.Context, userID, schoolID uuid.UUID) (bool, error) {
	m.calls++
	if _, ok := m.linked[userID]; ok {
		return false, nil
	}
	m.linked[userID] = schoolID
	return true, nil
}

type recordedNotification struct {
	userID uuid.UUID
	kind   string
	title  string
}

type mockNotifier struct {
	sent []recordedNotification
}

func (m *mockNotifier) Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error {
	m.sent = append(m.sent, recordedNotification{userID: userID, kind: kind, title: title})
	return nil
}

type mockAudit struct {
	entries []shared.AuditLog
}

func (m *mockAudit) Record(ctx context.Context, log shared.AuditLog) error {
	m.entries = append(m.entries, log)
	return nil
}

type mockMailer struct {
	enqueued int
	fail     bool
}

func (m *mockMailer) EnqueueJoinDecision(ctx context.Context, userID uuid.UUID, schoolID uuid.UUID, approved bool, reason string) error {
	if m.fail {
		return errors.New("queue unavailable")
	}
	m.enqueued++
	return nil
}

// ============================================================================
// TESTS
// ============================================================================

type fixture struct {
	svc      *Service
	repo     *mockRequestRepo
	rbacSvc  *rbac.Service
	rbacRepo *rbactest.Repo
	linker   *mockLinker
	notifier *mockNotifier
	audit    *mockAudit
	mailer   *mockMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRequestRepo()
	rbacRepo := rbactest.NewRepo()
	rbacRepo.SeedDefaultGrants()
	rbacSvc := rbac.NewService(rbacRepo, nil, nil)
	linker := newMockLinker()
	notifier := &mockNotifier{}
	audit := &mockAudit{}
	mailer := &mockMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:      NewService(repo, rbacSvc, linker, notifier, audit, mailer, logger),
		repo:     repo,
		rbacSvc:  rbacSvc,
		rbacRepo: rbacRepo,
		linker:   linker,
		notifier: notifier,
		audit:    audit,
		mailer:   mailer,
	}
}

func (fx *fixture) pending(t *testing.T, userID, schoolID uuid.UUID, role string) *JoinRequest {
	t.Helper()
	req, err := fx.svc.Create(context.Background(), shared.Identity{ID: userID}, schoolID, role, "")
	require.NoError(t, err)
	return req
}

func (fx *fixture) director(schoolID uuid.UUID) shared.Identity {
	id := uuid.New()
	fx.rbacRepo.Assign(id, schoolID, rbac.RoleDirector)
	return shared.Identity{ID: id}
}

func TestCreateRejectsSuperadminRole(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Create(context.Background(), shared.Identity{ID: uuid.New()}, uuid.New(), "superadmin", "")
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "role")
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.Create(context.Background(), shared.Identity{ID: uuid.New()}, uuid.New(), "janitor", "")
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "role")
}

func TestCreateDuplicatePendingConflicts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	schoolID := uuid.New()

	fx.pending(t, userID, schoolID, "teacher")

	_, err := fx.svc.Create(ctx, shared.Identity{ID: userID}, schoolID, "student", "")
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestApproveGrantsRoleAndBackfillsSchool(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	schoolID := uuid.New()

	req := fx.pending(t, userID, schoolID, "teacher")
	reviewer := fx.director(schoolID)

	decided, err := fx.svc.Approve(ctx, reviewer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
	require.NotNil(t, decided.ReviewerID)
	assert.Equal(t, reviewer.ID, *decided.ReviewerID)
	assert.NotNil(t, decided.ReviewedAt)

	has, err := fx.rbacSvc.HasRole(ctx, userID, rbac.RoleTeacher)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, schoolID, fx.linker.linked[userID])
}

func TestApproveEmitsNotificationAuditAndEmailOnce(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	schoolID := uuid.New()

	req := fx.pending(t, userID, schoolID, "teacher")
	reviewer := fx.director(schoolID)

	_, err := fx.svc.Approve(ctx, reviewer, req.ID)
	require.NoError(t, err)

	require.Len(t, fx.notifier.sent, 1)
	assert.Equal(t, userID, fx.notifier.sent[0].userID)
	assert.Equal(t, "join_request", fx.notifier.sent[0].kind)

	require.Len(t, fx.audit.entries, 1)
	assert.Equal(t, "join_request.approved", fx.audit.entries[0].Action)
	assert.Equal(t, reviewer.ID, fx.audit.entries[0].ActorID)
	assert.Equal(t, req.ID, fx.audit.entries[0].TargetID)

	assert.Equal(t, 1, fx.mailer.enqueued)
}

func TestApproveAlreadyDecidedConflicts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	schoolID := uuid.New()

	req := fx.pending(t, uuid.New(), schoolID, "teacher")
	reviewer := fx.director(schoolID)

	_, err := fx.svc.Approve(ctx, reviewer, req.ID)
	require.NoError(t, err)

	_, err = fx.svc.Approve(ctx, reviewer, req.ID)
	assert.True(t, errors.Is(err, httpx.ErrConflict))

	_, err = fx.svc.Reject(ctx, reviewer, req.ID, "late")
	assert.True(t, errors.Is(err, httpx.ErrConflict))

	// side effects fired exactly once
	assert.Len(t, fx.notifier.sent, 1)
	assert.Len(t, fx.audit.entries, 1)
}

func TestReviewRequiresRoleInThatSchool(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	schoolID := uuid.New()

	req := fx.pending(t, uuid.New(), schoolID, "teacher")

	// director of a different school may not decide
	foreign := fx.director(uuid.New())
	_, err := fx.svc.Approve(ctx, foreign, req.ID)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	// a plain teacher in the right school may not decide either
	teacher := uuid.New()
	fx.rbacRepo.Assign(teacher, schoolID, rbac.RoleTeacher)
	_, err = fx.svc.Approve(ctx, shared.Identity{ID: teacher}, req.ID)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestSuperuserMayReviewAnywhere(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	req := fx.pending(t, uuid.New(), uuid.New(), "student")

	decided, err := fx.svc.Approve(ctx, shared.Identity{ID: uuid.New(), IsSuperuser: true}, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
}

func TestRejectStoresReason(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	schoolID := uuid.New()

	req := fx.pending(t, userID, schoolID, "teacher")
	reviewer := fx.director(schoolID)

	decided, err := fx.svc.Reject(ctx, reviewer, req.ID, "no vacancy")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, decided.Status)
	assert.Equal(t, "no vacancy", decided.RejectReason)

	// no role granted, no school backfilled
	has, err := fx.rbacSvc.HasRole(ctx, userID, rbac.RoleTeacher)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Zero(t, fx.linker.calls)

	require.Len(t, fx.audit.entries, 1)
	assert.Equal(t, "join_request.rejected", fx.audit.entries[0].Action)
}

func TestApproveIsIdempotentOnExistingAssignment(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	schoolID := uuid.New()

	// user already holds the role from an earlier grant
	fx.rbacRepo.Assign(userID, schoolID, rbac.RoleTeacher)

	req := fx.pending(t, userID, schoolID, "teacher")
	reviewer := fx.director(schoolID)

	_, err := fx.svc.Approve(ctx, reviewer, req.ID)
	require.NoError(t, err)

	assignments, err := fx.rbacSvc.ListAssignments(ctx, rbac.AssignmentFilter{UserID: &userID})
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestFailedGrantReturnsRequestToPending(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	schoolID := uuid.New()

	req := fx.pending(t, userID, schoolID, "teacher")
	reviewer := fx.director(schoolID)

	fx.rbacRepo.FailEnsureAssignment = errors.New("connection reset")
	_, err := fx.svc.Approve(ctx, reviewer, req.ID)
	require.Error(t, err)

	// the request must not stay approved without the role
	stored, err := fx.repo.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Nil(t, stored.ReviewerID)

	// no decision side effects fired
	assert.Empty(t, fx.notifier.sent)
	assert.Empty(t, fx.audit.entries)
	assert.Zero(t, fx.mailer.enqueued)

	// a retry after recovery completes the approval
	fx.rbacRepo.FailEnsureAssignment = nil
	decided, err := fx.svc.Approve(ctx, reviewer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
	has, err := fx.rbacSvc.HasRole(ctx, userID, rbac.RoleTeacher)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMailerFailureDoesNotFailApproval(t *testing.T) {
	fx := newFixture(t)
	fx.mailer.fail = true
	ctx := context.Background()
	schoolID := uuid.New()

	req := fx.pending(t, uuid.New(), schoolID, "teacher")
	reviewer := fx.director(schoolID)

	decided, err := fx.svc.Approve(ctx, reviewer, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decided.Status)
}

func TestListScopesByReviewerSchools(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	schoolA := uuid.New()
	schoolB := uuid.New()

	reqA := fx.pending(t, uuid.New(), schoolA, "teacher")
	fx.pending(t, uuid.New(), schoolB, "teacher")

	reviewer := fx.director(schoolA)
	list, err := fx.svc.List(ctx, reviewer, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, reqA.ID, list[0].ID)
}

func TestListShowsOwnRequestsForPlainUsers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	own := fx.pending(t, userID, uuid.New(), "student")
	fx.pending(t, uuid.New(), uuid.New(), "student")

	list, err := fx.svc.List(ctx, shared.Identity{ID: userID}, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, own.ID, list[0].ID)
}

func TestListSuperuserSeesEverything(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.pending(t, uuid.New(), uuid.New(), "student")
	fx.pending(t, uuid.New(), uuid.New(), "teacher")

	list, err := fx.svc.List(ctx, shared.Identity{ID: uuid.New(), IsSuperuser: true}, nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
