package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bounty-marketplace/backend/internal/events"
	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/bounty-marketplace/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- fakes ---

type fakeBountyStore struct {
	bounties map[uuid.UUID]*models.Bounty
	cleared  []uuid.UUID
}

func (f *fakeBountyStore) GetByID(_ context.Context, id uuid.UUID) (*models.Bounty, error) {
	b, ok := f.bounties[id]
	if !ok {
		return nil, errors.New("bounty not found")
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBountyStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	f.bounties[id].Status = status
	return nil
}

func (f *fakeBountyStore) MarkCompleted(_ context.Context, id uuid.UUID) error {
	f.bounties[id].Status = models.BountyStatusCompleted
	return nil
}

func (f *fakeBountyStore) ClearHunter(_ context.Context, id uuid.UUID) error {
	f.bounties[id].HunterUserID = nil
	f.bounties[id].HunterMissing = false
	f.cleared = append(f.cleared, id)
	return nil
}

type fakeSubmissionStore struct {
	active     map[uuid.UUID]*models.Submission // keyed by bounty id
	byID       map[uuid.UUID]*models.Submission
	approved   []uuid.UUID
	revisions  map[uuid.UUID]string
	superseded []uuid.UUID
	loadCalls  int
}

func (f *fakeSubmissionStore) GetActiveByBounty(_ context.Context, bountyID uuid.UUID) (*models.Submission, error) {
	f.loadCalls++
	return f.active[bountyID], nil
}

func (f *fakeSubmissionStore) GetByID(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, errors.New("submission not found")
	}
	return s, nil
}

func (f *fakeSubmissionStore) MarkApproved(_ context.Context, id uuid.UUID) error {
	f.approved = append(f.approved, id)
	return nil
}

func (f *fakeSubmissionStore) MarkRevisionRequested(_ context.Context, id uuid.UUID, feedback string) error {
	if f.revisions == nil {
		f.revisions = make(map[uuid.UUID]string)
	}
	f.revisions[id] = feedback
	f.byID[id].Status = models.SubmissionStatusRevisionRequested
	return nil
}

func (f *fakeSubmissionStore) SupersedeActive(_ context.Context, bountyID uuid.UUID) error {
	f.superseded = append(f.superseded, bountyID)
	return nil
}

type fakeRatingStore struct {
	ratings   []*models.Rating
	createErr error
}

func (f *fakeRatingStore) Create(_ context.Context, r *models.Rating) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.ratings = append(f.ratings, r)
	return nil
}

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

type releaseCall struct {
	bountyID uuid.UUID
	hunterID uuid.UUID
}

type fakeLedger struct {
	releases   []releaseCall
	refunds    []uuid.UUID
	releaseErr error
	refundErr  error
}

func (f *fakeLedger) ReleaseFunds(_ context.Context, bountyID, hunterID uuid.UUID, _ string) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.releases = append(f.releases, releaseCall{bountyID: bountyID, hunterID: hunterID})
	return nil
}

func (f *fakeLedger) RefundHold(_ context.Context, bountyID uuid.UUID) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunds = append(f.refunds, bountyID)
	return nil
}

type fakeReconQueue struct {
	tasks []*models.ReconciliationTask
}

func (f *fakeReconQueue) Enqueue(_ context.Context, t *models.ReconciliationTask) error {
	f.tasks = append(f.tasks, t)
	return nil
}

type fakeAuditSink struct {
	entries []models.AuditLog
}

func (f *fakeAuditSink) Log(_ context.Context, e models.AuditLog) error {
	f.entries = append(f.entries, e)
	return nil
}

type fakePublisher struct {
	published []events.Event
}

func (f *fakePublisher) Publish(_ context.Context, _ string, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}

// --- fixture ---

type fixture struct {
	svc      *ReviewService
	bounties *fakeBountyStore
	subs     *fakeSubmissionStore
	ratings  *fakeRatingStore
	users    *fakeUserStore
	ledger   *fakeLedger
	recon    *fakeReconQueue
	audit    *fakeAuditSink
	pub      *fakePublisher

	posterID uuid.UUID
	hunterID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		bounties: &fakeBountyStore{bounties: make(map[uuid.UUID]*models.Bounty)},
		subs: &fakeSubmissionStore{
			active: make(map[uuid.UUID]*models.Submission),
			byID:   make(map[uuid.UUID]*models.Submission),
		},
		ratings:  &fakeRatingStore{},
		users:    &fakeUserStore{users: make(map[uuid.UUID]*models.User)},
		ledger:   &fakeLedger{},
		recon:    &fakeReconQueue{},
		audit:    &fakeAuditSink{},
		pub:      &fakePublisher{},
		posterID: uuid.New(),
		hunterID: uuid.New(),
	}
	f.svc = NewReviewService(f.bounties, f.subs, f.ratings, f.users, f.ledger, f.recon, f.audit, f.pub, zap.NewNop())
	f.users.users[f.posterID] = &models.User{ID: f.posterID, DisplayName: "Poster"}
	f.users.users[f.hunterID] = &models.User{ID: f.hunterID, DisplayName: "Hunter"}
	return f
}

func (f *fixture) addBounty(amountCents int64, isForHonor bool) *models.Bounty {
	hunterID := f.hunterID
	b := &models.Bounty{
		ID:           uuid.New(),
		PosterUserID: f.posterID,
		HunterUserID: &hunterID,
		Status:       models.BountyStatusInProgress,
		Title:        "Mow the lawn",
		AmountCents:  amountCents,
		IsForHonor:   isForHonor,
		WorkType:     models.WorkTypeInPerson,
	}
	f.bounties.bounties[b.ID] = b
	return b
}

func (f *fixture) addSubmission(bountyID uuid.UUID) *models.Submission {
	s := &models.Submission{
		ID:       uuid.New(),
		BountyID: bountyID,
		HunterID: f.hunterID,
		Version:  1,
		Message:  "All done, see attached",
		ProofItems: []models.ProofItem{
			{ID: "p1", Name: "lawn.jpg", Type: models.ProofItemTypeImage, Size: 204800},
		},
		Status: models.SubmissionStatusSubmitted,
	}
	f.subs.active[bountyID] = s
	f.subs.byID[s.ID] = s
	return s
}

// --- approve ---

func TestApprovePaidBountyReleasesFundsOnce(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	f.addSubmission(b.ID)

	result, err := f.svc.Approve(context.Background(), b.ID, f.posterID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if !result.PaymentReleased {
		t.Error("expected PaymentReleased=true")
	}
	if result.PaymentIssue {
		t.Error("expected no payment issue")
	}
	if len(f.ledger.releases) != 1 {
		t.Fatalf("expected exactly 1 release call, got %d", len(f.ledger.releases))
	}
	call := f.ledger.releases[0]
	if call.bountyID != b.ID || call.hunterID != f.hunterID {
		t.Errorf("release called with (%s, %s), want (%s, %s)", call.bountyID, call.hunterID, b.ID, f.hunterID)
	}
	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusCompleted {
		t.Errorf("bounty status = %s, want completed", got)
	}
	if len(f.subs.approved) != 1 {
		t.Errorf("expected 1 approved submission, got %d", len(f.subs.approved))
	}
}

func TestApproveForHonorSkipsRelease(t *testing.T) {
	f := newFixture()
	b := f.addBounty(0, true)
	f.addSubmission(b.ID)

	result, err := f.svc.Approve(context.Background(), b.ID, f.posterID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if len(f.ledger.releases) != 0 {
		t.Errorf("for-honor bounty must never release funds, got %d calls", len(f.ledger.releases))
	}
	if result.PaymentReleased || result.PaymentIssue {
		t.Errorf("unexpected payment flags: %+v", result)
	}
	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusCompleted {
		t.Errorf("bounty status = %s, want completed", got)
	}
}

func TestApproveFundReleaseFailureIsNonFatal(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	f.addSubmission(b.ID)
	f.ledger.releaseErr = errors.New("processor unavailable")

	result, err := f.svc.Approve(context.Background(), b.ID, f.posterID)
	if err != nil {
		t.Fatalf("Approve must not fail on payment error, got: %v", err)
	}

	if !result.PaymentIssue {
		t.Error("expected PaymentIssue=true")
	}
	if result.PaymentReleased {
		t.Error("expected PaymentReleased=false")
	}
	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusCompleted {
		t.Errorf("approval must stand despite payment failure, status = %s", got)
	}
	if len(f.recon.tasks) != 1 {
		t.Fatalf("expected 1 reconciliation task, got %d", len(f.recon.tasks))
	}
	if f.recon.tasks[0].Kind != models.ReconTaskPaymentRelease {
		t.Errorf("task kind = %s", f.recon.tasks[0].Kind)
	}
}

func TestApproveTwiceRejected(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	f.addSubmission(b.ID)

	if _, err := f.svc.Approve(context.Background(), b.ID, f.posterID); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	if _, err := f.svc.Approve(context.Background(), b.ID, f.posterID); err == nil {
		t.Fatal("second approve should fail")
	}
	if len(f.ledger.releases) != 1 {
		t.Errorf("expected exactly 1 release despite double approve, got %d", len(f.ledger.releases))
	}
}

func TestApproveRequiresPoster(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	f.addSubmission(b.ID)

	if _, err := f.svc.Approve(context.Background(), b.ID, f.hunterID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestApproveWithoutSubmission(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)

	if _, err := f.svc.Approve(context.Background(), b.ID, f.posterID); err == nil {
		t.Fatal("approve without submission should fail")
	}
	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusInProgress {
		t.Errorf("bounty status = %s, want in_progress", got)
	}
}

// --- revision ---

func TestRequestRevisionRejectsEmptyFeedback(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	sub := f.addSubmission(b.ID)

	for _, feedback := range []string{"", "   ", "\t\n"} {
		err := f.svc.RequestRevision(context.Background(), sub.ID, f.posterID, feedback)
		if !IsValidation(err) {
			t.Errorf("feedback %q: expected validation error, got %v", feedback, err)
		}
	}
	if len(f.subs.revisions) != 0 {
		t.Error("empty feedback must be rejected before any store call")
	}
}

func TestRequestRevisionKeepsBountyInProgress(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	sub := f.addSubmission(b.ID)

	feedback := "Please redo the lawn edges"
	if err := f.svc.RequestRevision(context.Background(), sub.ID, f.posterID, feedback); err != nil {
		t.Fatalf("RequestRevision failed: %v", err)
	}

	if got := f.subs.revisions[sub.ID]; got != feedback {
		t.Errorf("stored feedback = %q, want %q", got, feedback)
	}
	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusInProgress {
		t.Errorf("bounty status = %s, want in_progress", got)
	}
	if len(f.ledger.releases) != 0 {
		t.Error("revision must not release funds")
	}
}

func TestRequestRevisionAlreadyReviewed(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	sub := f.addSubmission(b.ID)
	sub.Status = models.SubmissionStatusRevisionRequested

	if err := f.svc.RequestRevision(context.Background(), sub.ID, f.posterID, "more edges"); err == nil {
		t.Fatal("expected error for already-reviewed submission")
	}
	if _, ok := f.subs.revisions[sub.ID]; ok {
		t.Error("no revision should have been recorded")
	}
}

// --- rating ---

func TestSubmitRatingRejectsInvalidScores(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	b.Status = models.BountyStatusCompleted

	for _, score := range []int{0, -1, 6, 100} {
		_, err := f.svc.SubmitRating(context.Background(), b.ID, f.posterID, f.hunterID, score, nil)
		if !IsValidation(err) {
			t.Errorf("score %d: expected validation error, got %v", score, err)
		}
	}
	if len(f.ratings.ratings) != 0 {
		t.Error("invalid scores must be rejected before any store call")
	}
}

func TestSubmitRatingValidScores(t *testing.T) {
	f := newFixture()

	for score := 1; score <= 5; score++ {
		b := f.addBounty(6000, false)
		b.Status = models.BountyStatusCompleted

		result, err := f.svc.SubmitRating(context.Background(), b.ID, f.posterID, f.hunterID, score, nil)
		if err != nil {
			t.Fatalf("score %d: SubmitRating failed: %v", score, err)
		}
		if !result.Saved {
			t.Errorf("score %d: expected Saved=true", score)
		}
	}
	if len(f.ratings.ratings) != 5 {
		t.Errorf("expected 5 persisted ratings, got %d", len(f.ratings.ratings))
	}
}

func TestSubmitRatingWithComment(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	b.Status = models.BountyStatusCompleted

	comment := "Great job"
	result, err := f.svc.SubmitRating(context.Background(), b.ID, f.posterID, f.hunterID, 5, &comment)
	if err != nil {
		t.Fatalf("SubmitRating failed: %v", err)
	}
	if !result.Saved || result.Rating == nil {
		t.Fatal("expected saved rating")
	}
	if result.Rating.Score != 5 || *result.Rating.Comment != comment {
		t.Errorf("rating = %+v", result.Rating)
	}
}

func TestSubmitRatingCommentTooLong(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	b.Status = models.BountyStatusCompleted

	long := make([]byte, models.RatingMaxCommentLength+1)
	for i := range long {
		long[i] = 'x'
	}
	comment := string(long)

	_, err := f.svc.SubmitRating(context.Background(), b.ID, f.posterID, f.hunterID, 4, &comment)
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitRatingStoreFailureStillCompletes(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	b.Status = models.BountyStatusCompleted
	f.ratings.createErr = errors.New("db timeout")

	result, err := f.svc.SubmitRating(context.Background(), b.ID, f.posterID, f.hunterID, 5, nil)
	if err != nil {
		t.Fatalf("rating failure must not fail the flow, got: %v", err)
	}
	if result.Saved {
		t.Error("expected Saved=false")
	}
	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusCompleted {
		t.Errorf("rating failure must never re-open the bounty, status = %s", got)
	}
}

func TestSubmitRatingDuplicate(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	b.Status = models.BountyStatusCompleted
	f.ratings.createErr = repositories.ErrDuplicateRating

	_, err := f.svc.SubmitRating(context.Background(), b.ID, f.posterID, f.hunterID, 5, nil)
	if !IsValidation(err) {
		t.Fatalf("expected validation error for duplicate rating, got %v", err)
	}
}

func TestSubmitRatingRequiresCompletedBounty(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false) // still in_progress

	if _, err := f.svc.SubmitRating(context.Background(), b.ID, f.posterID, f.hunterID, 5, nil); err == nil {
		t.Fatal("rating an in-progress bounty should fail")
	}
}

// --- load ---

func TestLoadSubmissionNilWhenNotSubmitted(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)

	sub, err := f.svc.LoadSubmission(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("LoadSubmission failed: %v", err)
	}
	if sub != nil {
		t.Errorf("expected nil submission, got %+v", sub)
	}
}

func TestLoadSubmissionIdempotent(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	f.addSubmission(b.ID)

	first, err := f.svc.LoadSubmission(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	second, err := f.svc.LoadSubmission(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("loads differ: %+v vs %+v", first, second)
	}
}

// --- stale reconciliation ---

func (f *fixture) addStaleBounty(amountCents int64) *models.Bounty {
	b := f.addBounty(amountCents, false)
	f.users.users[f.hunterID].DeletedAt = ptrTime()
	return b
}

func TestCancelStaleRefunds(t *testing.T) {
	f := newFixture()
	b := f.addStaleBounty(6000)

	if err := f.svc.CancelStale(context.Background(), b.ID, f.posterID); err != nil {
		t.Fatalf("CancelStale failed: %v", err)
	}

	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusCancelled {
		t.Errorf("bounty status = %s, want cancelled", got)
	}
	if len(f.ledger.refunds) != 1 || f.ledger.refunds[0] != b.ID {
		t.Errorf("expected 1 refund for bounty, got %v", f.ledger.refunds)
	}
}

func TestCancelStaleRefundFailureLeavesBountyUntouched(t *testing.T) {
	f := newFixture()
	b := f.addStaleBounty(6000)
	f.ledger.refundErr = errors.New("ledger unavailable")

	if err := f.svc.CancelStale(context.Background(), b.ID, f.posterID); err == nil {
		t.Fatal("expected error when refund fails")
	}
	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusInProgress {
		t.Errorf("bounty must stay stale for a future attempt, status = %s", got)
	}
}

func TestRepostStaleKeepsEscrowLocked(t *testing.T) {
	f := newFixture()
	b := f.addStaleBounty(6000)

	if err := f.svc.RepostStale(context.Background(), b.ID, f.posterID); err != nil {
		t.Fatalf("RepostStale failed: %v", err)
	}

	if got := f.bounties.bounties[b.ID].Status; got != models.BountyStatusOpen {
		t.Errorf("bounty status = %s, want open", got)
	}
	if f.bounties.bounties[b.ID].HunterUserID != nil {
		t.Error("hunter should have been cleared")
	}
	if len(f.ledger.refunds) != 0 {
		t.Errorf("repost must not refund, got %v", f.ledger.refunds)
	}
}

func TestStaleOperationsRejectActiveHunter(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false) // hunter still exists

	if err := f.svc.CancelStale(context.Background(), b.ID, f.posterID); err == nil {
		t.Fatal("cancel should fail while the hunter account is active")
	}
	if err := f.svc.RepostStale(context.Background(), b.ID, f.posterID); err == nil {
		t.Fatal("repost should fail while the hunter account is active")
	}
}

func TestStaleFlagShortCircuitsUserLookup(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	f.bounties.bounties[b.ID].HunterMissing = true

	if err := f.svc.CancelStale(context.Background(), b.ID, f.posterID); err != nil {
		t.Fatalf("CancelStale with hunter_missing flag failed: %v", err)
	}
}

// --- retry release ---

func TestRetryReleaseForCompletedBounty(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)
	b.Status = models.BountyStatusCompleted

	if err := f.svc.RetryRelease(context.Background(), b.ID); err != nil {
		t.Fatalf("RetryRelease failed: %v", err)
	}
	if len(f.ledger.releases) != 1 {
		t.Errorf("expected 1 release call, got %d", len(f.ledger.releases))
	}
}

func TestRetryReleaseRejectsInProgress(t *testing.T) {
	f := newFixture()
	b := f.addBounty(6000, false)

	if err := f.svc.RetryRelease(context.Background(), b.ID); err == nil {
		t.Fatal("retry on in-progress bounty should fail")
	}
}

// --- helpers ---

func ptrTime() *time.Time {
	t := time.Now()
	return &t
}
