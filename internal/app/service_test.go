package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"civiclink/api/internal/authpw"
	"civiclink/api/internal/config"
	"civiclink/api/internal/notify"
	"civiclink/api/internal/session"
	"civiclink/api/internal/store"
)

// fakeStore is an in-memory dataStore mirroring the Postgres semantics the
// service relies on: conditional updates and unique-violation translation.
type fakeStore struct {
	mu            sync.Mutex
	users         map[string]store.User
	usersByEmail  map[string]string
	complaints    map[string]store.Complaint
	codes         map[string]string
	events        map[string][]store.ComplaintEvent
	polls         map[string]store.Poll
	votes         map[string]store.Vote
	notifications []store.NotificationLogEntry
	seq           int
	eventSeq      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]store.User),
		usersByEmail: make(map[string]string),
		complaints:   make(map[string]store.Complaint),
		codes:        make(map[string]string),
		events:       make(map[string][]store.ComplaintEvent),
		polls:        make(map[string]store.Poll),
		votes:        make(map[string]store.Vote),
	}
}

func (f *fakeStore) CreateUser(ctx context.Context, user store.User) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, ok := f.usersByEmail[email]; ok {
		return store.User{}, store.ErrDuplicate
	}
	user.Email = email
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	f.usersByEmail[email] = user.ID
	return user, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.usersByEmail[strings.ToLower(email)]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return f.users[id], nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeStore) UpdateUserRole(ctx context.Context, userID, role string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return false, nil
	}
	user.Role = role
	f.users[userID] = user
	return true, nil
}

func (f *fakeStore) ListUsers(ctx context.Context, role string) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.User, 0)
	for _, user := range f.users {
		if role == "" || user.Role == role {
			items = append(items, user)
		}
	}
	return items, nil
}

func (f *fakeStore) InsertComplaint(ctx context.Context, item store.Complaint) (store.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	item.Code = fmt.Sprintf("CL-2026-%06d", f.seq)
	item.Status = store.StatusReceived
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	f.complaints[item.ID] = item
	f.codes[item.Code] = item.ID
	return item, nil
}

func (f *fakeStore) GetComplaintByCode(ctx context.Context, code string) (store.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.codes[code]
	if !ok {
		return store.Complaint{}, sql.ErrNoRows
	}
	return f.complaints[id], nil
}

func (f *fakeStore) GetComplaintByID(ctx context.Context, complaintID string) (store.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.complaints[complaintID]
	if !ok {
		return store.Complaint{}, sql.ErrNoRows
	}
	return item, nil
}

func (f *fakeStore) appendEventLocked(complaintID, kind, status, notes, updatedBy string) {
	f.eventSeq++
	f.events[complaintID] = append(f.events[complaintID], store.ComplaintEvent{
		ID:          f.eventSeq,
		ComplaintID: complaintID,
		Kind:        kind,
		Status:      status,
		Notes:       notes,
		UpdatedBy:   updatedBy,
		CreatedAt:   time.Now(),
	})
}

func (f *fakeStore) AssignComplaint(ctx context.Context, complaintID, assigneeID, updatedBy string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.complaints[complaintID]
	if !ok || item.AssignedTo != nil || item.Status != store.StatusReceived {
		return false, nil
	}
	item.AssignedTo = &assigneeID
	item.Status = store.StatusInReview
	item.UpdatedAt = time.Now()
	f.complaints[complaintID] = item
	f.appendEventLocked(complaintID, store.EventKindTransition, store.StatusInReview, "assigned", updatedBy)
	return true, nil
}

func (f *fakeStore) TransitionComplaint(ctx context.Context, complaintID, newStatus string, fromStatuses []string, notes, updatedBy string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.complaints[complaintID]
	if !ok || !statusIn(item.Status, fromStatuses) {
		return false, nil
	}
	item.Status = newStatus
	item.UpdatedAt = time.Now()
	f.complaints[complaintID] = item
	f.appendEventLocked(complaintID, store.EventKindTransition, newStatus, notes, updatedBy)
	return true, nil
}

func (f *fakeStore) RespondComplaint(ctx context.Context, complaintID, response, newStatus string, fromStatuses []string, updatedBy string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.complaints[complaintID]
	if !ok || !statusIn(item.Status, fromStatuses) {
		return false, nil
	}
	item.OfficialResponse = response
	item.Status = newStatus
	item.UpdatedAt = time.Now()
	f.complaints[complaintID] = item
	f.appendEventLocked(complaintID, store.EventKindTransition, newStatus, response, updatedBy)
	return true, nil
}

func (f *fakeStore) AppendComplaintNote(ctx context.Context, complaintID, notes, updatedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendEventLocked(complaintID, store.EventKindNote, "", notes, updatedBy)
	return nil
}

func (f *fakeStore) ListComplaints(ctx context.Context, filter store.ComplaintFilter, createdBy, assignedTo string) ([]store.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.Complaint, 0)
	for _, item := range f.complaints {
		if createdBy != "" && item.CreatedBy != createdBy {
			continue
		}
		if assignedTo != "" && (item.AssignedTo == nil || *item.AssignedTo != assignedTo) {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(item.Location), strings.ToLower(filter.Location)) {
			continue
		}
		items = append(items, item)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (f *fakeStore) ListComplaintEvents(ctx context.Context, complaintID string) ([]store.ComplaintEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.ComplaintEvent(nil), f.events[complaintID]...), nil
}

func (f *fakeStore) InsertPoll(ctx context.Context, poll store.Poll) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	poll.CreatedAt = time.Now()
	f.polls[poll.ID] = poll
	return nil
}

func (f *fakeStore) GetPoll(ctx context.Context, pollID string) (store.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	poll, ok := f.polls[pollID]
	if !ok {
		return store.Poll{}, sql.ErrNoRows
	}
	return poll, nil
}

func (f *fakeStore) ListPolls(ctx context.Context, targetLocation string) ([]store.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.Poll, 0)
	for _, poll := range f.polls {
		if targetLocation == "" || poll.TargetLocation == "" ||
			strings.Contains(strings.ToLower(poll.TargetLocation), strings.ToLower(targetLocation)) {
			items = append(items, poll)
		}
	}
	return items, nil
}

func (f *fakeStore) InsertVote(ctx context.Context, vote store.Vote) (store.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := vote.PollID + "|" + vote.UserID
	if _, ok := f.votes[key]; ok {
		return store.Vote{}, store.ErrDuplicate
	}
	vote.CreatedAt = time.Now()
	f.votes[key] = vote
	return vote, nil
}

func (f *fakeStore) GetVote(ctx context.Context, pollID, userID string) (store.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vote, ok := f.votes[pollID+"|"+userID]
	if !ok {
		return store.Vote{}, sql.ErrNoRows
	}
	return vote, nil
}

func (f *fakeStore) ListVotes(ctx context.Context, pollID string) ([]store.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.Vote, 0)
	for _, vote := range f.votes {
		if vote.PollID == pollID {
			items = append(items, vote)
		}
	}
	return items, nil
}

func (f *fakeStore) InsertNotificationLog(ctx context.Context, entry store.NotificationLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = int64(len(f.notifications) + 1)
	entry.CreatedAt = time.Now()
	f.notifications = append(f.notifications, entry)
	return nil
}

func (f *fakeStore) ListNotificationsByRecipient(ctx context.Context, recipient string, limit int) ([]store.NotificationLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.NotificationLogEntry, 0)
	for _, entry := range f.notifications {
		if entry.Recipient == recipient {
			items = append(items, entry)
		}
	}
	return items, nil
}

func (f *fakeStore) ListNotificationLog(ctx context.Context, status string, limit int) ([]store.NotificationLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.NotificationLogEntry, 0)
	for _, entry := range f.notifications {
		if status == "" || entry.Status == status {
			items = append(items, entry)
		}
	}
	return items, nil
}

func (f *fakeStore) NotificationCountsByStatus(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, entry := range f.notifications {
		counts[entry.Status]++
	}
	return counts, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func statusIn(status string, set []string) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

// fakeSessions is an in-memory sessionStore.
type fakeSessions struct {
	mu      sync.Mutex
	refresh map[string]session.TokenData
	revoked map[string]bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		refresh: make(map[string]session.TokenData),
		revoked: make(map[string]bool),
	}
}

func (f *fakeSessions) SaveRefreshSession(ctx context.Context, tokenHash, userID, role string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[tokenHash] = session.TokenData{UserID: userID, Role: role, CreatedAt: time.Now()}
	return nil
}

func (f *fakeSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (session.TokenData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.refresh[tokenHash]
	if !ok {
		return session.TokenData{}, session.ErrNotFound
	}
	return data, nil
}

func (f *fakeSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, tokenHash)
	return nil
}

func (f *fakeSessions) RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeSessions) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}

// fakeNotifier records dispatched events.
type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeNotifier) Dispatch(event notify.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]string, 0, len(f.events))
	for _, event := range f.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		CORSOrigin: "*",
	}
}

func newTestService() (*Service, *fakeStore, *fakeNotifier) {
	st := newFakeStore()
	notifier := &fakeNotifier{}
	svc := New(testConfig(), st, newFakeSessions(), authpw.NewService(st), notifier, nil, nil, nil)
	return svc, st, notifier
}

func seedUser(t *testing.T, st *fakeStore, id, role string) Session {
	t.Helper()
	_, err := st.CreateUser(context.Background(), store.User{
		ID:          id,
		DisplayName: id,
		Email:       id + "@example.com",
		Role:        role,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return Session{UserID: id, UserName: id, Role: role}
}

func submitTestComplaint(t *testing.T, svc *Service, sess Session) store.Complaint {
	t.Helper()
	complaint, err := svc.SubmitComplaint(context.Background(), sess, SubmitComplaintInput{
		Title:       "Pothole on Main St",
		Description: "Large pothole causing damage to vehicles near the intersection",
		Category:    "roads",
		Location:    "Main St, Springfield",
	})
	if err != nil {
		t.Fatalf("SubmitComplaint failed: %v", err)
	}
	return complaint
}

func TestSubmitComplaint(t *testing.T) {
	svc, st, notifier := newTestService()
	citizen := seedUser(t, st, "citizen1", "citizen")

	complaint := submitTestComplaint(t, svc, citizen)

	if complaint.Status != store.StatusReceived {
		t.Errorf("expected status received, got %s", complaint.Status)
	}
	if complaint.AssignedTo != nil {
		t.Errorf("expected no assignee, got %v", *complaint.AssignedTo)
	}
	if !strings.HasPrefix(complaint.Code, "CL-") {
		t.Errorf("expected CL- code, got %s", complaint.Code)
	}

	events, _ := st.ListComplaintEvents(context.Background(), complaint.ID)
	if len(events) != 0 {
		t.Errorf("creation must not write a history entry, got %d", len(events))
	}
	if kinds := notifier.kinds(); len(kinds) != 1 || kinds[0] != notify.EventComplaintSubmitted {
		t.Errorf("expected one submitted notification, got %v", kinds)
	}
}

func TestSubmitComplaintValidation(t *testing.T) {
	svc, st, _ := newTestService()
	citizen := seedUser(t, st, "citizen1", "citizen")
	ctx := context.Background()

	cases := []struct {
		name  string
		input SubmitComplaintInput
	}{
		{"short title", SubmitComplaintInput{Title: "Hi", Description: "long enough description", Category: "roads", Location: "Main St"}},
		{"short description", SubmitComplaintInput{Title: "Valid title", Description: "short", Category: "roads", Location: "Main St"}},
		{"bad category", SubmitComplaintInput{Title: "Valid title", Description: "long enough description", Category: "dragons", Location: "Main St"}},
		{"short location", SubmitComplaintInput{Title: "Valid title", Description: "long enough description", Category: "roads", Location: "ab"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitComplaint(ctx, citizen, tc.input)
			var domainErr *DomainError
			if err == nil || !asDomain(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestAssignComplaintLifecycle(t *testing.T) {
	svc, st, notifier := newTestService()
	citizen := seedUser(t, st, "citizen1", "citizen")
	admin := seedUser(t, st, "admin1", "admin")
	seedUser(t, st, "vol1", "volunteer")
	ctx := context.Background()

	complaint := submitTestComplaint(t, svc, citizen)

	assigned, err := svc.AssignComplaint(ctx, admin, complaint.Code, "vol1")
	if err != nil {
		t.Fatalf("AssignComplaint failed: %v", err)
	}
	if assigned.Status != store.StatusInReview {
		t.Errorf("expected in_review, got %s", assigned.Status)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != "vol1" {
		t.Errorf("expected assignee vol1, got %v", assigned.AssignedTo)
	}

	events, _ := st.ListComplaintEvents(ctx, complaint.ID)
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 history entry after assign, got %d", len(events))
	}

	// Second assignment loses.
	_, err = svc.AssignComplaint(ctx, admin, complaint.Code, "vol1")
	var domainErr *DomainError
	if !asDomain(err, &domainErr) || domainErr.Code != "INVALID_STATE" {
		t.Errorf("expected INVALID_STATE on double assign, got %v", err)
	}

	if kinds := notifier.kinds(); len(kinds) != 2 || kinds[1] != notify.EventComplaintAssigned {
		t.Errorf("expected assigned notification, got %v", kinds)
	}
}

func TestAssignComplaintRejectsIneligibleAssignee(t *testing.T) {
	svc, st, _ := newTestService()
	citizen := seedUser(t, st, "citizen1", "citizen")
	admin := seedUser(t, st, "admin1", "admin")
	seedUser(t, st, "citizen2", "citizen")

	complaint := submitTestComplaint(t, svc, citizen)

	_, err := svc.AssignComplaint(context.Background(), admin, complaint.Code, "citizen2")
	var domainErr *DomainError
	if !asDomain(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR for citizen assignee, got %v", err)
	}
}

func TestUpdateStatusOwnershipAndTransitions(t *testing.T) {
	svc, st, _ := newTestService()
	citizen := seedUser(t, st, "citizen1", "citizen")
	admin := seedUser(t, st, "admin1", "admin")
	volA := seedUser(t, st, "volA", "volunteer")
	volB := seedUser(t, st, "volB", "volunteer")
	ctx := context.Background()

	complaint := submitTestComplaint(t, svc, citizen)
	if _, err := svc.AssignComplaint(ctx, admin, complaint.Code, "volA"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	// Volunteer B is not the assignee.
	_, err := svc.UpdateComplaintStatus(ctx, volB, complaint.Code, store.StatusResolved, "")
	var domainErr *DomainError
	if !asDomain(err, &domainErr) || domainErr.Code != "FORBIDDEN" {
		t.Errorf("expected FORBIDDEN for non-assignee, got %v", err)
	}
	current, _ := st.GetComplaintByCode(ctx, complaint.Code)
	if current.Status != store.StatusInReview {
		t.Errorf("status must be unchanged after forbidden attempt")
	}

	updated, err := svc.UpdateComplaintStatus(ctx, volA, complaint.Code, store.StatusResolved, "fixed it")
	if err != nil {
		t.Fatalf("UpdateComplaintStatus failed: %v", err)
	}
	if updated.Status != store.StatusResolved {
		t.Errorf("expected resolved, got %s", updated.Status)
	}

	events, _ := st.ListComplaintEvents(ctx, complaint.ID)
	if len(events) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(events))
	}

	// resolved is terminal.
	_, err = svc.UpdateComplaintStatus(ctx, volA, complaint.Code, store.StatusInReview, "")
	if !asDomain(err, &domainErr) || domainErr.Code != "INVALID_TRANSITION" {
		t.Errorf("expected INVALID_TRANSITION from resolved, got %v", err)
	}
}

func TestRespondComplaint(t *testing.T) {
	svc, st, notifier := newTestService()
	citizen := seedUser(t, st, "citizen1", "citizen")
	admin := seedUser(t, st, "admin1", "admin")
	seedUser(t, st, "vol1", "volunteer")
	ctx := context.Background()

	complaint := submitTestComplaint(t, svc, citizen)
	if _, err := svc.AssignComplaint(ctx, admin, complaint.Code, "vol1"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	before := len(notifier.kinds())
	responded, err := svc.RespondComplaint(ctx, admin, complaint.Code, "We repaved the street.", "")
	if err != nil {
		t.Fatalf("RespondComplaint failed: %v", err)
	}
	if responded.Status != store.StatusResponded {
		t.Errorf("expected responded, got %s", responded.Status)
	}
	if responded.OfficialResponse != "We repaved the street." {
		t.Errorf("official response not stored: %q", responded.OfficialResponse)
	}
	if len(notifier.kinds()) != before {
		t.Error("responding must not emit a notification")
	}

	closed, err := svc.RespondComplaint(ctx, admin, complaint.Code, "Closing out.", store.StatusClosed)
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if closed.Status != store.StatusClosed {
		t.Errorf("expected closed, got %s", closed.Status)
	}

	events, _ := st.ListComplaintEvents(ctx, complaint.ID)
	if len(events) != 3 {
		t.Errorf("expected 3 history entries, got %d", len(events))
	}
}

func TestAddProgressNote(t *testing.T) {
	svc, st, _ := newTestService()
	citizen := seedUser(t, st, "citizen1", "citizen")
	admin := seedUser(t, st, "admin1", "admin")
	vol := seedUser(t, st, "vol1", "volunteer")
	ctx := context.Background()

	complaint := submitTestComplaint(t, svc, citizen)
	if _, err := svc.AssignComplaint(ctx, admin, complaint.Code, "vol1"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := svc.AddProgressNote(ctx, vol, complaint.Code, "crew scheduled for Tuesday", ""); err != nil {
		t.Fatalf("AddProgressNote failed: %v", err)
	}

	events, _ := st.ListComplaintEvents(ctx, complaint.ID)
	if len(events) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Kind != store.EventKindNote {
		t.Errorf("expected note kind, got %s", last.Kind)
	}

	current, _ := st.GetComplaintByCode(ctx, complaint.Code)
	if current.Status != store.StatusInReview {
		t.Errorf("plain note must not change status, got %s", current.Status)
	}

	// Note with status advance is recorded as a transition.
	updated, err := svc.AddProgressNote(ctx, vol, complaint.Code, "done", store.StatusResolved)
	if err != nil {
		t.Fatalf("note with status failed: %v", err)
	}
	if updated.Status != store.StatusResolved {
		t.Errorf("expected resolved, got %s", updated.Status)
	}
}

func TestSubmitVoteGuards(t *testing.T) {
	svc, st, _ := newTestService()
	admin := seedUser(t, st, "admin1", "admin")
	citizen := seedUser(t, st, "citizen1", "citizen")
	ctx := context.Background()

	poll, err := svc.CreatePoll(ctx, admin, CreatePollInput{
		Title:   "New playground location",
		Options: []string{"park", "library", "school"},
	})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	var domainErr *DomainError

	// Unknown poll.
	if _, err := svc.SubmitVote(ctx, citizen, "missing", "park"); err == nil {
		t.Error("expected error for unknown poll")
	}

	// Invalid option surfaces the valid set.
	_, err = svc.SubmitVote(ctx, citizen, poll.ID, "beach")
	if !asDomain(err, &domainErr) || domainErr.Code != "INVALID_OPTION" {
		t.Fatalf("expected INVALID_OPTION, got %v", err)
	}
	details, ok := domainErr.Details.(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", domainErr.Details)
	}
	if valid, ok := details["validOptions"].([]string); !ok || len(valid) != 3 {
		t.Errorf("expected valid option set in details, got %v", details["validOptions"])
	}

	vote, err := svc.SubmitVote(ctx, citizen, poll.ID, "park")
	if err != nil {
		t.Fatalf("SubmitVote failed: %v", err)
	}

	// Second vote yields the original timestamp.
	_, err = svc.SubmitVote(ctx, citizen, poll.ID, "library")
	if !asDomain(err, &domainErr) || domainErr.Code != "DUPLICATE_VOTE" {
		t.Fatalf("expected DUPLICATE_VOTE, got %v", err)
	}
	details = domainErr.Details.(map[string]any)
	if details["votedAt"] != vote.CreatedAt.Format(time.RFC3339) {
		t.Errorf("expected original vote timestamp, got %v", details["votedAt"])
	}
}

func TestConcurrentDuplicateVotes(t *testing.T) {
	svc, st, _ := newTestService()
	admin := seedUser(t, st, "admin1", "admin")
	citizen := seedUser(t, st, "citizen1", "citizen")
	ctx := context.Background()

	poll, err := svc.CreatePoll(ctx, admin, CreatePollInput{
		Title:   "Budget priority",
		Options: []string{"roads", "parks"},
	})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	var succeeded, duplicated atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		option := poll.Options[i%2]
		go func() {
			defer wg.Done()
			_, err := svc.SubmitVote(ctx, citizen, poll.ID, option)
			if err == nil {
				succeeded.Add(1)
				return
			}
			var domainErr *DomainError
			if asDomain(err, &domainErr) && domainErr.Code == "DUPLICATE_VOTE" {
				duplicated.Add(1)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 {
		t.Errorf("exactly one vote must succeed, got %d", succeeded.Load())
	}
	if duplicated.Load() != attempts-1 {
		t.Errorf("expected %d DUPLICATE_VOTE rejections, got %d", attempts-1, duplicated.Load())
	}

	votes, _ := st.ListVotes(ctx, poll.ID)
	if len(votes) != 1 {
		t.Errorf("expected exactly one stored vote, got %d", len(votes))
	}
}

func TestPollResults(t *testing.T) {
	svc, st, _ := newTestService()
	admin := seedUser(t, st, "admin1", "admin")
	ctx := context.Background()

	poll, err := svc.CreatePoll(ctx, admin, CreatePollInput{
		Title:   "Weekend market",
		Options: []string{"yes", "no"},
	})
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		voter := seedUser(t, st, fmt.Sprintf("voter%d", i), "citizen")
		option := "yes"
		if i == 2 {
			option = "no"
		}
		if _, err := svc.SubmitVote(ctx, voter, poll.ID, option); err != nil {
			t.Fatalf("vote %d failed: %v", i, err)
		}
	}

	payload, err := svc.PollResults(ctx, poll.ID)
	if err != nil {
		t.Fatalf("PollResults failed: %v", err)
	}
	if payload["total"] != 3 {
		t.Errorf("expected total 3, got %v", payload["total"])
	}
	leader, ok := payload["leader"].(*string)
	if !ok || leader == nil || *leader != "yes" {
		t.Errorf("expected leader yes, got %v", payload["leader"])
	}
}

func TestCreatePollValidation(t *testing.T) {
	svc, st, _ := newTestService()
	admin := seedUser(t, st, "admin1", "admin")
	ctx := context.Background()

	var domainErr *DomainError
	_, err := svc.CreatePoll(ctx, admin, CreatePollInput{Title: "One option", Options: []string{"only"}})
	if !asDomain(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR for single option, got %v", err)
	}

	_, err = svc.CreatePoll(ctx, admin, CreatePollInput{Title: "Dup options", Options: []string{"a", "a"}})
	if !asDomain(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR for duplicate options, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, authpw.SignUpRequest{
		Email:       "new@example.com",
		Password:    "long-enough",
		DisplayName: "Newcomer",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if sess.Role != "citizen" {
		t.Errorf("signup must yield citizen, got %s", sess.Role)
	}

	parsed, err := svc.SessionFromToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	if parsed.UserID != sess.UserID {
		t.Errorf("expected same user, got %s", parsed.UserID)
	}

	refreshed, err := svc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.UserID != sess.UserID {
		t.Errorf("refresh must keep the user, got %s", refreshed.UserID)
	}

	// Refresh tokens are single-use.
	if _, err := svc.Refresh(ctx, sess.RefreshToken); err == nil {
		t.Error("expected error reusing a refresh token")
	}

	// Logout revokes the access token for its remaining lifetime.
	if err := svc.Logout(ctx, refreshed, refreshed.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.SessionFromToken(ctx, refreshed.Token); err == nil {
		t.Error("expected revoked token to be rejected")
	}
}

func TestUpdateUserRole(t *testing.T) {
	svc, st, _ := newTestService()
	seedUser(t, st, "u1", "citizen")
	ctx := context.Background()

	user, err := svc.UpdateUserRole(ctx, "u1", "volunteer")
	if err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	if user.Role != "volunteer" {
		t.Errorf("expected volunteer, got %s", user.Role)
	}

	var domainErr *DomainError
	if _, err := svc.UpdateUserRole(ctx, "u1", "emperor"); !asDomain(err, &domainErr) || domainErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR for unknown role, got %v", err)
	}
	if _, err := svc.UpdateUserRole(ctx, "ghost", "admin"); !asDomain(err, &domainErr) || domainErr.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND for missing user, got %v", err)
	}
}

func asDomain(err error, target **DomainError) bool {
	if err == nil {
		return false
	}
	if domainErr, ok := err.(*DomainError); ok {
		*target = domainErr
		return true
	}
	return false
}
