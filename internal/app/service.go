package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"civiclink/api/internal/auth"
	"civiclink/api/internal/authpw"
	"civiclink/api/internal/config"
	"civiclink/api/internal/geo"
	"civiclink/api/internal/notify"
	"civiclink/api/internal/rbac"
	"civiclink/api/internal/search"
	"civiclink/api/internal/session"
	"civiclink/api/internal/store"
	"civiclink/api/internal/tally"
	"civiclink/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type SubmitComplaintInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	PhotoRef    string `json:"photoRef"`
}

type CreatePollInput struct {
	Title          string   `json:"title"`
	Options        []string `json:"options"`
	TargetLocation string   `json:"targetLocation"`
}

var complaintCategories = map[string]struct{}{
	"roads":       {},
	"sanitation":  {},
	"water":       {},
	"electricity": {},
	"parks":       {},
	"safety":      {},
	"noise":       {},
	"other":       {},
}

// transitionSources maps a target status to the statuses it may be entered
// from. Statuses missing as keys (received) cannot be re-entered; statuses
// missing as sources (resolved, closed) are terminal.
var transitionSources = map[string][]string{
	store.StatusInReview:  {store.StatusReceived},
	store.StatusResolved:  {store.StatusInReview},
	store.StatusResponded: {store.StatusInReview},
	store.StatusClosed:    {store.StatusResponded},
}

// assigneeUpdatableStatuses are the targets the current assignee may set via
// UpdateStatus or a progress note. responded and closed belong to the
// official-response path.
var assigneeUpdatableStatuses = map[string]struct{}{
	store.StatusInReview: {},
	store.StatusResolved: {},
}

type dataStore interface {
	CreateUser(context.Context, store.User) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	UpdateUserRole(context.Context, string, string) (bool, error)
	ListUsers(context.Context, string) ([]store.User, error)
	InsertComplaint(context.Context, store.Complaint) (store.Complaint, error)
	GetComplaintByCode(context.Context, string) (store.Complaint, error)
	GetComplaintByID(context.Context, string) (store.Complaint, error)
	AssignComplaint(ctx context.Context, complaintID, assigneeID, updatedBy string) (bool, error)
	TransitionComplaint(ctx context.Context, complaintID, newStatus string, fromStatuses []string, notes, updatedBy string) (bool, error)
	RespondComplaint(ctx context.Context, complaintID, response, newStatus string, fromStatuses []string, updatedBy string) (bool, error)
	AppendComplaintNote(ctx context.Context, complaintID, notes, updatedBy string) error
	ListComplaints(ctx context.Context, filter store.ComplaintFilter, createdBy, assignedTo string) ([]store.Complaint, error)
	ListComplaintEvents(context.Context, string) ([]store.ComplaintEvent, error)
	InsertPoll(context.Context, store.Poll) error
	GetPoll(context.Context, string) (store.Poll, error)
	ListPolls(context.Context, string) ([]store.Poll, error)
	InsertVote(context.Context, store.Vote) (store.Vote, error)
	GetVote(ctx context.Context, pollID, userID string) (store.Vote, error)
	ListVotes(context.Context, string) ([]store.Vote, error)
	ListNotificationsByRecipient(ctx context.Context, recipient string, limit int) ([]store.NotificationLogEntry, error)
	ListNotificationLog(ctx context.Context, status string, limit int) ([]store.NotificationLogEntry, error)
	NotificationCountsByStatus(context.Context) (map[string]int, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID, role string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (session.TokenData, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type notifier interface {
	Dispatch(event notify.Event)
}

type photoStore interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	PresignedURL(ctx context.Context, ref string) (string, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	accounts *authpw.Service
	notifier notifier
	search   *search.Service
	geo      *geo.Client
	photos   photoStore
}

// New wires the service. search, geo and photos may be nil; the features they
// back degrade gracefully.
func New(cfg config.Config, st dataStore, sessions sessionStore, accounts *authpw.Service, notifier notifier, searchSvc *search.Service, geoClient *geo.Client, photos photoStore) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		accounts: accounts,
		notifier: notifier,
		search:   searchSvc,
		geo:      geoClient,
		photos:   photos,
	}
}

// --- sessions ---

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	user, err := s.accounts.SignUp(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.accounts.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	data, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, data.UserID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, user.DisplayName, user.Role, jti, expiresAt)
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, user.Role, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsAccessTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Role:      user.Role,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) Logout(ctx context.Context, sess Session, refreshToken string) error {
	if sess.JTI != "" {
		_ = s.sessions.RevokeAccessToken(ctx, sess.JTI, sess.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// --- complaints ---

func (s *Service) SubmitComplaint(ctx context.Context, sess Session, input SubmitComplaintInput) (store.Complaint, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)

	if n := len(input.Title); n < 5 || n > 200 {
		return store.Complaint{}, errValidation("title must be 5-200 characters", nil)
	}
	if n := len(input.Description); n < 10 || n > 2000 {
		return store.Complaint{}, errValidation("description must be 10-2000 characters", nil)
	}
	if _, ok := complaintCategories[input.Category]; !ok {
		valid := make([]string, 0, len(complaintCategories))
		for category := range complaintCategories {
			valid = append(valid, category)
		}
		return store.Complaint{}, errValidation("unknown category", map[string]any{"validCategories": valid})
	}
	if n := len(input.Location); n < 3 || n > 200 {
		return store.Complaint{}, errValidation("location must be 3-200 characters", nil)
	}

	location := input.Location
	if s.geo != nil {
		location = s.geo.Normalize(ctx, location)
	}

	complaint, err := s.store.InsertComplaint(ctx, store.Complaint{
		ID:          util.NewID("cmp"),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Location:    location,
		PhotoRef:    input.PhotoRef,
		CreatedBy:   sess.UserID,
	})
	if err != nil {
		return store.Complaint{}, err
	}

	s.indexComplaint(complaint)
	s.dispatchTo(ctx, complaint.CreatedBy, notify.Event{
		Kind:      notify.EventComplaintSubmitted,
		Complaint: complaint,
	})
	return complaint, nil
}

func (s *Service) AssignComplaint(ctx context.Context, sess Session, code, assigneeID string) (store.Complaint, error) {
	complaint, err := s.store.GetComplaintByCode(ctx, code)
	if err != nil {
		return store.Complaint{}, err
	}

	assignee, err := s.store.GetUserByID(ctx, assigneeID)
	if err != nil {
		return store.Complaint{}, err
	}
	if !rbac.Admit(rbac.Normalize(assignee.Role), rbac.RoleVolunteer, rbac.RoleOfficial) {
		return store.Complaint{}, errValidation("assignee must be a volunteer or official", map[string]any{"role": assignee.Role})
	}

	changed, err := s.store.AssignComplaint(ctx, complaint.ID, assignee.ID, sess.UserID)
	if err != nil {
		return store.Complaint{}, err
	}
	if !changed {
		return store.Complaint{}, errInvalidState("complaint is already assigned")
	}

	complaint, err = s.store.GetComplaintByID(ctx, complaint.ID)
	if err != nil {
		return store.Complaint{}, err
	}

	s.indexComplaint(complaint)
	s.notifier.Dispatch(notify.Event{
		Kind:      notify.EventComplaintAssigned,
		Complaint: complaint,
		Recipient: assignee,
	})
	return complaint, nil
}

func (s *Service) UpdateComplaintStatus(ctx context.Context, sess Session, code, newStatus, notes string) (store.Complaint, error) {
	complaint, err := s.store.GetComplaintByCode(ctx, code)
	if err != nil {
		return store.Complaint{}, err
	}
	if complaint.AssignedTo == nil || *complaint.AssignedTo != sess.UserID {
		return store.Complaint{}, errForbidden()
	}
	if _, ok := assigneeUpdatableStatuses[newStatus]; !ok {
		return store.Complaint{}, errValidation("status must be in_review or resolved", nil)
	}
	return s.transition(ctx, complaint, newStatus, notes, sess.UserID, true)
}

func (s *Service) RespondComplaint(ctx context.Context, sess Session, code, response, newStatus string) (store.Complaint, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return store.Complaint{}, errValidation("response text is required", nil)
	}
	if newStatus == "" {
		newStatus = store.StatusResponded
	}
	if newStatus != store.StatusResponded && newStatus != store.StatusClosed {
		return store.Complaint{}, errValidation("response status must be responded or closed", nil)
	}

	complaint, err := s.store.GetComplaintByCode(ctx, code)
	if err != nil {
		return store.Complaint{}, err
	}

	sources, ok := transitionSources[newStatus]
	if !ok || !contains(sources, complaint.Status) {
		return store.Complaint{}, errInvalidTransition(complaint.Status, newStatus)
	}

	changed, err := s.store.RespondComplaint(ctx, complaint.ID, response, newStatus, sources, sess.UserID)
	if err != nil {
		return store.Complaint{}, err
	}
	if !changed {
		return store.Complaint{}, errInvalidState("complaint status changed concurrently")
	}

	complaint, err = s.store.GetComplaintByID(ctx, complaint.ID)
	if err != nil {
		return store.Complaint{}, err
	}
	s.indexComplaint(complaint)
	// Responding deliberately emits no notification.
	return complaint, nil
}

func (s *Service) AddProgressNote(ctx context.Context, sess Session, code, notes, newStatus string) (store.Complaint, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return store.Complaint{}, errValidation("notes are required", nil)
	}

	complaint, err := s.store.GetComplaintByCode(ctx, code)
	if err != nil {
		return store.Complaint{}, err
	}
	if complaint.AssignedTo == nil || *complaint.AssignedTo != sess.UserID {
		return store.Complaint{}, errForbidden()
	}

	if newStatus != "" {
		if _, ok := assigneeUpdatableStatuses[newStatus]; !ok {
			return store.Complaint{}, errValidation("status must be in_review or resolved", nil)
		}
		return s.transition(ctx, complaint, newStatus, notes, sess.UserID, true)
	}

	if err := s.store.AppendComplaintNote(ctx, complaint.ID, notes, sess.UserID); err != nil {
		return store.Complaint{}, err
	}
	return complaint, nil
}

// transition performs a validated status move and optionally notifies the
// complaint's creator.
func (s *Service) transition(ctx context.Context, complaint store.Complaint, newStatus, notes, actorID string, notifyCreator bool) (store.Complaint, error) {
	sources, ok := transitionSources[newStatus]
	if !ok || !contains(sources, complaint.Status) {
		return store.Complaint{}, errInvalidTransition(complaint.Status, newStatus)
	}

	changed, err := s.store.TransitionComplaint(ctx, complaint.ID, newStatus, sources, notes, actorID)
	if err != nil {
		return store.Complaint{}, err
	}
	if !changed {
		return store.Complaint{}, errInvalidState("complaint status changed concurrently")
	}

	complaint, err = s.store.GetComplaintByID(ctx, complaint.ID)
	if err != nil {
		return store.Complaint{}, err
	}

	s.indexComplaint(complaint)
	if notifyCreator {
		s.dispatchTo(ctx, complaint.CreatedBy, notify.Event{
			Kind:      notify.EventComplaintStatusUpdated,
			Complaint: complaint,
			Notes:     notes,
		})
	}
	return complaint, nil
}

func (s *Service) GetComplaint(ctx context.Context, sess Session, code string) (map[string]any, error) {
	complaint, err := s.store.GetComplaintByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	isOwner := complaint.CreatedBy == sess.UserID
	isAssignee := complaint.AssignedTo != nil && *complaint.AssignedTo == sess.UserID
	if !isOwner && !isAssignee && !s.Can(sess.Role, rbac.ActionViewAllComplaints) {
		return nil, errForbidden()
	}

	events, err := s.store.ListComplaintEvents(ctx, complaint.ID)
	if err != nil {
		return nil, err
	}

	payload := complaintPayload(complaint)
	payload["history"] = eventPayloads(events)
	if complaint.PhotoRef != "" && s.photos != nil {
		if url, err := s.photos.PresignedURL(ctx, complaint.PhotoRef); err == nil {
			payload["photoUrl"] = url
		}
	}
	return payload, nil
}

func (s *Service) ListMyComplaints(ctx context.Context, sess Session, filter store.ComplaintFilter) ([]map[string]any, error) {
	complaints, err := s.store.ListComplaints(ctx, filter, sess.UserID, "")
	if err != nil {
		return nil, err
	}
	return complaintPayloads(complaints), nil
}

func (s *Service) ListAssignedComplaints(ctx context.Context, sess Session, filter store.ComplaintFilter) ([]map[string]any, error) {
	complaints, err := s.store.ListComplaints(ctx, filter, "", sess.UserID)
	if err != nil {
		return nil, err
	}
	return complaintPayloads(complaints), nil
}

func (s *Service) ListAllComplaints(ctx context.Context, filter store.ComplaintFilter) ([]map[string]any, error) {
	complaints, err := s.store.ListComplaints(ctx, filter, "", "")
	if err != nil {
		return nil, err
	}
	return complaintPayloads(complaints), nil
}

// ListPublicComplaints is the reduced-field browse view available to every
// authenticated user.
func (s *Service) ListPublicComplaints(ctx context.Context, filter store.ComplaintFilter) ([]map[string]any, error) {
	complaints, err := s.store.ListComplaints(ctx, filter, "", "")
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(complaints))
	for _, complaint := range complaints {
		items = append(items, map[string]any{
			"code":      complaint.Code,
			"title":     complaint.Title,
			"category":  complaint.Category,
			"location":  complaint.Location,
			"status":    complaint.Status,
			"createdAt": complaint.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) UploadPhoto(ctx context.Context, data []byte, contentType string) (string, error) {
	if s.photos == nil {
		return "", domainError(503, "PHOTOS_DISABLED", "photo storage is not configured", nil)
	}
	if len(data) == 0 {
		return "", errValidation("photo body is empty", nil)
	}
	return s.photos.Put(ctx, data, contentType)
}

func (s *Service) SearchComplaints(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// --- polls ---

func (s *Service) CreatePoll(ctx context.Context, sess Session, input CreatePollInput) (store.Poll, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return store.Poll{}, errValidation("title is required", nil)
	}

	options := make([]string, 0, len(input.Options))
	seen := make(map[string]struct{}, len(input.Options))
	for _, option := range input.Options {
		option = strings.TrimSpace(option)
		if option == "" {
			return store.Poll{}, errValidation("poll options must be non-empty", nil)
		}
		if _, dup := seen[option]; dup {
			return store.Poll{}, errValidation("poll options must be distinct", map[string]any{"duplicate": option})
		}
		seen[option] = struct{}{}
		options = append(options, option)
	}
	if len(options) < 2 {
		return store.Poll{}, errValidation("a poll needs at least 2 options", nil)
	}

	poll := store.Poll{
		ID:             util.NewID("pol"),
		Title:          input.Title,
		Options:        options,
		CreatedBy:      sess.UserID,
		TargetLocation: strings.TrimSpace(input.TargetLocation),
	}
	if err := s.store.InsertPoll(ctx, poll); err != nil {
		return store.Poll{}, err
	}
	return poll, nil
}

func (s *Service) ListPolls(ctx context.Context, targetLocation string) ([]store.Poll, error) {
	return s.store.ListPolls(ctx, targetLocation)
}

func (s *Service) SubmitVote(ctx context.Context, sess Session, pollID, selectedOption string) (store.Vote, error) {
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return store.Vote{}, err
	}
	if !contains(poll.Options, selectedOption) {
		return store.Vote{}, errInvalidOption(poll.Options)
	}

	// Fast path for a friendlier error; the unique index is authoritative.
	if existing, err := s.store.GetVote(ctx, pollID, sess.UserID); err == nil {
		return store.Vote{}, errDuplicateVote(existing.CreatedAt.Format(time.RFC3339))
	}

	vote, err := s.store.InsertVote(ctx, store.Vote{
		ID:             util.NewID("vot"),
		PollID:         pollID,
		UserID:         sess.UserID,
		SelectedOption: selectedOption,
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Race loser: report the winning vote's timestamp.
		if existing, lookupErr := s.store.GetVote(ctx, pollID, sess.UserID); lookupErr == nil {
			return store.Vote{}, errDuplicateVote(existing.CreatedAt.Format(time.RFC3339))
		}
		return store.Vote{}, errDuplicateVote("")
	}
	if err != nil {
		return store.Vote{}, err
	}
	return vote, nil
}

func (s *Service) PollResults(ctx context.Context, pollID string) (map[string]any, error) {
	poll, err := s.store.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}
	votes, err := s.store.ListVotes(ctx, pollID)
	if err != nil {
		return nil, err
	}

	selections := make([]string, 0, len(votes))
	for _, vote := range votes {
		selections = append(selections, vote.SelectedOption)
	}
	result := tally.Count(poll.Options, selections)

	return map[string]any{
		"pollId":  poll.ID,
		"title":   poll.Title,
		"total":   result.Total,
		"options": result.Options,
		"leader":  result.Leader,
	}, nil
}

// --- notifications ---

func (s *Service) MyNotifications(ctx context.Context, sess Session, limit int) ([]store.NotificationLogEntry, error) {
	return s.store.ListNotificationsByRecipient(ctx, sess.UserID, limit)
}

func (s *Service) NotificationLog(ctx context.Context, status string, limit int) ([]store.NotificationLogEntry, error) {
	if status != "" && status != store.NotifySent && status != store.NotifyFailed {
		return nil, errValidation("status filter must be sent or failed", nil)
	}
	return s.store.ListNotificationLog(ctx, status, limit)
}

func (s *Service) NotificationStats(ctx context.Context) (map[string]int, error) {
	counts, err := s.store.NotificationCountsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := counts[store.NotifySent]; !ok {
		counts[store.NotifySent] = 0
	}
	if _, ok := counts[store.NotifyFailed]; !ok {
		counts[store.NotifyFailed] = 0
	}
	return counts, nil
}

// --- users ---

func (s *Service) ListUsers(ctx context.Context, role string) ([]store.User, error) {
	return s.store.ListUsers(ctx, role)
}

func (s *Service) UpdateUserRole(ctx context.Context, userID, role string) (store.User, error) {
	if rbac.Normalize(role) != rbac.Role(role) {
		return store.User{}, errValidation("unknown role", map[string]any{
			"validRoles": []string{"citizen", "volunteer", "official", "admin"},
		})
	}
	changed, err := s.store.UpdateUserRole(ctx, userID, role)
	if err != nil {
		return store.User{}, err
	}
	if !changed {
		return store.User{}, errNotFound("user not found")
	}
	return s.store.GetUserByID(ctx, userID)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// --- helpers ---

// dispatchTo resolves the recipient and hands the event to the dispatcher.
// Lookup failures are swallowed: notifications never break the workflow.
func (s *Service) dispatchTo(ctx context.Context, userID string, event notify.Event) {
	recipient, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return
	}
	event.Recipient = recipient
	s.notifier.Dispatch(event)
}

func (s *Service) indexComplaint(complaint store.Complaint) {
	if s.search == nil {
		return
	}
	s.search.IndexComplaint(search.ComplaintRecord{
		ID:          complaint.ID,
		Code:        complaint.Code,
		Title:       complaint.Title,
		Description: complaint.Description,
		Category:    complaint.Category,
		Location:    complaint.Location,
		Status:      complaint.Status,
	})
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func complaintPayload(complaint store.Complaint) map[string]any {
	payload := map[string]any{
		"id":          complaint.ID,
		"code":        complaint.Code,
		"title":       complaint.Title,
		"description": complaint.Description,
		"category":    complaint.Category,
		"location":    complaint.Location,
		"status":      complaint.Status,
		"createdBy":   complaint.CreatedBy,
		"assignedTo":  complaint.AssignedTo,
		"createdAt":   complaint.CreatedAt,
		"updatedAt":   complaint.UpdatedAt,
	}
	if complaint.PhotoRef != "" {
		payload["photoRef"] = complaint.PhotoRef
	}
	if complaint.OfficialResponse != "" {
		payload["officialResponse"] = complaint.OfficialResponse
	}
	return payload
}

func complaintPayloads(complaints []store.Complaint) []map[string]any {
	items := make([]map[string]any, 0, len(complaints))
	for _, complaint := range complaints {
		items = append(items, complaintPayload(complaint))
	}
	return items
}

func pollPayload(poll store.Poll) map[string]any {
	return map[string]any{
		"id":             poll.ID,
		"title":          poll.Title,
		"options":        poll.Options,
		"targetLocation": poll.TargetLocation,
		"createdBy":      poll.CreatedBy,
		"createdAt":      poll.CreatedAt,
	}
}

func pollPayloads(polls []store.Poll) []map[string]any {
	items := make([]map[string]any, 0, len(polls))
	for _, poll := range polls {
		items = append(items, pollPayload(poll))
	}
	return items
}

func votePayload(vote store.Vote) map[string]any {
	return map[string]any{
		"id":             vote.ID,
		"pollId":         vote.PollID,
		"selectedOption": vote.SelectedOption,
		"votedAt":        vote.CreatedAt,
	}
}

func notificationPayloads(entries []store.NotificationLogEntry) []map[string]any {
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		item := map[string]any{
			"id":        entry.ID,
			"recipient": entry.Recipient,
			"channel":   entry.Channel,
			"eventKind": entry.EventKind,
			"subject":   entry.Subject,
			"status":    entry.Status,
			"createdAt": entry.CreatedAt,
		}
		if entry.ErrorDetail != "" {
			item["errorDetail"] = entry.ErrorDetail
		}
		items = append(items, item)
	}
	return items
}

func eventPayloads(events []store.ComplaintEvent) []map[string]any {
	items := make([]map[string]any, 0, len(events))
	for _, event := range events {
		item := map[string]any{
			"kind":      event.Kind,
			"notes":     event.Notes,
			"updatedBy": event.UpdatedBy,
			"createdAt": event.CreatedAt,
		}
		if event.Status != "" {
			item["status"] = event.Status
		}
		items = append(items, item)
	}
	return items
}
