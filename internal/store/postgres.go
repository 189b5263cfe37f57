package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// --- users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, role, location)
		VALUES ($1, $2, LOWER($3), $4, $5, $6)
		RETURNING created_at, updated_at
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.Role, user.Location).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return User{}, ErrDuplicate
	}
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, location, created_at, updated_at
		FROM users
		WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.Location, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, location, created_at, updated_at
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.Location, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserRole(ctx context.Context, userID, role string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1
	`, userID, role)
	if err != nil {
		return false, fmt.Errorf("update user role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update user role rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, role string) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, email, '', role, location, created_at, updated_at
		FROM users
		WHERE ($1='' OR role=$1)
		ORDER BY created_at ASC
	`, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var item User
		if err := rows.Scan(&item.ID, &item.DisplayName, &item.Email, &item.PasswordHash, &item.Role, &item.Location, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

// --- complaints ---

const complaintColumns = `id, code, title, description, category, location, COALESCE(photo_ref, ''), status, created_by, assigned_to, COALESCE(official_response, ''), created_at, updated_at`

func scanComplaint(row interface{ Scan(...any) error }) (Complaint, error) {
	var item Complaint
	err := row.Scan(
		&item.ID,
		&item.Code,
		&item.Title,
		&item.Description,
		&item.Category,
		&item.Location,
		&item.PhotoRef,
		&item.Status,
		&item.CreatedBy,
		&item.AssignedTo,
		&item.OfficialResponse,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

// InsertComplaint stores a new complaint in the received state and returns it
// with the generated human-readable code.
func (s *PostgresStore) InsertComplaint(ctx context.Context, item Complaint) (Complaint, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO complaints (id, code, title, description, category, location, photo_ref, status, created_by)
		VALUES ($1, 'CL-'||TO_CHAR(NOW(), 'YYYY')||'-'||LPAD(NEXTVAL('complaint_code_seq')::text, 6, '0'),
			$2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		RETURNING code, created_at, updated_at
	`, item.ID, item.Title, item.Description, item.Category, item.Location, item.PhotoRef, StatusReceived, item.CreatedBy).
		Scan(&item.Code, &item.CreatedAt, &item.UpdatedAt)
	if isUniqueViolation(err) {
		return Complaint{}, ErrDuplicate
	}
	if err != nil {
		return Complaint{}, fmt.Errorf("insert complaint: %w", err)
	}
	item.Status = StatusReceived
	return item, nil
}

func (s *PostgresStore) GetComplaintByCode(ctx context.Context, code string) (Complaint, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE code=$1`, code)
	return scanComplaint(row)
}

func (s *PostgresStore) GetComplaintByID(ctx context.Context, complaintID string) (Complaint, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id=$1`, complaintID)
	return scanComplaint(row)
}

// AssignComplaint atomically claims an unassigned complaint for assigneeID and
// records the transition in the same transaction. A false return means the
// complaint was already assigned: the caller lost the race (or arrived late)
// and must not overwrite the winner.
func (s *PostgresStore) AssignComplaint(ctx context.Context, complaintID, assigneeID, updatedBy string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin assign tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE complaints
		SET assigned_to=$2, status=$3, updated_at=NOW()
		WHERE id=$1 AND assigned_to IS NULL AND status=$4
	`, complaintID, assigneeID, StatusInReview, StatusReceived)
	if err != nil {
		return false, fmt.Errorf("assign complaint: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign complaint rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO complaint_events (complaint_id, kind, status, notes, updated_by)
		VALUES ($1, $2, $3, $4, $5)
	`, complaintID, EventKindTransition, StatusInReview, "assigned", updatedBy); err != nil {
		return false, fmt.Errorf("record assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit assign: %w", err)
	}
	return true, nil
}

// TransitionComplaint moves a complaint from one of fromStatuses to newStatus
// and appends the history entry in the same transaction. A false return means
// the complaint was no longer in an eligible state.
func (s *PostgresStore) TransitionComplaint(ctx context.Context, complaintID, newStatus string, fromStatuses []string, notes, updatedBy string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, 0, len(fromStatuses))
	args := []any{complaintID, newStatus}
	for i, status := range fromStatuses {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
		args = append(args, status)
	}
	result, err := tx.ExecContext(ctx, `
		UPDATE complaints
		SET status=$2, updated_at=NOW()
		WHERE id=$1 AND status IN (`+strings.Join(placeholders, ",")+`)
	`, args...)
	if err != nil {
		return false, fmt.Errorf("transition complaint: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition complaint rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO complaint_events (complaint_id, kind, status, notes, updated_by)
		VALUES ($1, $2, $3, $4, $5)
	`, complaintID, EventKindTransition, newStatus, notes, updatedBy); err != nil {
		return false, fmt.Errorf("record transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transition: %w", err)
	}
	return true, nil
}

// RespondComplaint stores the official response, moves the complaint to
// newStatus and appends a history entry annotated with the response text.
func (s *PostgresStore) RespondComplaint(ctx context.Context, complaintID, response, newStatus string, fromStatuses []string, updatedBy string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin respond tx: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, 0, len(fromStatuses))
	args := []any{complaintID, response, newStatus}
	for i, status := range fromStatuses {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+4))
		args = append(args, status)
	}
	result, err := tx.ExecContext(ctx, `
		UPDATE complaints
		SET official_response=$2, status=$3, updated_at=NOW()
		WHERE id=$1 AND status IN (`+strings.Join(placeholders, ",")+`)
	`, args...)
	if err != nil {
		return false, fmt.Errorf("respond complaint: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("respond complaint rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO complaint_events (complaint_id, kind, status, notes, updated_by)
		VALUES ($1, $2, $3, $4, $5)
	`, complaintID, EventKindTransition, newStatus, response, updatedBy); err != nil {
		return false, fmt.Errorf("record response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit respond: %w", err)
	}
	return true, nil
}

// AppendComplaintNote adds a free-text progress note without touching the
// status column.
func (s *PostgresStore) AppendComplaintNote(ctx context.Context, complaintID, notes, updatedBy string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO complaint_events (complaint_id, kind, status, notes, updated_by)
		VALUES ($1, $2, '', $3, $4)
	`, complaintID, EventKindNote, notes, updatedBy)
	if err != nil {
		return fmt.Errorf("append complaint note: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListComplaintEvents(ctx context.Context, complaintID string) ([]ComplaintEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, complaint_id, kind, status, notes, updated_by, created_at
		FROM complaint_events
		WHERE complaint_id=$1
		ORDER BY id ASC
	`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("list complaint events: %w", err)
	}
	defer rows.Close()

	items := make([]ComplaintEvent, 0)
	for rows.Next() {
		var item ComplaintEvent
		if err := rows.Scan(&item.ID, &item.ComplaintID, &item.Kind, &item.Status, &item.Notes, &item.UpdatedBy, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan complaint event: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaint events: %w", err)
	}
	return items, nil
}

// ListComplaints returns complaints matching filter. createdBy and assignedTo
// scope the result set for citizen and volunteer views; both empty means the
// admin view over everything.
func (s *PostgresStore) ListComplaints(ctx context.Context, filter ComplaintFilter, createdBy, assignedTo string) ([]Complaint, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+complaintColumns+`
		FROM complaints
		WHERE ($1='' OR created_by=$1)
		  AND ($2='' OR assigned_to=$2)
		  AND ($3='' OR status=$3)
		  AND ($4='' OR category=$4)
		  AND ($5='' OR location ILIKE '%' || $5 || '%')
		  AND ($6::timestamptz IS NULL OR created_at >= $6)
		  AND ($7::timestamptz IS NULL OR created_at <= $7)
		ORDER BY created_at DESC
		LIMIT $8 OFFSET $9
	`, createdBy, assignedTo, filter.Status, filter.Category, filter.Location, filter.From, filter.To, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	items := make([]Complaint, 0)
	for rows.Next() {
		item, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return items, nil
}

// --- polls ---

func (s *PostgresStore) InsertPoll(ctx context.Context, poll Poll) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin poll tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO polls (id, title, created_by, target_location)
		VALUES ($1, $2, $3, $4)
	`, poll.ID, poll.Title, poll.CreatedBy, poll.TargetLocation); err != nil {
		return fmt.Errorf("insert poll: %w", err)
	}

	for position, option := range poll.Options {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO poll_options (poll_id, position, label)
			VALUES ($1, $2, $3)
		`, poll.ID, position, option); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert poll option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit poll: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPoll(ctx context.Context, pollID string) (Poll, error) {
	var poll Poll
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_by, target_location, created_at
		FROM polls
		WHERE id=$1
	`, pollID).Scan(&poll.ID, &poll.Title, &poll.CreatedBy, &poll.TargetLocation, &poll.CreatedAt)
	if err != nil {
		return Poll{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT label FROM poll_options WHERE poll_id=$1 ORDER BY position ASC
	`, pollID)
	if err != nil {
		return Poll{}, fmt.Errorf("list poll options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return Poll{}, fmt.Errorf("scan poll option: %w", err)
		}
		poll.Options = append(poll.Options, label)
	}
	if err := rows.Err(); err != nil {
		return Poll{}, fmt.Errorf("iterate poll options: %w", err)
	}
	return poll, nil
}

func (s *PostgresStore) ListPolls(ctx context.Context, targetLocation string) ([]Poll, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_by, target_location, created_at
		FROM polls
		WHERE ($1='' OR target_location='' OR target_location ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
	`, targetLocation)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	defer rows.Close()

	items := make([]Poll, 0)
	for rows.Next() {
		var poll Poll
		if err := rows.Scan(&poll.ID, &poll.Title, &poll.CreatedBy, &poll.TargetLocation, &poll.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan poll: %w", err)
		}
		items = append(items, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate polls: %w", err)
	}
	return items, nil
}

// --- votes ---

// InsertVote records a vote. The UNIQUE (poll_id, user_id) index is the
// authoritative one-vote-per-user guarantee; the loser of a concurrent
// double-submit gets ErrDuplicate here.
func (s *PostgresStore) InsertVote(ctx context.Context, vote Vote) (Vote, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO votes (id, poll_id, user_id, selected_option)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, vote.ID, vote.PollID, vote.UserID, vote.SelectedOption).Scan(&vote.CreatedAt)
	if isUniqueViolation(err) {
		return Vote{}, ErrDuplicate
	}
	if err != nil {
		return Vote{}, fmt.Errorf("insert vote: %w", err)
	}
	return vote, nil
}

func (s *PostgresStore) GetVote(ctx context.Context, pollID, userID string) (Vote, error) {
	var vote Vote
	err := s.db.QueryRowContext(ctx, `
		SELECT id, poll_id, user_id, selected_option, created_at
		FROM votes
		WHERE poll_id=$1 AND user_id=$2
	`, pollID, userID).Scan(&vote.ID, &vote.PollID, &vote.UserID, &vote.SelectedOption, &vote.CreatedAt)
	if err != nil {
		return Vote{}, err
	}
	return vote, nil
}

func (s *PostgresStore) ListVotes(ctx context.Context, pollID string) ([]Vote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, poll_id, user_id, selected_option, created_at
		FROM votes
		WHERE poll_id=$1
		ORDER BY created_at ASC
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	defer rows.Close()

	items := make([]Vote, 0)
	for rows.Next() {
		var vote Vote
		if err := rows.Scan(&vote.ID, &vote.PollID, &vote.UserID, &vote.SelectedOption, &vote.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		items = append(items, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes: %w", err)
	}
	return items, nil
}

// --- notification log ---

func (s *PostgresStore) InsertNotificationLog(ctx context.Context, entry NotificationLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_log (recipient, channel, event_kind, subject, body, status, error_detail)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, entry.Recipient, entry.Channel, entry.EventKind, entry.Subject, entry.Body, entry.Status, entry.ErrorDetail)
	if err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNotificationsByRecipient(ctx context.Context, recipient string, limit int) ([]NotificationLogEntry, error) {
	return s.listNotifications(ctx, recipient, "", limit)
}

func (s *PostgresStore) ListNotificationLog(ctx context.Context, status string, limit int) ([]NotificationLogEntry, error) {
	return s.listNotifications(ctx, "", status, limit)
}

func (s *PostgresStore) listNotifications(ctx context.Context, recipient, status string, limit int) ([]NotificationLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient, channel, event_kind, subject, body, status, COALESCE(error_detail, ''), created_at
		FROM notification_log
		WHERE ($1='' OR recipient=$1)
		  AND ($2='' OR status=$2)
		ORDER BY id DESC
		LIMIT $3
	`, recipient, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list notification log: %w", err)
	}
	defer rows.Close()

	items := make([]NotificationLogEntry, 0)
	for rows.Next() {
		var item NotificationLogEntry
		if err := rows.Scan(&item.ID, &item.Recipient, &item.Channel, &item.EventKind, &item.Subject, &item.Body, &item.Status, &item.ErrorDetail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification log: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification log: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) NotificationCountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)::int FROM notification_log GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan notification count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification counts: %w", err)
	}
	return counts, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
