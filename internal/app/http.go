package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"civiclink/api/internal/auth"
	"civiclink/api/internal/authpw"
	"civiclink/api/internal/rbac"
	"civiclink/api/internal/search"
	"civiclink/api/internal/session"
	"civiclink/api/internal/store"
)

const maxPhotoBytes = 10 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleSignIn(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		sess, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(sess))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		sess := Session{}
		if token := bearerToken(r); token != "" {
			if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
				sess = parsed
			}
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), sess, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		sess, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userId":        sess.UserID,
			"userName":      sess.UserName,
			"role":          sess.Role,
		})
		return
	}

	// Everything below requires a session.
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch parts[1] {
	case "complaints":
		s.handleComplaints(w, r, sess, parts)
		return
	case "polls":
		s.handlePolls(w, r, sess, parts)
		return
	case "notifications":
		if r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "mine" {
			entries, err := s.service.MyNotifications(r.Context(), sess, queryInt(r, "limit", 50))
			if err != nil {
				writeMapped(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"notifications": notificationPayloads(entries)})
			return
		}
	case "admin":
		s.handleAdmin(w, r, sess, parts)
		return
	case "search":
		if r.Method == http.MethodGet && len(parts) == 2 {
			if !s.service.Can(sess.Role, rbac.ActionViewAllComplaints) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			response := s.service.SearchComplaints(search.Query{
				Text:           strings.TrimSpace(r.URL.Query().Get("q")),
				FilterStatus:   r.URL.Query().Get("status"),
				FilterCategory: r.URL.Query().Get("category"),
				Limit:          queryInt(r, "limit", 20),
				Offset:         queryInt(r, "offset", 0),
			})
			writeJSON(w, http.StatusOK, response)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
		Location    string `json:"location"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.SignUp(r.Context(), authpw.SignUpRequest{
		Email:       body.Email,
		Password:    body.Password,
		DisplayName: body.DisplayName,
		Location:    body.Location,
	})
	if err != nil {
		writeMapped(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(sess))
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		writeMapped(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(sess))
}

func (s *HTTPServer) handleComplaints(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	// POST /api/complaints
	if r.Method == http.MethodPost && len(parts) == 2 {
		if !s.service.Can(sess.Role, rbac.ActionSubmitComplaint) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body SubmitComplaintInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		complaint, err := s.service.SubmitComplaint(r.Context(), sess, body)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, complaintPayload(complaint))
		return
	}

	// GET /api/complaints
	if r.Method == http.MethodGet && len(parts) == 2 {
		if !s.service.Can(sess.Role, rbac.ActionViewAllComplaints) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		filter, err := parseComplaintFilter(r)
		if err != nil {
			writeMapped(w, err)
			return
		}
		items, err := s.service.ListAllComplaints(r.Context(), filter)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"complaints": items})
		return
	}

	if len(parts) != 3 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch parts[2] {
	case "mine":
		if r.Method != http.MethodGet {
			break
		}
		if !s.service.Can(sess.Role, rbac.ActionViewOwnComplaints) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		filter, err := parseComplaintFilter(r)
		if err != nil {
			writeMapped(w, err)
			return
		}
		items, err := s.service.ListMyComplaints(r.Context(), sess, filter)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"complaints": items})
		return

	case "assigned":
		if r.Method != http.MethodGet {
			break
		}
		if !s.service.Can(sess.Role, rbac.ActionViewAssigned) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		filter, err := parseComplaintFilter(r)
		if err != nil {
			writeMapped(w, err)
			return
		}
		items, err := s.service.ListAssignedComplaints(r.Context(), sess, filter)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"complaints": items})
		return

	case "public":
		if r.Method != http.MethodGet {
			break
		}
		filter, err := parseComplaintFilter(r)
		if err != nil {
			writeMapped(w, err)
			return
		}
		items, err := s.service.ListPublicComplaints(r.Context(), filter)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"complaints": items})
		return

	case "assign":
		if r.Method != http.MethodPut {
			break
		}
		if !s.service.Can(sess.Role, rbac.ActionAssignComplaint) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Code       string `json:"code"`
			AssigneeID string `json:"assigneeId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		complaint, err := s.service.AssignComplaint(r.Context(), sess, body.Code, body.AssigneeID)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, complaintPayload(complaint))
		return

	case "update-status":
		if r.Method != http.MethodPut {
			break
		}
		if !s.service.Can(sess.Role, rbac.ActionUpdateStatus) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Code   string `json:"code"`
			Status string `json:"status"`
			Notes  string `json:"notes"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		complaint, err := s.service.UpdateComplaintStatus(r.Context(), sess, body.Code, body.Status, body.Notes)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, complaintPayload(complaint))
		return

	case "respond":
		if r.Method != http.MethodPut {
			break
		}
		if !s.service.Can(sess.Role, rbac.ActionRespondComplaint) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Code     string `json:"code"`
			Response string `json:"response"`
			Status   string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		complaint, err := s.service.RespondComplaint(r.Context(), sess, body.Code, body.Response, body.Status)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, complaintPayload(complaint))
		return

	case "note":
		if r.Method != http.MethodPost {
			break
		}
		if !s.service.Can(sess.Role, rbac.ActionUpdateStatus) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			Code   string `json:"code"`
			Notes  string `json:"notes"`
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		complaint, err := s.service.AddProgressNote(r.Context(), sess, body.Code, body.Notes, body.Status)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, complaintPayload(complaint))
		return

	case "photo":
		if r.Method != http.MethodPost {
			break
		}
		if !s.service.Can(sess.Role, rbac.ActionSubmitComplaint) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		data, err := io.ReadAll(io.LimitReader(r.Body, maxPhotoBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not read photo body", nil)
			return
		}
		ref, err := s.service.UploadPhoto(r.Context(), data, r.Header.Get("Content-Type"))
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"photoRef": ref})
		return

	default:
		// GET /api/complaints/{code}
		if r.Method == http.MethodGet {
			payload, err := s.service.GetComplaint(r.Context(), sess, parts[2])
			if err != nil {
				writeMapped(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handlePolls(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	// POST /api/polls
	if r.Method == http.MethodPost && len(parts) == 2 {
		if !s.service.Can(sess.Role, rbac.ActionCreatePoll) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body CreatePollInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		poll, err := s.service.CreatePoll(r.Context(), sess, body)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, pollPayload(poll))
		return
	}

	// GET /api/polls
	if r.Method == http.MethodGet && len(parts) == 2 {
		polls, err := s.service.ListPolls(r.Context(), strings.TrimSpace(r.URL.Query().Get("location")))
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"polls": pollPayloads(polls)})
		return
	}

	// POST /api/polls/{id}/vote
	if r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "vote" {
		if !s.service.Can(sess.Role, rbac.ActionVote) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			SelectedOption string `json:"selectedOption"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		vote, err := s.service.SubmitVote(r.Context(), sess, parts[2], body.SelectedOption)
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, votePayload(vote))
		return
	}

	// GET /api/polls/{id}/results
	if r.Method == http.MethodGet && len(parts) == 4 && parts[3] == "results" {
		if !s.service.Can(sess.Role, rbac.ActionViewResults) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		payload, err := s.service.PollResults(r.Context(), parts[2])
		if err != nil {
			writeMapped(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleAdmin(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	if len(parts) < 3 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch parts[2] {
	case "notifications":
		if !s.service.Can(sess.Role, rbac.ActionViewNotifyLog) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		if r.Method == http.MethodGet && len(parts) == 3 {
			entries, err := s.service.NotificationLog(r.Context(), r.URL.Query().Get("status"), queryInt(r, "limit", 50))
			if err != nil {
				writeMapped(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"notifications": notificationPayloads(entries)})
			return
		}
		if r.Method == http.MethodGet && len(parts) == 4 && parts[3] == "stats" {
			counts, err := s.service.NotificationStats(r.Context())
			if err != nil {
				writeMapped(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
			return
		}

	case "users":
		if !s.service.Can(sess.Role, rbac.ActionManageUsers) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		if r.Method == http.MethodGet && len(parts) == 3 {
			users, err := s.service.ListUsers(r.Context(), r.URL.Query().Get("role"))
			if err != nil {
				writeMapped(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"users": userPayloads(users)})
			return
		}
		if r.Method == http.MethodPut && len(parts) == 4 && parts[3] == "role" {
			var body struct {
				UserID string `json:"userId"`
				Role   string `json:"role"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			user, err := s.service.UpdateUserRole(r.Context(), body.UserID, body.Role)
			if err != nil {
				writeMapped(w, err)
				return
			}
			writeJSON(w, http.StatusOK, userPayload(user))
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	sess, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return sess, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeMapped(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseComplaintFilter(r *http.Request) (store.ComplaintFilter, error) {
	filter := store.ComplaintFilter{
		Status:   r.URL.Query().Get("status"),
		Category: r.URL.Query().Get("category"),
		Location: r.URL.Query().Get("location"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 20),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return store.ComplaintFilter{}, errValidation("from must be RFC3339", nil)
		}
		filter.From = &parsed
	}
	if to := r.URL.Query().Get("to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return store.ComplaintFilter{}, errValidation("to must be RFC3339", nil)
		}
		filter.To = &parsed
	}
	return filter, nil
}

func sessionPayload(sess Session) map[string]any {
	return map[string]any{
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
		"userId":       sess.UserID,
		"userName":     sess.UserName,
		"role":         sess.Role,
	}
}

func userPayload(user store.User) map[string]any {
	return map[string]any{
		"id":          user.ID,
		"displayName": user.DisplayName,
		"email":       user.Email,
		"role":        user.Role,
		"location":    user.Location,
		"createdAt":   user.CreatedAt,
	}
}

func userPayloads(users []store.User) []map[string]any {
	items := make([]map[string]any, 0, len(users))
	for _, user := range users {
		items = append(items, userPayload(user))
	}
	return items
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, session.ErrNotFound) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, authpw.ErrInvalidCredentials) {
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil
	}
	if errors.Is(err, authpw.ErrEmailTaken) {
		return http.StatusConflict, "EMAIL_TAKEN", "Email already registered", nil
	}
	if errors.Is(err, authpw.ErrInvalidInput) {
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil
	}
	if errors.Is(err, store.ErrDuplicate) {
		return http.StatusConflict, "DUPLICATE", "Duplicate entry", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
