package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func errValidation(message string, details any) *DomainError {
	return domainError(http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func errForbidden() *DomainError {
	return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
}

func errNotFound(message string) *DomainError {
	return domainError(http.StatusNotFound, "NOT_FOUND", message, nil)
}

func errInvalidState(message string) *DomainError {
	return domainError(http.StatusConflict, "INVALID_STATE", message, nil)
}

func errInvalidTransition(from, to string) *DomainError {
	return domainError(http.StatusBadRequest, "INVALID_TRANSITION",
		fmt.Sprintf("cannot move complaint from %s to %s", from, to),
		map[string]any{"from": from, "to": to})
}

func errInvalidOption(valid []string) *DomainError {
	return domainError(http.StatusBadRequest, "INVALID_OPTION",
		"selected option is not part of this poll",
		map[string]any{"validOptions": valid})
}

func errDuplicateVote(votedAt string) *DomainError {
	return domainError(http.StatusBadRequest, "DUPLICATE_VOTE",
		"you have already voted in this poll",
		map[string]any{"votedAt": votedAt})
}
