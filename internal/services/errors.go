package services

import (
	stderrors "errors"
	"fmt"

	"github.com/jornadaii/certify/internal/errors"
	"github.com/jornadaii/certify/internal/repository"
)

// NotRegisteredMessage is shown when an email has no registration record
const NotRegisteredMessage = "No encontramos tu correo en los registros del evento."

// Service errors
var (
	ErrBaseURLNotSet   = &ServiceError{Message: "base_url not configured"}
	ErrRemoteDisabled  = &ServiceError{Message: "cloud store is not configured"}
	ErrInvalidSettings = &ServiceError{Message: "base_url must be an absolute http(s) URL"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// storageError converts a record store failure into the application error
// the HTTP layer understands. Application errors pass through unchanged.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.Error
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.StorageUnavailable(fmt.Errorf("%s: %w", op, err))
}

// notRegistered maps the repository's not-found to the participant-facing error
func notRegistered(op string, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound(NotRegisteredMessage)
	}
	return storageError(op, err)
}
