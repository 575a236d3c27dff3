package accounts

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	textCodeDuplicateUsername = "DUPLICATE_USERNAME"
	textCodeNotApproved       = "ACCOUNT_NOT_APPROVED"
	textCodeBadCredentials    = "INVALID_CREDENTIALS"
	textCodeNotFound          = "ACCOUNT_NOT_FOUND"
)

// ErrDuplicateEmail is returned when a registration reuses an email that is
// already taken.
var ErrDuplicateEmail = goerrors.New("this email is already in use", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateUsername is returned when a registration reuses a username
// that is already taken.
var ErrDuplicateUsername = goerrors.New("this username is already in use", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateUsername).
	WithCode(goerrors.CodeConflict)

// ErrNotApproved is returned when a pending account attempts to log in.
var ErrNotApproved = goerrors.New("your account has not yet been approved by an administrator", goerrors.CategoryAuth).
	WithTextCode(textCodeNotApproved).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is the generic login failure. Unknown emails and bad
// passwords collapse into the same message on purpose; the caller learns
// nothing about which accounts exist.
var ErrInvalidCredentials = goerrors.New("incorrect email or password", goerrors.CategoryAuth).
	WithTextCode(textCodeBadCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountNotFound is returned by registry mutations that target an id
// absent from the expected set.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// UserMessage extracts the human-readable message UI layers surface on the
// shared error field. Rich errors keep their curated text; anything else
// falls back to the generic login failure wording.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Message
	}

	return err.Error()
}
