package auth

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindEmailInUse        ErrorKind = "email-already-in-use"
	KindWeakSecret        ErrorKind = "weak-password"
	KindInvalidCredential ErrorKind = "invalid-credential"
	KindUnknown           ErrorKind = "unknown"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Error is returned by Register and Login. Message is safe to show to the
// user.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error) *Error {
	var msg string
	switch kind {
	case KindEmailInUse:
		msg = "Cet email est déjà utilisé"
	case KindWeakSecret:
		msg = "Le mot de passe est trop court"
	case KindInvalidCredential:
		msg = "Email ou mot de passe incorrect"
	default:
		msg = "Une erreur est survenue lors de l'authentification"
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of an auth error, KindUnknown for anything else.
func KindOf(err error) ErrorKind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindUnknown
}
