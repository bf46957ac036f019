package errors

import (
	goerrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrEmptyField         = fmt.Errorf("required field is empty")
	ErrInvalidEmail       = fmt.Errorf("email address is malformed")
	ErrPasswordTooShort   = fmt.Errorf("password is too short")
	ErrEmptyMessage       = fmt.Errorf("message needs a text or an attachment")
	ErrNotAnImage         = fmt.Errorf("attachment is not an image")
	ErrAttachmentTooLarge = fmt.Errorf("attachment exceeds the size limit")
	ErrEmptyAttachment    = fmt.Errorf("attachment is empty")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrSessionNotFound    = fmt.Errorf("no active session")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnreachable        = fmt.Errorf("backend unreachable")

	ErrNotFound          = fmt.Errorf("not found")
	ErrAttachmentsOff    = fmt.Errorf("attachments are not configured")
	ErrSlowConsumer      = fmt.Errorf("subscriber is not draining its events")
	ErrChannelClosed     = fmt.Errorf("realtime channel closed")
	ErrUnknownBackend    = fmt.Errorf("unknown backend")
	ErrMissingAppwriteID = fmt.Errorf("appwrite project and database ids are required")
)

// Kind classifies a failure by the component that produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindStore
	KindChannel
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindAuth:
		return "auth error"
	case KindStore:
		return "store error"
	case KindChannel:
		return "channel error"
	default:
		return "unknown error"
	}
}

// Error is a failure tagged with its Kind and the operation that raised it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(op string, err error) error { return wrap(KindValidation, op, err) }
func Auth(op string, err error) error       { return wrap(KindAuth, op, err) }
func Store(op string, err error) error      { return wrap(KindStore, op, err) }
func Channel(op string, err error) error    { return wrap(KindChannel, op, err) }

func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost tagged error in the chain.
func KindOf(err error) Kind {
	var tagged *Error
	if goerrors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsAuth(err error) bool       { return KindOf(err) == KindAuth }
func IsStore(err error) bool      { return KindOf(err) == KindStore }
func IsChannel(err error) bool    { return KindOf(err) == KindChannel }
