// Package apperr defines the error kinds surfaced by vidhub services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindAuthenticationRequired
	KindAuthorizationDenied
	KindNotFound
	KindUpload
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindAuthenticationRequired:
		return "authentication_required"
	case KindAuthorizationDenied:
		return "authorization_denied"
	case KindNotFound:
		return "not_found"
	case KindUpload:
		return "upload_error"
	case KindConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// Stage names the resource a multi-step mutation was touching when it failed.
type Stage string

const (
	StageLikes          Stage = "likes"
	StageComments       Stage = "comments"
	StageRecord         Stage = "record"
	StageVideoAsset     Stage = "video_asset"
	StageThumbnailAsset Stage = "thumbnail_asset"
	StageOldThumbnail   Stage = "old_thumbnail"
	StageNewThumbnail   Stage = "new_thumbnail"
	StageAvatarAsset    Stage = "avatar_asset"
	StageCoverAsset     Stage = "cover_image_asset"
)

// Error is a classified service failure.
type Error struct {
	Kind    Kind
	Stage   Stage
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Stage != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Stage)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind and, when set on the target, by stage.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Stage == "" || t.Stage == e.Stage
}

// Sentinels usable with errors.Is.
var (
	ErrInvalidInput           = &Error{Kind: KindInvalidInput}
	ErrAuthenticationRequired = &Error{Kind: KindAuthenticationRequired}
	ErrAuthorizationDenied    = &Error{Kind: KindAuthorizationDenied}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrUpload                 = &Error{Kind: KindUpload}
	ErrConflict               = &Error{Kind: KindConflict}
	ErrInternal               = &Error{Kind: KindInternal}
)

func InvalidInput(msg string) *Error { return &Error{Kind: KindInvalidInput, Message: msg} }

func AuthenticationRequired(msg string) *Error {
	return &Error{Kind: KindAuthenticationRequired, Message: msg}
}

func AuthorizationDenied(msg string) *Error {
	return &Error{Kind: KindAuthorizationDenied, Message: msg}
}

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Upload reports an asset store failure at the given stage.
func Upload(stage Stage, msg string, err error) *Error {
	return &Error{Kind: KindUpload, Stage: stage, Message: msg, Err: err}
}

// Internal reports an unexpected persistence failure, optionally tied to a stage.
func Internal(stage Stage, msg string, err error) *Error {
	return &Error{Kind: KindInternal, Stage: stage, Message: msg, Err: err}
}

// KindOf extracts the kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StageOf extracts the stage of err, if any.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
