package model

import (
	"errors"
	"fmt"
)

// ErrorKind - класс ошибки, по нему транспорт выбирает статус ответа
type ErrorKind int

const (
	KindInternal  ErrorKind = iota // 500
	KindCaller                     // 400
	KindNotFound                   // 404
	KindInvariant                  // 500, логируется отдельно
)

func (k ErrorKind) String() string {
	switch k {
	case KindCaller:
		return "caller"
	case KindNotFound:
		return "not_found"
	case KindInvariant:
		return "invariant"
	default:
		return "internal"
	}
}

// AppError - классифицированная ошибка. Msg уходит клиенту, Err остаётся в логах.
type AppError struct {
	Kind ErrorKind
	Msg  string
	Err  error

	origin *AppError
}

func (e *AppError) Error() string {
	return e.Msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is - обёрнутая копия совпадает со своим сентинелом
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.root() == t.root()
}

func (e *AppError) root() *AppError {
	if e.origin != nil {
		return e.origin
	}
	return e
}

// Wrap прикрепляет причину к копии сентинела
func (e *AppError) Wrap(cause error) *AppError {
	return &AppError{Kind: e.Kind, Msg: e.Msg, Err: cause, origin: e.root()}
}

// Wrapf - то же, что Wrap, с форматированием причины
func (e *AppError) Wrapf(format string, args ...any) *AppError {
	return e.Wrap(fmt.Errorf(format, args...))
}

// KindOf возвращает класс ошибки; всё неклассифицированное считается внутренней ошибкой
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsPermanent - ошибки, которые не имеет смысла повторять
func IsPermanent(err error) bool {
	switch KindOf(err) {
	case KindCaller, KindNotFound, KindInvariant:
		return true
	default:
		return false
	}
}

// ErrObjectNotFound - в хранилище нет объекта с таким ключом
var ErrObjectNotFound = errors.New("object not found in storage")

var (
	ErrCommon500         = &AppError{Kind: KindInternal, Msg: "something went wrong. Try again later"}
	ErrNoSuchUser        = &AppError{Kind: KindCaller, Msg: "no such userid"}
	ErrNoSuchAsset       = &AppError{Kind: KindCaller, Msg: "no such assetid"}
	ErrInvalidID         = &AppError{Kind: KindCaller, Msg: "incorrect id provided"}
	ErrBadRequest        = &AppError{Kind: KindCaller, Msg: "invalid request body"}
	ErrEmptyFilename     = &AppError{Kind: KindCaller, Msg: "local_filename is required"}
	ErrEmptyImage        = &AppError{Kind: KindCaller, Msg: "empty/incorrect image data provided"}
	ErrUnsupportedFormat = &AppError{Kind: KindCaller, Msg: "unsupported image format, only JPEG and PNG are accepted"}
	ErrImageTooLarge     = &AppError{Kind: KindCaller, Msg: "image exceeds 5MB"}
	ErrThumbnailNotReady = &AppError{Kind: KindNotFound, Msg: "thumbnail not ready"}
	ErrDuplicateUser     = &AppError{Kind: KindInvariant, Msg: "something went wrong. Try again later"}
	ErrDuplicateAsset    = &AppError{Kind: KindInvariant, Msg: "something went wrong. Try again later"}
)
