package errors

import stderrors "errors"

// As, Is and Unwrap forward to the standard library so callers can import a
// single errors package.
func As(err error, target any) bool { return stderrors.As(err, target) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func Unwrap(err error) error { return stderrors.Unwrap(err) }
