package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorBadRequest marks failures the caller can correct (empty required list,
// missing required filter). Wrap with fmt.Errorf("...: %w", ErrorBadRequest).
var ErrorBadRequest = errors.New("bad request")

// ErrorConflict marks state-transition violations, e.g. validating a host that
// already carries a live validation record for that date.
var ErrorConflict = errors.New("conflict")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrorRecordNotFound)
}

func IsBadRequest(err error) bool {
	return errors.Is(err, ErrorBadRequest)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrorConflict)
}
