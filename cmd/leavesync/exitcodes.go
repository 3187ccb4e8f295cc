package main

import (
	"github.com/iota-uz/leavesync/modules/timesheet/domain/grid"
	"github.com/iota-uz/leavesync/pkg/hrapi"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitAPI        = 4
	exitWrite      = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// apiCode tags err with exitAPI unless it already carries a code.
func apiCode(err error) error {
	var ce *cliError
	if err == nil || as(err, &ce) {
		return err
	}
	return withCode(exitAPI, err)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if ok := as(err, &ce); ok {
		return ce.code
	}
	var apiErr *hrapi.APIError
	switch {
	case is(err, hrapi.ErrAuthentication), is(err, hrapi.ErrPageLimitExceeded), as(err, &apiErr):
		return exitAPI
	case is(err, grid.ErrLayoutMismatch):
		return exitValidation
	}
	return 1
}
