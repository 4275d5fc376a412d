package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"riftcache/internal/riot"
	"riftcache/internal/settings"
	"riftcache/internal/storage"
)

// Stage names the step an operation failed in.
type Stage string

const (
	StageConfig  Stage = "config"
	StageConnect Stage = "connect"
	StageFetch   Stage = "fetch"
	StageParse   Stage = "parse"
	StagePersist Stage = "persist"
	StageInput   Stage = "input"
)

// Failure is the error every Service operation returns. Its message is
// "<stage>: <detail>" so callers can show it verbatim or split on the prefix.
type Failure struct {
	Stage  Stage
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	return string(f.Stage) + ": " + f.Detail
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// StageOf returns the stage of a Failure in err's chain.
func StageOf(err error) (Stage, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Stage, true
	}
	return "", false
}

func inputFailure(format string, args ...any) *Failure {
	return &Failure{Stage: StageInput, Detail: fmt.Sprintf(format, args...)}
}

// classify maps a lower layer error to a Failure. nil stays nil.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	return &Failure{Stage: stageFor(err), Detail: err.Error(), Err: err}
}

func stageFor(err error) Stage {
	switch {
	case errors.Is(err, settings.ErrNotConfigured):
		return StageConfig
	case errors.Is(err, settings.ErrInvalidKey), errors.Is(err, settings.ErrInvalidRegion):
		return StageInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StageConnect
	case errors.Is(err, storage.ErrNotFound):
		return StageFetch
	}

	if kind, ok := riot.KindOf(err); ok {
		switch kind {
		case riot.KindTransport:
			return StageConnect
		case riot.KindDecode:
			return StageParse
		default:
			return StageFetch
		}
	}

	var serr *storage.StorageError
	if errors.As(err, &serr) {
		if serr.Type == storage.ErrorTypeInvalidData {
			return StageInput
		}
		return StagePersist
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return StageParse
	}

	return StageFetch
}
