package domain

import "errors"

var (
	ErrNoRecords        = errors.New("no records found in input")
	ErrEmptyTemplate    = errors.New("template contains no columns")
	ErrEmptyResponse    = errors.New("empty completion response")
	ErrUnparsableOutput = errors.New("no JSON object recoverable from model output")
	ErrMarkerMissing    = errors.New("prompt template missing input marker")
)
