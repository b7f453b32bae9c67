package app

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrExtractFailed      = errors.New("could not extract text from document")
	ErrPersistFailed      = errors.New("could not persist document")
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRetrievalFailed    = errors.New("retrieval failed")
	ErrGenerationFailed   = errors.New("generation failed")
)
