package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates a required field was blank.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrInvalidCSV indicates the uploaded samples file could not be parsed.
	ErrInvalidCSV = errors.New("invalid samples csv")
	// ErrInvalidRepository indicates a repository outside the supported list.
	ErrInvalidRepository = errors.New("unsupported repository")
	// ErrInvalidAnswer indicates a permissions answer other than unknown/no/yes.
	ErrInvalidAnswer = errors.New("invalid permissions answer")
)
