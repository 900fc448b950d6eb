package domain

import "errors"

var (
	// ErrInvalidInput covers out-of-range option indexes and malformed filters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrIncompleteAssessment is returned when finish is called before every question is answered.
	ErrIncompleteAssessment = errors.New("assessment incomplete")
	// ErrDuplicateID indicates a score record with the same id is already stored.
	ErrDuplicateID = errors.New("duplicate score record id")
	// ErrNotFound indicates a category (or topic) id is absent from the catalog.
	ErrNotFound = errors.New("not found")
	// ErrCatalogIntegrity is fatal: the catalog failed validation at load time.
	ErrCatalogIntegrity = errors.New("catalog integrity violation")
	// ErrNoActiveSession is returned when a user acts without a started assessment.
	ErrNoActiveSession = errors.New("no active assessment session")
	// ErrSessionFinished is returned for mutations on a completed session.
	ErrSessionFinished = errors.New("assessment session already finished")
)
