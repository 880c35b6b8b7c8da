package leads

import "errors"

var (
	// ErrSubmissionInFlight is returned when the same session already has an
	// attempt outstanding for the form.
	ErrSubmissionInFlight = errors.New("leads: submission already in flight")

	// ErrUnknownForm is returned for a form name that is not registered.
	ErrUnknownForm = errors.New("leads: unknown form")

	// ErrMissingSession is returned when Submit is called without a session id.
	ErrMissingSession = errors.New("leads: session id is required")

	// ErrMissingDependency is returned by NewWorkflow when a required
	// collaborator is nil.
	ErrMissingDependency = errors.New("leads: missing workflow dependency")
)
