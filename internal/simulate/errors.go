package simulate

import "errors"

var (
	ErrNoVisits        = errors.New("simulate: at least one visit is required")
	ErrBadRate         = errors.New("simulate: fps must be positive")
	ErrVisitTooShort   = errors.New("simulate: visit shorter than half the detection window")
	ErrVisitTooLong    = errors.New("simulate: visit plus detection window longer than the capture window")
	ErrGapTooShort     = errors.New("simulate: gap shorter than the capture window or spray")
	ErrScriptDone      = errors.New("simulate: script finished")
	ErrVerification    = errors.New("simulate: verification failed")
	ErrUnexpectedReply = errors.New("simulate: unexpected http status")
)
