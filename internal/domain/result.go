package domain

import "net/http"

// Outcome classifies how a stage ended
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeIgnored
	OutcomeAuthFailure
	OutcomeValidationFailure
	OutcomeDownstreamFailure
	OutcomeUnexpectedFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAuthFailure:
		return "auth_failure"
	case OutcomeValidationFailure:
		return "validation_failure"
	case OutcomeDownstreamFailure:
		return "downstream_failure"
	default:
		return "unexpected_failure"
	}
}

// Result is what a stage hands back to its HTTP adapter.
// Status is meaningful only for stages invoked directly; the webhook entry point always answers 200.
type Result struct {
	Outcome Outcome
	Status  int
	Message string
	Err     error
}

// Failed reports whether the result carries a downstream or unexpected failure
func (r Result) Failed() bool {
	return r.Outcome == OutcomeDownstreamFailure || r.Outcome == OutcomeUnexpectedFailure
}

func Accepted(status int, msg string) Result {
	return Result{Outcome: OutcomeAccepted, Status: status, Message: msg}
}

func Ignored(msg string) Result {
	return Result{Outcome: OutcomeIgnored, Status: http.StatusOK, Message: msg}
}

func AuthFailure(msg string, err error) Result {
	return Result{Outcome: OutcomeAuthFailure, Status: http.StatusOK, Message: msg, Err: err}
}

func ValidationFailure(status int, msg string, err error) Result {
	return Result{Outcome: OutcomeValidationFailure, Status: status, Message: msg, Err: err}
}

func DownstreamFailure(status int, msg string, err error) Result {
	return Result{Outcome: OutcomeDownstreamFailure, Status: status, Message: msg, Err: err}
}

func UnexpectedFailure(err error) Result {
	return Result{Outcome: OutcomeUnexpectedFailure, Status: http.StatusOK, Message: "Unexpected error", Err: err}
}

// StageReport collects per-item results of a best-effort loop (one per site or course)
type StageReport struct {
	Summary string
	Items   []Result
}

// Add records one item's result
func (s *StageReport) Add(r Result) {
	s.Items = append(s.Items, r)
}

// Result folds the items into one: a single shared status passes through,
// anything mixed or failed becomes 207 with the stage summary.
func (s StageReport) Result() Result {
	if len(s.Items) == 0 {
		return ValidationFailure(http.StatusNotFound, "No campus site found for the purchased courses", ErrUnknownSite)
	}

	first := s.Items[0]
	if len(s.Items) == 1 {
		if first.Failed() {
			first.Status = http.StatusMultiStatus
		}
		return first
	}

	mixed := Result{Outcome: OutcomeAccepted, Status: http.StatusMultiStatus, Message: s.Summary}
	uniform := true
	for _, item := range s.Items {
		if item.Failed() {
			mixed.Outcome = OutcomeDownstreamFailure
			uniform = false
		}
		if item.Status != first.Status {
			uniform = false
		}
	}
	if uniform {
		return first
	}
	return mixed
}
