package session

import "context"

// Phase is the lifecycle position of a request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return ""
	}
}

// Ticket identifies one request issued by a controller.
type Ticket uint64

// Outcome is the result of a [Call], tagged with the ticket it was issued under.
type Outcome[T any] struct {
	Ticket Ticket
	Value  T
	Err    error
}

// Call performs the network half of a request. It is safe to run off the event loop.
type Call[T any] func(ctx context.Context) Outcome[T]

// RequestState tracks one request lifecycle.
//
// Data is present only in [PhaseSuccess] and the error message only in [PhaseError].
type RequestState[T any] struct {
	phase  Phase
	data   T
	errMsg string
	ticket Ticket
}

func (s *RequestState[T]) Phase() Phase  { return s.phase }
func (s *RequestState[T]) Pending() bool { return s.phase == PhasePending }

// Data returns the stored value when the last request succeeded.
func (s *RequestState[T]) Data() (T, bool) {
	if s.phase != PhaseSuccess {
		var zero T
		return zero, false
	}
	return s.data, true
}

// Error returns the message when the last request failed.
func (s *RequestState[T]) Error() (string, bool) {
	if s.phase != PhaseError {
		return "", false
	}
	return s.errMsg, true
}

// Current reports whether t belongs to the request in flight.
func (s *RequestState[T]) Current(t Ticket) bool {
	return s.phase == PhasePending && t == s.ticket
}

// begin moves to pending, clearing prior data and error, and issues a new ticket.
func (s *RequestState[T]) begin() Ticket {
	var zero T
	s.ticket++
	s.phase = PhasePending
	s.data = zero
	s.errMsg = ""
	return s.ticket
}

func (s *RequestState[T]) succeed(t Ticket, data T) bool {
	if !s.Current(t) {
		return false
	}
	s.phase = PhaseSuccess
	s.data = data
	s.errMsg = ""
	return true
}

func (s *RequestState[T]) fail(t Ticket, msg string) bool {
	if !s.Current(t) {
		return false
	}
	var zero T
	s.phase = PhaseError
	s.data = zero
	s.errMsg = msg
	return true
}

// reject records a client-side failure that never reached the network.
func (s *RequestState[T]) reject(msg string) {
	var zero T
	s.ticket++
	s.phase = PhaseError
	s.data = zero
	s.errMsg = msg
}
