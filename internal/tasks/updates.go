package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ProbeHealth Phase = iota
	ProbeStats
	AskQuery
	Answered
)

func (p Phase) String() string {
	switch p {
	case ProbeHealth:
		return "probe_health"
	case ProbeStats:
		return "probe_stats"
	case AskQuery:
		return "ask_query"
	case Answered:
		return "answered"
	default:
		return ""
	}
}

func probeHealthUpdate(baseURL string) ProgressUpdate {
	return ProgressUpdate{Phase: ProbeHealth, Step: 1, Total: 2, Message: fmt.Sprintf("Checking %s...", baseURL)}
}

func probeStatsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: ProbeStats, Step: 2, Total: 2, Message: "Loading library statistics..."}
}

func askQueryUpdate(step, total int, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AskQuery,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, query),
	}
}

func answeredUpdate(step, total int, result QueryResult) ProgressUpdate {
	mark := "✓"
	if result.Err != nil {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   Answered,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, result.Query),
		Data:    result,
	}
}
