package model

import "fmt"

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeEmpty   Outcome = "EMPTY"
	OutcomeError   Outcome = "ERROR"
)

type Stats struct {
	Archived int64 `json:"archived"`
	Skipped  int64 `json:"skipped"`
	Failed   int64 `json:"failed"`
	Bytes    int64 `json:"bytes"`
}

type Result struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message,omitempty"`
	Stats   Stats   `json:"stats"`
}

func Success(stats Stats) Result {
	return Result{Outcome: OutcomeSuccess, Stats: stats}
}

func Empty(msg string) Result {
	return Result{Outcome: OutcomeEmpty, Message: msg}
}

func Errorf(format string, args ...any) Result {
	return Result{Outcome: OutcomeError, Message: fmt.Sprintf(format, args...)}
}

func (r Result) String() string {
	if r.Message == "" {
		return string(r.Outcome)
	}
	return fmt.Sprintf("%s: %s", r.Outcome, r.Message)
}
