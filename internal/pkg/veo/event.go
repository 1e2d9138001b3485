package veo

import (
	"encoding/json"
	"errors"
	"strings"
)

// Outcome is the canonical terminal state of a provider task
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomePending Outcome = "pending"
)

var ErrNoTaskID = errors.New("veo: event carries no task id")

// TaskEvent is the single shape reconciliation works with,
// regardless of which provider payload variant produced it.
type TaskEvent struct {
	TaskID       string
	Outcome      Outcome
	ResultURLs   []string
	ErrorMessage string
}

// callbackPayload covers the provider webhook variants seen in the wild:
// task id as taskId or task_id, flat or under data, state as a word or
// a numeric success flag, result urls flat or inside resultJson.
type callbackPayload struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID      string          `json:"taskId"`
		TaskIDSnake string          `json:"task_id"`
		State       string          `json:"state"`
		SuccessFlag *int            `json:"successFlag"`
		ResultJSON  string          `json:"resultJson"`
		ResultURLs  []string        `json:"resultUrls"`
		Info        json.RawMessage `json:"info"`
		FailCode    string          `json:"failCode"`
		FailMsg     string          `json:"failMsg"`
		ErrorMsg    string          `json:"errorMessage"`
	} `json:"data"`
	TaskID      string `json:"taskId"`
	TaskIDSnake string `json:"task_id"`
	State       string `json:"state"`
}

// ParseCallback normalizes a raw webhook body into a TaskEvent
func ParseCallback(body []byte) (*TaskEvent, error) {
	var p callbackPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}

	event := &TaskEvent{
		TaskID: firstNonEmpty(p.Data.TaskID, p.Data.TaskIDSnake, p.TaskID, p.TaskIDSnake),
	}
	if event.TaskID == "" {
		return nil, ErrNoTaskID
	}

	state := firstNonEmpty(p.Data.State, p.State)
	event.Outcome = normalizeState(state, p.Data.SuccessFlag, p.Code)

	event.ResultURLs = p.Data.ResultURLs
	if len(event.ResultURLs) == 0 && p.Data.ResultJSON != "" {
		var result struct {
			ResultURLs []string `json:"resultUrls"`
		}
		if err := json.Unmarshal([]byte(p.Data.ResultJSON), &result); err == nil {
			event.ResultURLs = result.ResultURLs
		}
	}
	if len(event.ResultURLs) == 0 && len(p.Data.Info) > 0 {
		var info struct {
			ResultURLs []string `json:"resultUrls"`
		}
		if err := json.Unmarshal(p.Data.Info, &info); err == nil {
			event.ResultURLs = info.ResultURLs
		}
	}

	// A success without any result url cannot be fulfilled
	if event.Outcome == OutcomeSuccess && len(event.ResultURLs) == 0 {
		event.Outcome = OutcomeFailure
		event.ErrorMessage = "provider reported success without result urls"
		return event, nil
	}

	if event.Outcome == OutcomeFailure {
		event.ErrorMessage = firstNonEmpty(p.Data.FailMsg, p.Data.ErrorMsg, p.Msg)
		if event.ErrorMessage == "" {
			event.ErrorMessage = "generation failed"
		}
	}

	return event, nil
}

// FromStatus converts a polled TaskStatus into the same canonical event
func FromStatus(status *TaskStatus) *TaskEvent {
	event := &TaskEvent{
		TaskID:     status.TaskID,
		Outcome:    normalizeState(status.State, nil, 200),
		ResultURLs: status.ResultURLs,
	}
	if event.Outcome == OutcomeSuccess && len(event.ResultURLs) == 0 {
		event.Outcome = OutcomeFailure
		event.ErrorMessage = "provider reported success without result urls"
		return event
	}
	if event.Outcome == OutcomeFailure {
		event.ErrorMessage = status.FailMessage
		if event.ErrorMessage == "" {
			event.ErrorMessage = "generation failed"
		}
	}
	return event
}

func normalizeState(state string, successFlag *int, code int) Outcome {
	switch strings.ToLower(state) {
	case "success", "succeeded", "completed":
		return OutcomeSuccess
	case "fail", "failed", "error":
		return OutcomeFailure
	case "waiting", "generating", "processing", "queued", "queueing", "pending", "running":
		return OutcomePending
	}

	// Some callback variants signal the outcome numerically instead
	if successFlag != nil {
		if *successFlag == 1 {
			return OutcomeSuccess
		}
		return OutcomeFailure
	}
	if code != 0 && code != 200 {
		return OutcomeFailure
	}
	return OutcomePending
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
