package veo_test

import (
	"errors"
	"testing"

	"github.com/reelforge/reelforge-api/internal/pkg/veo"
)

func TestParseCallbackSuccessVariants(t *testing.T) {
	bodies := []string{
		`{"code":200,"data":{"taskId":"t-1","state":"success","resultUrls":["https://cdn/v.mp4"]}}`,
		`{"code":200,"data":{"task_id":"t-1","state":"success","resultJson":"{\"resultUrls\":[\"https://cdn/v.mp4\"]}"}}`,
		`{"code":200,"data":{"taskId":"t-1","successFlag":1,"info":{"resultUrls":["https://cdn/v.mp4"]}}}`,
	}

	for _, body := range bodies {
		event, err := veo.ParseCallback([]byte(body))
		if err != nil {
			t.Fatalf("ParseCallback(%s): %v", body, err)
		}
		if event.TaskID != "t-1" {
			t.Errorf("task id = %q, want t-1", event.TaskID)
		}
		if event.Outcome != veo.OutcomeSuccess {
			t.Errorf("outcome = %q, want success (body %s)", event.Outcome, body)
		}
		if len(event.ResultURLs) != 1 || event.ResultURLs[0] != "https://cdn/v.mp4" {
			t.Errorf("result urls = %v", event.ResultURLs)
		}
	}
}

func TestParseCallbackSuccessWithoutURLsIsFailure(t *testing.T) {
	event, err := veo.ParseCallback([]byte(`{"code":200,"data":{"taskId":"t-2","state":"success"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if event.Outcome != veo.OutcomeFailure {
		t.Fatalf("outcome = %q, want failure", event.Outcome)
	}
	if event.ErrorMessage == "" {
		t.Fatal("expected an error message")
	}
}

func TestParseCallbackFailure(t *testing.T) {
	event, err := veo.ParseCallback([]byte(`{"code":501,"msg":"internal error","data":{"taskId":"t-3","state":"fail","failMsg":"content rejected"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if event.Outcome != veo.OutcomeFailure {
		t.Fatalf("outcome = %q, want failure", event.Outcome)
	}
	if event.ErrorMessage != "content rejected" {
		t.Fatalf("error message = %q", event.ErrorMessage)
	}
}

func TestParseCallbackPending(t *testing.T) {
	for _, state := range []string{"waiting", "generating", "processing", "queued"} {
		event, err := veo.ParseCallback([]byte(`{"code":200,"data":{"taskId":"t-4","state":"` + state + `"}}`))
		if err != nil {
			t.Fatal(err)
		}
		if event.Outcome != veo.OutcomePending {
			t.Errorf("state %q: outcome = %q, want pending", state, event.Outcome)
		}
	}
}

func TestParseCallbackNoTaskID(t *testing.T) {
	_, err := veo.ParseCallback([]byte(`{"code":200,"data":{"state":"success"}}`))
	if !errors.Is(err, veo.ErrNoTaskID) {
		t.Fatalf("expected ErrNoTaskID, got %v", err)
	}
}

func TestFromStatus(t *testing.T) {
	event := veo.FromStatus(&veo.TaskStatus{
		TaskID:     "t-5",
		State:      "success",
		ResultURLs: []string{"https://cdn/v.mp4"},
	})
	if event.Outcome != veo.OutcomeSuccess {
		t.Fatalf("outcome = %q, want success", event.Outcome)
	}

	event = veo.FromStatus(&veo.TaskStatus{
		TaskID:      "t-6",
		State:       "fail",
		FailMessage: "quota exceeded",
	})
	if event.Outcome != veo.OutcomeFailure || event.ErrorMessage != "quota exceeded" {
		t.Fatalf("event = %+v", event)
	}
}
