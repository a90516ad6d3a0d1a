package kling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedPoller 按顺序返回预设状态，超出脚本后重复最后一个
type scriptedPoller struct {
	mu       sync.Mutex
	statuses []TaskStatus
	urls     map[int]string
	errAt    map[int]error
	calls    int
}

func (p *scriptedPoller) PollStatus(ctx context.Context, taskID TaskID) (*TaskResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	p.calls++
	if err, ok := p.errAt[idx]; ok {
		return nil, err
	}
	if idx >= len(p.statuses) {
		idx = len(p.statuses) - 1
	}
	return &TaskResult{TaskID: taskID, Status: p.statuses[idx], VideoURL: p.urls[idx]}, nil
}

func (p *scriptedPoller) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestWaitForCompletionReturnsURLAfterThreePolls(t *testing.T) {
	p := &scriptedPoller{
		statuses: []TaskStatus{StatusProcessing, StatusProcessing, StatusSucceed},
		urls:     map[int]string{2: "https://cdn.example.com/third.mp4"},
	}

	var seen []int
	url, err := WaitForCompletion(context.Background(), p, "task-1", WaitOptions{
		Interval: time.Millisecond,
		OnPoll:   func(attempt int, _ *TaskResult) { seen = append(seen, attempt) },
	})
	if err != nil {
		t.Fatalf("WaitForCompletion() error = %v", err)
	}
	if url != "https://cdn.example.com/third.mp4" {
		t.Fatalf("WaitForCompletion() = %q, want third url", url)
	}
	if p.Calls() != 3 {
		t.Fatalf("polls = %d, want 3", p.Calls())
	}
	if len(seen) != 3 || seen[2] != 3 {
		t.Fatalf("OnPoll attempts = %v, want [1 2 3]", seen)
	}
}

func TestWaitForCompletionStopsOnFailed(t *testing.T) {
	p := &scriptedPoller{
		statuses: []TaskStatus{StatusSubmitted, StatusProcessing, StatusFailed, StatusSucceed},
		urls:     map[int]string{3: "https://never"},
	}

	_, err := WaitForCompletion(context.Background(), p, "task-2", WaitOptions{Interval: time.Millisecond})
	var jobErr *JobFailedError
	if !errors.As(err, &jobErr) {
		t.Fatalf("WaitForCompletion() error = %v, want *JobFailedError", err)
	}
	if jobErr.TaskID != "task-2" {
		t.Fatalf("JobFailedError.TaskID = %q, want task-2", jobErr.TaskID)
	}
	if p.Calls() != 3 {
		t.Fatalf("polls = %d, want 3", p.Calls())
	}
}

func TestWaitForCompletionPropagatesPollError(t *testing.T) {
	boom := &RequestError{Op: opQuery, StatusCode: 502, Message: "bad gateway"}
	p := &scriptedPoller{
		statuses: []TaskStatus{StatusProcessing},
		errAt:    map[int]error{1: boom},
	}

	_, err := WaitForCompletion(context.Background(), p, "task-3", WaitOptions{Interval: time.Millisecond})
	if !errors.Is(err, boom) {
		t.Fatalf("WaitForCompletion() error = %v, want %v", err, boom)
	}
	if p.Calls() != 2 {
		t.Fatalf("polls = %d, want 2 (no retry)", p.Calls())
	}
}

func TestWaitForCompletionSucceedWithoutURL(t *testing.T) {
	p := &scriptedPoller{statuses: []TaskStatus{StatusSucceed}}

	_, err := WaitForCompletion(context.Background(), p, "task-4", WaitOptions{Interval: time.Millisecond})
	var fe *ResponseFormatError
	if !errors.As(err, &fe) {
		t.Fatalf("WaitForCompletion() error = %v, want *ResponseFormatError", err)
	}
}

func TestWaitForCompletionTimeout(t *testing.T) {
	p := &scriptedPoller{statuses: []TaskStatus{StatusProcessing}}

	start := time.Now()
	_, err := WaitForCompletion(context.Background(), p, "task-5", WaitOptions{
		Interval: 10 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
	})
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("WaitForCompletion() error = %v, want ErrWaitTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("WaitForCompletion() took %v", elapsed)
	}
	if p.Calls() < 2 {
		t.Fatalf("polls = %d, want at least 2", p.Calls())
	}
}

func TestWaitForCompletionCancelled(t *testing.T) {
	p := &scriptedPoller{statuses: []TaskStatus{StatusProcessing}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := WaitForCompletion(ctx, p, "task-6", WaitOptions{Interval: time.Hour})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("WaitForCompletion() error = %v, want context.Canceled", err)
		}
		if errors.Is(err, ErrWaitTimeout) {
			t.Fatalf("cancellation must not be reported as timeout")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForCompletion() did not return after cancel")
	}
	if p.Calls() != 1 {
		t.Fatalf("polls = %d, want 1", p.Calls())
	}
}

type fakeGenerator struct {
	scriptedPoller
	submitErr error
	submitted []SubmitRequest
}

func (g *fakeGenerator) Submit(ctx context.Context, req SubmitRequest) (TaskID, error) {
	g.submitted = append(g.submitted, req)
	if g.submitErr != nil {
		return "", g.submitErr
	}
	return "gen-1", nil
}

func TestGenerate(t *testing.T) {
	g := &fakeGenerator{scriptedPoller: scriptedPoller{
		statuses: []TaskStatus{StatusProcessing, StatusSucceed},
		urls:     map[int]string{1: "https://cdn.example.com/gen.mp4"},
	}}

	res, err := Generate(context.Background(), g, SubmitRequest{Prompt: "waves"}, WaitOptions{Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.TaskID != "gen-1" || res.VideoURL != "https://cdn.example.com/gen.mp4" || res.Status != StatusSucceed {
		t.Fatalf("Generate() = %+v", res)
	}
}

func TestGenerateSubmitError(t *testing.T) {
	g := &fakeGenerator{submitErr: ErrMissingAPIKey}

	res, err := Generate(context.Background(), g, SubmitRequest{Prompt: "waves"}, WaitOptions{})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("Generate() error = %v, want ErrAuth", err)
	}
	if res != nil {
		t.Fatalf("Generate() result = %+v, want nil", res)
	}
	if g.Calls() != 0 {
		t.Fatalf("polls = %d, want 0", g.Calls())
	}
}
