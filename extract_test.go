package thesisaf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockCaller scripts model responses per call. An empty response string
// means the call fails with the scripted error.
type mockCaller struct {
	mu        sync.Mutex
	calls     int
	responses []string
	errs      []error
}

func (m *mockCaller) Call(_ context.Context, prompt string, _ *CallOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return `{"sections": [{"title": "S", "content": "c"}]}`, nil
}

func (m *mockCaller) Close() error { return nil }

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 2000 * time.Millisecond},
		{1, 4000 * time.Millisecond},
		{2, 8000 * time.Millisecond},
		{3, 10000 * time.Millisecond},
		{10, 10000 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := backoffDelay(tt.retry); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

func TestExtractChunk_RetriesThenSucceeds(t *testing.T) {
	caller := &mockCaller{
		errs: []error{
			&RetryableError{StatusCode: 429, Message: "rate limited"},
			&RetryableError{StatusCode: 503, Message: "overloaded"},
		},
		responses: []string{"", "", `{"sections": [{"title": "绪论", "content": "正文"}]}`},
	}
	e := NewExtractor(caller, CallOptions{})

	var delays []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	got := e.ExtractChunk(context.Background(), Chunk{Index: 0, Total: 1, Text: "x"}, nil, nil)
	if !got.Success {
		t.Fatalf("ExtractChunk() failed: %s", got.Err)
	}
	if got.Retries != 2 {
		t.Errorf("Retries = %d, want 2", got.Retries)
	}
	want := []time.Duration{2000 * time.Millisecond, 4000 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestExtractChunk_ExhaustsRetries(t *testing.T) {
	caller := &mockCaller{
		errs: []error{
			&RetryableError{Message: "1"}, &RetryableError{Message: "2"},
			&RetryableError{Message: "3"}, &RetryableError{Message: "4"},
		},
	}
	e := NewExtractor(caller, CallOptions{})

	var delays []time.Duration
	e.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	got := e.ExtractChunk(context.Background(), Chunk{Index: 3, Total: 5, Text: "x"}, nil, nil)
	if got.Success {
		t.Fatal("ExtractChunk() succeeded, want exhaustion")
	}
	if got.ChunkIndex != 3 {
		t.Errorf("ChunkIndex = %d, want 3", got.ChunkIndex)
	}
	if got.Retries != MaxRetries {
		t.Errorf("Retries = %d, want %d", got.Retries, MaxRetries)
	}
	if got.Err == "" {
		t.Error("failed result carries no error text")
	}
	want := []time.Duration{2000 * time.Millisecond, 4000 * time.Millisecond, 8000 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
	if caller.calls != MaxRetries+1 {
		t.Errorf("calls = %d, want %d", caller.calls, MaxRetries+1)
	}
}

func TestExtractChunk_MalformedResponseRetried(t *testing.T) {
	caller := &mockCaller{
		responses: []string{"I could not find any JSON.", `{"sections": []}`},
	}
	e := NewExtractor(caller, CallOptions{})
	e.sleep = func(context.Context, time.Duration) error { return nil }

	got := e.ExtractChunk(context.Background(), Chunk{Index: 0, Total: 1, Text: "x"}, nil, nil)
	if !got.Success {
		t.Fatalf("ExtractChunk() failed: %s", got.Err)
	}
	if got.Retries != 1 {
		t.Errorf("Retries = %d, want 1", got.Retries)
	}
}

func TestExtractChunk_PermanentErrorStopsRetrying(t *testing.T) {
	caller := &mockCaller{
		errs: []error{errors.New("model api status 401: bad key")},
	}
	e := NewExtractor(caller, CallOptions{})
	e.sleep = func(context.Context, time.Duration) error {
		t.Error("slept before a permanent failure")
		return nil
	}

	got := e.ExtractChunk(context.Background(), Chunk{Index: 0, Total: 1, Text: "x"}, nil, nil)
	if got.Success {
		t.Fatal("ExtractChunk() succeeded, want permanent failure")
	}
	if caller.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent error)", caller.calls)
	}
}

func TestExtractChunk_PostProcessesSections(t *testing.T) {
	caller := &mockCaller{
		responses: []string{`{"sections": [{"title": "公式", "content": "[FORMULA]E = mc²[/FORMULA]"}]}`},
	}
	e := NewExtractor(caller, CallOptions{})

	got := e.ExtractChunk(context.Background(), Chunk{Index: 0, Total: 1, Text: "x"}, nil, nil)
	if !got.Success {
		t.Fatalf("ExtractChunk() failed: %s", got.Err)
	}
	if want := "$$E = mc^{2}$$"; got.Record.Sections[0].Content != want {
		t.Errorf("Content = %q, want %q (post-processor not applied)", got.Record.Sections[0].Content, want)
	}
}

// indexedCaller answers from a fixed per-chunk script, keyed by the part
// number embedded in the prompt, regardless of call order.
type indexedCaller struct {
	byPart map[int]string
	errs   map[int]error
}

func (c *indexedCaller) Call(_ context.Context, prompt string, _ *CallOptions) (string, error) {
	for part := range c.byPart {
		if strings.Contains(prompt, fmt.Sprintf("Part %d of", part)) {
			return c.byPart[part], nil
		}
	}
	for part, err := range c.errs {
		if strings.Contains(prompt, fmt.Sprintf("Part %d of", part)) {
			return "", err
		}
	}
	return "", errors.New("unscripted prompt")
}

func (c *indexedCaller) Close() error { return nil }

func TestExtractAll_SlotsKeyedByChunkIndex(t *testing.T) {
	caller := &indexedCaller{byPart: map[int]string{
		1: `{"sections": [{"title": "one", "content": "a"}]}`,
		2: `{"sections": [{"title": "two", "content": "b"}]}`,
		3: `{"sections": [{"title": "three", "content": "c"}]}`,
	}}
	e := NewExtractor(caller, CallOptions{}, WithConcurrency(3))

	chunks := []Chunk{
		{Index: 0, Total: 3, Text: "a"},
		{Index: 1, Total: 3, Text: "b"},
		{Index: 2, Total: 3, Text: "c"},
	}
	results := e.ExtractAll(context.Background(), chunks, nil, nil)
	if len(results) != 3 {
		t.Fatalf("ExtractAll() = %d results, want 3", len(results))
	}
	for i, want := range []string{"one", "two", "three"} {
		if results[i].ChunkIndex != i {
			t.Errorf("slot %d holds chunk %d", i, results[i].ChunkIndex)
		}
		if !results[i].Success || results[i].Record.Sections[0].Title != want {
			t.Errorf("slot %d = %+v, want section %q", i, results[i], want)
		}
	}
}

func TestExtractAll_FailedChunkDoesNotBlockSiblings(t *testing.T) {
	caller := &indexedCaller{
		byPart: map[int]string{
			1: `{"sections": [{"title": "ok", "content": "a"}]}`,
		},
		errs: map[int]error{2: errors.New("model api status 400: broken")},
	}
	e := NewExtractor(caller, CallOptions{})
	e.sleep = func(context.Context, time.Duration) error { return nil }

	chunks := []Chunk{
		{Index: 0, Total: 2, Text: "a"},
		{Index: 1, Total: 2, Text: "b"},
	}
	results := e.ExtractAll(context.Background(), chunks, nil, nil)
	if !results[0].Success {
		t.Errorf("chunk 0 failed: %s", results[0].Err)
	}
	if results[1].Success {
		t.Error("chunk 1 succeeded, want scripted failure")
	}

	record, failed, err := MergeResults(results)
	if err != nil {
		t.Fatalf("MergeResults() error: %v", err)
	}
	if len(record.Sections) != 1 || record.Sections[0].Title != "ok" {
		t.Errorf("merged Sections = %+v, want the surviving chunk's", record.Sections)
	}
	if len(failed) != 1 || failed[0].ChunkIndex != 1 {
		t.Errorf("failed = %+v, want chunk 1", failed)
	}
}
