package anonymizer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/innerlight-hq/distill/internal/anthropic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// verdictServer fakes the Anthropic API returning a fixed verdict.
func verdictServer(t *testing.T, safe bool, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		verdict, _ := json.Marshal(map[string]any{"safe": safe, "findings": []string{}})
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": string(verdict)}},
			"stop_reason": "end_turn",
		})
	}))
}

func TestFindResidue(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		dirty bool
	}{
		{"email", "you can reach me at jane.doe@example.com anytime", true},
		{"phone", "call 555-867-5309 tomorrow", true},
		{"phone_parens", "the office is (512) 555-1234", true},
		{"ssn", "my number is 123-45-6789", true},
		{"address", "I live at 42 Maple Street now", true},
		{"url", "see https://example.com/profile/jane", true},
		{"honorific", "my therapist Dr. Whitfield said", true},
		{"clean", "[CLIENT] described feeling lighter after naming the fear out loud.", false},
		{"clean_placeholders", "[PRACTITIONER] invited [CLIENT] to notice the tension in their shoulders.", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found := findResidue(tc.text)
			if tc.dirty && len(found) == 0 {
				t.Errorf("expected residue in %q, found none", tc.text)
			}
			if !tc.dirty && len(found) > 0 {
				t.Errorf("expected clean text, found residue %v in %q", found, tc.text)
			}
		})
	}
}

func TestVerify_ResidueFailsBeforeVerdict(t *testing.T) {
	var calls atomic.Int32
	server := verdictServer(t, true, &calls)
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	v := NewVerifier(llm, discardLogger())

	status := v.Verify(context.Background(), "contact me at jane@example.com")
	if status != StatusFailed {
		t.Errorf("expected failed, got %s", status)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no verdict call when residue scan fails, got %d", calls.Load())
	}
}

func TestVerify_CleanAndSafeVerdict(t *testing.T) {
	server := verdictServer(t, true, nil)
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	v := NewVerifier(llm, discardLogger())

	status := v.Verify(context.Background(), "[CLIENT] spoke about grief without naming anyone.")
	if status != StatusVerified {
		t.Errorf("expected verified, got %s", status)
	}
}

func TestVerify_UnsafeVerdictFails(t *testing.T) {
	server := verdictServer(t, false, nil)
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	v := NewVerifier(llm, discardLogger())

	status := v.Verify(context.Background(), "[CLIENT] mentioned their very distinctive job.")
	if status != StatusFailed {
		t.Errorf("expected failed, got %s", status)
	}
}

func TestVerify_VerdictUnavailableIsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	v := NewVerifier(llm, discardLogger())

	status := v.Verify(context.Background(), "[CLIENT] talked through a hard week.")
	if status != StatusPending {
		t.Errorf("expected pending, got %s", status)
	}
}

func TestVerify_MalformedVerdictIsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]any{{"type": "text", "text": "not json at all"}},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	llm := anthropic.NewClient("test-key", "test-model")
	llm.SetTestTransport(server.URL)
	v := NewVerifier(llm, discardLogger())

	status := v.Verify(context.Background(), "[CLIENT] talked through a hard week.")
	if status != StatusPending {
		t.Errorf("expected pending, got %s", status)
	}
}
