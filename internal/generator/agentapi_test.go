package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAgentAPI mimics the agentapi status/message endpoints: the agent goes
// running after a message and stable again on the following status poll.
type fakeAgentAPI struct {
	mu       sync.Mutex
	status   string
	sent     []string
	messages []conversationMessage
	reply    string
}

func (f *fakeAgentAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		current := f.status
		if current == agentStatusRunning {
			f.status = agentStatusStable
			f.messages = append(f.messages, conversationMessage{ID: len(f.messages), Role: "agent", Content: f.reply})
		}
		_ = json.NewEncoder(w).Encode(agentStatus{Status: current})
	})
	mux.HandleFunc("POST /message", func(w http.ResponseWriter, r *http.Request) {
		var msg agentMessage
		_ = json.NewDecoder(r.Body).Decode(&msg)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sent = append(f.sent, msg.Content)
		f.messages = append(f.messages, conversationMessage{ID: len(f.messages), Role: "user", Content: msg.Content})
		f.status = agentStatusRunning
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("GET /messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(messagesResponse{Messages: f.messages})
	})
	return mux
}

func newTestAgentClient(url string) *agentClient {
	c := newAgentClient(url)
	c.pollInterval = 5 * time.Millisecond
	return c
}

func TestAgentConverse(t *testing.T) {
	fake := &fakeAgentAPI{
		status:   agentStatusStable,
		messages: []conversationMessage{{ID: 0, Role: "agent", Content: "Welcome to the agent"}},
		reply:    "```json\n{\"text\": \"hello\"}\n```",
	}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	b, err := NewAgent(AgentConfig{}, nil)
	require.NoError(t, err)

	out, err := b.converse(context.Background(), newTestAgentClient(server.URL), Prompt{
		Task:   "reaction_writer",
		System: "You are a voter",
		User:   "React to this",
		JSON:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"text\": \"hello\"}\n```", out)

	require.Len(t, fake.sent, 1)
	assert.Contains(t, fake.sent[0], "You are a voter")
	assert.Contains(t, fake.sent[0], "React to this")
	assert.Contains(t, fake.sent[0], "JSON object only")
}

func TestAgentConverseCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(agentStatus{Status: agentStatusRunning})
	}))
	defer server.Close()

	b, err := NewAgent(AgentConfig{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = b.converse(ctx, newTestAgentClient(server.URL), Prompt{User: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAgentClientLastAgentMessage(t *testing.T) {
	tests := []struct {
		name     string
		messages []conversationMessage
		want     string
		wantErr  error
	}{
		{
			name: "newest agent message wins",
			messages: []conversationMessage{
				{Role: "agent", Content: "first"},
				{Role: "user", Content: "question"},
				{Role: "agent", Content: "answer"},
			},
			want: "answer",
		},
		{
			name:     "only user messages",
			messages: []conversationMessage{{Role: "user", Content: "question"}},
			wantErr:  ErrEmptyOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(messagesResponse{Messages: tt.messages})
			}))
			defer server.Close()

			got, err := newTestAgentClient(server.URL).lastAgentMessage(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAgentClientSendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent busy", http.StatusConflict)
	}))
	defer server.Close()

	err := newTestAgentClient(server.URL).send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestAgentCompleteStartFailure(t *testing.T) {
	b, err := NewAgent(AgentConfig{Command: "missing-agent"}, nil)
	require.NoError(t, err)

	b.start = func(context.Context, agentProcessConfig) (closer, error) {
		return nil, assert.AnError
	}

	_, err = b.Complete(context.Background(), Prompt{User: "x"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "agentapi/missing-agent", b.Name())
}

func TestParseAgentType(t *testing.T) {
	for _, name := range []string{"", "claude", "codex", "gemini", "custom"} {
		if _, err := parseAgentType(name); err != nil {
			t.Errorf("parseAgentType(%q) error = %v", name, err)
		}
	}
	if _, err := parseAgentType("clippy"); err == nil {
		t.Error("expected error for unknown agent type")
	}
	if _, err := NewAgent(AgentConfig{AgentType: "clippy"}, nil); err == nil {
		t.Error("NewAgent should reject unknown agent type")
	}
}

func TestAgentPrompt(t *testing.T) {
	got := agentPrompt(Prompt{User: "describe"})
	assert.Equal(t, "describe", got)
}

func TestAgentProcessCloseNothingStarted(t *testing.T) {
	p := &agentProcess{}
	assert.NoError(t, p.Close(context.Background()))
}
