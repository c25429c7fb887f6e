package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huynhducanh/portfolio/backend/internal/apperr"
	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
	"github.com/huynhducanh/portfolio/backend/internal/relay"
	"github.com/huynhducanh/portfolio/backend/internal/service/conversation"
	"github.com/huynhducanh/portfolio/backend/internal/service/session"
	"github.com/huynhducanh/portfolio/backend/internal/service/upstream"
)

var _ relay.Emitter = (*Hub)(nil)

type stubAI struct {
	err error
}

func (s *stubAI) Chat(_ context.Context, req upstream.ChatRequest) (*upstream.ChatResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &upstream.ChatResponse{Response: "echo: " + req.Message, ConversationID: "c1"}, nil
}

func (s *stubAI) FetchConversation(context.Context, string) (*upstream.Conversation, error) {
	return nil, apperr.NotFound("Conversation not found")
}

func (s *stubAI) CreateConversation(context.Context, string, string) (*upstream.Conversation, error) {
	return &upstream.Conversation{ID: "c1"}, nil
}

func (s *stubAI) Suggestions(context.Context, string, string) (*upstream.Suggestions, error) {
	return &upstream.Suggestions{}, nil
}

func (s *stubAI) Health(context.Context) (map[string]any, error) {
	return map[string]any{"status": "healthy"}, nil
}

type testServer struct {
	server        *httptest.Server
	hub           *Hub
	sessions      *session.Registry
	conversations *conversation.Tracker
}

func newTestServer(t *testing.T, ai upstream.Service, allowedOrigins []string) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	hub := NewHub(logger)
	sessions := session.NewRegistry(nil)
	conversations := conversation.NewTracker(nil)
	dispatcher := relay.NewDispatcher(sessions, conversations, ai, hub, logger, relay.Options{})

	r := chi.NewRouter()
	NewWebSocketHandler(hub, dispatcher, allowedOrigins, logger).RegisterRoutes(r)
	r.Route("/api/realtime", NewStatsHandler(sessions, conversations, hub).RegisterRoutes)

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.CloseAll()
		server.Close()
	})

	return &testServer{server: server, hub: hub, sessions: sessions, conversations: conversations}
}

func (ts *testServer) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type received struct {
	Type         string          `json:"type"`
	ConnectionID string          `json:"connectionId"`
	Data         json.RawMessage `json:"data"`
	Timestamp    int64           `json:"timestamp"`
}

func readEvent(t *testing.T, conn *websocket.Conn) received {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev received
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func send(t *testing.T, conn *websocket.Conn, eventType string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(chat.Inbound{Type: eventType, Data: raw}))
}

func TestRegisterReceivesWelcome(t *testing.T) {
	ts := newTestServer(t, &stubAI{}, nil)
	conn := ts.dial(t, nil)

	send(t, conn, chat.EventRegister, chat.RegisterRequest{Name: "Alice"})

	ev := readEvent(t, conn)
	assert.Equal(t, chat.EventWelcome, ev.Type)
	assert.NotEmpty(t, ev.ConnectionID)

	var payload chat.WelcomePayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Len(t, payload.Suggestions, 5)
	assert.Equal(t, 1, ts.sessions.Len())
}

func TestChatRoundTrip(t *testing.T) {
	ts := newTestServer(t, &stubAI{}, nil)
	conn := ts.dial(t, nil)

	send(t, conn, chat.EventAIMessage, chat.ChatRequest{Message: "hello"})

	first := readEvent(t, conn)
	second := readEvent(t, conn)
	third := readEvent(t, conn)

	assert.Equal(t, chat.EventTyping, first.Type)
	assert.JSONEq(t, `{"typing":true}`, string(first.Data))
	assert.Equal(t, chat.EventTyping, second.Type)
	assert.JSONEq(t, `{"typing":false}`, string(second.Data))
	assert.Equal(t, chat.EventResponse, third.Type)

	var payload struct {
		Success bool                  `json:"success"`
		Data    upstream.ChatResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(third.Data, &payload))
	assert.True(t, payload.Success)
	assert.Equal(t, "echo: hello", payload.Data.Response)

	assert.Eventually(t, func() bool { return ts.conversations.Len() == 1 }, time.Second, 10*time.Millisecond)
}

func TestChatFallbackWhenAIUnavailable(t *testing.T) {
	ts := newTestServer(t, &stubAI{err: apperr.Unavailable("AI service is currently unavailable", nil)}, nil)
	conn := ts.dial(t, nil)

	send(t, conn, chat.EventAIMessage, chat.ChatRequest{Message: "hi"})
	readEvent(t, conn)
	readEvent(t, conn)
	ev := readEvent(t, conn)

	var payload chat.ResponsePayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.False(t, payload.Success)
	assert.True(t, payload.Fallback)
	require.NotNil(t, payload.ContactInfo)
	assert.Equal(t, "huynhducanh.ai@gmail.com", payload.ContactInfo.Email)
}

func TestMalformedEnvelopeKeepsConnectionOpen(t *testing.T) {
	ts := newTestServer(t, &stubAI{}, nil)
	conn := ts.dial(t, nil)

	send(t, conn, chat.EventRegister, chat.RegisterRequest{Name: "Alice"})
	require.Equal(t, chat.EventWelcome, readEvent(t, conn).Type)

	frames := map[string]string{
		"syntax error":    "{not json",
		"truncated":       `{"type":"ai_message","data":{`,
		"empty":           "",
		"whitespace only": "   \n",
		"wrong type":      `{"type":42}`,
	}
	for name, frame := range frames {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)), name)
		assert.Equal(t, chat.EventError, readEvent(t, conn).Type, name)
		assert.Equal(t, 1, ts.sessions.Len(), name)
	}

	send(t, conn, chat.EventRegister, chat.RegisterRequest{Name: "Bob"})
	assert.Equal(t, chat.EventWelcome, readEvent(t, conn).Type)
	assert.Equal(t, 1, ts.sessions.Len())
	assert.Equal(t, 1, ts.hub.Len())
}

func TestDisconnectCleansUpRelayState(t *testing.T) {
	ts := newTestServer(t, &stubAI{}, nil)
	conn := ts.dial(t, nil)

	send(t, conn, chat.EventRegister, chat.RegisterRequest{Name: "Alice"})
	readEvent(t, conn)
	send(t, conn, chat.EventStartConversation, chat.StartConversationRequest{Title: "Custom"})
	assert.Equal(t, chat.EventConversationStarted, readEvent(t, conn).Type)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return ts.sessions.Len() == 0 && ts.conversations.Len() == 0 && ts.hub.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownBroadcastThenClose(t *testing.T) {
	ts := newTestServer(t, &stubAI{}, nil)
	conn := ts.dial(t, nil)

	require.Eventually(t, func() bool { return ts.hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 1, ts.hub.TotalConnections())

	ts.hub.Broadcast(chat.NewOutbound(chat.EventServerShutdown, chat.AckPayload{Success: true, Message: "bye"}))
	ts.hub.CloseAll()

	assert.Equal(t, chat.EventServerShutdown, readEvent(t, conn).Type)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestEmitToUnknownConnectionIsNoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	assert.NotPanics(t, func() {
		hub.Emit("nobody", chat.NewOutbound(chat.EventWelcome, nil))
	})
}

func TestOriginAllowList(t *testing.T) {
	ts := newTestServer(t, &stubAI{}, []string{"https://portfolio.example"})
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := ts.dial(t, http.Header{"Origin": []string{"https://portfolio.example"}})
	assert.NotNil(t, conn)
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubAI{}, nil)
	conn := ts.dial(t, nil)
	send(t, conn, chat.EventRegister, chat.RegisterRequest{})
	readEvent(t, conn)

	resp, err := http.Get(ts.server.URL + "/api/realtime/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Success bool  `json:"success"`
		Data    Stats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Data.ConnectedUsers)
	assert.Equal(t, 1, body.Data.TotalConnections)
}
