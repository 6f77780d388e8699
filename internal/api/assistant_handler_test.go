package api

import (
	"net/http"
	"testing"

	"alcyxob/intern-platform/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantChat(t *testing.T) {
	s := newTestServer(t)
	student := s.student("Ali")

	var reply service.ChatReply
	w := s.do(http.MethodPost, "/api/v1/assistant/chat", student, ChatRequest{Message: "Which postings are open?"}, &reply)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reply.Fallback)
	assert.Equal(t, service.AssistantFallbackMessage, reply.Reply)

	var errResp ErrorResponse
	w = s.do(http.MethodPost, "/api/v1/assistant/chat", student, ChatRequest{Message: " "}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errResp.Code)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/assistant/chat", nil, ChatRequest{Message: "hi"}, nil).Code)
}
