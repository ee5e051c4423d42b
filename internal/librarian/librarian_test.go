package librarian

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdungregister/nthl/internal/catalog"
	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/storage"
)

// stubClient replays scripted responses and records every request.
type stubClient struct {
	responses []openai.ChatCompletionResponse
	err       error
	requests  []openai.ChatCompletionRequest
}

func (c *stubClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func toolCallResponse(arguments string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   "call-1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      searchToolName,
						Arguments: arguments,
					},
				}},
			}},
		},
	}
}

func testConfig() models.LibrarianConfig {
	return models.LibrarianConfig{
		Enabled: true,
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	}
}

func newTestService(t *testing.T, client ChatClient) (*Service, storage.Storage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	cat := catalog.NewService(store)
	svc := NewServiceWithClient(client, testConfig(), cat, slog.New(slog.DiscardHandler))
	return svc, store
}

func seedPublished(t *testing.T, store storage.Storage, title, genre, content string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.CreateWork(context.Background(), &models.Work{
		ID:          uuid.New().String(),
		Title:       title,
		Slug:        uuid.New().String(),
		Genre:       genre,
		Content:     content,
		Status:      models.StatusPublished,
		PublishedAt: &now,
	}))
}

func TestAnswer_NoToolCall(t *testing.T) {
	client := &stubClient{responses: []openai.ChatCompletionResponse{
		textResponse("Bạn muốn tìm thơ về chủ đề gì?"),
	}}
	svc, _ := newTestService(t, client)

	resp, err := svc.Answer(context.Background(), "xin chào")
	require.NoError(t, err)
	assert.Equal(t, "Bạn muốn tìm thơ về chủ đề gì?", resp.Explanation)
	assert.Empty(t, resp.Works)
	require.Len(t, client.requests, 1, "no second round without a tool call")
}

func TestAnswer_ToolCallRoundTrip(t *testing.T) {
	client := &stubClient{responses: []openai.ChatCompletionResponse{
		toolCallResponse(`{"keywords": "nắng", "genre": "poem", "limit": 3}`),
		textResponse("Bài 'Ra vườn nhặt nắng' nói về tình ông cháu, hình ảnh nắng rất dịu dàng."),
	}}
	svc, store := newTestService(t, client)
	seedPublished(t, store, "Ra vườn nhặt nắng", models.GenrePoem, "ông ra vườn nhặt nắng")
	seedPublished(t, store, "Biển", models.GenreEssay, "sóng vỗ bờ")

	resp, err := svc.Answer(context.Background(), "thơ về nắng")
	require.NoError(t, err)
	assert.Contains(t, resp.Explanation, "Ra vườn nhặt nắng")
	require.Len(t, resp.Works, 1)
	assert.Equal(t, "Ra vườn nhặt nắng", resp.Works[0].Title)

	require.Len(t, client.requests, 2)

	// Round 1 advertises exactly one capability with tool choice left open.
	round1 := client.requests[0]
	require.Len(t, round1.Tools, 1)
	assert.Equal(t, searchToolName, round1.Tools[0].Function.Name)
	assert.Equal(t, "auto", round1.ToolChoice)
	assert.Equal(t, openai.ChatMessageRoleSystem, round1.Messages[0].Role)

	// Round 2 carries the assistant tool call and the serialized matches.
	round2 := client.requests[1]
	require.Len(t, round2.Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleAssistant, round2.Messages[2].Role)
	toolMsg := round2.Messages[3]
	assert.Equal(t, openai.ChatMessageRoleTool, toolMsg.Role)
	assert.Equal(t, "call-1", toolMsg.ToolCallID)

	var sent []models.WorkMatch
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &sent))
	require.Len(t, sent, 1)
	assert.Equal(t, "Ra vườn nhặt nắng", sent[0].Title)
}

func TestAnswer_MalformedToolArguments(t *testing.T) {
	client := &stubClient{responses: []openai.ChatCompletionResponse{
		toolCallResponse(`{not json`),
		textResponse("Đây là vài bài gần đây nhất."),
	}}
	svc, store := newTestService(t, client)
	for i := 0; i < 7; i++ {
		seedPublished(t, store, "Bài", models.GenrePoem, "nội dung")
	}

	resp, err := svc.Answer(context.Background(), "tìm gì đó")
	require.NoError(t, err, "malformed arguments degrade to an unfiltered search")
	assert.Len(t, resp.Works, catalog.DefaultLimit)
}

func TestAnswer_EmptyRound2FallsBack(t *testing.T) {
	client := &stubClient{responses: []openai.ChatCompletionResponse{
		toolCallResponse(`{"keywords": "không có"}`),
		textResponse("   "),
	}}
	svc, _ := newTestService(t, client)

	resp, err := svc.Answer(context.Background(), "tìm gì đó")
	require.NoError(t, err)
	assert.Equal(t, fallbackAnswer, resp.Explanation)
}

func TestAnswer_Validation(t *testing.T) {
	svc, _ := newTestService(t, &stubClient{})

	_, err := svc.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.Answer(context.Background(), strings.Repeat("q", MaxQueryRunes+1))
	assert.ErrorIs(t, err, ErrInvalidQuery)

	// At the cap is still valid input; the stub then fails the call, which
	// must surface as an upstream error, not a validation one.
	client := &stubClient{err: errors.New("boom")}
	svc, _ = newTestService(t, client)
	_, err = svc.Answer(context.Background(), strings.Repeat("q", MaxQueryRunes))
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestAnswer_UpstreamFailureHidesDetails(t *testing.T) {
	client := &stubClient{err: errors.New("401 invalid api key sk-secret")}
	svc, _ := newTestService(t, client)

	_, err := svc.Answer(context.Background(), "thơ về mưa")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestAnswer_Disabled(t *testing.T) {
	store := storage.NewMemoryStorage()
	cfg := testConfig()
	cfg.Enabled = false
	svc := NewServiceWithClient(&stubClient{}, cfg, catalog.NewService(store), slog.New(slog.DiscardHandler))

	_, err := svc.Answer(context.Background(), "thơ về mưa")
	assert.ErrorIs(t, err, ErrDisabled)
}
