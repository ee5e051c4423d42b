// Package librarian orchestrates the AI-assisted catalog search: a
// two-round conversation with a chat model that may call the search
// capability before explaining its picks to the reader.
package librarian

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vietdungregister/nthl/internal/catalog"
	"github.com/vietdungregister/nthl/internal/models"
)

// MaxQueryRunes caps the user query length.
const MaxQueryRunes = 500

// Sampling and length settings for the two rounds. Round 2 gets a little
// more room since it carries the per-work commentary.
const (
	temperature     = 0.7
	maxTokensRound1 = 800
	maxTokensRound2 = 900
)

// fallbackAnswer is returned when the model produces no usable text.
const fallbackAnswer = "Tôi không tìm thấy kết quả phù hợp."

// ChatClient is the subset of the OpenAI client the librarian needs.
// *openai.Client satisfies it; tests substitute a stub.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service runs librarian conversations against a chat model, executing
// catalog lookups on the model's behalf.
type Service struct {
	client  ChatClient
	catalog *catalog.Service
	cfg     models.LibrarianConfig
	logger  *slog.Logger
}

// NewService creates a librarian backed by the OpenAI-compatible provider
// named in the configuration.
func NewService(cfg models.LibrarianConfig, cat *catalog.Service, logger *slog.Logger) *Service {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewServiceWithClient(openai.NewClientWithConfig(clientCfg), cfg, cat, logger)
}

// NewServiceWithClient creates a librarian with an explicit chat client.
func NewServiceWithClient(client ChatClient, cfg models.LibrarianConfig, cat *catalog.Service, logger *slog.Logger) *Service {
	return &Service{
		client:  client,
		catalog: cat,
		cfg:     cfg,
		logger:  logger,
	}
}

// Answer runs one full librarian exchange for the given query.
//
// Round 1 sends the persona prompt plus the query, advertising the search
// capability with tool choice left to the model. If the model calls it, the
// lookup runs, its results are appended as a tool message, and round 2
// produces the prose explanation. A round-1 response without a tool call is
// returned directly with no works attached.
func (s *Service) Answer(ctx context.Context, query string) (*models.AISearchResponse, error) {
	if !s.cfg.Enabled {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidQuery)
	}
	if len([]rune(query)) > MaxQueryRunes {
		return nil, fmt.Errorf("%w: query exceeds %d characters", ErrInvalidQuery, MaxQueryRunes)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: query},
	}

	first, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Tools:       []openai.Tool{searchTool},
		ToolChoice:  "auto",
		Temperature: temperature,
		MaxTokens:   maxTokensRound1,
	})
	if err != nil {
		s.logger.Error("Model round 1 failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(first.Choices) == 0 {
		s.logger.Error("Model round 1 returned no choices")
		return nil, fmt.Errorf("%w: empty response", ErrUpstream)
	}

	reply := first.Choices[0].Message
	if len(reply.ToolCalls) == 0 {
		explanation := strings.TrimSpace(reply.Content)
		if explanation == "" {
			explanation = fallbackAnswer
		}
		return &models.AISearchResponse{Explanation: explanation, Works: []models.WorkMatch{}}, nil
	}

	call := reply.ToolCalls[0]
	lookup := parseQuery(call.Function.Arguments, s.logger)

	matches, err := s.catalog.Search(ctx, lookup)
	if err != nil {
		s.logger.Error("Catalog lookup failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	resultJSON, err := json.Marshal(matches)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize matches: %w", err)
	}

	messages = append(messages, reply, openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    string(resultJSON),
		ToolCallID: call.ID,
	})

	second, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokensRound2,
	})
	if err != nil {
		s.logger.Error("Model round 2 failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	explanation := ""
	if len(second.Choices) > 0 {
		explanation = strings.TrimSpace(second.Choices[0].Message.Content)
	}
	if explanation == "" {
		explanation = fallbackAnswer
	}

	s.logger.Info("Librarian answered",
		"keywords", lookup.Keywords,
		"genre", lookup.Genre,
		"matches", len(matches),
	)
	return &models.AISearchResponse{Explanation: explanation, Works: matches}, nil
}

// parseQuery decodes tool-call arguments, tolerating malformed JSON by
// substituting an empty query rather than failing the whole request.
func parseQuery(arguments string, logger *slog.Logger) catalog.Query {
	var q catalog.Query
	if err := json.Unmarshal([]byte(arguments), &q); err != nil {
		logger.Warn("Malformed tool arguments, searching without filters", "error", err)
		return catalog.Query{}
	}
	return q
}
