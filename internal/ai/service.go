package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"docuchat/internal/config"
)

// Completer is the streaming completion contract: every produced chunk is
// relayed through onChunk, and the full text is returned exactly once when
// the stream ends cleanly.
type Completer interface {
	StreamCompletion(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string) error) (string, error)
}

// Service drives a single configured chat model provider.
type Service struct {
	chatModel model.ToolCallingChatModel
}

// NewService builds the chat model for the configured provider.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if cfg.BaseURL != "" {
			baseURLPtr = &cfg.BaseURL
		}
		maxTokens := cfg.MaxTokens
		if maxTokens <= 0 {
			maxTokens = 3000
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: maxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	return &Service{chatModel: chatModel}, nil
}

// StreamCompletion streams a single system+user exchange. Any receive or
// relay failure aborts the stream; the caller must not persist partial
// output in that case.
func (s *Service) StreamCompletion(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string) error) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: userPrompt},
	}
	reader, err := s.chatModel.Stream(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("start completion stream: %w", err)
	}
	defer reader.Close()

	var full strings.Builder
	for {
		chunk, err := reader.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("completion stream: %w", err)
		}
		if chunk.Content == "" {
			continue
		}
		full.WriteString(chunk.Content)
		if onChunk != nil {
			if err := onChunk(chunk.Content); err != nil {
				return "", fmt.Errorf("relay chunk: %w", err)
			}
		}
	}
	return full.String(), nil
}
