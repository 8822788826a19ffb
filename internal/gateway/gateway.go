package gateway

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/flexchat/internal/models"
	"github.com/wuwenbin0122/flexchat/internal/utils"
)

// Reply is the outcome of one completion round trip. Turn is always a
// renderable assistant turn; Failure is set only when the round trip failed,
// in which case Turn carries the diagnostic text.
type Reply struct {
	Turn    models.Turn
	Failure *Failure
}

// OK reports whether the reply came back from the service without failure.
func (r Reply) OK() bool {
	return r.Failure == nil
}

type completionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Gateway forwards conversation histories to an OpenAI-compatible chat
// completion API.
type Gateway struct {
	client       completionClient
	model        string
	systemPrompt string
	logger       *zap.SugaredLogger
}

// New builds a Gateway using the default HTTP transport.
func New(cfg utils.OpenAIConfig, logger *zap.SugaredLogger) *Gateway {
	return NewWithHTTPClient(cfg, nil, logger)
}

// NewWithHTTPClient builds a Gateway that sends requests through doer. A nil
// doer keeps the go-openai default client.
func NewWithHTTPClient(cfg utils.OpenAIConfig, doer openai.HTTPDoer, logger *zap.SugaredLogger) *Gateway {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.ResolvedBaseURL()
	if doer != nil {
		clientCfg.HTTPClient = doer
	}

	if cfg.APIKey == "" {
		logger.Warnw("openai api key is empty; completion requests will be rejected by the service", "base_url", clientCfg.BaseURL)
	}

	return &Gateway{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.ResolvedModel(),
		systemPrompt: strings.TrimSpace(cfg.SystemPrompt),
		logger:       logger,
	}
}

// Model returns the model identifier sent with every request.
func (g *Gateway) Model() string {
	return g.model
}

// Complete sends history to the completion service and returns the next
// assistant turn. Exactly one request is made per call; failures are folded
// into the returned Reply instead of being returned as errors.
func (g *Gateway) Complete(ctx context.Context, history []models.Turn) Reply {
	request := openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: g.buildMessages(history),
	}

	response, err := g.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return g.fail(err, len(history))
	}

	if len(response.Choices) == 0 {
		return g.fail(ErrNoChoices, len(history))
	}

	content := response.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return g.fail(ErrEmptyCompletion, len(history))
	}

	g.logger.Debugw("completion received",
		"model", response.Model,
		"history_len", len(history),
		"prompt_tokens", response.Usage.PromptTokens,
		"completion_tokens", response.Usage.CompletionTokens,
	)

	return Reply{Turn: models.AssistantTurn(content)}
}

func (g *Gateway) buildMessages(history []models.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if g.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: g.systemPrompt,
		})
	}
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	return messages
}

func (g *Gateway) fail(cause error, historyLen int) Reply {
	failure := newFailure(cause)
	g.logger.Warnw("completion failed",
		"model", g.model,
		"history_len", historyLen,
		"status", failure.StatusCode,
		"error", failure.Error(),
	)
	return Reply{
		Turn:    models.AssistantTurn(failure.Diagnostic()),
		Failure: failure,
	}
}
