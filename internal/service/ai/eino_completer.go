package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// EinoCompleter runs a system+user prompt template through an eino chat model chain.
type EinoCompleter struct {
	provider string
	chain    compose.Runnable[map[string]any, *schema.Message]
	timeout  time.Duration
}

// NewEinoCompleter compiles the chain once; chatModel is typically the Ark model from config.
func NewEinoCompleter(ctx context.Context, provider string, chatModel model.BaseChatModel, timeout time.Duration) (*EinoCompleter, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	return &EinoCompleter{
		provider: provider,
		chain:    runnable,
		timeout:  timeout,
	}, nil
}

// Complete implements Completer.
func (c *EinoCompleter) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.chain.Invoke(ctx, map[string]any{
		"system": systemPrompt,
		"query":  userMessage,
	})
	if err != nil {
		return "", &ProviderError{Provider: c.provider, Err: err}
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &ProviderError{Provider: c.provider, Err: ErrEmptyReply}
	}

	log.Printf("[ai] %s reply length=%d", c.provider, len(response.Content))
	return strings.TrimSpace(response.Content), nil
}
