// Package generator produces the final user-facing answer from an assembled
// context.
package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
)

const (
	answerTemperature = 0.7
	answerMaxTokens   = 1000

	systemInstruction = `You are a consultant specialized in B2B sales research.
Answer the user's question based on the provided context.
Use markdown formatting to highlight important points.
Cite your sources when stating specific facts.
Be honest when the context does not contain the requested information.`
)

// Service generates answers. Generate never returns an error: provider
// failures are absorbed into an apologetic answer so the chat surface
// always has a renderable message.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates an answer generator service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

// Generate produces an answer for the question given the assembled context
// and chronological conversation history. This is a non-throwing contract:
// on provider failure the returned string is an apologetic fallback that
// embeds the error reason, and the caller treats it as a normal answer.
func (s *Service) Generate(ctx context.Context, question, assembledContext string, history []domain.ConversationTurn) string {
	messages := make([]domain.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, domain.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, domain.Message{
		Role:    domain.RoleUser,
		Content: fmt.Sprintf("QUESTION: %s\n\nRELEVANT CONTEXT:\n%s", question, assembledContext),
	})

	result, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      systemInstruction,
		Messages:    messages,
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
	if err != nil {
		s.logger.Error("answer generation failed", zap.Error(err))
		return fmt.Sprintf("Sorry, an error occurred while processing your question. (Error: %v)", err)
	}
	return result.Content
}
