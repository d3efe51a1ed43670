// Package chat wires sessions, retrieval, prompt assembly and answer
// generation into the request pipeline shared by both front ends.
package chat

import (
	"context"
	"log/slog"

	"github.com/docuchat/cli/internal/ollama"
	"github.com/docuchat/cli/internal/rag"
	"github.com/docuchat/cli/internal/session"
)

// Retriever supplies context passages for a question. Implementations
// must degrade to an empty result when the index is unavailable.
type Retriever interface {
	Retrieve(ctx context.Context, query string) []rag.Passage
}

// Generator produces answers from an assembled prompt
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string, onToken func(string)) (string, error)
}

// Fallback answers shown when the model backend fails. The failure is
// surfaced as the assistant's turn so the session stays usable.
const (
	streamFallback   = "Error occurred."
	blockingFallback = "Error processing your request: "
)

// Engine runs one question through session bookkeeping, retrieval,
// prompt assembly and generation. Retrieval always runs; whether the
// retrieved context is used is delegated to the model by the prompt's
// instruction, so casual conversation works against the same pipeline.
type Engine struct {
	sessions  *session.Store
	retriever Retriever
	prompts   *rag.PromptBuilder
	generator Generator
	logger    *slog.Logger
}

// NewEngine creates a chat engine
func NewEngine(sessions *session.Store, retriever Retriever, prompts *rag.PromptBuilder, generator Generator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sessions:  sessions,
		retriever: retriever,
		prompts:   prompts,
		generator: generator,
		logger:    logger,
	}
}

// Ask answers a question in the session identified by key, blocking
// until the full answer is available. Generation failures are converted
// to a user-visible fallback answer, never returned as errors.
func (e *Engine) Ask(ctx context.Context, key, question string) string {
	prompt := e.prepare(ctx, key, question)

	answer, err := e.generator.Complete(ctx, prompt)
	if err != nil {
		e.logger.Error("generation failed", "key", key, "error", err)
		answer = blockingFallback + err.Error()
	}

	e.sessions.Append(key, session.RoleAssistant, answer)
	return answer
}

// AskStream answers a question, delivering tokens through onToken in
// generation order. The returned answer equals the concatenation of the
// delivered tokens; on failure the fallback answer replaces whatever
// streamed.
func (e *Engine) AskStream(ctx context.Context, key, question string, onToken func(string)) string {
	prompt := e.prepare(ctx, key, question)

	answer, err := e.generator.Stream(ctx, prompt, onToken)
	if err != nil {
		e.logger.Error("generation failed", "key", key, "error", err)
		answer = streamFallback
	}

	e.sessions.Append(key, session.RoleAssistant, answer)
	return answer
}

// prepare records the user turn and assembles the prompt
func (e *Engine) prepare(ctx context.Context, key, question string) string {
	e.sessions.Append(key, session.RoleUser, question)
	passages := e.retriever.Retrieve(ctx, question)
	return e.prompts.Assemble(passages, question)
}

// ModelGenerator adapts the Ollama client to the Generator interface
// with a fixed model and temperature.
type ModelGenerator struct {
	Client      *ollama.Client
	Model       string
	Temperature float64
}

func (g *ModelGenerator) request(prompt string) *ollama.GenerateRequest {
	req := &ollama.GenerateRequest{Model: g.Model, Prompt: prompt}
	return req.WithTemperature(g.Temperature)
}

// Complete implements Generator
func (g *ModelGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	return g.Client.Generate(ctx, g.request(prompt))
}

// Stream implements Generator
func (g *ModelGenerator) Stream(ctx context.Context, prompt string, onToken func(string)) (string, error) {
	return g.Client.GenerateStream(ctx, g.request(prompt), onToken)
}
