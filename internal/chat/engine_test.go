package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/cli/internal/rag"
	"github.com/docuchat/cli/internal/session"
)

type stubRetriever struct {
	passages []rag.Passage
}

func (s stubRetriever) Retrieve(context.Context, string) []rag.Passage {
	return s.passages
}

type stubGenerator struct {
	answer     string
	tokens     []string
	err        error
	lastPrompt string
}

func (s *stubGenerator) Complete(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.answer, s.err
}

func (s *stubGenerator) Stream(_ context.Context, prompt string, onToken func(string)) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	var sb strings.Builder
	for _, tok := range s.tokens {
		onToken(tok)
		sb.WriteString(tok)
	}
	return sb.String(), nil
}

func newTestEngine(retriever Retriever, gen Generator) (*Engine, *session.Store) {
	store := session.NewStore(6, nil)
	prompts := rag.NewPromptBuilder(2000)
	return NewEngine(store, retriever, prompts, gen, nil), store
}

func TestAskAppendsUserAndAssistantTurns(t *testing.T) {
	gen := &stubGenerator{answer: "Refunds are accepted within 30 days."}
	engine, store := newTestEngine(stubRetriever{}, gen)

	answer := engine.Ask(context.Background(), "k", "What is the refund policy?")
	assert.Equal(t, "Refunds are accepted within 30 days.", answer)

	sess, ok := store.Get("k")
	require.True(t, ok)
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, session.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, "What is the refund policy?", sess.Messages[0].Content)
	assert.Equal(t, session.RoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, answer, sess.Messages[1].Content)
}

func TestAskRoutesRetrievedContextIntoPrompt(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	retriever := stubRetriever{passages: []rag.Passage{
		{Text: "Policy: refunds within 30 days.", Source: "policy.pdf"},
	}}
	engine, _ := newTestEngine(retriever, gen)

	engine.Ask(context.Background(), "k", "refunds?")
	assert.Contains(t, gen.lastPrompt, "Policy: refunds within 30 days.")
	assert.Contains(t, gen.lastPrompt, "Question: refunds?")
}

func TestAskGenerationFailureYieldsFallbackTurn(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model not loaded")}
	engine, store := newTestEngine(stubRetriever{}, gen)

	answer := engine.Ask(context.Background(), "k", "anything")
	assert.Equal(t, "Error processing your request: model not loaded", answer)

	// The failure is still recorded as the assistant's turn.
	sess, _ := store.Get("k")
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, session.RoleAssistant, sess.Messages[1].Role)
	assert.Equal(t, answer, sess.Messages[1].Content)
}

func TestAskStreamTokensConcatenateToAnswer(t *testing.T) {
	gen := &stubGenerator{tokens: []string{"Refunds ", "within ", "30 days."}}
	engine, store := newTestEngine(stubRetriever{}, gen)

	var got []string
	answer := engine.AskStream(context.Background(), "k", "refunds?", func(tok string) {
		got = append(got, tok)
	})

	assert.Equal(t, []string{"Refunds ", "within ", "30 days."}, got)
	assert.Equal(t, "Refunds within 30 days.", answer)

	sess, _ := store.Get("k")
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, answer, sess.Messages[1].Content)
}

func TestAskStreamFailureYieldsFallback(t *testing.T) {
	gen := &stubGenerator{err: errors.New("connection reset")}
	engine, store := newTestEngine(stubRetriever{}, gen)

	answer := engine.AskStream(context.Background(), "k", "anything", func(string) {})
	assert.Equal(t, "Error occurred.", answer)

	sess, _ := store.Get("k")
	require.Len(t, sess.Messages, 2)
	assert.Equal(t, "Error occurred.", sess.Messages[1].Content)
}

func TestFirstQuestionNamesTheThread(t *testing.T) {
	gen := &stubGenerator{answer: "hello"}
	engine, store := newTestEngine(stubRetriever{}, gen)

	engine.Ask(context.Background(), "k", "Explain the refund policy please now")
	sess, _ := store.Get("k")
	assert.Equal(t, "Explain the refund policy please now", sess.Name)
}
