package rag

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// systemInstruction conditions the model to answer strictly from the
// supplied context for document questions, and to converse naturally for
// everything else. The document/conversation routing decision is the
// model's, not ours: retrieval always runs and context is always
// supplied, the instruction governs whether it is used.
const systemInstruction = "You are an AI chatbot that leverages a knowledge base built from uploaded documents to answer specific queries. " +
	"If the user's query clearly asks for information from the documents, answer strictly using the provided context. " +
	"However, if the user's message is simply a greeting or general conversation without referring to the documents, " +
	"respond in a friendly and human-like manner without using the document context. " +
	"For example, if the user says 'hi' or 'how are you?', reply as you would in a normal chat conversation."

// PromptBuilder assembles the instruction, the retrieved context and the
// user's question into a single prompt string.
type PromptBuilder struct {
	maxContextTokens int
	encoding         *tiktoken.Tiktoken
}

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// NewPromptBuilder creates a prompt builder. maxContextTokens bounds the
// size of the context section; the question and instruction are never
// truncated.
func NewPromptBuilder(maxContextTokens int) *PromptBuilder {
	if maxContextTokens <= 0 {
		maxContextTokens = 2000
	}
	// Token counting degrades to a character estimate if the encoding
	// cannot be loaded.
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoding = nil
	}
	return &PromptBuilder{
		maxContextTokens: maxContextTokens,
		encoding:         encoding,
	}
}

// BuildContext joins retrieved passages into the context section,
// truncated to the token budget at passage granularity.
func (b *PromptBuilder) BuildContext(passages []Passage) string {
	var parts []string
	used := 0
	for _, p := range passages {
		cost := b.countTokens(p.Text)
		if used > 0 && used+cost > b.maxContextTokens {
			break
		}
		parts = append(parts, p.Text)
		used += cost
	}
	return strings.Join(parts, "\n\n")
}

// Build assembles the full prompt from context and the verbatim question
func (b *PromptBuilder) Build(contextText, question string) string {
	var sb strings.Builder
	sb.WriteString(systemInstruction)
	sb.WriteString("\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\n")
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString("Provide a precise and well-structured answer based on the context above when the query is document-related, " +
		"or respond conversationally if the query is a general greeting or casual conversation.")
	return sb.String()
}

// Assemble retrieves-then-builds in one step
func (b *PromptBuilder) Assemble(passages []Passage, question string) string {
	return b.Build(b.BuildContext(passages), question)
}

// countTokens counts tokens with tiktoken, or estimates ~4 chars/token
// when the encoder is unavailable.
func (b *PromptBuilder) countTokens(text string) int {
	if b.encoding != nil {
		return len(b.encoding.Encode(text, nil, nil))
	}
	return len(text) / 4
}
