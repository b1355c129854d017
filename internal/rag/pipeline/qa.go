package pipeline

import (
	"context"
	"fmt"
	"strings"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
	"docuchat/pkg/logger"
)

// QAPipeline turns retrieved chunks and a question into a grounded
// answer. The prompt instructs the model to answer only from the
// supplied context and to say so when the context does not contain the
// answer.
type QAPipeline struct {
	llm interfaces.LLM
	log *logger.Logger
}

// NewQAPipeline creates a new QAPipeline.
func NewQAPipeline(llm interfaces.LLM, log *logger.Logger) *QAPipeline {
	return &QAPipeline{
		llm: llm,
		log: log.WithComponent("qa"),
	}
}

// Run generates an answer for query grounded in the given chunks. The
// returned Answer carries the chunks in their retrieval order.
func (p *QAPipeline) Run(ctx context.Context, query string, results []*schema.ScoredChunk) (*schema.Answer, error) {
	prompt := p.buildPrompt(query, results)

	text, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		p.log.Error(fmt.Sprintf("failed to generate answer: %v", err))
		return nil, err
	}

	sources := make([]*schema.Chunk, len(results))
	for i, r := range results {
		sources[i] = r.Chunk
	}
	return &schema.Answer{Text: text, Sources: sources}, nil
}

func (p *QAPipeline) buildPrompt(query string, results []*schema.ScoredChunk) string {
	var sb strings.Builder

	sb.WriteString("Answer the question using only the context below. ")
	sb.WriteString("If the context does not contain the answer, say that the answer is not present in the indexed documents.\n\nContext:\n")

	for i, r := range results {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("Context %d:\n%s\n", i+1, r.Chunk.Text))
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s", query))

	return sb.String()
}
