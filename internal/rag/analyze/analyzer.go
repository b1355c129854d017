// Package analyze inspects a single document without indexing it:
// file metadata, text statistics per page, and an optional model
// generated summary.
package analyze

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/djherbis/times"
	"github.com/gabriel-vasile/mimetype"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/loaders"
	"docuchat/pkg/logger"
)

// summaryBudget caps how many runes of document text are sent to the
// model for summarization.
const summaryBudget = 8000

// Report is the result of analyzing one document.
type Report struct {
	FileName   string     `json:"fileName"`
	MimeType   string     `json:"mimeType"`
	SizeBytes  int64      `json:"sizeBytes"`
	ModTime    time.Time  `json:"modTime"`
	AccessTime *time.Time `json:"accessTime,omitempty"`
	BirthTime  *time.Time `json:"birthTime,omitempty"`
	Pages      int        `json:"pages"`
	Words      int        `json:"words"`
	Characters int        `json:"characters"`
	Summary    string     `json:"summary,omitempty"`
}

// Analyzer extracts a document's text and statistics. A nil llm skips
// the summary.
type Analyzer struct {
	llm interfaces.LLM
	log *logger.Logger
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(llm interfaces.LLM, log *logger.Logger) *Analyzer {
	return &Analyzer{
		llm: llm,
		log: log.WithComponent("analyze"),
	}
}

// Analyze loads the document at path and returns its report. When
// summarize is set and a model is configured, the report includes a
// short summary.
func (a *Analyzer) Analyze(ctx context.Context, path string, summarize bool) (*Report, error) {
	loader, kind, err := loaders.ForSource(path)
	if err != nil {
		return nil, err
	}

	docs, err := loader.Load(ctx, path)
	if err != nil {
		a.log.Error(fmt.Sprintf("failed to load %s: %v", path, err))
		return nil, err
	}

	report := &Report{Pages: len(docs)}

	var full strings.Builder
	for _, doc := range docs {
		report.Words += len(strings.Fields(doc.Text))
		report.Characters += utf8.RuneCountInString(doc.Text)
		full.WriteString(doc.Text)
		full.WriteString("\n")
	}

	a.fillFileInfo(path, kind, report)

	if summarize && a.llm != nil {
		summary, err := a.summarize(ctx, full.String())
		if err != nil {
			return nil, err
		}
		report.Summary = summary
	}

	a.log.Info(fmt.Sprintf("analyzed %s: %d pages, %d words", path, report.Pages, report.Words))
	return report, nil
}

func (a *Analyzer) fillFileInfo(path, kind string, report *Report) {
	if mtype, err := mimetype.DetectFile(path); err == nil {
		report.MimeType = mtype.String()
	} else {
		report.MimeType = kind
	}

	report.FileName = filepath.Base(path)

	if info, err := os.Stat(path); err == nil {
		report.SizeBytes = info.Size()
		report.ModTime = info.ModTime()
	}

	spec, err := times.Stat(path)
	if err != nil {
		a.log.Warn(fmt.Sprintf("failed to stat timestamps for %s: %v", path, err))
		return
	}
	at := spec.AccessTime()
	report.AccessTime = &at
	if spec.HasBirthTime() {
		bt := spec.BirthTime()
		report.BirthTime = &bt
	}
}

func (a *Analyzer) summarize(ctx context.Context, text string) (string, error) {
	runes := []rune(text)
	if len(runes) > summaryBudget {
		runes = runes[:summaryBudget]
	}

	prompt := fmt.Sprintf(
		"Summarize the following document in a short paragraph. Mention only what the text itself states.\n\nDocument:\n%s",
		string(runes),
	)
	return a.llm.Generate(ctx, prompt)
}
