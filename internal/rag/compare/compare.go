// Package compare diffs two documents page by page.
package compare

import (
	"context"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"

	"docuchat/internal/rag/loaders"
	"docuchat/pkg/logger"
)

// Span is a contiguous piece of text that exists in only one of the two
// documents.
type Span struct {
	Text string `json:"text"`
}

// PageDiff reports the differences for one aligned page pair. A page
// present in only one document appears with the other side empty.
type PageDiff struct {
	Page    int    `json:"page"`
	Added   []Span `json:"added,omitempty"`
	Removed []Span `json:"removed,omitempty"`
}

// Result is the outcome of comparing two documents.
type Result struct {
	PagesA    int        `json:"pagesA"`
	PagesB    int        `json:"pagesB"`
	Identical bool       `json:"identical"`
	Pages     []PageDiff `json:"pages"`
}

// Comparer loads two sources and reports their textual differences.
type Comparer struct {
	dmp *diffmatchpatch.DiffMatchPatch
	log *logger.Logger
}

// NewComparer creates a new Comparer.
func NewComparer(log *logger.Logger) *Comparer {
	return &Comparer{
		dmp: diffmatchpatch.New(),
		log: log.WithComponent("compare"),
	}
}

// Compare loads both sources, aligns their pages by position and diffs
// each pair.
func (c *Comparer) Compare(ctx context.Context, pathA, pathB string) (*Result, error) {
	pagesA, err := c.loadPages(ctx, pathA)
	if err != nil {
		return nil, err
	}
	pagesB, err := c.loadPages(ctx, pathB)
	if err != nil {
		return nil, err
	}

	result := &Result{
		PagesA:    len(pagesA),
		PagesB:    len(pagesB),
		Identical: true,
	}

	pages := len(pagesA)
	if len(pagesB) > pages {
		pages = len(pagesB)
	}

	for i := 0; i < pages; i++ {
		var textA, textB string
		if i < len(pagesA) {
			textA = pagesA[i]
		}
		if i < len(pagesB) {
			textB = pagesB[i]
		}

		pageDiff := c.diffPage(i+1, textA, textB)
		if len(pageDiff.Added) > 0 || len(pageDiff.Removed) > 0 {
			result.Identical = false
			result.Pages = append(result.Pages, pageDiff)
		}
	}

	c.log.Info(fmt.Sprintf("compared %s and %s: %d differing pages", pathA, pathB, len(result.Pages)))
	return result, nil
}

func (c *Comparer) loadPages(ctx context.Context, path string) ([]string, error) {
	loader, _, err := loaders.ForSource(path)
	if err != nil {
		return nil, err
	}
	docs, err := loader.Load(ctx, path)
	if err != nil {
		c.log.Error(fmt.Sprintf("failed to load %s: %v", path, err))
		return nil, err
	}

	pages := make([]string, len(docs))
	for i, doc := range docs {
		pages[i] = doc.Text
	}
	return pages, nil
}

func (c *Comparer) diffPage(page int, textA, textB string) PageDiff {
	pageDiff := PageDiff{Page: page}

	diffs := c.dmp.DiffMain(textA, textB, false)
	diffs = c.dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			pageDiff.Added = append(pageDiff.Added, Span{Text: d.Text})
		case diffmatchpatch.DiffDelete:
			pageDiff.Removed = append(pageDiff.Removed, Span{Text: d.Text})
		}
	}
	return pageDiff
}
