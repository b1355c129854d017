package loaders

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"docuchat/internal/rag/interfaces"
	"docuchat/internal/rag/schema"
)

// WebLoader implements the Loader interface for fetching and parsing web pages.
type WebLoader struct {
	client *http.Client
}

// NewWebLoader creates a new WebLoader. A nil client uses http.DefaultClient.
func NewWebLoader(client *http.Client) *WebLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebLoader{client: client}
}

// Load fetches content from a URL, extracts the text, and returns it as a single Document.
func (l *WebLoader) Load(ctx context.Context, url string) ([]*schema.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	text, err := extractText(resp.Body)
	if err != nil {
		return nil, err
	}

	doc := &schema.Document{
		ID:       uuid.New().String(),
		SourceID: uuid.New().String(),
		Text:     text,
		Metadata: map[string]interface{}{
			schema.MetadataKeySourceURL: url,
		},
	}

	return []*schema.Document{doc}, nil
}

// extractText parses an HTML document and extracts all human-readable text,
// stripping away tags, scripts and styles.
func extractText(body io.Reader) (string, error) {
	z := html.NewTokenizer(body)
	var sb strings.Builder
	var inScript, inStyle bool

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return sb.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken, html.EndTagToken:
			tn, _ := z.TagName()
			switch string(tn) {
			case "script":
				inScript = tt == html.StartTagToken
			case "style":
				inStyle = tt == html.StartTagToken
			}
		case html.TextToken:
			if !inScript && !inStyle {
				text := strings.TrimSpace(string(z.Text()))
				if len(text) > 0 {
					sb.WriteString(text)
					sb.WriteString(" ")
				}
			}
		}
	}
}

// compile-time check to ensure WebLoader implements the Loader interface
var _ interfaces.Loader = (*WebLoader)(nil)
