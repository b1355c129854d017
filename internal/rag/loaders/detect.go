package loaders

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"docuchat/internal/apperr"
	"docuchat/internal/rag/interfaces"
)

// ForSource selects a Loader for the given source. URLs go to the WebLoader;
// files are dispatched on their content-detected MIME type, which catches
// mislabelled uploads that an extension switch would accept.
func ForSource(source string) (interfaces.Loader, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewWebLoader(nil), "html", nil
	}

	mtype, err := mimetype.DetectFile(source)
	if err != nil {
		return nil, "", apperr.Validation("failed to detect file type of '%s': %v", source, err)
	}

	switch {
	case mtype.Is("application/pdf"):
		return NewPdfLoader(), "pdf", nil
	case mtype.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return NewDocxLoader(), "docx", nil
	case mtype.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return NewXlsxLoader(), "xlsx", nil
	case mtype.Is("text/html"):
		return NewHTMLLoader(), "html", nil
	case mtype.Is("text/markdown") || strings.HasSuffix(strings.ToLower(source), ".md"):
		return NewMarkdownLoader(), "markdown", nil
	case strings.HasPrefix(mtype.String(), "text/"):
		return NewTxtLoader(), "txt", nil
	default:
		return nil, "", apperr.Validation("unsupported document type '%s' for '%s'", mtype.String(), source)
	}
}
