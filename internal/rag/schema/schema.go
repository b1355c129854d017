package schema

const (
	// MetadataKeyFileName is the key for the source file name.
	MetadataKeyFileName = "file_name"
	// MetadataKeyPageLabel is the key for the page number or label from the source document.
	MetadataKeyPageLabel = "page_label"
	// MetadataKeySheetName is the key for the spreadsheet sheet name.
	MetadataKeySheetName = "sheet_name"
	// MetadataKeySourceURL is the key for the source URL of web content.
	MetadataKeySourceURL = "source_url"
)

// Document represents one unit of loaded source text, typically a page.
// Loaders produce Documents; the splitter consumes them.
type Document struct {
	// ID is the unique identifier of this loaded unit.
	ID string

	// SourceID groups all Documents loaded from the same source file.
	SourceID string

	// Text is the extracted plain text.
	Text string

	// Metadata holds information such as file_name and page_label.
	Metadata map[string]interface{}
}

// Chunk is the unit of retrieval: a bounded window of a document's text
// together with its position and, once embedded, its vector.
type Chunk struct {
	// ID is the unique identifier of the chunk.
	ID string

	// DocumentID is the SourceID of the document the chunk was cut from.
	DocumentID string

	// Ordinal is the 0-based position of the chunk within its document.
	Ordinal int

	// Start and End are rune offsets of the chunk text within the
	// concatenated document text.
	Start int
	End   int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// Metadata carries the originating document's metadata.
	Metadata map[string]interface{}
}

// ScoredChunk is a chunk returned from a similarity search.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// Answer is the result of a grounded query: the generated text plus the
// chunks that supplied its context, in retrieval-rank order.
type Answer struct {
	Text    string
	Sources []*Chunk
}
