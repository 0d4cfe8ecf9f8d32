// Package loader extracts plain-text segments from raw file blobs. The
// file kind is resolved once at ingestion entry; loading dispatches on it.
package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies how a file's content is structured.
type Kind int

const (
	// KindPaged covers page-oriented files (PDF): one segment per page.
	KindPaged Kind = iota
	// KindTabular covers row-oriented files (CSV): one segment per row.
	KindTabular
)

// Document is one extractable text segment with its source metadata.
type Document struct {
	Text     string
	Metadata map[string]string
}

// KindForFile resolves the document kind from the file name.
func KindForFile(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPaged, nil
	case ".csv":
		return KindTabular, nil
	default:
		return 0, fmt.Errorf("unsupported file type: %s", name)
	}
}

// Loader splits raw blobs into documents. Pages longer than maxSegmentRunes
// are split on sentence boundaries so a single dense page does not produce
// an oversized embedding input.
type Loader struct {
	maxSegmentRunes int
}

const defaultMaxSegmentRunes = 2000

// New constructs a Loader with default segment sizing.
func New() *Loader {
	return &Loader{maxSegmentRunes: defaultMaxSegmentRunes}
}

// Load extracts documents from data according to kind. A zero-document
// result is not an error here; callers decide how to treat empty files.
func (l *Loader) Load(kind Kind, data []byte) ([]Document, error) {
	switch kind {
	case KindPaged:
		return l.loadPaged(data)
	case KindTabular:
		return l.loadTabular(data)
	default:
		return nil, fmt.Errorf("unknown document kind: %d", kind)
	}
}
