package loader

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

func (l *Loader) loadPaged(data []byte) ([]Document, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("new pdf reader: %w", err)
	}
	var docs []Document
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		for i, segment := range l.splitSegment(content) {
			docs = append(docs, Document{
				Text: segment,
				Metadata: map[string]string{
					"page":    strconv.Itoa(page),
					"segment": strconv.Itoa(i),
				},
			})
		}
	}
	return docs, nil
}

// splitSegment breaks text on sentence boundaries into pieces no longer
// than maxSegmentRunes. Text without sentence punctuation is kept whole.
func (l *Loader) splitSegment(text string) []string {
	if len([]rune(text)) <= l.maxSegmentRunes {
		return []string{text}
	}
	sentences := sentenceSplitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		return []string{text}
	}
	var (
		segments []string
		current  strings.Builder
		size     int
	)
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		n := len([]rune(sentence))
		if size > 0 && size+n > l.maxSegmentRunes {
			segments = append(segments, current.String())
			current.Reset()
			size = 0
		}
		if size > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
		size += n
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}
