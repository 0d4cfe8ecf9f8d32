package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// loadTabular renders each CSV row as "header: value" lines, one document
// per row, keeping the row usable as standalone retrieval context.
func (l *Loader) loadTabular(data []byte) ([]Document, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var docs []Document
	line := 1
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++

		var b strings.Builder
		for i, value := range record {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				b.WriteString(strings.TrimSpace(header[i]))
				b.WriteString(": ")
			}
			b.WriteString(value)
		}
		if b.Len() == 0 {
			continue
		}
		docs = append(docs, Document{
			Text:     b.String(),
			Metadata: map[string]string{"line": strconv.Itoa(line)},
		})
	}
	return docs, nil
}
