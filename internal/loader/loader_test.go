package loader

import (
	"strings"
	"testing"
)

func TestKindForFile(t *testing.T) {
	cases := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"report.pdf", KindPaged, false},
		{"REPORT.PDF", KindPaged, false},
		{"data.csv", KindTabular, false},
		{"notes.txt", 0, true},
		{"archive", 0, true},
	}
	for _, tc := range cases {
		got, err := KindForFile(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected kind %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestLoadTabular(t *testing.T) {
	csvData := "name,revenue\nAcme,100\nGlobex,200\n"
	l := New()
	docs, err := l.Load(KindTabular, []byte(csvData))
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Text != "name: Acme\nrevenue: 100" {
		t.Fatalf("unexpected first document: %q", docs[0].Text)
	}
	if docs[0].Metadata["line"] != "2" {
		t.Fatalf("expected line 2, got %q", docs[0].Metadata["line"])
	}
	if docs[1].Metadata["line"] != "3" {
		t.Fatalf("expected line 3, got %q", docs[1].Metadata["line"])
	}
}

func TestLoadTabularEmpty(t *testing.T) {
	l := New()
	docs, err := l.Load(KindTabular, []byte(""))
	if err != nil {
		t.Fatalf("load empty csv: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}

	// header only, no data rows
	docs, err = l.Load(KindTabular, []byte("a,b,c\n"))
	if err != nil {
		t.Fatalf("load header-only csv: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents for header-only csv, got %d", len(docs))
	}
}

func TestLoadTabularSkipsBlankRows(t *testing.T) {
	csvData := "a,b\n,\nx,y\n"
	l := New()
	docs, err := l.Load(KindTabular, []byte(csvData))
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Text != "a: x\nb: y" {
		t.Fatalf("unexpected document: %q", docs[0].Text)
	}
}

func TestSplitSegmentShortTextKeptWhole(t *testing.T) {
	l := New()
	text := "One sentence. Another sentence."
	parts := l.splitSegment(text)
	if len(parts) != 1 || parts[0] != text {
		t.Fatalf("short text should not be split: %#v", parts)
	}
}

func TestSplitSegmentLongText(t *testing.T) {
	l := &Loader{maxSegmentRunes: 40}
	sentence := "This sentence has some words in it."
	text := strings.Repeat(sentence+" ", 5)
	parts := l.splitSegment(text)
	if len(parts) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(parts))
	}
	for i, p := range parts {
		if len([]rune(p)) > 80 {
			t.Fatalf("segment %d too large: %d runes", i, len([]rune(p)))
		}
		if !strings.Contains(p, "sentence") {
			t.Fatalf("segment %d lost content: %q", i, p)
		}
	}
}

func TestLoadUnknownKind(t *testing.T) {
	l := New()
	if _, err := l.Load(Kind(99), nil); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
