package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/stochfold/pkg/errors"
)

func TestReadFASTA(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Record
	}{
		{
			name:  "single",
			input: ">seq1\nGGGAAA\nUCCC\n",
			want:  []Record{{Name: "seq1", Seq: "GGGAAAUCCC"}},
		},
		{
			name:  "headerless",
			input: "GGGAAAUCCC\n",
			want:  []Record{{Seq: "GGGAAAUCCC"}},
		},
		{
			name:  "comments and blanks",
			input: "; comment\n\n>a desc\nGG GA\n\n>b\nCC-C\n",
			want:  []Record{{Name: "a desc", Seq: "GGGA"}, {Name: "b", Seq: "CC-C"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadFASTA(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadFASTA: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("record %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadFASTAEmpty(t *testing.T) {
	_, err := ReadFASTA(strings.NewReader("; nothing\n"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestReadSequence(t *testing.T) {
	rec, err := ReadSequence(strings.NewReader(">x\nggguuucc\n>y\nAAAA\n"))
	if err != nil {
		t.Fatalf("ReadSequence: %v", err)
	}
	if rec.Name != "x" || rec.Seq != "ggguuucc" {
		t.Errorf("got %+v", rec)
	}

	_, err = ReadSequence(strings.NewReader(">x\nGG-CC\n"))
	if !errors.Is(err, errors.ErrCodeInvalidSequence) {
		t.Errorf("gapped sequence err = %v, want INVALID_SEQUENCE", err)
	}
}

func TestReadAlignment(t *testing.T) {
	recs, err := ReadAlignment(strings.NewReader(">a\nGGG-AAUCC\n>b\nGGCAAAUGC\n"))
	if err != nil {
		t.Fatalf("ReadAlignment: %v", err)
	}
	if rows := Rows(recs); len(rows) != 2 || rows[1] != "GGCAAAUGC" {
		t.Errorf("Rows = %v", rows)
	}

	_, err = ReadAlignment(strings.NewReader(">a\nGGG\n>b\nGG\n"))
	if !errors.Is(err, errors.ErrCodeInvalidSequence) {
		t.Errorf("ragged alignment err = %v, want INVALID_SEQUENCE", err)
	}
}

func TestImportFASTAMissing(t *testing.T) {
	_, err := ImportFASTA(filepath.Join(t.TempDir(), "missing.fa"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func testDocument() *Document {
	return &Document{
		RunID:       "run-1",
		Name:        "hp",
		Sequences:   []string{"GGGAAAUCCC"},
		Kind:        "single",
		Temperature: 37,
		Z:           1.5,
		FreeEnergy:  -0.25,
		Samples: []SampleDoc{
			{Structure: "(((...))).", Energy: 1.1, Probability: 0.11},
			{Structure: "..........", Energy: 0, Probability: 0.67},
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	doc := testDocument()
	var buf bytes.Buffer
	if err := WriteJSON(doc, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.RunID != doc.RunID || len(got.Samples) != 2 || got.Samples[0] != doc.Samples[0] {
		t.Errorf("round trip = %+v", got)
	}
}

func TestWriteDotBracket(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDotBracket(testDocument(), &buf); err != nil {
		t.Fatalf("WriteDotBracket: %v", err)
	}
	want := ">hp\nGGGAAAUCCC\n(((...))).    1.10  0.1100\n..........    0.00  0.6700\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Export(testDocument(), path, true); err != nil {
		t.Fatalf("Export: %v", err)
	}
}
