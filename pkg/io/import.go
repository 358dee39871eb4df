package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/stochfold/pkg/errors"
)

// Record is one FASTA entry.
type Record struct {
	Name string `json:"name"`
	Seq  string `json:"seq"`
}

// ReadFASTA parses FASTA records from r. Whitespace inside sequence lines is
// dropped. ReadFASTA does not close r.
func ReadFASTA(r io.Reader) ([]Record, error) {
	var recs []Record
	var cur *Record
	var seq strings.Builder

	flush := func() {
		if cur != nil {
			cur.Seq = seq.String()
			recs = append(recs, *cur)
		}
		seq.Reset()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", strings.HasPrefix(line, ";"):
		case strings.HasPrefix(line, ">"):
			flush()
			cur = &Record{Name: strings.TrimSpace(line[1:])}
		default:
			if cur == nil {
				cur = &Record{}
			}
			seq.WriteString(strings.Join(strings.Fields(line), ""))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read FASTA")
	}
	flush()

	if len(recs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no FASTA records found")
	}
	return recs, nil
}

// ReadSequence reads the first record of r and validates it as a sequence.
func ReadSequence(r io.Reader) (Record, error) {
	recs, err := ReadFASTA(r)
	if err != nil {
		return Record{}, err
	}
	rec := recs[0]
	if err := errors.ValidateSequence(rec.Seq); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ReadAlignment reads all records of r as rows of an alignment.
func ReadAlignment(r io.Reader) ([]Record, error) {
	recs, err := ReadFASTA(r)
	if err != nil {
		return nil, err
	}
	if err := errors.ValidateAlignment(Rows(recs)); err != nil {
		return nil, err
	}
	return recs, nil
}

// Rows returns the sequences of recs.
func Rows(recs []Record) []string {
	rows := make([]string, len(recs))
	for i, r := range recs {
		rows[i] = r.Seq
	}
	return rows
}

// ImportFASTA opens path and reads its records.
func ImportFASTA(path string) ([]Record, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadFASTA(f)
}
