package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/stochfold/pkg/errors"
)

// Document describes a sampling run.
type Document struct {
	RunID        string      `json:"run_id,omitempty"`
	Name         string      `json:"name,omitempty"`
	Sequences    []string    `json:"sequences"`
	Kind         string      `json:"kind"`
	Circular     bool        `json:"circular,omitempty"`
	NonRedundant bool        `json:"non_redundant,omitempty"`
	Temperature  float64     `json:"temperature"`
	Z            float64     `json:"z"`
	FreeEnergy   float64     `json:"free_energy"`
	Coverage     float64     `json:"coverage,omitempty"`
	Exhausted    bool        `json:"exhausted,omitempty"`
	Samples      []SampleDoc `json:"samples"`
}

// SampleDoc is one structure of a Document.
type SampleDoc struct {
	Structure   string  `json:"structure"`
	Energy      float64 `json:"energy"`
	Probability float64 `json:"probability"`
}

// WriteJSON encodes doc as indented JSON.
func WriteJSON(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a Document written by WriteJSON.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document")
	}
	return &doc, nil
}

// WriteDotBracket writes doc as a FASTA-style header, the sequence (first
// row for alignments) and one line per structure.
func WriteDotBracket(doc *Document, w io.Writer) error {
	name := doc.Name
	if name == "" {
		name = doc.RunID
	}
	if name != "" {
		if _, err := fmt.Fprintf(w, ">%s\n", name); err != nil {
			return err
		}
	}
	if len(doc.Sequences) > 0 {
		if _, err := fmt.Fprintln(w, doc.Sequences[0]); err != nil {
			return err
		}
	}
	for _, s := range doc.Samples {
		if _, err := fmt.Fprintf(w, "%s %7.2f  %.4f\n", s.Structure, s.Energy, s.Probability); err != nil {
			return err
		}
	}
	return nil
}

// Export writes doc to path, as JSON when asJSON is set and dot-bracket
// text otherwise.
func Export(doc *Document, path string, asJSON bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if asJSON {
		err = WriteJSON(doc, f)
	} else {
		err = WriteDotBracket(doc, f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
