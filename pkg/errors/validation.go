package errors

import (
	"strings"
	"unicode"
)

// MaxSequenceLength bounds the sequences the fold model accepts. Partition
// function tables are O(n²) float64 slices; above this size the dense tables
// and the unscaled Boltzmann sums stop being practical.
const MaxSequenceLength = 2000

// ValidateSequence validates a nucleotide sequence for folding.
//
// The validation rules are:
//   - No empty sequences
//   - Maximum length of MaxSequenceLength
//   - Only A, C, G, U, T and N (case-insensitive)
//
// Gap characters are rejected here; use ValidateAlignmentRow for aligned input.
func ValidateSequence(seq string) error {
	if seq == "" {
		return New(ErrCodeInvalidSequence, "sequence cannot be empty")
	}
	if len(seq) > MaxSequenceLength {
		return New(ErrCodeInvalidSequence, "sequence too long (max %d nucleotides)", MaxSequenceLength)
	}
	for i, r := range seq {
		if !isNucleotide(r) {
			return New(ErrCodeInvalidSequence, "invalid nucleotide %q at position %d", r, i+1)
		}
	}
	return nil
}

// ValidateAlignmentRow validates one row of a multiple sequence alignment.
// Rows follow the ValidateSequence rules but may contain '-' and '.' gaps.
func ValidateAlignmentRow(row string) error {
	if row == "" {
		return New(ErrCodeInvalidSequence, "alignment row cannot be empty")
	}
	if len(row) > MaxSequenceLength {
		return New(ErrCodeInvalidSequence, "alignment too long (max %d columns)", MaxSequenceLength)
	}
	for i, r := range row {
		if r != '-' && r != '.' && !isNucleotide(r) {
			return New(ErrCodeInvalidSequence, "invalid alignment character %q at column %d", r, i+1)
		}
	}
	return nil
}

// ValidateAlignment validates that an alignment has at least one row and
// that all rows have the same number of columns.
func ValidateAlignment(rows []string) error {
	if len(rows) == 0 {
		return New(ErrCodeInvalidSequence, "alignment needs at least one sequence")
	}
	width := len(rows[0])
	for i, row := range rows {
		if err := ValidateAlignmentRow(row); err != nil {
			return Wrap(ErrCodeInvalidSequence, err, "row %d", i+1)
		}
		if len(row) != width {
			return New(ErrCodeInvalidSequence, "row %d has %d columns, want %d", i+1, len(row), width)
		}
	}
	return nil
}

// ValidatePath validates a file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

func isNucleotide(r rune) bool {
	switch unicode.ToUpper(r) {
	case 'A', 'C', 'G', 'U', 'T', 'N':
		return true
	}
	return false
}
