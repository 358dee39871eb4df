// Package io reads sequences and alignments and writes sampling results.
//
// # Input
//
// Sequences and alignments are read from FASTA. Headers start with '>',
// lines starting with ';' are comments, and sequence lines may wrap:
//
//	>tRNA-like
//	GGGAAAUCCCAGCU
//	AAGCUGGGAUUU
//
// A file without any header is read as one unnamed record. [ReadFASTA]
// returns raw records; [ReadSequence] and [ReadAlignment] validate them for
// single-sequence or comparative folding.
//
// # Output
//
// A sampling run is described by a [Document]. [WriteJSON] encodes it with
// indentation and [ReadJSON] decodes it again. [WriteDotBracket] writes the
// plain text form, one structure per line followed by its free energy and
// probability:
//
//	>tRNA-like
//	GGGAAAUCCCAGCU
//	(((...))).....   -1.10  0.4310
//	..............    0.00  0.2251
package io
