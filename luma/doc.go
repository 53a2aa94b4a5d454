// Package luma implements language intelligence for Luma scripts: keyword
// classification with fuzzy correction suggestions, document validation
// diagnostics, and static completion candidates.
//
// The package is transport-agnostic. Diagnostics carry absolute UTF-16 code
// unit offsets; Document converts them to zero-based line/character positions
// for whatever protocol layer sits on top.
package luma
