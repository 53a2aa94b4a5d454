package luma

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// DiagnosticSource tags every diagnostic this package emits.
const DiagnosticSource = "LUMA"

// Severity levels for diagnostics. The validator only emits errors; the
// remaining levels exist for protocol mapping.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a reported issue spanning [Start, End) in absolute UTF-16
// code unit offsets. Diagnostics are created once per validation pass and
// never mutated afterwards.
type Diagnostic struct {
	Start    int
	End      int
	Severity Severity
	Message  string
	Source   string
}

// Settings holds the resolved per-document configuration consumed by the
// validator. MaxNumberOfProblems is reserved for future diagnostic
// throttling; the current pass reads it but does not cap output.
type Settings struct {
	MaxNumberOfProblems int
}

// DefaultSettings is the fallback when configuration cannot be resolved.
var DefaultSettings = Settings{MaxNumberOfProblems: 1000}

// keywordProject in UTF-16 units, matched against the forming word as it
// accumulates.
var keywordProject = utf16.Encode([]rune("project"))

// Validate scans the document once, left to right, and returns diagnostics
// in order of appearance. It is a pure function of (text, settings): no
// state survives between calls and it never fails, malformed or empty text
// simply yields fewer diagnostics.
//
// Word boundaries are space, carriage return, and line feed. Only a carriage
// return ends the terminator check, so documents using bare line feeds never
// trigger it; that asymmetry is load-bearing for editors that submit CRLF
// text.
func Validate(doc *Document, settings Settings) []Diagnostic {
	_ = settings.MaxNumberOfProblems // reserved, see Settings

	units := doc.units
	var diagnostics []Diagnostic

	var word []uint16
	keywordMatched := false
	userString := false
	expectSemicolon := false

	for i := 0; i < len(units); i++ {
		u := units[i]
		endOfWord := u == ' ' || u == '\r' || u == '\n'
		if !endOfWord {
			word = append(word, u)
		}

		if endOfWord {
			if trimmed := strings.TrimSpace(string(utf16.Decode(word))); len([]rune(trimmed)) > 1 {
				if !keywordMatched && !userString {
					message := fmt.Sprintf("Cannot find '%s'.", trimmed)
					if suggestion, ok := FindKeyword(trimmed); ok {
						message += fmt.Sprintf(" Did you mean '%s'?", suggestion)
					}
					diagnostics = append(diagnostics, Diagnostic{
						Start:    i - len(word),
						End:      i,
						Severity: SeverityError,
						Message:  message,
						Source:   DiagnosticSource,
					})
				}
				word = word[:0]
				keywordMatched = false
			}
		}

		if u == '\r' {
			if expectSemicolon {
				if i > 0 && units[i-1] != ';' {
					diagnostics = append(diagnostics, Diagnostic{
						Start:    i - 1,
						End:      i,
						Severity: SeverityError,
						Message:  "Expected ; after project name.",
						Source:   DiagnosticSource,
					})
				}
				expectSemicolon = false
			}
			userString = false
		}

		// The trigger inspects the forming word on every character, so it
		// fires the instant the accumulator equals the keyword, even while a
		// longer word such as "projectX" is still being typed. The name on
		// the rest of the line is user-supplied and exempt from word
		// diagnostics, but a semicolon must close it before the carriage
		// return.
		if equalUnits(word, keywordProject) {
			if next := i + 2; next >= len(units) || units[next] == '\r' || units[next] == '\n' {
				diagnostics = append(diagnostics, Diagnostic{
					Start:    i,
					End:      i + 2,
					Severity: SeverityError,
					Message:  "Expected project name.",
					Source:   DiagnosticSource,
				})
			}
			expectSemicolon = true
			keywordMatched = true
			userString = true
		}
	}

	return diagnostics
}

func equalUnits(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
