package luma

// Keywords is the fixed Luma vocabulary, in completion order.
var Keywords = []string{"characters", "project"}

// similarityThreshold is the minimum score for a fuzzy keyword suggestion.
const similarityThreshold = 0.7

// FindKeyword suggests a known keyword for an unrecognized word. It scans the
// vocabulary in order and returns the first entry whose bigram similarity to
// word exceeds the threshold.
func FindKeyword(word string) (string, bool) {
	for _, kw := range Keywords {
		if Similarity(word, kw) > similarityThreshold {
			return kw, true
		}
	}
	return "", false
}

// CompletionCandidate is one keyword offered to the editor. ID is an opaque
// identifier echoed back by the resolve request.
type CompletionCandidate struct {
	Label         string
	ID            int
	Detail        string
	Documentation string
}

// charactersCandidateID marks the candidate that receives extra detail text
// on resolve.
const charactersCandidateID = 1

// CompletionCandidates returns one candidate per vocabulary entry, in
// directory order. The list is rebuilt per call so callers may decorate
// items freely.
func CompletionCandidates() []CompletionCandidate {
	items := make([]CompletionCandidate, len(Keywords))
	for i, kw := range Keywords {
		items[i] = CompletionCandidate{Label: kw, ID: i + 1}
	}
	return items
}

// ResolveCompletion attaches detail text to the characters candidate and
// returns every other candidate unchanged.
func ResolveCompletion(item CompletionCandidate) CompletionCandidate {
	if item.ID == charactersCandidateID {
		item.Detail = "Characters declaration"
		item.Documentation = "Declares the cast of characters available to the script."
	}
	return item
}
