package mapper

import "strings"

// tokenOverlap measures lexical closeness of two question texts: the number
// of distinct shared lower-cased tokens over the longer token count.
func tokenOverlap(a, b string) float64 {
	aTokens := strings.Fields(strings.ToLower(a))
	bTokens := strings.Fields(strings.ToLower(b))
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}

	aSet := make(map[string]struct{}, len(aTokens))
	for _, tok := range aTokens {
		aSet[tok] = struct{}{}
	}
	shared := make(map[string]struct{})
	for _, tok := range bTokens {
		if _, ok := aSet[tok]; ok {
			shared[tok] = struct{}{}
		}
	}

	longer := len(aTokens)
	if len(bTokens) > longer {
		longer = len(bTokens)
	}
	return float64(len(shared)) / float64(longer)
}
