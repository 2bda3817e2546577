package ranking

import (
	"regexp"
	"strings"

	"github.com/alchemorsel/nutriguide/internal/domain/dietary"
)

var (
	// leading bullets and numbering: "-", "*", "•", "1.", "2)", "#3", "(4)"
	listMarker = regexp.MustCompile(`^\s*(?:[-*•+]+|#?\d+[.):]|\(\d+\))\s*`)
	emphasis   = strings.NewReplacer("**", "", "__", "", "`", "")
)

// explanationVocabulary marks an answer that explains instead of listing
var explanationVocabulary = []string{
	"sorry", "unfortunately", "apolog", "cannot", "can't", "unable",
	"no suitable", "none of", "not suitable", "no dish",
	"xin lỗi", "rất tiếc", "không phù hợp",
}

// ParseRanked maps each answer line to the first unmatched candidate whose
// name it contains or is contained in, case-insensitively. Order follows the
// answer and no candidate appears twice.
func ParseRanked(text string, candidates []dietary.FoodCandidate) []dietary.FoodCandidate {
	var out []dietary.FoodCandidate
	taken := make(map[string]struct{}, len(candidates))

	for _, line := range strings.Split(text, "\n") {
		name := cleanLine(line)
		if len([]rune(name)) < 2 {
			continue
		}
		for _, c := range candidates {
			if _, ok := taken[c.DishID]; ok {
				continue
			}
			candidate := c.NameKey()
			if candidate == "" {
				continue
			}
			if strings.Contains(name, candidate) || strings.Contains(candidate, name) {
				taken[c.DishID] = struct{}{}
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// IsExplanation reports whether the answer contains apology or explanation
// wording
func IsExplanation(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range explanationVocabulary {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func cleanLine(line string) string {
	line = emphasis.Replace(line)
	line = listMarker.ReplaceAllString(line, "")
	return dietary.NormalizeName(line)
}
