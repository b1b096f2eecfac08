package match

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/certcc/cvescan/data"
)

type keyword struct {
	word   string
	weight int
	// short abbreviations like 'rce' only count on word boundaries,
	// otherwise 'source' would score
	bounded *regexp.Regexp
}

func (k keyword) matches(lower string) bool {
	if k.bounded != nil {
		return k.bounded.MatchString(lower)
	}
	return strings.Contains(lower, k.word)
}

var (
	loadOnce   sync.Once
	keywords   []keyword
	exclusions []string
	templates  []string
)

func loadData() {
	loadOnce.Do(func() {
		for _, line := range splitLines(data.Keywords) {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}

			weight, err := strconv.Atoi(fields[len(fields)-1])
			if err != nil {
				continue
			}

			word := strings.ToLower(strings.Join(fields[:len(fields)-1], " "))
			k := keyword{word: word, weight: weight}
			if len(word) <= 4 && !strings.Contains(word, " ") {
				k.bounded = regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
			}
			keywords = append(keywords, k)
		}

		for _, line := range splitLines(data.Exclusions) {
			exclusions = append(exclusions, strings.ToLower(line))
		}

		templates = splitLines(data.Queries)
	})
}

func splitLines(raw string) []string {
	lines := []string{}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	return lines
}

// QueryTemplates returns the bundled search query templates
func QueryTemplates() []string {
	loadData()
	return templates
}

// Score sums the weights of every indicator keyword found in text
func Score(text string) int {
	loadData()

	lower := strings.ToLower(text)
	score := 0

	for _, k := range keywords {
		if k.matches(lower) {
			score += k.weight
		}
	}

	return score
}

// Indicators lists the keywords found in text with their weights
func Indicators(text string) map[string]int {
	loadData()

	lower := strings.ToLower(text)
	found := map[string]int{}

	for _, k := range keywords {
		if k.matches(lower) {
			found[k.word] = k.weight
		}
	}

	return found
}

// Confidence buckets an indicator score into the ranks of config.ConfidenceMap
func Confidence(score int) string {
	switch {
	case score >= 10:
		return "high"
	case score >= 4:
		return "medium"
	default:
		return "low"
	}
}

// Excluded reports whether a repository matches the exclusion list,
// either by owner or by full name
func Excluded(fullName string) bool {
	loadData()

	lower := strings.ToLower(fullName)
	owner := lower
	if i := strings.Index(lower, "/"); i > 0 {
		owner = lower[:i]
	}

	for _, e := range exclusions {
		if lower == e || owner == e {
			return true
		}
	}

	return false
}
