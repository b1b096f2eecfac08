package match

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const firstCVEYear = 1999

var (
	cveRegex       = regexp.MustCompile(`(?i)CVE[-_ ](\d{4})[-_ ](\d{4,7})`)
	canonicalRegex = regexp.MustCompile(`^CVE-(\d{4})-\d{4,7}$`)
)

// Normalize rewrites loose spellings like 'cve_2021_44228' into
// the canonical upper-case form
func Normalize(id string) string {
	m := cveRegex.FindStringSubmatch(id)
	if m == nil {
		return ""
	}

	return fmt.Sprintf("CVE-%s-%s", m[1], m[2])
}

// ValidID checks the canonical form and a plausible year range
func ValidID(id string) bool {
	m := canonicalRegex.FindStringSubmatch(id)
	if m == nil {
		return false
	}

	year, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}

	return year >= firstCVEYear && year <= time.Now().Year()+1
}

// CVEYear returns the year part of a canonical id, 0 when malformed
func CVEYear(id string) int {
	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		return 0
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}

	return year
}

// ExtractCVEIDs collects every normalized CVE id mentioned in text,
// deduplicated in order of first appearance
func ExtractCVEIDs(text string) []string {
	ids := []string{}
	seen := make(map[string]bool)

	for _, m := range cveRegex.FindAllStringSubmatch(text, -1) {
		id := Normalize(m[0])
		if id == "" || seen[id] {
			continue
		}

		if !ValidID(id) {
			continue
		}

		seen[id] = true
		ids = append(ids, id)
	}

	return ids
}
