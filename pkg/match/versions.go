package match

import (
	"regexp"
	"strings"

	version2 "github.com/hashicorp/go-version"
)

var versionRegex = regexp.MustCompile(`\b\d+\.\d+(\.\d+)*\b`)

// ExtractVersions pulls dotted version strings out of free text
func ExtractVersions(text string) []string {
	versions := []string{}
	seen := make(map[string]bool)

	for _, v := range versionRegex.FindAllString(text, -1) {
		if seen[v] {
			continue
		}
		seen[v] = true
		versions = append(versions, v)
	}

	return versions
}

// InRange checks whether ver falls inside the vulnerable window of a CVE
// record. The bounds follow the database convention: '0.0' means unbounded,
// a '=' prefix makes the bound inclusive.
func InRange(ver, minVersion, maxVersion string) bool {
	v, err := version2.NewVersion(ver)
	if err != nil {
		return false
	}

	if minVersion != "" && minVersion != "0.0" {
		inclusive := strings.HasPrefix(minVersion, "=")
		min, err := version2.NewVersion(strings.TrimPrefix(minVersion, "="))
		if err != nil {
			return false
		}

		if inclusive {
			if v.Compare(min) < 0 {
				return false
			}
		} else if v.Compare(min) <= 0 {
			return false
		}
	}

	if maxVersion != "" && maxVersion != "0.0" && maxVersion != "*" {
		inclusive := strings.HasPrefix(maxVersion, "=")
		max, err := version2.NewVersion(strings.TrimPrefix(maxVersion, "="))
		if err != nil {
			return false
		}

		if inclusive {
			if v.Compare(max) > 0 {
				return false
			}
		} else if v.Compare(max) >= 0 {
			return false
		}
	}

	return true
}
