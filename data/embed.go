// Package data bundles the wordlists shipped with cvescan.
package data

import (
	_ "embed"
)

//go:embed queries.txt
var Queries string

//go:embed keywords.txt
var Keywords string

//go:embed exclusions.txt
var Exclusions string
