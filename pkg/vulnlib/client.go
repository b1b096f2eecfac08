package vulnlib

import (
	"database/sql"
	"net/http"
)

type Client struct {
	Cli *http.Client
	DB  *sql.DB

	Store string
}

// VulnRow is a CVE record fetched from the NVD
type VulnRow struct {
	Id          int
	Hash        string
	CVEID       string
	Description string
	Severity    string
	Score       float64
	PublishDate string
	Vendor      string
	Product     string
	MinVersion  string
	MaxVersion  string
	Source      string
}

// RepoRow is a proof-of-concept repository discovered on GitHub
type RepoRow struct {
	Id          int
	Hash        string
	FullName    string
	Description string
	HTMLURL     string
	Stars       int
	Forks       int
	CreatedAt   string
	PushedAt    string
	CVEID       string
	Confidence  string
	Query       string
}
