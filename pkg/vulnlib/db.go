package vulnlib

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func (cli *Client) Init() error {

	store := cli.Store
	if store == "" {
		var err error
		store, err = getStoreDir()
		if err != nil {
			log.Printf("failed to get store dir, error: %v", err)
			return err
		}
	}

	if !exists(store) {
		if err := mkFolder(store); err != nil {
			log.Printf("failed to create folder, error: %v", err)
			return err
		}
	}

	dbPath := filepath.Join(store, "cvescan.db")

	var db *sql.DB
	if !exists(dbPath) {
		file, err := os.Create(dbPath)
		if err != nil {
			return err
		}
		file.Close()

		db, _ = sql.Open("sqlite3", dbPath)

		vulTable := `CREATE TABLE vulns (
			"ID" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			"Hash" TEXT UNIQUE,
			"CVEID" TEXT,
			"Description" TEXT,
			"Severity" TEXT,
			"Score" REAL,
			"PublishDate" TEXT,
			"Vendor" TEXT,
			"Product" TEXT,
			"MinVersion" TEXT,
			"MaxVersion" TEXT,
			"Source" TEXT);`
		query, err := db.Prepare(vulTable)
		if err != nil {
			return err
		}
		query.Exec()

		repoTable := `CREATE TABLE repos (
			"ID" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
			"Hash" TEXT UNIQUE,
			"FullName" TEXT,
			"Description" TEXT,
			"HTMLURL" TEXT,
			"Stars" INTEGER,
			"Forks" INTEGER,
			"CreatedAt" TEXT,
			"PushedAt" TEXT,
			"CVEID" TEXT,
			"Confidence" TEXT,
			"Query" TEXT);`
		query, err = db.Prepare(repoTable)
		if err != nil {
			return err
		}
		query.Exec()
	} else {
		db, _ = sql.Open("sqlite3", dbPath)
	}

	cli.DB = db
	cli.Store = store
	return nil
}

func (cli *Client) updateVuln(v *VulnRow) error {
	hash := md5.Sum([]byte(fmt.Sprintf("%s%s%s%s", v.CVEID, v.Product, v.MinVersion, v.MaxVersion)))

	sqlRow := `INSERT INTO vulns
				  ("Hash", "CVEID", "Description", "Severity", "Score", "PublishDate", "Vendor", "Product", "MinVersion", "MaxVersion", "Source")
				   VALUES
				  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := cli.DB.Exec(sqlRow, hex.EncodeToString(hash[:]), v.CVEID,
		v.Description, v.Severity, v.Score,
		v.PublishDate, v.Vendor, v.Product,
		v.MinVersion, v.MaxVersion, v.Source)

	if err != nil {
		if strings.Contains(err.Error(), "vulns.Hash") {
			return nil
		}
		return err
	}

	return nil
}

// UpsertRepo stores a discovered repository, duplicates are skipped
func (cli *Client) UpsertRepo(r *RepoRow) error {
	hash := md5.Sum([]byte(fmt.Sprintf("%s%s", r.FullName, r.CVEID)))

	sqlRow := `INSERT INTO repos
				  ("Hash", "FullName", "Description", "HTMLURL", "Stars", "Forks", "CreatedAt", "PushedAt", "CVEID", "Confidence", "Query")
				   VALUES
				  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := cli.DB.Exec(sqlRow, hex.EncodeToString(hash[:]), r.FullName,
		r.Description, r.HTMLURL, r.Stars,
		r.Forks, r.CreatedAt, r.PushedAt,
		r.CVEID, r.Confidence, r.Query)

	if err != nil {
		if strings.Contains(err.Error(), "repos.Hash") {
			return nil
		}
		return err
	}

	return nil
}

func (cli *Client) QueryVulnByCVEID(cveid string) ([]*VulnRow, error) {

	dbRows := []*VulnRow{}

	sqlRow := `SELECT * FROM vulns WHERE cveid = ?`
	rows, err := cli.DB.Query(sqlRow, cveid)

	if err != nil {
		return dbRows, err
	}

	defer rows.Close()

	for rows.Next() {
		r := &VulnRow{}
		err = rows.Scan(&r.Id, &r.Hash, &r.CVEID,
			&r.Description, &r.Severity, &r.Score,
			&r.PublishDate, &r.Vendor, &r.Product,
			&r.MinVersion, &r.MaxVersion, &r.Source)

		if err != nil {
			continue
		}

		dbRows = append(dbRows, r)
	}

	if err = rows.Err(); err != nil {
		return dbRows, err
	}

	return dbRows, nil
}

// RecentCVEIDs lists the distinct CVE ids published in the last days
func (cli *Client) RecentCVEIDs(days int) ([]string, error) {

	ids := []string{}

	since := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	sqlRow := `SELECT DISTINCT cveid FROM vulns WHERE publishdate >= ? ORDER BY publishdate DESC`
	rows, err := cli.DB.Query(sqlRow, since)

	if err != nil {
		return ids, err
	}

	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return ids, err
	}

	return ids, nil
}

func (cli *Client) QueryReposByCVEID(cveid string) ([]*RepoRow, error) {

	dbRows := []*RepoRow{}

	sqlRow := `SELECT * FROM repos WHERE cveid = ? ORDER BY stars DESC`
	rows, err := cli.DB.Query(sqlRow, cveid)

	if err != nil {
		return dbRows, err
	}

	defer rows.Close()

	for rows.Next() {
		r := &RepoRow{}
		err = rows.Scan(&r.Id, &r.Hash, &r.FullName,
			&r.Description, &r.HTMLURL, &r.Stars,
			&r.Forks, &r.CreatedAt, &r.PushedAt,
			&r.CVEID, &r.Confidence, &r.Query)

		if err != nil {
			continue
		}

		dbRows = append(dbRows, r)
	}

	if err = rows.Err(); err != nil {
		return dbRows, err
	}

	return dbRows, nil
}

// RepoCVEIDs lists every CVE id that has at least one stored repository
func (cli *Client) RepoCVEIDs() ([]string, error) {

	ids := []string{}

	sqlRow := `SELECT DISTINCT cveid FROM repos ORDER BY cveid DESC`
	rows, err := cli.DB.Query(sqlRow)

	if err != nil {
		return ids, err
	}

	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return ids, err
	}

	return ids, nil
}
