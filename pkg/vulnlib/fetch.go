package vulnlib

import (
	"context"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/certcc/cvescan/config"
)

// Fetch updates the local CVE database from the NVD
func Fetch(ctx context.Context) error {
	log.Printf(config.Green("Begin updating vulnerability database"))

	tr := &http.Transport{
		IdleConnTimeout:    60 * time.Second,
		DisableCompression: true,
	}

	cli := Client{
		Cli: &http.Client{
			Transport: tr,
		},
	}

	store, err := getStoreDir()
	if err != nil {
		log.Printf("failed to get store dir, error: %v", err)
		return err
	}

	if ctx.Value("reset") != nil && ctx.Value("reset").(bool) {
		dateFile := filepath.Join(store, "date.txt")
		dbFile := filepath.Join(store, "cvescan.db")

		_ = os.Remove(dateFile)
		_ = os.Remove(dbFile)
	}

	if !exists(store) {
		err = mkFolder(store)

		if err != nil {
			log.Printf("failed to create folder, error: %v", err)
			return err
		}
	}

	if !checkExpired(store) {
		log.Printf("Vulnerability database is already up to date")
		return nil
	}

	log.Printf("Vulnerability data expired, updating database")

	err = cli.Init()
	if err != nil {
		log.Printf("failed to init database")
		return err
	}

	defer cli.DB.Close()

	err = cli.GetNVD(ctx, config.NVDKey())
	if err != nil {
		log.Printf("failed to get nvd data, error: %v", err)
	}

	err = writeLog(store)
	if err != nil {
		log.Printf("failed to write date log, error: %v", err)
	}

	return nil
}

func getStoreDir() (string, error) {
	return config.StoreDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsExist(err) {
			return true
		}

		return false
	}
	return true
}

func mkFolder(path string) error {
	if !exists(path) {
		err := os.MkdirAll(path, os.FileMode(0755))
		if err != nil {
			return err
		}
	}
	return nil
}

// lastRefresh reads the date stamp of the previous update, a zero time
// means the database was never filled
func lastRefresh(store string) time.Time {
	value, err := ioutil.ReadFile(filepath.Join(store, "date.txt"))
	if err != nil {
		return time.Time{}
	}

	stamp, err := time.Parse("02/01/2006", string(value))
	if err != nil {
		return time.Time{}
	}

	return stamp
}

func checkExpired(path string) bool {

	filename := filepath.Join(path, "date.txt")
	var dateFile *os.File
	var err error

	if !exists(filename) {
		return true

	} else {
		dateFile, err = os.Open(filename)
		if err != nil {
			log.Printf("failed to open date: %v", err)
			return true
		}
	}

	defer dateFile.Close()

	value, err := ioutil.ReadAll(dateFile)
	if err != nil {
		return true
	}

	today := time.Now()

	if len(value) < 1 {
		return true
	}

	logDate, err := time.Parse("02/01/2006", string(value))

	// Check whether a time format
	if err != nil {
		log.Printf("Date format error, expired")
		return true
	}

	if expire := today.After(logDate.AddDate(0, 0, 1)); expire {
		return true
	}

	return false
}

func writeLog(path string) error {

	filename := filepath.Join(path, "date.txt")

	if !exists(filename) {
		f, err := os.Create(filename)
		if err != nil {
			log.Printf("failed to create log")
			return err
		}
		f.Close()
	}

	today := time.Now()

	dateFile, err := os.OpenFile(filename, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		log.Printf("failed to open log")
		return err
	}

	defer dateFile.Close()

	_, err = dateFile.WriteString(today.Format("02/01/2006"))
	if err != nil {
		return err
	}
	return nil
}
