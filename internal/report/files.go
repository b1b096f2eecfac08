package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/certcc/cvescan/config"
	"github.com/certcc/cvescan/internal/deepdive"
	"github.com/certcc/cvescan/internal/mapid"
	"github.com/certcc/cvescan/internal/searcher"
	"github.com/certcc/cvescan/internal/summarize"
)

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

func getOutputFile(ctx context.Context) (string, error) {
	outfile := ctx.Value("output").(string)
	if outfile == "output" {
		pwd, _ := os.Getwd()
		folder := filepath.Join(pwd, "output")
		if !exists(folder) {
			err := os.MkdirAll(folder, os.FileMode(0755))
			if err != nil {
				return "", err
			}
		}
		nowStamp := time.Now().Format("2006-01-02")
		file := filepath.Join(folder, fmt.Sprintf("%s.json", nowStamp))

		return file, nil

	} else {
		folder := filepath.Dir(outfile)
		if !exists(folder) {
			err := os.MkdirAll(folder, os.FileMode(0755))
			if err != nil {
				return "", err
			}
		}

		return outfile, nil

	}

}

func saveJson(ctx context.Context, v interface{}) error {
	filename, err := getOutputFile(ctx)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(filename, data, 0644)
	if err != nil {
		return err
	}

	fmt.Printf("\n")
	log.Printf("Output file is saved in: %s", config.Yellow(filename))

	return nil
}

func SearchToJson(ctx context.Context, s searcher.Scanner) error {
	return saveJson(ctx, s.Hits)
}

func MappingToJson(ctx context.Context, m mapid.Mapper) error {
	return saveJson(ctx, m.Results)
}

func DeepDiveToJson(ctx context.Context, d deepdive.Diver) error {
	return saveJson(ctx, d.Report)
}

// SummariesToFiles writes one Markdown file per CVE next to the
// combined json report
func SummariesToFiles(ctx context.Context, s summarize.Summarizer) error {
	filename, err := getOutputFile(ctx)
	if err != nil {
		return err
	}

	folder := filepath.Dir(filename)

	for _, c := range s.Summaries {
		mdFile := filepath.Join(folder, strings.ToLower(c.CVEID)+".md")

		if err := ioutil.WriteFile(mdFile, []byte(c.Markdown()), 0644); err != nil {
			log.Printf("failed to write %s, error: %v", mdFile, err)
		}
	}

	data, err := json.MarshalIndent(s.Summaries, "", "  ")
	if err != nil {
		return err
	}

	err = ioutil.WriteFile(filename, data, 0644)
	if err != nil {
		return err
	}

	fmt.Printf("\n")
	log.Printf("Summaries are saved in: %s", config.Yellow(folder))

	return nil
}
