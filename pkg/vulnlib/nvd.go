package vulnlib

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	nvdURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

	nvdPageSize = 2000

	// NVD rejects date windows wider than 120 days
	nvdMaxWindow = 120 * 24 * time.Hour

	// Pacing without an api key, per NVD guidance
	nvdSlowPace = 6 * time.Second
)

// GetNVD pages the NVD 2.0 api and stores every CVE published inside
// the window into the vulns table
func (c *Client) GetNVD(ctx context.Context, apiKey string) error {

	end := time.Now().UTC()
	start := lastRefresh(c.Store)
	if start.IsZero() || end.Sub(start) > nvdMaxWindow {
		start = end.Add(-nvdMaxWindow)
	}

	startIndex := 0
	for {
		u := fmt.Sprintf("%s?resultsPerPage=%d&startIndex=%d&pubStartDate=%s&pubEndDate=%s",
			nvdURL, nvdPageSize, startIndex,
			url.QueryEscape(start.Format("2006-01-02T15:04:05.000")),
			url.QueryEscape(end.Format("2006-01-02T15:04:05.000")))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		if apiKey != "" {
			req.Header.Set("apiKey", apiKey)
		}

		res, err := c.Cli.Do(req)
		if err != nil {
			log.Printf("failed to request url: %s", nvdURL)
			return err
		}

		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			return fmt.Errorf("nvd api status %d", res.StatusCode)
		}

		resBody, err := ioutil.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return err
		}

		stored, err := c.nvdParse(resBody)
		if err != nil {
			return err
		}

		totalResults := int(gjson.GetBytes(resBody, "totalResults").Int())
		startIndex += nvdPageSize

		log.Printf("NVD page stored, %d records", stored)

		if startIndex >= totalResults {
			break
		}

		if apiKey == "" {
			time.Sleep(nvdSlowPace)
		}
	}

	log.Printf("NVD updating finish")

	return nil
}

func (c *Client) nvdParse(data []byte) (int, error) {

	stored := 0

	for _, v := range gjson.GetBytes(data, "vulnerabilities").Array() {
		cve := v.Get("cve")

		cveID := cve.Get("id").String()
		if cveID == "" {
			continue
		}

		publishDate := cve.Get("published").String()
		if pd, err := time.Parse("2006-01-02T15:04:05.000", publishDate); err == nil {
			publishDate = pd.Format("2006-01-02")
		} else if len(publishDate) >= 10 {
			publishDate = publishDate[:10]
		}

		var description string
		for _, d := range cve.Get("descriptions").Array() {
			if d.Get("lang").String() == "en" {
				description = d.Get("value").String()
				break
			}
		}

		score, severity := nvdMetrics(cve.Get("metrics"))

		row := &VulnRow{
			CVEID:       cveID,
			Description: description,
			Severity:    strings.ToLower(severity),
			Score:       score,
			PublishDate: publishDate,
			Source:      "NVD",
			MinVersion:  "0.0",
			MaxVersion:  "0.0",
		}

		// First vulnerable cpe carries the affected product
		nvdCPE(cve.Get("configurations"), row)

		if err := c.updateVuln(row); err != nil {
			return stored, err
		}

		stored++
	}

	return stored, nil
}

func nvdMetrics(metrics gjson.Result) (float64, string) {
	for _, key := range []string{"cvssMetricV31", "cvssMetricV30"} {
		m := metrics.Get(key)
		if !m.Exists() || len(m.Array()) < 1 {
			continue
		}

		data := m.Array()[0].Get("cvssData")
		return data.Get("baseScore").Float(), data.Get("baseSeverity").String()
	}

	m := metrics.Get("cvssMetricV2")
	if m.Exists() && len(m.Array()) > 0 {
		first := m.Array()[0]
		return first.Get("cvssData.baseScore").Float(), first.Get("baseSeverity").String()
	}

	return 0.0, "none"
}

func nvdCPE(configurations gjson.Result, row *VulnRow) {
	for _, conf := range configurations.Array() {
		for _, node := range conf.Get("nodes").Array() {
			for _, m := range node.Get("cpeMatch").Array() {
				if !m.Get("vulnerable").Bool() {
					continue
				}

				criteria := strings.Split(m.Get("criteria").String(), ":")
				if len(criteria) < 6 {
					continue
				}

				row.Vendor = criteria[3]
				row.Product = criteria[4]

				if criteria[5] != "*" && criteria[5] != "-" {
					row.MaxVersion = "=" + criteria[5]
				}

				if v := m.Get("versionStartIncluding"); v.Exists() {
					row.MinVersion = "=" + v.String()
				} else if v := m.Get("versionStartExcluding"); v.Exists() {
					row.MinVersion = v.String()
				}

				if v := m.Get("versionEndIncluding"); v.Exists() {
					row.MaxVersion = "=" + v.String()
				} else if v := m.Get("versionEndExcluding"); v.Exists() {
					row.MaxVersion = v.String()
				}

				return
			}
		}
	}
}
