package vulnlib

import (
	"testing"

	"github.com/tidwall/gjson"
)

const sampleCVE = `{
  "cve": {
    "id": "CVE-2021-44228",
    "published": "2021-12-10T10:15:09.143",
    "descriptions": [
      {"lang": "en", "value": "Apache Log4j2 JNDI features do not protect against attacker controlled LDAP."},
      {"lang": "es", "value": "Las funciones JNDI de Apache Log4j2."}
    ],
    "metrics": {
      "cvssMetricV31": [
        {"cvssData": {"baseScore": 10.0, "baseSeverity": "CRITICAL"}}
      ]
    },
    "configurations": [
      {
        "nodes": [
          {
            "cpeMatch": [
              {
                "vulnerable": true,
                "criteria": "cpe:2.3:a:apache:log4j:*:*:*:*:*:*:*:*",
                "versionStartIncluding": "2.0.1",
                "versionEndExcluding": "2.15.0"
              }
            ]
          }
        ]
      }
    ]
  }
}`

func TestNvdMetrics(t *testing.T) {
	cve := gjson.Parse(sampleCVE).Get("cve")

	score, severity := nvdMetrics(cve.Get("metrics"))

	if score != 10.0 {
		t.Errorf("score = %v, want 10.0", score)
	}

	if severity != "CRITICAL" {
		t.Errorf("severity = %v, want CRITICAL", severity)
	}
}

func TestNvdMetrics_V2Fallback(t *testing.T) {
	metrics := gjson.Parse(`{
		"cvssMetricV2": [
			{"cvssData": {"baseScore": 7.5}, "baseSeverity": "HIGH"}
		]
	}`)

	score, severity := nvdMetrics(metrics)

	if score != 7.5 {
		t.Errorf("score = %v, want 7.5", score)
	}

	if severity != "HIGH" {
		t.Errorf("severity = %v, want HIGH", severity)
	}
}

func TestNvdCPE(t *testing.T) {
	cve := gjson.Parse(sampleCVE).Get("cve")

	row := &VulnRow{MinVersion: "0.0", MaxVersion: "0.0"}
	nvdCPE(cve.Get("configurations"), row)

	if row.Vendor != "apache" {
		t.Errorf("vendor = %v, want apache", row.Vendor)
	}

	if row.Product != "log4j" {
		t.Errorf("product = %v, want log4j", row.Product)
	}

	if row.MinVersion != "=2.0.1" {
		t.Errorf("min version = %v, want =2.0.1", row.MinVersion)
	}

	if row.MaxVersion != "2.15.0" {
		t.Errorf("max version = %v, want 2.15.0", row.MaxVersion)
	}
}
