package match

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	type args struct {
		s string
	}

	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "canonical",
			args: args{s: "CVE-2021-44228"},
			want: "CVE-2021-44228",
		},
		{
			name: "lowercase",
			args: args{s: "cve-2021-44228"},
			want: "CVE-2021-44228",
		},
		{
			name: "underscore",
			args: args{s: "cve_2022_22965"},
			want: "CVE-2022-22965",
		},
		{
			name: "space",
			args: args{s: "CVE 2019 0708"},
			want: "CVE-2019-0708",
		},
		{
			name: "notACVE",
			args: args{s: "log4shell-scanner"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.args.s)
			if got != tt.want {
				t.Errorf("Normalize() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractCVEIDs(t *testing.T) {
	type args struct {
		s string
	}

	tests := []struct {
		name string
		args args
		want []string
	}{
		{
			name: "single",
			args: args{s: "PoC for CVE-2021-44228 (log4shell)"},
			want: []string{"CVE-2021-44228"},
		},
		{
			name: "duplicated",
			args: args{s: "cve-2021-44228 exploit, see CVE-2021-44228 advisory"},
			want: []string{"CVE-2021-44228"},
		},
		{
			name: "multiple",
			args: args{s: "chains CVE-2022-22963 with cve_2022_22965"},
			want: []string{"CVE-2022-22963", "CVE-2022-22965"},
		},
		{
			name: "implausibleYear",
			args: args{s: "CVE-1821-0001 is not real"},
			want: []string{},
		},
		{
			name: "none",
			args: args{s: "a kubernetes dashboard"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCVEIDs(tt.args.s)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCVEIDs() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{
			name: "valid",
			id:   "CVE-2017-0144",
			want: true,
		},
		{
			name: "longSequence",
			id:   "CVE-2021-3156789",
			want: true,
		},
		{
			name: "tooLongSequence",
			id:   "CVE-2021-31567890",
			want: false,
		},
		{
			name: "badForm",
			id:   "CVE-2021-1",
			want: false,
		},
		{
			name: "earlyYear",
			id:   "CVE-1998-0001",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidID(tt.id); got != tt.want {
				t.Errorf("ValidID() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreAndConfidence(t *testing.T) {
	type args struct {
		s string
	}

	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "highConfidence",
			args: args{s: "Weaponized exploit with reverse shell payload"},
			want: "high",
		},
		{
			name: "mediumConfidence",
			args: args{s: "notes about the vulnerability bypass"},
			want: "medium",
		},
		{
			name: "lowConfidence",
			args: args{s: "a grocery list application"},
			want: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(Score(tt.args.s))
			if got != tt.want {
				t.Errorf("Confidence() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		want     bool
	}{
		{
			name:     "excludedOwner",
			fullName: "CVEProject/cvelistV5",
			want:     true,
		},
		{
			name:     "excludedRepo",
			fullName: "trickest/cve",
			want:     true,
		},
		{
			name:     "caseInsensitive",
			fullName: "cveproject/cvelist",
			want:     true,
		},
		{
			name:     "notExcluded",
			fullName: "rapid7/metasploit-framework",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excluded(tt.fullName); got != tt.want {
				t.Errorf("Excluded() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInRange(t *testing.T) {
	type args struct {
		ver string
		min string
		max string
	}

	tests := []struct {
		name string
		args args
		want bool
	}{
		{
			name: "inside",
			args: args{ver: "2.14.1", min: "0.0", max: "2.15.0"},
			want: true,
		},
		{
			name: "aboveExclusive",
			args: args{ver: "2.15.0", min: "0.0", max: "2.15.0"},
			want: false,
		},
		{
			name: "atInclusiveMax",
			args: args{ver: "2.15.0", min: "0.0", max: "=2.15.0"},
			want: true,
		},
		{
			name: "belowInclusiveMin",
			args: args{ver: "2.0", min: "=2.10", max: "2.15.0"},
			want: false,
		},
		{
			name: "unbounded",
			args: args{ver: "1.0", min: "0.0", max: "0.0"},
			want: true,
		},
		{
			name: "garbageVersion",
			args: args{ver: "latest", min: "0.0", max: "2.15.0"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InRange(tt.args.ver, tt.args.min, tt.args.max)
			if got != tt.want {
				t.Errorf("InRange() got = %v, want %v", got, tt.want)
			}
		})
	}
}
