package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional configure file of cvescan,
// loaded from ~/.cvescan/config.yaml
type FileConfig struct {
	Token       string  `yaml:"token"`
	APIBase     string  `yaml:"api_base"`
	NVDAPIKey   string  `yaml:"nvd_api_key"`
	RequestRate float64 `yaml:"request_rate"`
}

func StoreDir() (string, error) {
	if runtime.GOOS == "windows" {
		dir, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "cvescandata"), nil
	}

	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".cvescan"), nil
}

// LoadFile reads the configure file, a missing file is not an error
func LoadFile() *FileConfig {
	conf := &FileConfig{}

	store, err := StoreDir()
	if err != nil {
		return conf
	}

	data, err := ioutil.ReadFile(filepath.Join(store, "config.yaml"))
	if err != nil {
		return conf
	}

	if err := yaml.Unmarshal(data, conf); err != nil {
		return conf
	}

	return conf
}

// GithubToken resolves the API token, environment wins over the configure file
func GithubToken() string {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}

	return LoadFile().Token
}

// NVDKey resolves the NVD api key with the same precedence as GithubToken
func NVDKey() string {
	if key := os.Getenv("NVD_API_KEY"); key != "" {
		return key
	}

	return LoadFile().NVDAPIKey
}
