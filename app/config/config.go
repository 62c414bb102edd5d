// Package config reads the application configuration from ./config.yml.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Http struct {
		Listen string
		Port   int16
	}
	Db struct {
		Driver           string
		ConnectionString string `yaml:"connectionString"`
	}
	Crawl struct {
		// The URL the crawl starts from.
		Seed string
		// The maximum amount of pages to index before the crawl stops.
		PageLimit int `yaml:"pageLimit"`
		// The maximum amount of concurrent HTTP fetches.
		FetchConcurrency int `yaml:"fetchConcurrency"`
		// The maximum amount of pages being tokenized and stemmed at once.
		IndexConcurrency int `yaml:"indexConcurrency"`
	}
	Summary struct {
		// Where the plain-text index summary is written. Empty disables the export.
		Path string
		// Keywords per page in the summary. Negative means all of them.
		KeywordCount int `yaml:"keywordCount"`
		// Links per page in the summary. Negative means all of them.
		LinkCount int `yaml:"linkCount"`
	}
}

func Read() (*Config, error) {

	data, err := os.ReadFile("./config.yml")
	if err != nil {
		return nil, err
	}

	config := &Config{}
	err = yaml.Unmarshal([]byte(data), config)

	if err != nil {
		return nil, err
	}

	return config, nil
}
