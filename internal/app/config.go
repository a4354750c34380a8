package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/hls2mp4/configs"
	"github.com/RyanBlaney/hls2mp4/pkg/stream/common"
	"gopkg.in/yaml.v3"
)

// Job is one playlist to download
type Job struct {
	Name       string `json:"name" yaml:"name"`
	URL        string `json:"url" yaml:"url"`
	OutputKind string `json:"output_kind,omitempty" yaml:"output_kind,omitempty"`
}

// JobsConfig is the jobs file consumed by the batch command
type JobsConfig struct {
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Jobs        []Job  `json:"jobs" yaml:"jobs"`
}

// Validate checks every job in the file
func (c *JobsConfig) Validate() error {
	if len(c.Jobs) == 0 {
		return fmt.Errorf("jobs file lists no jobs")
	}

	names := make(map[string]int, len(c.Jobs))
	for i, job := range c.Jobs {
		if strings.TrimSpace(job.URL) == "" {
			return fmt.Errorf("job %d: url is required", i)
		}
		if !common.IsValidURL(job.URL) {
			return fmt.Errorf("job %d: invalid url %q", i, job.URL)
		}
		if job.OutputKind != "" {
			if _, ok := common.ParseOutputKind(job.OutputKind); !ok {
				return fmt.Errorf("job %d: unknown output kind %q", i, job.OutputKind)
			}
		}
		if job.Name != "" {
			if prev, ok := names[job.Name]; ok {
				return fmt.Errorf("job %d: name %q already used by job %d", i, job.Name, prev)
			}
			names[job.Name] = i
		}
	}

	return nil
}

// LoadJobs loads a jobs file, choosing the decoder by extension
func LoadJobs(filePath string) (*JobsConfig, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("jobs file does not exist: %s", filePath)
	}

	var (
		config *JobsConfig
		err    error
	)

	// Determine file format
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		config, err = loadJobsFromYAML(filePath)
	case ".json":
		config, err = loadJobsFromJSON(filePath)
	default:
		// Try YAML first, then JSON
		config, err = loadJobsFromYAML(filePath)
		if err != nil {
			config, err = loadJobsFromJSON(filePath)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid jobs file: %w", err)
	}

	return config, nil
}

func loadJobsFromYAML(filePath string) (*JobsConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}

	var config JobsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML jobs file: %w", err)
	}

	return &config, nil
}

func loadJobsFromJSON(filePath string) (*JobsConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}

	var config JobsConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON jobs file: %w", err)
	}

	return &config, nil
}

// GenerateExampleConfig generates an example application configuration file
func GenerateExampleConfig(outputFile string) error {
	return writeYAML(outputFile, configs.GetDefaultConfig())
}

// GenerateExampleJobs generates an example jobs file
func GenerateExampleJobs(outputFile string) error {
	example := &JobsConfig{
		Version:     "1.0",
		Description: "Example hls2mp4 jobs file",
		Jobs: []Job{
			{
				Name: "bipbop",
				URL:  "https://devstreaming-cdn.apple.com/videos/streaming/examples/bipbop_4x3/bipbop_4x3_variant.m3u8",
			},
			{
				Name:       "bipbop-raw",
				URL:        "https://devstreaming-cdn.apple.com/videos/streaming/examples/bipbop_4x3/gear1/prog_index.m3u8",
				OutputKind: string(common.OutputRaw),
			},
		},
	}

	return writeYAML(outputFile, example)
}

func writeYAML(outputFile string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(outputFile), err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(outputFile), err)
	}

	return nil
}
