// Command generate-config writes an example config file holding every default.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/debemdeboas/draftdesk/internal/config"
	"gopkg.in/yaml.v3"
)

const header = `# draftdesk configuration example
# Copy this file to config.yaml (or point DRAFTDESK_CONFIG at it) and customize as needed.
# Durations use Go syntax, e.g. 30s or 1m. S3 credentials come from
# S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY, never from this file.

`

func generate() ([]byte, error) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return append([]byte(header), yamlData...), nil
}

func main() {
	outputFile := flag.String("o", "config.example.yaml", "Output file, or - for stdout")
	flag.Parse()

	output, err := generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	if *outputFile == "-" {
		os.Stdout.Write(output)
		return
	}

	if err := os.WriteFile(*outputFile, output, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", *outputFile)
}
