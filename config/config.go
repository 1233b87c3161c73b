// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads and validates the application configuration.
//
// Configuration is an explicit value passed into component
// constructors; there is no package-level singleton. A missing config
// file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ChunkingConfig configures how converted documents are split into chunks.
type ChunkingConfig struct {
	// MaxChunkSize is a soft upper bound on chunk text length in characters.
	MaxChunkSize int `yaml:"max_chunk_size"`
	// Overlap is the number of trailing segments repeated into the next chunk.
	Overlap int `yaml:"overlap"`
	// PreserveStructure forces chunk boundaries at section-title changes.
	PreserveStructure bool `yaml:"preserve_structure"`
	// CitationMarkers are the substrings counted as citation references.
	CitationMarkers []string `yaml:"citation_markers"`
}

// EmbeddingConfig configures the embedding backend and batching.
type EmbeddingConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BatchSize int    `yaml:"batch_size"`
	// Dimension is the vector width the deployment is pinned to; the
	// store schema and the backend are both validated against it.
	Dimension int `yaml:"dimension"`
}

// StorageConfig selects and configures the vector store backend.
type StorageConfig struct {
	// Driver is "sqlite" or "badger".
	Driver string `yaml:"driver"`
	// Path is the database file (sqlite) or directory (badger).
	Path string `yaml:"path"`
}

// DownloadConfig configures the PDF downloader.
type DownloadConfig struct {
	Dir            string        `yaml:"dir"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	Timeout        time.Duration `yaml:"timeout"`
}

// PipelineConfig configures the ingestion run.
type PipelineConfig struct {
	// Workers bounds the number of documents processed concurrently.
	Workers int `yaml:"workers"`
	// DocumentTimeout is the per-document processing deadline.
	DocumentTimeout time.Duration `yaml:"document_timeout"`
	// ReportInterval reports progress every N documents.
	ReportInterval int `yaml:"report_interval"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Download  DownloadConfig  `yaml:"download"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		Chunking: ChunkingConfig{
			MaxChunkSize:      1000,
			Overlap:           1,
			PreserveStructure: true,
			CitationMarkers:   []string{"Art.", "§", "Inciso"},
		},
		Embedding: EmbeddingConfig{
			Host:      "http://localhost:11434/v1",
			Model:     "embeddinggemma",
			APIKeyEnv: "LEXINDEX_EMBEDDING_API_KEY",
			BatchSize: 32,
			Dimension: 768,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "data/lexindex.db",
		},
		Download: DownloadConfig{
			Dir:            "data/raw",
			MaxRetries:     3,
			RetryBaseDelay: 1 * time.Second,
			Timeout:        30 * time.Second,
		},
		Pipeline: PipelineConfig{
			Workers:         0, // 0 = runtime-derived default
			DocumentTimeout: 5 * time.Minute,
			ReportInterval:  10,
		},
	}
}

// Load reads a config from the specified path. If the file does not
// exist, returns the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on configuration that would only surface as
// errors deep inside a run.
func (c *AppConfig) Validate() error {
	if c.Chunking.MaxChunkSize <= 0 {
		return errors.New("config: chunking.max_chunk_size must be positive")
	}
	if c.Chunking.Overlap < 0 {
		return errors.New("config: chunking.overlap cannot be negative")
	}
	if c.Embedding.BatchSize <= 0 {
		return errors.New("config: embedding.batch_size must be positive")
	}
	if c.Embedding.Dimension <= 0 {
		return errors.New("config: embedding.dimension must be positive")
	}
	switch c.Storage.Driver {
	case "sqlite", "badger":
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Download.MaxRetries <= 0 {
		return errors.New("config: download.max_retries must be positive")
	}
	if c.Pipeline.Workers < 0 {
		return errors.New("config: pipeline.workers cannot be negative")
	}
	return nil
}
