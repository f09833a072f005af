// Copyright (c) Bearbattle. All rights reserved.
// Licensed under the MIT License.

package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, validates, and defaults a manifest from the given file path.
//
// Returns an error if the file cannot be read, is not valid YAML, names a
// field this package does not know, or fails validation.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workload manifest not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read workload manifest: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses, validates, and defaults a manifest from raw YAML.
func LoadFromBytes(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, errors.New("workload manifest is empty")
	}

	// Unknown fields are rejected so a typo like "duration_pertype" fails
	// loudly instead of silently dropping the field.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid YAML in workload manifest: %w", err)
	}

	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFromReader reads, validates, and defaults a manifest from r.
func LoadFromReader(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workload manifest: %w", err)
	}
	return LoadFromBytes(data)
}

// Encode renders the manifest as YAML.
func Encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode workload manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode workload manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the manifest to the given file path as YAML.
func Save(path string, m *Manifest) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write workload manifest: %w", err)
	}
	return nil
}
