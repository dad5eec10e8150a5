package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// File pairs a parsed scenario with its on-disk source.
type File struct {
	Scenario Scenario
	Path     string
}

// Parse decodes and validates a scenario payload. JSON is accepted as well
// since it is a subset of YAML.
func Parse(data []byte) (Scenario, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Scenario{}, fmt.Errorf("scenario: payload is empty")
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("scenario: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s.Normalized(), nil
}

// Marshal renders a scenario as YAML.
func Marshal(s Scenario) ([]byte, error) {
	data, err := yaml.Marshal(s.Normalized())
	if err != nil {
		return nil, fmt.Errorf("scenario: encode: %w", err)
	}
	return data, nil
}

// LoadFile reads a scenario file from disk.
func LoadFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("scenario: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("scenario: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("scenario: %s: %w", path, err)
	}
	return File{Scenario: s, Path: filepath.Clean(path)}, nil
}

// LoadDir scans a directory for scenario files (*.yaml, *.yml, *.json) and
// returns them sorted by path. A missing directory yields no scenarios.
func LoadDir(dir string) ([]File, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scenario: read %s: %w", trimmed, err)
	}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !isScenarioFile(entry.Name()) {
			continue
		}
		file, err := LoadFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// LoadPaths resolves a mix of files and directories. Unlike LoadDir, a path
// that does not exist is an error since the caller named it explicitly.
func LoadPaths(paths ...string) ([]File, error) {
	var files []File
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("scenario: %w", err)
		}
		if info.IsDir() {
			found, err := LoadDir(path)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func isScenarioFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")
}

func sortedKeys(values map[string]bool) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
