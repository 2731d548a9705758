package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ErrNoRulesets is returned when a glob matches no ruleset files.
var ErrNoRulesets = errors.New("no ruleset files matched")

// Decode reads a ruleset document. format is "json" or "yaml". Unknown
// fields are rejected.
func Decode(r io.Reader, format string) (Ruleset, error) {
	var rs Ruleset
	switch format {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rs); err != nil {
			return Ruleset{}, fmt.Errorf("decode json ruleset: %w", err)
		}
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&rs); err != nil && !errors.Is(err, io.EOF) {
			return Ruleset{}, fmt.Errorf("decode yaml ruleset: %w", err)
		}
	default:
		return Ruleset{}, fmt.Errorf("unsupported ruleset format: %s", format)
	}
	if err := rs.Validate(); err != nil {
		return Ruleset{}, err
	}
	return rs, nil
}

// FormatForPath returns the document format implied by a file extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("unsupported ruleset file extension: %s", path)
	}
}

// LoadFile reads a ruleset from a .json, .yaml or .yml file. A ruleset
// without a name is named after the file.
func LoadFile(path string) (Ruleset, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Ruleset{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("failed to read ruleset: %w", err)
	}
	rs, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return Ruleset{}, fmt.Errorf("%s: %w", path, err)
	}
	if rs.Name == "" {
		rs.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return rs, nil
}

// ResolveFiles expands glob patterns (including **) to ruleset files, sorted
// and without duplicates. Plain paths are kept as they are.
func ResolveFiles(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		for _, m := range matches {
			if _, err := FormatForPath(m); err != nil {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRulesets, strings.Join(patterns, ", "))
	}
	return files, nil
}

// LoadGlob loads every ruleset matched by the patterns in path order.
func LoadGlob(patterns ...string) ([]Ruleset, error) {
	files, err := ResolveFiles(patterns...)
	if err != nil {
		return nil, err
	}
	out := make([]Ruleset, 0, len(files))
	for _, f := range files {
		rs, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, nil
}
