package roster

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// Record is one person of a flat roster.
type Record struct {
	ID         string `json:"id" yaml:"id" toml:"id"`
	Name       string `json:"name" yaml:"name" toml:"name"`
	PictureURL string `json:"picture_url,omitempty" yaml:"picture_url,omitempty" toml:"picture_url"`
	Location   string `json:"location,omitempty" yaml:"location,omitempty" toml:"location"`
	Team       string `json:"team,omitempty" yaml:"team,omitempty" toml:"team"`
	Parent     string `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent"`
}

// Format names a roster encoding.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	if err := errors.ValidateRosterPath(path); err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return FormatYAML, nil
}

// Load reads the roster at path, choosing the decoder by extension.
func Load(path string) ([]Record, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "roster %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := Read(f, format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "roster %s", path)
	}
	return records, nil
}

// Read decodes a roster from r.
//
// JSON and YAML accept either a list of records or a nested organisation
// tree (see [Tree]). TOML expects [[person]] tables. CSV needs a header row
// naming at least the id and name columns.
func Read(r io.Reader, format Format) ([]Record, error) {
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatTOML:
		return readTOML(r)
	case FormatJSON, FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if format == FormatJSON {
			return readJSON(data)
		}
		return readYAML(data)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// csvColumns are the recognised header names.
var csvColumns = []string{"id", "name", "picture_url", "location", "team", "parent"}

func readCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, need := range csvColumns[:2] {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("csv header: missing %q column", need)
		}
	}

	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := []Record{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		records = append(records, Record{
			ID:         get(row, "id"),
			Name:       get(row, "name"),
			PictureURL: get(row, "picture_url"),
			Location:   get(row, "location"),
			Team:       get(row, "team"),
			Parent:     get(row, "parent"),
		})
	}
	return records, nil
}

func readTOML(r io.Reader) ([]Record, error) {
	var doc struct {
		Person []Record `toml:"person"`
	}
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	if doc.Person == nil {
		doc.Person = []Record{}
	}
	return doc.Person, nil
}

func readJSON(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var t Tree
		if err := json.Unmarshal(trimmed, &t); err != nil {
			return nil, fmt.Errorf("json tree: %w", err)
		}
		return t.Records()
	}
	records := []Record{}
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return records, nil
}

func readYAML(data []byte) ([]Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return []Record{}, nil
	}
	if doc.Content[0].Kind == yaml.MappingNode {
		var t Tree
		if err := doc.Content[0].Decode(&t); err != nil {
			return nil, fmt.Errorf("yaml tree: %w", err)
		}
		return t.Records()
	}
	records := []Record{}
	if err := doc.Content[0].Decode(&records); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return records, nil
}

// PictureURLs maps person ids to their picture URLs, skipping people
// without one.
func PictureURLs(records []Record) map[string]string {
	out := make(map[string]string)
	for _, r := range records {
		if r.ID != "" && strings.TrimSpace(r.PictureURL) != "" {
			out[r.ID] = strings.TrimSpace(r.PictureURL)
		}
	}
	return out
}
