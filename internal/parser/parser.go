// Package parser turns raw model output into typed parameter records.
// Models wrap the structured block in prose or code fences and routinely get
// field types wrong, so all tolerance to malformed input lives here: the rest
// of the pipeline only ever sees well-formed records.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"specparam/internal/types"
)

// ErrNoParameterBlock indicates no structured block could be located in the
// reply. The orchestrator reports this as a parse_failure.
var ErrNoParameterBlock = errors.New("no parameter block found in response")

// Parse extracts the embedded YAML block from a raw model reply and converts
// it into a mapping from normalized parameter name to record. It never
// panics: a structurally unusable reply returns ErrNoParameterBlock, and
// individual records missing a name are skipped. Duplicate names within one
// reply resolve last-wins.
func Parse(raw string) (map[string]types.ParameterRecord, error) {
	block := extractYAMLBlock(raw)
	if block == "" {
		// Models sometimes emit bare YAML without a code fence.
		block = extractYAMLContent(raw)
	}
	if block == "" {
		return nil, ErrNoParameterBlock
	}

	docs, err := decodeRecordMaps(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoParameterBlock, err)
	}

	records := make(map[string]types.ParameterRecord)
	for _, doc := range docs {
		rec, ok := buildRecord(doc)
		if !ok {
			continue
		}
		records[rec.Key()] = rec
	}
	return records, nil
}

// decodeRecordMaps unmarshals a YAML block into a list of loose field maps.
// A single top-level mapping counts as a one-record list.
func decodeRecordMaps(block string) ([]map[string]interface{}, error) {
	var root interface{}
	if err := yaml.Unmarshal([]byte(block), &root); err != nil {
		return nil, err
	}

	switch v := root.(type) {
	case []interface{}:
		docs := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				docs = append(docs, m)
			}
		}
		if len(docs) == 0 {
			return nil, errors.New("list holds no mappings")
		}
		return docs, nil
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	default:
		return nil, fmt.Errorf("unexpected YAML shape %T", root)
	}
}

// buildRecord converts one field map into a ParameterRecord. Name and
// description are required fields, but only a missing name rejects the
// record; everything else defaults to its empty equivalent.
func buildRecord(doc map[string]interface{}) (types.ParameterRecord, bool) {
	name := strings.TrimSpace(coerceString(doc["name"]))
	if name == "" {
		return types.ParameterRecord{}, false
	}
	return types.ParameterRecord{
		Name:        name,
		Description: strings.TrimSpace(coerceString(doc["description"])),
		Type:        strings.TrimSpace(coerceString(doc["type"])),
		Constraints: strings.TrimSpace(coerceString(doc["constraints"])),
		Keywords:    coerceKeywords(doc["keywords"]),
	}, true
}

// coerceString renders any scalar or list value as free text.
func coerceString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := coerceString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// coerceKeywords normalizes the keywords field. Scalars become one-element
// lists, nested lists are flattened one level, and non-string elements are
// stringified. Mixed-type lists must never fail.
func coerceKeywords(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		keywords := make([]string, 0, len(t))
		for _, item := range t {
			if nested, ok := item.([]interface{}); ok {
				for _, inner := range nested {
					keywords = append(keywords, fmt.Sprintf("%v", inner))
				}
				continue
			}
			keywords = append(keywords, fmt.Sprintf("%v", item))
		}
		return keywords
	default:
		return []string{fmt.Sprintf("%v", t)}
	}
}

// extractYAMLBlock returns the contents of the first ```yaml (or ```yml)
// fenced block, or "" when none exists.
func extractYAMLBlock(s string) string {
	start := strings.Index(s, "```yaml")
	if start == -1 {
		start = strings.Index(s, "```yml")
	}
	if start == -1 {
		return ""
	}

	rest := s[start:]
	nl := strings.Index(rest, "\n")
	if nl == -1 {
		return ""
	}
	body := rest[nl+1:]

	end := strings.Index(body, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(body[:end])
}

// extractYAMLContent scans for bare YAML: everything from the first
// "- name:" line onward. Used when the model skipped the code fence.
func extractYAMLContent(s string) string {
	lines := strings.Split(s, "\n")
	var yamlLines []string
	inYAML := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "- name:") {
			inYAML = true
		}
		if inYAML {
			yamlLines = append(yamlLines, line)
		}
	}

	if len(yamlLines) == 0 {
		return ""
	}
	return strings.Join(yamlLines, "\n")
}
