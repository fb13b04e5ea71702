// Package utils holds the helpers that make LLM output safe to consume:
// JSON repair and lenient parsing for drafted rationales, and markdown
// hygiene for report text.
package utils

import (
	"encoding/json"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/rotisserie/eris"
)

// RepairJSON fixes the usual model-output defects: single quotes, unquoted
// keys, trailing commas, unclosed brackets, markdown fences.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", eris.Wrap(err, "repair json")
	}
	return repaired, nil
}

// ParseHJSON converts human-friendly JSON (comments, unquoted strings,
// optional commas) to standard JSON.
func ParseHJSON(input string) (string, error) {
	var value any
	if err := hjson.Unmarshal([]byte(input), &value); err != nil {
		return "", eris.Wrap(err, "parse hjson")
	}
	out, err := json.Marshal(value)
	if err != nil {
		return "", eris.Wrap(err, "remarshal hjson")
	}
	return string(out), nil
}

// SmartParse decodes input into target, trying strict JSON first, then
// repair, then Hjson. Returns the JSON form that decoded successfully.
func SmartParse(input string, target any) (string, error) {
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), target); err == nil {
			return repaired, nil
		}
	}

	if converted, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(converted), target); err == nil {
			return converted, nil
		}
	}

	return "", eris.New("input is not parseable as JSON in any supported form")
}
