package scoring

import (
	"encoding/json"
	"strconv"
	"strings"
)

// normalizeID turns a decoded scalar into its canonical string form, so '0'
// and 0 compare equal. Display text is never compared, only identifiers.
func normalizeID(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	default:
		return "", false
	}
}

func decodeID(raw json.RawMessage) (string, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return "", false
	}
	return normalizeID(v)
}

func decodeIDList(raw json.RawMessage) ([]string, bool) {
	var vs []interface{}
	if err := json.Unmarshal(raw, &vs); err != nil {
		return nil, false
	}
	ids := make([]string, 0, len(vs))
	for _, v := range vs {
		id, ok := normalizeID(v)
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

func decodeIDSet(raw json.RawMessage) (map[string]struct{}, bool) {
	ids, ok := decodeIDList(raw)
	if !ok {
		return nil, false
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, true
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// validateExactMatch covers multiple_choice, true_false and trend_item:
// a single option id compared exactly.
func validateExactMatch(userAnswer, correctAnswer, _ json.RawMessage) Verdict {
	correct, ok := decodeID(correctAnswer)
	if !ok {
		return incorrect
	}
	got, ok := decodeID(userAnswer)
	if !ok {
		return incorrect
	}
	if got == correct {
		return verdictFor(1)
	}
	return incorrect
}

// validateSetMatch covers sata, select_n and highlight_text: set equality,
// all-or-nothing. A set exceeding the select_n limit can never equal the
// fixed-size correct set, so it scores zero without a dedicated branch.
func validateSetMatch(userAnswer, correctAnswer, _ json.RawMessage) Verdict {
	correct, ok := decodeIDSet(correctAnswer)
	if !ok || len(correct) == 0 {
		return incorrect
	}
	got, ok := decodeIDSet(userAnswer)
	if !ok {
		return incorrect
	}
	if setsEqual(got, correct) {
		return verdictFor(1)
	}
	return incorrect
}

// validateOrdering: exact sequence equality over option ids.
func validateOrdering(userAnswer, correctAnswer, _ json.RawMessage) Verdict {
	correct, ok := decodeIDList(correctAnswer)
	if !ok || len(correct) == 0 {
		return incorrect
	}
	got, ok := decodeIDList(userAnswer)
	if !ok || len(got) != len(correct) {
		return incorrect
	}
	for i := range correct {
		if got[i] != correct[i] {
			return incorrect
		}
	}
	return verdictFor(1)
}

type dosageKey struct {
	Value     *float64 `json:"value"`
	Tolerance float64  `json:"tolerance"`
}

// validateDosage: numeric comparison within tolerance. The correct-answer
// spec is either a bare number (tolerance 0) or {"value": x, "tolerance": t}.
func validateDosage(userAnswer, correctAnswer, _ json.RawMessage) Verdict {
	var key dosageKey
	if err := json.Unmarshal(correctAnswer, &key); err != nil || key.Value == nil {
		var bare float64
		if err := json.Unmarshal(correctAnswer, &bare); err != nil {
			return incorrect
		}
		key = dosageKey{Value: &bare}
	}

	got, ok := decodeNumber(userAnswer)
	if !ok {
		return incorrect
	}

	diff := got - *key.Value
	if diff < 0 {
		diff = -diff
	}
	if diff <= key.Tolerance {
		return verdictFor(1)
	}
	return incorrect
}

// decodeNumber accepts a JSON number or a numeric string ("2.5 mL" style
// units are not tolerated, the UI submits the bare value).
func decodeNumber(raw json.RawMessage) (float64, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
