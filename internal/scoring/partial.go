package scoring

import (
	"encoding/json"
	"fmt"
)

// Partial-credit validators. Fraction is strictly between 0 and 1 only for
// these types; all other types are all-or-nothing.

type bowtiePayload struct {
	Findings  json.RawMessage `json:"findings"`
	Condition json.RawMessage `json:"condition"`
	Actions   json.RawMessage `json:"actions"`
}

// validateBowtie scores the three sub-parts (findings, condition, actions)
// independently. Overall correct iff all three match; otherwise the fraction
// is the share of matched sub-parts.
func validateBowtie(userAnswer, correctAnswer, _ json.RawMessage) Verdict {
	var key bowtiePayload
	if err := json.Unmarshal(correctAnswer, &key); err != nil {
		return incorrect
	}
	if key.Findings == nil || key.Condition == nil || key.Actions == nil {
		return incorrect
	}

	var got bowtiePayload
	if err := json.Unmarshal(userAnswer, &got); err != nil {
		return incorrect
	}

	matched := 0
	if idPartsMatch(got.Findings, key.Findings) {
		matched++
	}
	if conditionMatch(got.Condition, key.Condition) {
		matched++
	}
	if idPartsMatch(got.Actions, key.Actions) {
		matched++
	}
	return verdictFor(float64(matched) / 3)
}

func idPartsMatch(got, want json.RawMessage) bool {
	if got == nil || want == nil {
		return false
	}
	wantSet, ok := decodeIDSet(want)
	if !ok || len(wantSet) == 0 {
		return false
	}
	gotSet, ok := decodeIDSet(got)
	if !ok {
		return false
	}
	return setsEqual(gotSet, wantSet)
}

// conditionMatch tolerates the condition id being a bare scalar or a
// single-element array on either side.
func conditionMatch(got, want json.RawMessage) bool {
	if got == nil || want == nil {
		return false
	}
	w, ok := scalarOrSingle(want)
	if !ok {
		return false
	}
	g, ok := scalarOrSingle(got)
	if !ok {
		return false
	}
	return g == w
}

func scalarOrSingle(raw json.RawMessage) (string, bool) {
	if id, ok := decodeID(raw); ok {
		return id, true
	}
	ids, ok := decodeIDList(raw)
	if !ok || len(ids) != 1 {
		return "", false
	}
	return ids[0], true
}

// validateMapping covers extended_drag_drop (itemIndex → categoryIndex) and
// cloze_dropdown (blankIndex → chosenOptionIndex). Fraction is the share of
// entries placed correctly.
func validateMapping(userAnswer, correctAnswer, _ json.RawMessage) Verdict {
	want, ok := decodeIDMap(correctAnswer)
	if !ok || len(want) == 0 {
		return incorrect
	}
	got, ok := decodeIDMap(userAnswer)
	if !ok {
		return incorrect
	}

	matched := 0
	for k, w := range want {
		if g, present := got[k]; present && g == w {
			matched++
		}
	}
	return verdictFor(float64(matched) / float64(len(want)))
}

func decodeIDMap(raw json.RawMessage) (map[string]string, bool) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		id, ok := normalizeID(v)
		if !ok {
			return nil, false
		}
		out[k] = id
	}
	return out, true
}

type matrixOptions struct {
	Rows    []json.RawMessage `json:"rows"`
	Columns []json.RawMessage `json:"columns"`
}

// validateMatrix scores a "row-col" → selected grid. Correct iff the
// selected set exactly equals the correct cell set. Partial credit is the
// fraction of cells correctly classified, counting cells correctly left
// unselected; when the options spec does not carry the grid dimensions the
// universe degrades to the union of correct and selected cells.
func validateMatrix(userAnswer, correctAnswer, options json.RawMessage) Verdict {
	want, ok := decodeCellSet(correctAnswer)
	if !ok || len(want) == 0 {
		return incorrect
	}
	got, ok := decodeCellSet(userAnswer)
	if !ok {
		return incorrect
	}
	if setsEqual(got, want) {
		return verdictFor(1)
	}

	universe := matrixUniverse(options, want, got)
	if len(universe) == 0 {
		return incorrect
	}
	classified := 0
	for cell := range universe {
		_, selected := got[cell]
		_, correct := want[cell]
		if selected == correct {
			classified++
		}
	}
	return verdictFor(float64(classified) / float64(len(universe)))
}

// decodeCellSet accepts either a list of selected cell keys or a
// key → bool map (only true entries count as selected).
func decodeCellSet(raw json.RawMessage) (map[string]struct{}, bool) {
	if set, ok := decodeIDSet(raw); ok {
		return set, true
	}
	var m map[string]bool
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	set := make(map[string]struct{}, len(m))
	for k, selected := range m {
		if selected {
			set[k] = struct{}{}
		}
	}
	return set, true
}

func matrixUniverse(options json.RawMessage, want, got map[string]struct{}) map[string]struct{} {
	var opts matrixOptions
	if err := json.Unmarshal(options, &opts); err == nil && len(opts.Rows) > 0 && len(opts.Columns) > 0 {
		universe := make(map[string]struct{}, len(opts.Rows)*len(opts.Columns))
		for r := range opts.Rows {
			for c := range opts.Columns {
				universe[fmt.Sprintf("%d-%d", r, c)] = struct{}{}
			}
		}
		return universe
	}

	universe := make(map[string]struct{}, len(want)+len(got))
	for k := range want {
		universe[k] = struct{}{}
	}
	for k := range got {
		universe[k] = struct{}{}
	}
	return universe
}
