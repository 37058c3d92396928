package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

type AnswerKind uint8

const (
	AnswerEmpty AnswerKind = iota
	AnswerScalar
	AnswerList
	AnswerRecords
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerScalar:
		return "scalar"
	case AnswerList:
		return "list"
	case AnswerRecords:
		return "records"
	}
	return "empty"
}

// Answer is the value given for one form field. On the wire it keeps the
// natural JSON shape: a string/number/bool, an array of those, or an array
// of objects keyed by sub-field id.
type Answer struct {
	Kind    AnswerKind
	Scalar  any
	List    []any
	Records []map[string]any
}

func Text(s string) Answer    { return Answer{Kind: AnswerScalar, Scalar: s} }
func Number(f float64) Answer { return Answer{Kind: AnswerScalar, Scalar: f} }
func Bool(b bool) Answer      { return Answer{Kind: AnswerScalar, Scalar: b} }
func ListOf(v ...any) Answer  { return Answer{Kind: AnswerList, List: v} }
func Records(r ...map[string]any) Answer {
	return Answer{Kind: AnswerRecords, Records: r}
}

var errNestedAnswer = errors.New("answer: objects are only allowed inside arrays")

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerScalar:
		return json.Marshal(a.Scalar)
	case AnswerList:
		if a.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.List)
	case AnswerRecords:
		if a.Records == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Records)
	}
	return []byte("null"), nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case []any:
		return a.fromArray(v)
	case map[string]any:
		return errNestedAnswer
	default:
		*a = Answer{Kind: AnswerScalar, Scalar: v}
		return nil
	}
}

func (a *Answer) fromArray(items []any) error {
	if len(items) == 0 {
		*a = Answer{Kind: AnswerList, List: []any{}}
		return nil
	}
	if _, ok := items[0].(map[string]any); ok {
		recs := make([]map[string]any, 0, len(items))
		for i, it := range items {
			m, ok := it.(map[string]any)
			if !ok {
				return fmt.Errorf("answer: item %d is not an object", i)
			}
			recs = append(recs, m)
		}
		*a = Answer{Kind: AnswerRecords, Records: recs}
		return nil
	}
	for i, it := range items {
		switch it.(type) {
		case map[string]any, []any:
			return fmt.Errorf("answer: item %d mixes scalars and containers", i)
		}
	}
	*a = Answer{Kind: AnswerList, List: items}
	return nil
}

// IsEmpty reports whether the answer counts as "not provided".
func (a Answer) IsEmpty() bool {
	switch a.Kind {
	case AnswerScalar:
		if a.Scalar == nil {
			return true
		}
		if s, ok := a.Scalar.(string); ok {
			return strings.TrimSpace(s) == ""
		}
		return false
	case AnswerList:
		return len(a.List) == 0
	case AnswerRecords:
		return len(a.Records) == 0
	}
	return true
}

// Float returns the numeric value of a scalar answer. Numeric strings are
// accepted since HTML inputs post them as text.
func (a Answer) Float() (float64, bool) {
	if a.Kind != AnswerScalar {
		return 0, false
	}
	return toFloat(a.Scalar)
}

// toFloat reads a numeric scalar. NaN and infinities are not numbers here.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ScalarString renders a single scalar value for display.
func ScalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return fmt.Sprint(v)
}

// String flattens the answer into one line, record keys sorted.
func (a Answer) String() string {
	return a.Format(nil)
}

// Format flattens the answer, labelling record values with labels[key]
// in the order of keys when provided.
func (a Answer) Format(keys []string, labels ...map[string]string) string {
	switch a.Kind {
	case AnswerScalar:
		return ScalarString(a.Scalar)
	case AnswerList:
		parts := make([]string, 0, len(a.List))
		for _, v := range a.List {
			parts = append(parts, ScalarString(v))
		}
		return strings.Join(parts, "; ")
	case AnswerRecords:
		var lbl map[string]string
		if len(labels) > 0 {
			lbl = labels[0]
		}
		recs := make([]string, 0, len(a.Records))
		for _, rec := range a.Records {
			order := keys
			if len(order) == 0 {
				order = make([]string, 0, len(rec))
				for k := range rec {
					order = append(order, k)
				}
				sort.Strings(order)
			}
			pairs := make([]string, 0, len(order))
			for _, k := range order {
				v, ok := rec[k]
				if !ok {
					continue
				}
				name := k
				if l, ok := lbl[k]; ok && l != "" {
					name = l
				}
				pairs = append(pairs, name+": "+ScalarString(v))
			}
			recs = append(recs, strings.Join(pairs, ", "))
		}
		return strings.Join(recs, " | ")
	}
	return ""
}

// Answers maps field id to answer.
type Answers map[string]Answer
