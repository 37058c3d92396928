package models_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

func TestAnswerDecodeShapes(t *testing.T) {
	var answers models.Answers
	raw := `{
		"title": "Graph sparsification",
		"pages": 12,
		"topics": ["ml", "systems"],
		"authors": [{"name": "Ada", "affiliation": "ENS"}, {"name": "Alan"}],
		"empty": [],
		"missing": null
	}`
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := answers["title"]; got.Kind != models.AnswerScalar || got.String() != "Graph sparsification" {
		t.Fatalf("title: %+v", got)
	}
	if f, ok := answers["pages"].Float(); !ok || f != 12 {
		t.Fatalf("pages: %v %v", f, ok)
	}
	if got := answers["topics"]; got.Kind != models.AnswerList || got.String() != "ml; systems" {
		t.Fatalf("topics: %+v", got)
	}
	authors := answers["authors"]
	if authors.Kind != models.AnswerRecords || len(authors.Records) != 2 {
		t.Fatalf("authors: %+v", authors)
	}
	if got := authors.Format([]string{"name", "affiliation"}); got != "name: Ada, affiliation: ENS | name: Alan" {
		t.Fatalf("authors format: %q", got)
	}
	if !answers["empty"].IsEmpty() || !answers["missing"].IsEmpty() {
		t.Fatal("empty answers should report IsEmpty")
	}
}

func TestAnswerFloatRejectsNonFinite(t *testing.T) {
	for _, a := range []models.Answer{
		models.Text("NaN"),
		models.Text("Inf"),
		models.Text("-infinity"),
		models.Number(math.NaN()),
		models.Number(math.Inf(1)),
	} {
		if f, ok := a.Float(); ok {
			t.Fatalf("%+v parsed as %v", a, f)
		}
	}
	if f, ok := models.Text(" 7.5 ").Float(); !ok || f != 7.5 {
		t.Fatalf("plain number: %v %v", f, ok)
	}
}

func TestAnswerRejectsBareObject(t *testing.T) {
	var a models.Answer
	if err := json.Unmarshal([]byte(`{"a": 1}`), &a); err == nil {
		t.Fatal("expected error for top-level object")
	}
	if err := json.Unmarshal([]byte(`[{"a": 1}, "b"]`), &a); err == nil {
		t.Fatal("expected error for mixed records")
	}
	if err := json.Unmarshal([]byte(`["a", ["b"]]`), &a); err == nil {
		t.Fatal("expected error for nested list")
	}
}

func TestAnswerEncodeKeepsNaturalShape(t *testing.T) {
	answers := models.Answers{
		"name":    models.Text("Grace"),
		"tags":    models.ListOf("a", "b"),
		"authors": models.Records(map[string]any{"name": "Ada"}),
		"none":    models.ListOf(),
	}
	data, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"authors":[{"name":"Ada"}],"name":"Grace","none":[],"tags":["a","b"]}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestFlattenFieldsOrder(t *testing.T) {
	sections := []models.Section{
		{
			ID:     "s1",
			Fields: []models.Field{{ID: "a"}, {ID: "b"}},
			Subsections: []models.Subsection{
				{ID: "s1.1", Fields: []models.Field{{ID: "c"}}},
			},
		},
		{ID: "s2", Fields: []models.Field{{ID: "d"}}},
	}
	var ids []string
	for _, f := range models.FlattenFields(sections) {
		ids = append(ids, f.ID)
	}
	if len(ids) != 4 || ids[0] != "a" || ids[1] != "b" || ids[2] != "c" || ids[3] != "d" {
		t.Fatalf("unexpected order %v", ids)
	}
}
