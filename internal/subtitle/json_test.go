package subtitle

import (
	"reflect"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	s := func(v string) *string { return &v }

	tests := []struct {
		name string
		raw  RawWord
		want Word
	}{
		{"all missing", RawWord{}, Word{Start: 0, End: 1, Text: ""}},
		{"text only", RawWord{Text: s("hi")}, Word{Start: 0, End: 1, Text: "hi"}},
		{"start only", RawWord{Start: f(2500)}, Word{Start: 2500, End: 2501}},
		{"end only", RawWord{End: f(900)}, Word{Start: 0, End: 900}},
		{"fractional values truncated", RawWord{Start: f(10.9), End: f(20.2)}, Word{Start: 10, End: 20}},
		{"negative start kept", RawWord{Start: f(-40)}, Word{Start: -40, End: -39}},
		{"negative below one ms", RawWord{Start: f(-0.5), End: f(-0.2)}, Word{Start: 0, End: 0}},
		{"negative fraction truncated", RawWord{Start: f(-1.5), End: f(-2.7)}, Word{Start: -1, End: -2}},
		{"negative start only", RawWord{Start: f(-1.5)}, Word{Start: -1, End: 0}},
		{"default end from raw start", RawWord{Start: f(-0.5)}, Word{Start: 0, End: 0}},
		{"complete", RawWord{Start: f(1), End: f(2), Text: s("ok")}, Word{Start: 1, End: 2, Text: "ok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWordsFromJSONLooseTypes(t *testing.T) {
	in := `[
		{"start": 0, "end": 400, "text": "plain"},
		{"text": "hi"},
		{"start": "10", "end": null, "text": "stringy"},
		{"start": 100, "end": true, "text": 42},
		{"start": 1.9e3, "end": 2500.7},
		null,
		"not an object"
	]`

	got, err := WordsFromJSON([]byte(in))
	if err != nil {
		t.Fatalf("WordsFromJSON() error: %v", err)
	}

	want := []Word{
		{Start: 0, End: 400, Text: "plain"},
		{Start: 0, End: 1, Text: "hi"},
		{Start: 0, End: 1, Text: "stringy"},
		{Start: 100, End: 101, Text: "42"},
		{Start: 1900, End: 2500, Text: ""},
		{Start: 0, End: 1, Text: ""},
		{Start: 0, End: 1, Text: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v\nwant %#v", got, want)
	}
}

func TestWordsFromJSONTextSpelling(t *testing.T) {
	in := `[
		{"text": 1.50},
		{"text": -0},
		{"text": 1e21},
		{"text": 0.0000001},
		{"text": ["a", "b", 2, null, [3, 4]]},
		{"text": {"k": 1}},
		{"text": false}
	]`

	got, err := WordsFromJSON([]byte(in))
	if err != nil {
		t.Fatalf("WordsFromJSON() error: %v", err)
	}

	want := []string{"1.5", "0", "1e+21", "1e-7", "a,b,2,,3,4", "[object Object]", "false"}
	if len(got) != len(want) {
		t.Fatalf("got %d words, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("word %d text = %q, want %q", i, got[i].Text, w)
		}
	}
}

func TestWordsFromJSONWrapper(t *testing.T) {
	in := `{"id": "abc", "text": "hello world", "words": [{"start": 0, "end": 10, "text": "hello"}]}`

	got, err := WordsFromJSON([]byte(in))
	if err != nil {
		t.Fatalf("WordsFromJSON() error: %v", err)
	}
	want := []Word{{Start: 0, End: 10, Text: "hello"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestWordsFromJSONRejectsNonArray(t *testing.T) {
	for _, in := range []string{`{"text": "no words"}`, `"string"`, `{`} {
		if _, err := WordsFromJSON([]byte(in)); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}

func TestWordsToJSONEmpty(t *testing.T) {
	data, err := WordsToJSON(nil)
	if err != nil {
		t.Fatalf("WordsToJSON() error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("WordsToJSON(nil) = %s, want []", data)
	}
}
