package llm

import "testing"

func TestNormalizeHelpers(t *testing.T) {
	raw := []byte(`{
		"score": 104,
		"ratio": 0.82,
		"summary": "  solid  ",
		"blank": "   ",
		"strengths": ["Go", " ", "SQL "],
		"single": "only one",
		"salary": {"min": -5, "max": 120000}
	}`)

	if got := Score(raw, "score"); got != 100 {
		t.Fatalf("Score clamp = %d", got)
	}
	if got := Score(raw, "ratio"); got != 82 {
		t.Fatalf("Score fraction = %d", got)
	}
	if got := Score(raw, "missing"); got != 0 {
		t.Fatalf("Score missing = %d", got)
	}
	if got := String(raw, "summary", "x"); got != "solid" {
		t.Fatalf("String = %q", got)
	}
	if got := String(raw, "blank", "fallback"); got != "fallback" {
		t.Fatalf("String blank = %q", got)
	}
	if got := Strings(raw, "strengths"); len(got) != 2 || got[1] != "SQL" {
		t.Fatalf("Strings = %v", got)
	}
	if got := Strings(raw, "single"); len(got) != 1 {
		t.Fatalf("Strings single = %v", got)
	}
	if got := Strings(raw, "missing"); got == nil || len(got) != 0 {
		t.Fatalf("Strings missing should be empty, got %v", got)
	}
	if got := Number(raw, "salary.min"); got != 0 {
		t.Fatalf("Number negative = %v", got)
	}
	if got := Number(raw, "salary.max"); got != 120000 {
		t.Fatalf("Number = %v", got)
	}

	count := 0
	Each(raw, "strengths", func([]byte) { count++ })
	if count != 3 {
		t.Fatalf("Each visited %d", count)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":               `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```  ":   `{"a":1}`,
	}
	for in, want := range cases {
		if got := ExtractJSON(in); got != want {
			t.Fatalf("ExtractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
