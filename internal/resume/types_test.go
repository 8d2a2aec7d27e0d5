package resume

import (
	"errors"
	"testing"
)

func TestParseContent_Valid(t *testing.T) {
	data := []byte(`{
		"personal": {"full_name": "Ada Lovelace", "email": "ada@example.com"},
		"summary": "Engineer.",
		"experience": [
			{"company": "Analytical Engines Ltd", "title": "Engineer", "start_date": "1842-01", "end_date": "", "current": true, "highlights": ["Wrote the first program"]}
		],
		"education": [
			{"school": "Home Tutoring", "degree": "n/a", "field": "Mathematics", "start_year": 1825, "end_year": 1835}
		],
		"skills": ["mathematics", "translation"]
	}`)

	content, err := ParseContent(data)
	if err != nil {
		t.Fatalf("ParseContent: %v", err)
	}
	if content.Personal.FullName != "Ada Lovelace" {
		t.Errorf("full name = %q", content.Personal.FullName)
	}
	if len(content.Experience) != 1 || len(content.Skills) != 2 {
		t.Errorf("unexpected shape: %+v", content)
	}
}

func TestParseContent_Rejects(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"not json", `not-json`},
		{"unknown field", `{"personal": {"full_name": "A"}, "surprise": 1}`},
		{"missing name", `{"personal": {"email": "a@b.c"}}`},
		{"experience without company", `{"personal": {"full_name": "A"}, "experience": [{"title": "Dev"}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseContent([]byte(tc.data)); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			} else if !errors.Is(err, ErrInvalidContent) {
				t.Fatalf("error %v is not ErrInvalidContent", err)
			}
		})
	}
}
