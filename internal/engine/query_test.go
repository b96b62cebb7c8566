package engine

import "testing"

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{"multi match", Query{Index: "docs", Kind: MultiMatch, Text: "go", Fields: []string{"title"}}, false},
		{"multi match without fields", Query{Index: "docs", Kind: MultiMatch, Text: "go"}, true},
		{"field match", Query{Index: "docs", Kind: FieldMatch, Field: "id", Text: "x"}, false},
		{"field match without field", Query{Index: "docs", Kind: FieldMatch, Text: "x"}, true},
		{"match all", Query{Index: "docs", Kind: MatchAll}, false},
		{"missing index", Query{Kind: MatchAll}, true},
		{"negative size", Query{Index: "docs", Kind: MatchAll, Size: -1}, true},
		{"unknown kind", Query{Index: "docs", Kind: QueryKind(42)}, true},
		{"highlight without field", Query{Index: "docs", Kind: MatchAll, Highlight: &Highlight{}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewHighlight(t *testing.T) {
	h := NewHighlight("text", "")
	if h.PreTag != "<em>" || h.PostTag != "</em>" {
		t.Errorf("expected default em tags, got %s %s", h.PreTag, h.PostTag)
	}
	h = NewHighlight("text", "mark")
	if h.PreTag != "<mark>" || h.PostTag != "</mark>" {
		t.Errorf("expected mark tags, got %s %s", h.PreTag, h.PostTag)
	}
	if h.Field != "text" {
		t.Errorf("expected field text, got %s", h.Field)
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := &Error{Op: OpSearch, Err: ErrUnavailable}
	if err.Error() != "SEARCH: engine: unavailable" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if err.Unwrap() != ErrUnavailable {
		t.Error("expected Unwrap to return the wrapped error")
	}
}
