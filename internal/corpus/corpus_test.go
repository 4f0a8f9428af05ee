package corpus

import "testing"

func TestRegistry_Categories(t *testing.T) {
	r := New()
	cats := r.Categories()
	want := []Category{CategoryPHQ9, CategoryBDI, CategoryHDRS}
	if len(cats) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(cats))
	}
	for i, c := range want {
		if cats[i] != c {
			t.Errorf("category %d: expected %s, got %s", i, c, cats[i])
		}
	}
}

func TestRegistry_QuestionCounts(t *testing.T) {
	r := New()
	tests := []struct {
		category Category
		count    int
	}{
		{CategoryPHQ9, 9},
		{CategoryBDI, 21},
		{CategoryHDRS, 17},
	}
	for _, tt := range tests {
		if got := len(r.Questions(tt.category)); got != tt.count {
			t.Errorf("%s: expected %d questions, got %d", tt.category, tt.count, got)
		}
	}
}

func TestRegistry_SharedOptions(t *testing.T) {
	r := New()

	opts, ok := r.SharedOptions(CategoryPHQ9)
	if !ok {
		t.Fatal("expected PHQ-9 to have shared options")
	}
	if len(opts) != 4 {
		t.Fatalf("expected 4 PHQ-9 options, got %d", len(opts))
	}
	if opts[0] != "Not at all" || opts[3] != "Nearly every day" {
		t.Errorf("PHQ-9 options out of order: %v", opts)
	}

	if _, ok := r.SharedOptions(CategoryBDI); ok {
		t.Error("BDI should not have shared options")
	}
	if _, ok := r.SharedOptions(CategoryHDRS); ok {
		t.Error("HDRS should not have shared options")
	}
}

func TestRegistry_QuestionOptions(t *testing.T) {
	r := New()

	opts, ok := r.QuestionOptions(CategoryBDI, "Sadness")
	if !ok {
		t.Fatal("expected options for BDI Sadness")
	}
	// Ordinal position is the severity score.
	if opts[2] != "I am sad all the time and I can't snap out of it" {
		t.Errorf("unexpected severity-2 option: %q", opts[2])
	}

	if _, ok := r.QuestionOptions(CategoryBDI, "UnknownQuestionText"); ok {
		t.Error("expected no options for unknown question")
	}
	if _, ok := r.QuestionOptions(CategoryPHQ9, "Poor appetite or overeating?"); ok {
		t.Error("PHQ-9 has no per-question table")
	}
}

func TestRegistry_OptionTableCoversQuestions(t *testing.T) {
	r := New()
	for _, cat := range []Category{CategoryBDI, CategoryHDRS} {
		table := r.OptionTable(cat)
		questions := r.Questions(cat)
		if len(table) != len(questions) {
			t.Fatalf("%s: table has %d entries for %d questions", cat, len(table), len(questions))
		}
		for i, set := range table {
			if set.Question != questions[i] {
				t.Errorf("%s entry %d: table question %q != question %q", cat, i, set.Question, questions[i])
			}
			if len(set.Options) < 3 {
				t.Errorf("%s %q: suspiciously few options (%d)", cat, set.Question, len(set.Options))
			}
		}
	}
}

func TestRegistry_Texts(t *testing.T) {
	r := New()
	texts := r.Texts()

	if len(texts) == 0 {
		t.Fatal("expected non-empty text list")
	}
	// Questions come first, in category declaration order.
	if texts[0] != "Little interest or pleasure in doing things?" {
		t.Errorf("unexpected first text: %q", texts[0])
	}
	seen := make(map[string]bool, len(texts))
	for _, txt := range texts {
		if txt == "" {
			t.Fatal("empty text in corpus")
		}
		seen[txt] = true
	}
	if !seen["I feel sad"] || !seen["Nearly every day"] || !seen["Denies being ill at all"] {
		t.Error("expected option texts to be included")
	}
}
