// Package corpus holds the static catalogue of assessment questions and
// severity-ranked answer options for the supported clinical instruments.
package corpus

// Category identifies one of the supported assessment instruments.
type Category string

const (
	CategoryPHQ9 Category = "PHQ-9"
	CategoryBDI  Category = "BDI"
	CategoryHDRS Category = "HDRS"
)

// OptionSet is the ordered answer list for a single question. The position
// of an option within the list is the severity score reported to callers,
// so the order must match the published instrument exactly.
type OptionSet struct {
	Question string
	Options  []string
}

// Registry is the read-only catalogue of categories, questions and options.
// It is immutable after New and safe for unsynchronized concurrent reads.
// Callers must not modify returned slices.
type Registry struct {
	categories []Category
	questions  map[Category][]string
	shared     map[Category][]string
	tables     map[Category][]OptionSet
	tableIndex map[Category]map[string]int
	defaults   []string
}

// New builds the registry from the embedded instrument data.
func New() *Registry {
	r := &Registry{
		categories: []Category{CategoryPHQ9, CategoryBDI, CategoryHDRS},
		questions: map[Category][]string{
			CategoryPHQ9: phq9Questions,
			CategoryBDI:  bdiQuestions,
			CategoryHDRS: hdrsQuestions,
		},
		shared: map[Category][]string{
			CategoryPHQ9: phq9Options,
		},
		tables: map[Category][]OptionSet{
			CategoryBDI:  bdiOptionTable,
			CategoryHDRS: hdrsOptionTable,
		},
		defaults: defaultOptionList,
	}

	r.tableIndex = make(map[Category]map[string]int, len(r.tables))
	for cat, table := range r.tables {
		idx := make(map[string]int, len(table))
		for i, set := range table {
			idx[set.Question] = i
		}
		r.tableIndex[cat] = idx
	}
	return r
}

// Categories returns all categories in declaration order. Declaration order
// is observable: it decides ties during question matching.
func (r *Registry) Categories() []Category {
	return r.categories
}

// Questions returns the ordered question list for a category.
func (r *Registry) Questions(c Category) []string {
	return r.questions[c]
}

// SharedOptions returns the category-wide option list for categories that
// use the same answers for every question (PHQ-9 style).
func (r *Registry) SharedOptions(c Category) ([]string, bool) {
	opts, ok := r.shared[c]
	return opts, ok
}

// OptionTable returns the per-question option sets for a category, in
// question declaration order. Empty for shared-option categories.
func (r *Registry) OptionTable(c Category) []OptionSet {
	return r.tables[c]
}

// QuestionOptions looks up the exact option list for a question within a
// per-question category.
func (r *Registry) QuestionOptions(c Category, question string) ([]string, bool) {
	idx, ok := r.tableIndex[c]
	if !ok {
		return nil, false
	}
	i, ok := idx[question]
	if !ok {
		return nil, false
	}
	return r.tables[c][i].Options, true
}

// DefaultOptions returns the generic fallback option list used when no
// category- or question-specific list applies.
func (r *Registry) DefaultOptions() []string {
	return r.defaults
}

// Texts returns every question and option text in declaration order. Used
// to warm the embedding cache at startup.
func (r *Registry) Texts() []string {
	var texts []string
	for _, cat := range r.categories {
		texts = append(texts, r.questions[cat]...)
	}
	for _, cat := range r.categories {
		if opts, ok := r.shared[cat]; ok {
			texts = append(texts, opts...)
		}
		for _, set := range r.tables[cat] {
			texts = append(texts, set.Options...)
		}
	}
	texts = append(texts, r.defaults...)
	return texts
}
