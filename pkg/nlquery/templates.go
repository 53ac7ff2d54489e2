package nlquery

import (
	"sort"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/pkg/matching"
	"github.com/Ramsey-B/sage/pkg/normalizers"
)

// templates are canned answers for questions too vague to extract
// filters from, ranked against the question by token overlap.
var templates = map[string]Query{
	"all providers":             {SQL: "SELECT * FROM roster LIMIT 50", Kind: KindList},
	"total providers":           {SQL: "SELECT COUNT(*) AS count FROM roster", Kind: KindCount},
	"expired licenses":          {SQL: "SELECT * FROM roster WHERE license_expiration_check = 'EXPIRED' LIMIT 50", Kind: KindList},
	"board certified providers": {SQL: "SELECT * FROM roster WHERE board_certified = 'True' LIMIT 50", Kind: KindList},
	"validation errors":         {SQL: "SELECT * FROM roster WHERE npi_check != 'correct' OR full_name_check != 'correct' LIMIT 50", Kind: KindList},
	"missing phone numbers":     {SQL: "SELECT * FROM roster WHERE practice_phone IS NULL OR practice_phone = '' LIMIT 50", Kind: KindList},
	"cardiologists":             {SQL: "SELECT * FROM roster WHERE primary_specialty = 'Cardiology' LIMIT 50", Kind: KindList},
	"providers in california":   {SQL: "SELECT * FROM roster WHERE practice_state = 'CA' LIMIT 50", Kind: KindList},
	"providers in new york":     {SQL: "SELECT * FROM roster WHERE practice_state = 'NY' LIMIT 50", Kind: KindList},
	"how many providers":        {SQL: "SELECT COUNT(*) AS count FROM roster", Kind: KindCount},
	"count providers":           {SQL: "SELECT COUNT(*) AS count FROM roster", Kind: KindCount},
	"number of providers":       {SQL: "SELECT COUNT(*) AS count FROM roster", Kind: KindCount},
	"how many cardiologists":    {SQL: "SELECT COUNT(*) AS count FROM roster WHERE primary_specialty = 'Cardiology'", Kind: KindCount},
	"count cardiologists":       {SQL: "SELECT COUNT(*) AS count FROM roster WHERE primary_specialty = 'Cardiology'", Kind: KindCount},
}

// Translator turns questions into SQL: filter extraction first,
// template ranking when nothing concrete was extracted, and a plain
// roster scan as the last resort.
type Translator struct {
	parser *Parser
	scorer *matching.Scorer
	logger ectologger.Logger
}

// NewTranslator creates a new Translator
func NewTranslator(logger ectologger.Logger) *Translator {
	return &Translator{
		parser: NewParser(),
		scorer: matching.NewScorer(),
		logger: logger,
	}
}

// Translate converts a question into a read-only roster query. It
// always returns something runnable.
func (t *Translator) Translate(question string) Query {
	query, extracted := t.parser.Parse(question)
	if extracted {
		return query
	}

	if ranked, ok := t.rankTemplates(question); ok {
		return ranked
	}
	return query
}

// rankTemplates picks the template whose key shares the most tokens
// with the question. Ties break on the lexicographically smaller key
// so ranking is deterministic.
func (t *Translator) rankTemplates(question string) (Query, bool) {
	questionTokens := normalizers.Tokens(strings.ToLower(question))

	keys := make([]string, 0, len(templates))
	for k := range templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bestKey := ""
	bestScore := 0.0
	for _, key := range keys {
		score := t.scorer.TokenOverlap(questionTokens, normalizers.Tokens(key))
		if score > bestScore {
			bestScore = score
			bestKey = key
		}
	}

	if bestKey == "" {
		return Query{}, false
	}
	if t.logger != nil {
		t.logger.WithFields(map[string]any{"template": bestKey, "score": bestScore}).Debug("question answered from template")
	}
	return templates[bestKey], true
}

// IsReadOnly reports whether a statement is a plain SELECT. The query
// route refuses to execute anything else.
func IsReadOnly(sql string) bool {
	trimmed := strings.TrimSpace(sql)
	return len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "SELECT")
}
