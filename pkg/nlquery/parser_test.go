package nlquery

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() ectologger.Logger {
	return zapadapter.NewZapEctoLogger(zap.NewNop(), nil)
}

func TestParse_CityAndYearsCount(t *testing.T) {
	p := NewParser()

	query, extracted := p.Parse("How many are practicing in city named San Francisco and practicing from more than 20 years")
	require.True(t, extracted)
	assert.Equal(t, KindCount, query.Kind)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM roster WHERE practice_city = ? AND years_in_practice > ?", query.SQL)
	assert.Equal(t, []any{"SAN FRANCISCO", 20}, query.Args)
}

func TestParse_SpecialtyAndYearsList(t *testing.T) {
	p := NewParser()

	query, extracted := p.Parse("Show all cardiologists with more than 15 years experience")
	require.True(t, extracted)
	assert.Equal(t, KindList, query.Kind)
	assert.Equal(t, "SELECT * FROM roster WHERE primary_specialty = ? AND years_in_practice > ? LIMIT 50", query.SQL)
	assert.Equal(t, []any{"Cardiology", 15}, query.Args)
}

func TestParse_BetweenYears(t *testing.T) {
	p := NewParser()

	query, extracted := p.Parse("How many urologists are there in Texas with between 10 and 20 years experience")
	require.True(t, extracted)
	assert.Equal(t, KindCount, query.Kind)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM roster WHERE practice_state = ? AND primary_specialty = ? AND years_in_practice BETWEEN ? AND ?", query.SQL)
	assert.Equal(t, []any{"TX", "Urology", 10, 20}, query.Args)
}

func TestParse_CityOnly(t *testing.T) {
	p := NewParser()

	query, extracted := p.Parse("List providers in Brooklyn")
	require.True(t, extracted)
	assert.Equal(t, "SELECT * FROM roster WHERE practice_city = ? LIMIT 50", query.SQL)
	assert.Equal(t, []any{"Brooklyn"}, query.Args)
}

func TestParse_AcceptingPatients(t *testing.T) {
	p := NewParser()

	query, extracted := p.Parse("Count providers in Chicago accepting new patients")
	require.True(t, extracted)
	assert.Equal(t, KindCount, query.Kind)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM roster WHERE practice_city = ? AND accepting_new_patients = ?", query.SQL)
	assert.Equal(t, []any{"Chicago", "Yes"}, query.Args)
}

func TestParse_BoardCertifiedNegation(t *testing.T) {
	p := NewParser()

	query, extracted := p.Parse("Show providers not board certified")
	require.True(t, extracted)
	assert.Equal(t, "SELECT * FROM roster WHERE board_certified = ? LIMIT 50", query.SQL)
	assert.Equal(t, []any{"False"}, query.Args)
}

func TestParse_ValidationContexts(t *testing.T) {
	p := NewParser()

	tests := []struct {
		question string
		want     string
	}{
		{"Show providers with expired licenses", "license_expiration_check = 'EXPIRED'"},
		{"Which providers have npi validation errors", "npi_check != 'correct'"},
		{"List providers with phone errors", "practice_phone_check != 'correct'"},
		{"Show rows with validation problems and errors", "(npi_check != 'correct' OR full_name_check != 'correct')"},
		{"Providers missing phone", "(practice_phone IS NULL OR practice_phone = '')"},
		{"Providers missing npi", "(npi IS NULL OR npi = '')"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			query, extracted := p.Parse(tt.question)
			require.True(t, extracted)
			assert.Contains(t, query.SQL, tt.want)
		})
	}
}

func TestParse_NoFiltersFallsThrough(t *testing.T) {
	p := NewParser()

	query, extracted := p.Parse("Show me everything")
	assert.False(t, extracted)
	assert.Equal(t, "SELECT * FROM roster LIMIT 50", query.SQL)

	query, extracted = p.Parse("How many providers")
	assert.False(t, extracted)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM roster", query.SQL)
}

func TestExtractYears(t *testing.T) {
	p := NewParser()

	tests := []struct {
		text string
		want YearsCondition
	}{
		{"more than 20 years", YearsCondition{Op: ">", Value: 20}},
		{"over 10 years", YearsCondition{Op: ">", Value: 10}},
		{"less than 5 years", YearsCondition{Op: "<", Value: 5}},
		{"under 3 years", YearsCondition{Op: "<", Value: 3}},
		{"exactly 7 years", YearsCondition{Op: "=", Value: 7}},
		{"between 10 and 20 years", YearsCondition{Op: "BETWEEN", Low: 10, High: 20}},
		{"10-20 years", YearsCondition{Op: "BETWEEN", Low: 10, High: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := p.ExtractYears(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}

	assert.Nil(t, p.ExtractYears("no tenure mentioned"))
}

func TestTranslate_TemplateFallback(t *testing.T) {
	tr := NewTranslator(testLogger())

	query := tr.Translate("how many providers do we have")
	assert.Equal(t, KindCount, query.Kind)
	assert.Equal(t, "SELECT COUNT(*) AS count FROM roster", query.SQL)
	assert.Empty(t, query.Args)
}

func TestTranslate_UltimateFallback(t *testing.T) {
	tr := NewTranslator(testLogger())

	query := tr.Translate("gibberish zzz qqq")
	assert.Equal(t, "SELECT * FROM roster LIMIT 50", query.SQL)
}

func TestTranslate_ExtractionBeatsTemplates(t *testing.T) {
	tr := NewTranslator(testLogger())

	query := tr.Translate("Show cardiologists")
	assert.Equal(t, "SELECT * FROM roster WHERE primary_specialty = ? LIMIT 50", query.SQL)
	assert.Equal(t, []any{"Cardiology"}, query.Args)
}

func TestIsReadOnly(t *testing.T) {
	assert.True(t, IsReadOnly("SELECT * FROM roster"))
	assert.True(t, IsReadOnly("  select count(*) from roster"))
	assert.False(t, IsReadOnly("DROP TABLE roster"))
	assert.False(t, IsReadOnly("UPDATE roster SET npi = ''"))
	assert.False(t, IsReadOnly(""))
}
