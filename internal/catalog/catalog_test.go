package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"akhlak-learning-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleCatalogIsValid(t *testing.T) {
	c := Sample()
	assert.Equal(t, "1.0.0", c.Version())
	assert.Len(t, c.Topics(), 3)
	assert.Len(t, c.Categories(), 3)
	assert.Equal(t, 32, c.QuestionCount())
	assert.Len(t, c.Pool(), 32)
}

func TestParseRoundTripsDocument(t *testing.T) {
	raw, err := json.Marshal(SampleDocument())
	require.NoError(t, err)

	c, err := Parse(raw)
	require.NoError(t, err)

	cat, err := c.Category("akhlak-terpuji")
	require.NoError(t, err)
	assert.Len(t, cat.Questions, 10)
	assert.Equal(t, "akhlak-terpuji-s01", cat.Questions[0].ID)
}

func TestLoadFile(t *testing.T) {
	raw, err := json.Marshal(SampleDocument())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", c.LastUpdated())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseRejectsMissingMetadata(t *testing.T) {
	doc := SampleDocument()
	doc.Version = ""
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = Parse(raw)
	assert.ErrorIs(t, err, domain.ErrCatalogIntegrity)
}

func TestValidateIntegrity(t *testing.T) {
	cases := map[string]func(*Document){
		"six options": func(d *Document) {
			d.Categories[0].Questions[0].Options = d.Categories[0].Questions[0].Options[:6]
		},
		"correct index out of range": func(d *Document) {
			d.Categories[0].Questions[1].CorrectAnswerIndex = 7
		},
		"negative correct index": func(d *Document) {
			d.Categories[0].Questions[1].CorrectAnswerIndex = -1
		},
		"duplicate question id": func(d *Document) {
			d.Categories[1].Questions[0].ID = d.Categories[0].Questions[0].ID
		},
		"empty option": func(d *Document) {
			d.Categories[2].Questions[3].Options[4] = "  "
		},
		"missing explanation": func(d *Document) {
			d.Categories[0].Questions[2].Explanation = ""
		},
		"too few notes": func(d *Document) {
			d.Topics[0].Notes = d.Topics[0].Notes[:2]
		},
		"category without topic": func(d *Document) {
			d.Categories[0].ID = "tiada-topik"
		},
		"empty category": func(d *Document) {
			d.Categories[0].Questions = nil
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			doc := SampleDocument()
			mutate(&doc)
			_, err := FromDocument(doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrCatalogIntegrity), "got %v", err)
		})
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := Sample()

	cats := c.Categories()
	cats[0].Questions[0].Options[0] = "diubah"
	cats[0].Questions = nil

	again, err := c.Category(cats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Pilihan A", again.Questions[0].Options[0])
	assert.Len(t, again.Questions, 10)
}

func TestLookupNotFound(t *testing.T) {
	c := Sample()
	_, err := c.Category("tiada")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = c.Topic("tiada")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	topic, err := c.Topic("adab-harian")
	require.NoError(t, err)
	assert.Len(t, topic.Notes, 3)
	assert.Equal(t, 1, topic.Notes[0].Order)
}

func TestMarshalReparses(t *testing.T) {
	orig := Sample()
	raw, err := Marshal(orig)
	require.NoError(t, err)

	back, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, orig.Version(), back.Version())
	assert.Equal(t, orig.Topics(), back.Topics())
	assert.Equal(t, orig.Categories(), back.Categories())
}

func TestFromDocumentLeavesInputUntouched(t *testing.T) {
	doc := SampleDocument()
	// Decomposed "e" + combining acute; NFC folds it to a single rune.
	doc.Categories[0].Questions[0].Options[0] = "Pilihan e\u0301"
	notes := doc.Topics[0].Notes
	notes[0].Order, notes[2].Order = notes[2].Order, notes[0].Order
	firstNote := notes[0].ID

	c, err := FromDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, "Pilihan e\u0301", doc.Categories[0].Questions[0].Options[0])
	assert.Equal(t, firstNote, doc.Topics[0].Notes[0].ID)

	cat, err := c.Category(doc.Categories[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Pilihan \u00e9", cat.Questions[0].Options[0])
	topic, err := c.Topic(doc.Topics[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, firstNote, topic.Notes[0].ID)
}
