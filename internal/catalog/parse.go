package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"akhlak-learning-service/internal/domain"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/text/unicode/norm"
)

const documentSchema = `{
  "type": "object",
  "required": ["version", "lastUpdated", "topics", "categories"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "lastUpdated": {"type": "string", "minLength": 1},
    "topics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "notes"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "description": {"type": "string"},
          "notes": {"type": "array", "minItems": 3}
        }
      }
    },
    "categories": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "questions"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "description": {"type": "string"},
          "questions": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["id", "question", "options", "correctAnswer", "explanation"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "question": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string", "minLength": 1}},
                "correctAnswer": {"type": "integer"},
                "explanation": {"type": "string", "minLength": 1}
              }
            }
          }
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// LoadFile reads and validates a catalog JSON file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates raw catalog JSON against the document schema, normalizes text
// and checks integrity. Every failure wraps domain.ErrCatalogIntegrity.
func Parse(data []byte) (*Catalog, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogIntegrity, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		sort.Strings(msgs)
		return nil, fmt.Errorf("%w: %s", domain.ErrCatalogIntegrity, strings.Join(msgs, "; "))
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogIntegrity, err)
	}
	return FromDocument(doc)
}

// Marshal encodes a catalog back to the JSON accepted by Parse.
func Marshal(c *Catalog) ([]byte, error) {
	return json.Marshal(c.Document())
}

// FromDocument validates an already decoded document. doc is left untouched.
func FromDocument(doc Document) (*Catalog, error) {
	doc = copyDocument(doc)
	normalize(&doc)
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return newCatalog(doc), nil
}

// Validate checks the invariants the assessment engine relies on. All problems
// are reported together.
func Validate(doc Document) error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if doc.Version == "" {
		fail("missing version")
	}
	if doc.LastUpdated == "" {
		fail("missing lastUpdated")
	}

	topics := make(map[string]struct{}, len(doc.Topics))
	for _, t := range doc.Topics {
		if t.ID == "" {
			fail("topic with empty id")
			continue
		}
		if _, dup := topics[t.ID]; dup {
			fail("duplicate topic id %q", t.ID)
		}
		topics[t.ID] = struct{}{}
		if len(t.Notes) < 3 {
			fail("topic %q has %d notes, need at least 3", t.ID, len(t.Notes))
		}
	}

	categories := make(map[string]struct{}, len(doc.Categories))
	questions := make(map[string]string)
	for _, cat := range doc.Categories {
		if _, dup := categories[cat.ID]; dup {
			fail("duplicate category id %q", cat.ID)
		}
		categories[cat.ID] = struct{}{}
		if _, ok := topics[cat.ID]; !ok {
			fail("category %q has no matching topic", cat.ID)
		}
		if len(cat.Questions) == 0 {
			fail("category %q has no questions", cat.ID)
		}
		for _, q := range cat.Questions {
			if q.ID == "" {
				fail("category %q: question with empty id", cat.ID)
				continue
			}
			if owner, dup := questions[q.ID]; dup {
				fail("duplicate question id %q (categories %q and %q)", q.ID, owner, cat.ID)
			}
			questions[q.ID] = cat.ID
			if len(q.Options) != domain.OptionCount {
				fail("question %q has %d options, need %d", q.ID, len(q.Options), domain.OptionCount)
			}
			for i, opt := range q.Options {
				if strings.TrimSpace(opt) == "" {
					fail("question %q option %d is empty", q.ID, i)
				}
			}
			if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= domain.OptionCount {
				fail("question %q correctAnswer %d out of range", q.ID, q.CorrectAnswerIndex)
			}
			if strings.TrimSpace(q.Explanation) == "" {
				fail("question %q has no explanation", q.ID)
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrCatalogIntegrity, errors.Join(problems...))
}

// normalize rewrites every text field to NFC so Jawi and Rumi strings compare stably.
func normalize(doc *Document) {
	for i := range doc.Topics {
		t := &doc.Topics[i]
		t.Name = norm.NFC.String(t.Name)
		t.Description = norm.NFC.String(t.Description)
		for j := range t.Notes {
			t.Notes[j].Title = norm.NFC.String(t.Notes[j].Title)
			t.Notes[j].Content = norm.NFC.String(t.Notes[j].Content)
		}
		sort.SliceStable(t.Notes, func(a, b int) bool { return t.Notes[a].Order < t.Notes[b].Order })
	}
	for i := range doc.Categories {
		c := &doc.Categories[i]
		c.Name = norm.NFC.String(c.Name)
		c.Description = norm.NFC.String(c.Description)
		for j := range c.Questions {
			q := &c.Questions[j]
			q.Text = norm.NFC.String(q.Text)
			q.Explanation = norm.NFC.String(q.Explanation)
			for k := range q.Options {
				q.Options[k] = norm.NFC.String(q.Options[k])
			}
		}
	}
}
