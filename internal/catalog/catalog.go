// Package catalog holds the validated, read-only curriculum content: study topics
// and quiz categories. A Catalog is immutable after Parse; accessors return copies.
package catalog

import (
	"fmt"

	"akhlak-learning-service/internal/domain"
)

// Document is the on-disk (and JSONB) shape of the content catalog.
type Document struct {
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated"`
	Topics      []domain.Topic    `json:"topics"`
	Categories  []domain.Category `json:"categories"`
}

// Catalog is a validated content catalog.
type Catalog struct {
	version     string
	lastUpdated string
	topics      []domain.Topic
	categories  []domain.Category
	topicIdx    map[string]int
	categoryIdx map[string]int
}

func newCatalog(doc Document) *Catalog {
	c := &Catalog{
		version:     doc.Version,
		lastUpdated: doc.LastUpdated,
		topics:      make([]domain.Topic, len(doc.Topics)),
		categories:  make([]domain.Category, len(doc.Categories)),
		topicIdx:    make(map[string]int, len(doc.Topics)),
		categoryIdx: make(map[string]int, len(doc.Categories)),
	}
	for i, t := range doc.Topics {
		c.topics[i] = copyTopic(t)
		c.topicIdx[t.ID] = i
	}
	for i, cat := range doc.Categories {
		c.categories[i] = copyCategory(cat)
		c.categoryIdx[cat.ID] = i
	}
	return c
}

// Document rebuilds the serializable form, used when re-caching the catalog.
func (c *Catalog) Document() Document {
	return Document{
		Version:     c.version,
		LastUpdated: c.lastUpdated,
		Topics:      c.Topics(),
		Categories:  c.Categories(),
	}
}

func (c *Catalog) Version() string     { return c.version }
func (c *Catalog) LastUpdated() string { return c.lastUpdated }

// Topics returns all topics in catalog order.
func (c *Catalog) Topics() []domain.Topic {
	out := make([]domain.Topic, len(c.topics))
	for i, t := range c.topics {
		out[i] = copyTopic(t)
	}
	return out
}

// Categories returns all quiz categories in catalog order.
func (c *Catalog) Categories() []domain.Category {
	out := make([]domain.Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = copyCategory(cat)
	}
	return out
}

// Topic looks up a study topic by id.
func (c *Catalog) Topic(id string) (domain.Topic, error) {
	i, ok := c.topicIdx[id]
	if !ok {
		return domain.Topic{}, fmt.Errorf("%w: topic %q", domain.ErrNotFound, id)
	}
	return copyTopic(c.topics[i]), nil
}

// Category looks up a quiz category by id.
func (c *Catalog) Category(id string) (domain.Category, error) {
	i, ok := c.categoryIdx[id]
	if !ok {
		return domain.Category{}, fmt.Errorf("%w: category %q", domain.ErrNotFound, id)
	}
	return copyCategory(c.categories[i]), nil
}

// Pool returns every question across all categories in catalog order.
func (c *Catalog) Pool() []domain.Question {
	var out []domain.Question
	for _, cat := range c.categories {
		for _, q := range cat.Questions {
			out = append(out, copyQuestion(q))
		}
	}
	return out
}

// QuestionCount is the size of the full question pool.
func (c *Catalog) QuestionCount() int {
	n := 0
	for _, cat := range c.categories {
		n += len(cat.Questions)
	}
	return n
}

func copyDocument(doc Document) Document {
	topics := make([]domain.Topic, len(doc.Topics))
	for i, t := range doc.Topics {
		topics[i] = copyTopic(t)
	}
	cats := make([]domain.Category, len(doc.Categories))
	for i, c := range doc.Categories {
		cats[i] = copyCategory(c)
	}
	doc.Topics = topics
	doc.Categories = cats
	return doc
}

func copyTopic(t domain.Topic) domain.Topic {
	t.Notes = append([]domain.Note(nil), t.Notes...)
	return t
}

func copyCategory(cat domain.Category) domain.Category {
	qs := make([]domain.Question, len(cat.Questions))
	for i, q := range cat.Questions {
		qs[i] = copyQuestion(q)
	}
	cat.Questions = qs
	return cat
}

func copyQuestion(q domain.Question) domain.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}
