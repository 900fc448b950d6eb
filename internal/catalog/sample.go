package catalog

import (
	"fmt"

	"akhlak-learning-service/internal/domain"
)

type sampleTopic struct {
	id, name, description string
	questions             int
}

var sampleTopics = []sampleTopic{
	{id: "akhlak-terpuji", name: "اخلاق ترڤوجي | Akhlak Terpuji", description: "Sifat-sifat mulia seorang Muslim", questions: 10},
	{id: "akhlak-tercela", name: "اخلاق ترچلا | Akhlak Tercela", description: "Sifat-sifat yang perlu dijauhi", questions: 12},
	{id: "adab-harian", name: "اداب هارين | Adab Harian", description: "Adab dalam kehidupan seharian", questions: 10},
}

// Sample returns a small built-in catalog used when no catalog file is configured.
// It holds 32 questions so a full-size test can be drawn from it.
func Sample() *Catalog {
	c, err := FromDocument(SampleDocument())
	if err != nil {
		panic(fmt.Sprintf("sample catalog invalid: %v", err))
	}
	return c
}

// SampleDocument is the raw form of Sample.
func SampleDocument() Document {
	doc := Document{Version: "1.0.0", LastUpdated: "2025-01-15"}
	for _, st := range sampleTopics {
		topic := domain.Topic{ID: st.id, Name: st.name, Description: st.description}
		for n := 1; n <= 3; n++ {
			topic.Notes = append(topic.Notes, domain.Note{
				ID:      fmt.Sprintf("%s-nota-%d", st.id, n),
				Title:   fmt.Sprintf("Nota %d", n),
				Content: fmt.Sprintf("Isi nota %d bagi %s", n, st.name),
				Order:   n,
			})
		}
		doc.Topics = append(doc.Topics, topic)

		cat := domain.Category{ID: st.id, Name: st.name, Description: st.description}
		for n := 1; n <= st.questions; n++ {
			options := make([]string, domain.OptionCount)
			for o := range options {
				options[o] = fmt.Sprintf("Pilihan %c", 'A'+o)
			}
			cat.Questions = append(cat.Questions, domain.Question{
				ID:                 fmt.Sprintf("%s-s%02d", st.id, n),
				Text:               fmt.Sprintf("Soalan %d: %s", n, st.name),
				Options:            options,
				CorrectAnswerIndex: n % domain.OptionCount,
				Explanation:        fmt.Sprintf("Jawapan betul ialah Pilihan %c", 'A'+n%domain.OptionCount),
			})
		}
		doc.Categories = append(doc.Categories, cat)
	}
	return doc
}
