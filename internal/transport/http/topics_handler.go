package http

import (
	"net/http"

	"akhlak-learning-service/internal/app"
	"go.uber.org/zap"
)

// TopicsHandler serves study content and the quiz category list.
type TopicsHandler struct {
	catalogs app.CatalogRepository
	log      *zap.Logger
}

func NewTopicsHandler(catalogs app.CatalogRepository, log *zap.Logger) *TopicsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TopicsHandler{catalogs: catalogs, log: log}
}

func (h *TopicsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /topics", h.ServeTopics)
	mux.HandleFunc("GET /topics/{id}", h.ServeTopic)
	mux.HandleFunc("GET /categories", h.ServeCategories)
}

type topicSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	NoteCount   int    `json:"noteCount"`
}

type categorySummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
}

type categoriesResponse struct {
	Categories []categorySummary `json:"categories"`
	PoolSize   int               `json:"poolSize"`
	Version    string            `json:"version"`
}

func (h *TopicsHandler) ServeTopics(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalogs.GetCatalog(r.Context())
	if err != nil {
		h.log.Error("catalog unavailable", zap.Error(err))
		writeError(w, err)
		return
	}
	topics := c.Topics()
	out := make([]topicSummary, len(topics))
	for i, t := range topics {
		out[i] = topicSummary{ID: t.ID, Name: t.Name, Description: t.Description, NoteCount: len(t.Notes)}
	}
	writeJSON(w, http.StatusOK, out)
}

// ServeTopic returns one topic with its notes in display order.
func (h *TopicsHandler) ServeTopic(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalogs.GetCatalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	topic, err := c.Topic(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (h *TopicsHandler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	c, err := h.catalogs.GetCatalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	cats := c.Categories()
	out := make([]categorySummary, len(cats))
	for i, cat := range cats {
		out[i] = categorySummary{ID: cat.ID, Name: cat.Name, Description: cat.Description, QuestionCount: len(cat.Questions)}
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: out, PoolSize: c.QuestionCount(), Version: c.Version()})
}
