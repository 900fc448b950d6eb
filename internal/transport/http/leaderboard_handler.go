package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"akhlak-learning-service/internal/app"
	"akhlak-learning-service/internal/domain"
	"akhlak-learning-service/internal/export"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// LeaderboardHandler serves ranked views as JSON, XLSX and a live stream.
type LeaderboardHandler struct {
	service      *app.LeaderboardService
	defaultLimit int
	log          *zap.Logger
	upgrader     websocket.Upgrader
}

func NewLeaderboardHandler(service *app.LeaderboardService, defaultLimit int, log *zap.Logger) *LeaderboardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeaderboardHandler{
		service:      service,
		defaultLimit: defaultLimit,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts the leaderboard routes on mux.
func (h *LeaderboardHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /leaderboard", h.ServeLeaderboard)
	mux.HandleFunc("GET /leaderboard/export", h.ServeExport)
	mux.HandleFunc("GET /leaderboard/ws", h.ServeStream)
	mux.HandleFunc("GET /stats", h.ServeStats)
}

// queryOptions reads filter, userId and limit from the query string.
func (h *LeaderboardHandler) queryOptions(r *http.Request) (app.QueryOptions, error) {
	q := r.URL.Query()
	filter, err := domain.ParseFilter(q.Get("filter"))
	if err != nil {
		return app.QueryOptions{}, err
	}
	limit := h.defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return app.QueryOptions{}, domain.ErrInvalidInput
		}
		limit = n
	}
	return app.QueryOptions{Filter: filter, CurrentUserID: q.Get("userId"), Limit: limit}, nil
}

func (h *LeaderboardHandler) ServeLeaderboard(w http.ResponseWriter, r *http.Request) {
	opts, err := h.queryOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lb, err := h.service.Query(r.Context(), opts)
	if err != nil {
		h.log.Error("leaderboard query failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *LeaderboardHandler) ServeExport(w http.ResponseWriter, r *http.Request) {
	opts, err := h.queryOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lb, err := h.service.Query(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard-`+string(lb.Filter)+`.xlsx"`)
	if err := export.WriteLeaderboard(w, lb); err != nil {
		h.log.Error("leaderboard export failed", zap.Error(err))
	}
}

type statsResponse struct {
	User     *domain.AttemptStats `json:"user,omitempty"`
	Category *domain.AttemptStats `json:"category,omitempty"`
}

// ServeStats returns attempt summaries for ?userId= and/or ?categoryId=.
func (h *LeaderboardHandler) ServeStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, categoryID := q.Get("userId"), q.Get("categoryId")
	if userID == "" && categoryID == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	filter, err := domain.ParseFilter(q.Get("filter"))
	if err != nil {
		writeError(w, err)
		return
	}

	var resp statsResponse
	if userID != "" {
		st, err := h.service.UserStats(r.Context(), userID, filter, categoryID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.User = &st
	}
	if categoryID != "" {
		st, err := h.service.CategoryStats(r.Context(), categoryID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Category = &st
	}
	writeJSON(w, http.StatusOK, resp)
}

// ServeStream pushes the viewer's leaderboard on connect and after every new record.
func (h *LeaderboardHandler) ServeStream(w http.ResponseWriter, r *http.Request) {
	opts, err := h.queryOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	// The reader only watches for the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	push := func() bool {
		lb, err := h.service.Query(r.Context(), opts)
		if err != nil {
			h.log.Error("leaderboard query failed", zap.Error(err))
			return conn.WriteJSON(outboundMessage[any]{Type: "error", Payload: errorPayload{Code: errorCode(err), Message: err.Error()}}) == nil
		}
		return conn.WriteJSON(outboundMessage[any]{Type: "leaderboard", Payload: lb}) == nil
	}

	if !push() {
		return
	}
	for {
		select {
		case rec, ok := <-updates:
			if !ok {
				return
			}
			if !opts.Filter.Matches(rec) {
				continue
			}
			if !push() {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorPayload{Code: errorCode(err), Message: err.Error()})
}
