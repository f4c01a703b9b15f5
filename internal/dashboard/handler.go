package dashboard

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"
)

// Handler serves the dashboard page. Filters come from the query string:
// year, month, sido, sigungu and tab.
type Handler struct {
	cache    *Cache
	renderer *HTMLRenderer
	logger   *zap.Logger
}

func NewHandler(cache *Cache, renderer *HTMLRenderer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cache: cache, renderer: renderer, logger: logger.With(zap.String("component", "dashboard"))}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t, err := h.cache.Table(r.Context())
	if err != nil {
		h.logger.Error("failed to load registrations", zap.Error(err))
		http.Error(w, "failed to load registrations", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	rep := BuildReport(t, Query{
		Selection: Selection{
			Year:    q.Get("year"),
			Month:   q.Get("month"),
			Sido:    q.Get("sido"),
			Sigungu: q.Get("sigungu"),
		},
		View: View(q.Get("tab")),
	})

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, rep); err != nil {
		h.logger.Error("failed to render dashboard", zap.Error(err))
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
