package httpapi

import (
	"net/http"
)

func (s *Server) handleFAQ(w http.ResponseWriter, r *http.Request) {
	var entries interface{}
	if category := r.URL.Query().Get("category"); category != "" {
		entries = s.faqs.ByCategory(r.Context(), category)
	} else {
		entries = s.faqs.All(r.Context())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"faqs": entries,
	})
}

func (s *Server) handleFAQSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "query parameter q is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"faqs": s.faqs.Search(r.Context(), query),
	})
}
