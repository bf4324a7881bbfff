package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	price, ok := s.market.Price(r.Context(), symbol)
	if !ok {
		jsonError(w, "no price available for symbol", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol,
		"price":  price,
	})
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	pair := mux.Vars(r)["pair"]

	stats, ok := s.market.Pair(r.Context(), pair)
	if !ok {
		jsonError(w, "no data available for pair", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	book, ok := s.market.OrderBook(r.Context(), symbol)
	if !ok {
		jsonError(w, "no order book available for symbol", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, book)
}
