package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/writer"
)

// tableResponse carries a generated table. Data holds at most Preview rows
// when a preview was asked for; Rows is always the full count.
type tableResponse struct {
	Table     string               `json:"table"`
	Rows      int                  `json:"rows"`
	Columns   []string             `json:"columns"`
	Data      [][]any              `json:"data"`
	Injection core.InjectionReport `json:"injection"`
	Metrics   core.DQMetrics       `json:"metrics"`
}

func newTableResponse(rs *core.RecordSet, preview int) tableResponse {
	n := rs.Len()
	if preview > 0 && preview < n {
		n = preview
	}
	data := make([][]any, n)
	for i := 0; i < n; i++ {
		data[i] = rs.Records[i].Values(rs.Schema)
	}
	return tableResponse{
		Table:     rs.Table().String(),
		Rows:      rs.Len(),
		Columns:   rs.Columns(),
		Data:      data,
		Injection: rs.Injection,
		Metrics:   core.Profile(rs),
	}
}

// handleGenerate generates one table.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	req, err := s.generateRequest(body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rs, err := s.engine.Generate(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTableResponse(rs, body.Preview))
}

// handleGenerateHistory generates one table expanded into SCD2 history.
func (s *Server) handleGenerateHistory(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	req, err := s.generateRequest(body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rs, err := s.engine.GenerateWithHistory(r.Context(), core.HistoryRequest{
		GenerateRequest:   req,
		ChangeProbability: changeProbability(body.ChangeProbability),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTableResponse(rs, body.Preview))
}

// handleGenerateLinked generates a primary table and its secondaries. When a
// secondary fails the error response lists the tables that did succeed.
func (s *Server) handleGenerateLinked(w http.ResponseWriter, r *http.Request) {
	var body linkedBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	req, err := s.linkedRequest(body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sets, err := s.engine.GenerateLinked(r.Context(), req)
	respondSets(w, r, sets, err, body.Preview)
}

// handleGenerateEcosystem generates every table of a business ecosystem,
// sized from base_rows and the ecosystem's ratios.
func (s *Server) handleGenerateEcosystem(w http.ResponseWriter, r *http.Request) {
	var body ecosystemBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	req, err := s.ecosystemRequest(body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sets, err := s.engine.GenerateEcosystem(r.Context(), req)
	respondSets(w, r, sets, err, body.Preview)
}

// respondSets writes a linked result. On error the response lists the row
// counts of the tables that did succeed.
func respondSets(w http.ResponseWriter, r *http.Request, sets map[string]*core.RecordSet, err error, preview int) {
	if err != nil {
		counts := make(map[string]int, len(sets))
		for name, rs := range sets {
			counts[name] = rs.Len()
		}
		respondErrorWith(w, r, err, counts)
		return
	}

	out := make(map[string]tableResponse, len(sets))
	for name, rs := range sets {
		out[name] = newTableResponse(rs, preview)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleProfile generates a table and returns only its DQ report.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	body := generateBody{Rows: 1000}
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	body.Domain = chi.URLParam(r, "domain")
	body.Table = chi.URLParam(r, "table")

	req, err := s.generateRequest(body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rs, err := s.engine.Generate(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, writer.NewReport(rs))
}
