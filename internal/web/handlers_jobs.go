package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/synthedata/internal/writer"
)

// handleSubmitJob starts a background generation job. The response is 202
// with the job view; poll GET /api/jobs/{id} for completion.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var body jobBody
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	spec, err := s.jobSpec(body)
	if err != nil {
		respondError(w, r, err)
		return
	}
	info, err := s.jobs.Submit(r.Context(), spec)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/jobs/"+info.ID)
	writeJSON(w, http.StatusAccepted, info)
}

// handleListJobs returns every known job, oldest first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.List())
}

// handleGetJob returns one job.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	info, err := s.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleJobProfile returns the DQ report of each table a job produced.
func (s *Server) handleJobProfile(w http.ResponseWriter, r *http.Request) {
	results, err := s.jobs.Results(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make(map[string]writer.Report, len(results))
	for name, rs := range results {
		out[name] = writer.NewReport(rs)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDiscardJob cancels a job and forgets it.
func (s *Server) handleDiscardJob(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.Discard(chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
