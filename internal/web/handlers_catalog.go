package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/geo"
	"github.com/JonMunkholm/synthedata/internal/schema"
	"github.com/JonMunkholm/synthedata/internal/writer"
)

// fieldView is the JSON form of a resolved field.
type fieldView struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Nullable   bool      `json:"nullable"`
	PII        bool      `json:"pii"`
	Min        *float64  `json:"min,omitempty"`
	Max        *float64  `json:"max,omitempty"`
	Labels     []string  `json:"labels,omitempty"`
	Weights    []float64 `json:"weights,omitempty"`
	MinLength  int       `json:"min_length,omitempty"`
	MaxLength  int       `json:"max_length,omitempty"`
	Pattern    string    `json:"pattern,omitempty"`
	Decimals   int       `json:"decimals,omitempty"`
	WindowDays int       `json:"window_days,omitempty"`
	References string    `json:"references,omitempty"`
}

// schemaView is the JSON form of a descriptor.
type schemaView struct {
	Domain         string      `json:"domain"`
	Table          string      `json:"table"`
	Label          string      `json:"label,omitempty"`
	NaturalKey     []string    `json:"natural_key"`
	KeySource      string      `json:"key_source"`
	DuplicateProne []string    `json:"duplicate_prone,omitempty"`
	Sensitivity    string      `json:"pii_sensitivity"`
	Fields         []fieldView `json:"fields"`
	Columns        []string    `json:"columns"`
}

func newSchemaView(d *schema.Descriptor) schemaView {
	v := schemaView{
		Domain:         d.ID.Domain,
		Table:          d.ID.Table,
		Label:          d.Label,
		NaturalKey:     d.NaturalKey,
		KeySource:      string(d.KeySource),
		DuplicateProne: d.DuplicateProne,
		Sensitivity:    core.Sensitivity(d),
		Fields:         make([]fieldView, len(d.Fields)),
		Columns:        append(d.FieldNames(), core.EnvelopeColumns...),
	}
	for i, f := range d.Fields {
		fv := fieldView{
			Name:       f.Name,
			Type:       f.Kind.String(),
			Nullable:   f.Nullable,
			PII:        core.IsPII(f),
			Min:        f.Domain.Min,
			Max:        f.Domain.Max,
			Labels:     f.Domain.Labels,
			Weights:    f.Domain.Weights,
			MinLength:  f.Domain.MinLength,
			MaxLength:  f.Domain.MaxLength,
			Pattern:    f.Domain.Pattern,
			WindowDays: f.Domain.WindowDays,
		}
		if f.Kind == schema.KindDecimal {
			fv.Decimals = f.Domain.Decimals
		}
		if f.Kind == schema.KindForeignKey {
			fv.References = f.Domain.Target.String()
		}
		v.Fields[i] = fv
	}
	return v
}

// handleHealth reports liveness, catalog health and job slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	domains, err := s.engine.Catalog().Domains()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  core.MapError(err).Message,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"domains": len(domains),
		"jobs":    s.jobs.Limiter().Status(),
	})
}

// handleListDomains returns every domain with its tables.
func (s *Server) handleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := s.engine.Catalog().ListDomains()
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

// handleListTables returns the tables of one domain.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.engine.Catalog().Tables(chi.URLParam(r, "domain"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

type ecosystemView struct {
	Key          string                   `json:"key"`
	Name         string                   `json:"name"`
	Description  string                   `json:"description"`
	BusinessType string                   `json:"business_type"`
	Tables       []schema.EcosystemMember `json:"tables"`
}

// handleListEcosystems returns every business ecosystem with its tables and
// their row ratios.
func (s *Server) handleListEcosystems(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.Catalog().Ecosystems()
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]ecosystemView, len(list))
	for i, e := range list {
		out[i] = ecosystemView{
			Key:          e.Key,
			Name:         e.Name,
			Description:  e.Description,
			BusinessType: e.BusinessType,
			Tables:       e.Members(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetSchema returns the resolved schema of one table.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	id := schema.TableID{Domain: chi.URLParam(r, "domain"), Table: chi.URLParam(r, "table")}
	desc, err := s.engine.Catalog().Load(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSchemaView(desc))
}

// handleOptions lists the accepted values of the enumerated request fields.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"error_profiles": core.ProfileNames(),
		"geo":            geo.Names(),
		"formats":        writer.FormatNames(),
		"default_seed":   s.cfg.Generation.Seed,
		"max_rows":       s.cfg.Generation.MaxRows,
	})
}
