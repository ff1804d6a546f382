package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JonMunkholm/synthedata/internal/config"
	"github.com/JonMunkholm/synthedata/internal/core"
	"github.com/JonMunkholm/synthedata/internal/schema"
)

// generateBody is the JSON body of the single-table endpoints. Table may be
// "domain.table" when Domain is empty. AsOf is RFC3339 or YYYY-MM-DD; an
// absent ChangeProbability means core.DefaultChangeProbability.
type generateBody struct {
	Domain            string   `json:"domain"`
	Table             string   `json:"table"`
	Rows              int      `json:"rows"`
	ErrorProfile      string   `json:"error_profile"`
	Seed              *int64   `json:"seed"`
	Geo               string   `json:"geo"`
	MaskPII           bool     `json:"mask_pii"`
	ChangeProbability *float64 `json:"change_probability"`
	AsOf              string   `json:"as_of"`

	// Preview caps the rows echoed back. Zero returns every row.
	Preview int `json:"preview"`
}

// linkedBody is the JSON body of /api/generate/linked. Secondary names
// without a domain resolve against Domain.
type linkedBody struct {
	Domain            string   `json:"domain"`
	Primary           string   `json:"primary"`
	Secondaries       []string `json:"secondaries"`
	PrimaryRows       int      `json:"primary_rows"`
	SecondaryRows     int      `json:"secondary_rows"`
	ErrorProfile      string   `json:"error_profile"`
	SCD2              bool     `json:"scd2"`
	ChangeProbability *float64 `json:"change_probability"`
	Seed              *int64   `json:"seed"`
	Geo               string   `json:"geo"`
	MaskPII           bool     `json:"mask_pii"`
	AsOf              string   `json:"as_of"`
	Preview           int      `json:"preview"`
}

// ecosystemBody is the JSON body of /api/generate/ecosystem. BaseRows is the
// row count of the primary table; the others scale by their ratio.
type ecosystemBody struct {
	Key               string   `json:"key"`
	BaseRows          int      `json:"base_rows"`
	ErrorProfile      string   `json:"error_profile"`
	SCD2              bool     `json:"scd2"`
	ChangeProbability *float64 `json:"change_probability"`
	Seed              *int64   `json:"seed"`
	Geo               string   `json:"geo"`
	MaskPII           bool     `json:"mask_pii"`
	AsOf              string   `json:"as_of"`
	Preview           int      `json:"preview"`
}

// jobBody is the JSON body of POST /api/jobs. Request holds a generateBody
// for generate and history jobs, a linkedBody for linked jobs and an
// ecosystemBody for ecosystem jobs.
type jobBody struct {
	Kind    core.JobKind    `json:"kind"`
	Request json.RawMessage `json:"request"`
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v
// untouched. Malformed input is an ErrInvalidRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: decode body: %w", core.ErrInvalidRequest, err)
	}
	return nil
}

func decodeRaw(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing request", core.ErrInvalidRequest)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode request: %w", core.ErrInvalidRequest, err)
	}
	return nil
}

func parseTable(name, domain string) (schema.TableID, error) {
	id, err := schema.ParseTableID(name, domain)
	if err != nil {
		return schema.TableID{}, fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}
	return id, nil
}

func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := config.ParseAsOf(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as_of: %w", core.ErrInvalidRequest, err)
	}
	return t, nil
}

func changeProbability(p *float64) float64 {
	if p == nil {
		return core.DefaultChangeProbability
	}
	return *p
}

func (s *Server) geoOrDefault(name string) string {
	if name == "" {
		return s.cfg.Generation.DefaultGeo
	}
	return name
}

func (s *Server) generateRequest(b generateBody) (core.GenerateRequest, error) {
	id, err := parseTable(b.Table, b.Domain)
	if err != nil {
		return core.GenerateRequest{}, err
	}
	asOf, err := parseAsOf(b.AsOf)
	if err != nil {
		return core.GenerateRequest{}, err
	}
	return core.GenerateRequest{
		Table:        id,
		Rows:         b.Rows,
		ErrorProfile: b.ErrorProfile,
		Seed:         b.Seed,
		Geo:          s.geoOrDefault(b.Geo),
		MaskPII:      b.MaskPII,
		AsOf:         asOf,
	}, nil
}

func (s *Server) linkedRequest(b linkedBody) (core.LinkedRequest, error) {
	primary, err := parseTable(b.Primary, b.Domain)
	if err != nil {
		return core.LinkedRequest{}, err
	}
	if b.Domain == "" {
		b.Domain = primary.Domain
	}
	secondaries := make([]schema.TableID, 0, len(b.Secondaries))
	for _, name := range b.Secondaries {
		id, err := parseTable(name, b.Domain)
		if err != nil {
			return core.LinkedRequest{}, err
		}
		secondaries = append(secondaries, id)
	}
	asOf, err := parseAsOf(b.AsOf)
	if err != nil {
		return core.LinkedRequest{}, err
	}
	return core.LinkedRequest{
		Primary:           primary,
		Secondaries:       secondaries,
		PrimaryRows:       b.PrimaryRows,
		SecondaryRows:     b.SecondaryRows,
		ErrorProfile:      b.ErrorProfile,
		SCD2:              b.SCD2,
		ChangeProbability: changeProbability(b.ChangeProbability),
		Seed:              b.Seed,
		Geo:               s.geoOrDefault(b.Geo),
		MaskPII:           b.MaskPII,
		AsOf:              asOf,
	}, nil
}

func (s *Server) ecosystemRequest(b ecosystemBody) (core.EcosystemRequest, error) {
	if b.Key == "" {
		return core.EcosystemRequest{}, fmt.Errorf("%w: missing ecosystem key", core.ErrInvalidRequest)
	}
	asOf, err := parseAsOf(b.AsOf)
	if err != nil {
		return core.EcosystemRequest{}, err
	}
	return core.EcosystemRequest{
		Key:               b.Key,
		BaseRows:          b.BaseRows,
		ErrorProfile:      b.ErrorProfile,
		SCD2:              b.SCD2,
		ChangeProbability: changeProbability(b.ChangeProbability),
		Seed:              b.Seed,
		Geo:               s.geoOrDefault(b.Geo),
		MaskPII:           b.MaskPII,
		AsOf:              asOf,
	}, nil
}

// jobSpec converts a job body into an engine job spec.
func (s *Server) jobSpec(b jobBody) (core.JobSpec, error) {
	spec := core.JobSpec{Kind: b.Kind}
	switch b.Kind {
	case core.JobGenerate, core.JobHistory:
		var gb generateBody
		if err := decodeRaw(b.Request, &gb); err != nil {
			return spec, err
		}
		req, err := s.generateRequest(gb)
		if err != nil {
			return spec, err
		}
		if b.Kind == core.JobGenerate {
			spec.Generate = &req
		} else {
			spec.History = &core.HistoryRequest{GenerateRequest: req, ChangeProbability: changeProbability(gb.ChangeProbability)}
		}
	case core.JobLinked:
		var lb linkedBody
		if err := decodeRaw(b.Request, &lb); err != nil {
			return spec, err
		}
		req, err := s.linkedRequest(lb)
		if err != nil {
			return spec, err
		}
		spec.Linked = &req
	case core.JobEcosystem:
		var eb ecosystemBody
		if err := decodeRaw(b.Request, &eb); err != nil {
			return spec, err
		}
		req, err := s.ecosystemRequest(eb)
		if err != nil {
			return spec, err
		}
		spec.Ecosystem = &req
	default:
		return spec, fmt.Errorf("%w: unknown job kind %q", core.ErrInvalidRequest, b.Kind)
	}
	return spec, nil
}
