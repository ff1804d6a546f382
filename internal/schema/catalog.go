package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	registry   = make(map[TableID]Definition)
	registryMu sync.RWMutex
)

// Register adds a built-in table definition.
// Panics if the same domain/table is registered twice.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	id := def.ID()
	if _, exists := registry[id]; exists {
		panic(fmt.Sprintf("table already registered: %s", id))
	}
	registry[id] = def
}

// Registered returns all built-in definitions sorted by domain then table.
func Registered() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Definition, 0, len(registry))
	for _, def := range registry {
		out = append(out, def)
	}
	sortDefinitions(out)
	return out
}

// ClearRegistry removes all built-in definitions.
// Primarily useful for testing.
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[TableID]Definition)
}

func sortDefinitions(defs []Definition) {
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Domain != defs[j].Domain {
			return defs[i].Domain < defs[j].Domain
		}
		return defs[i].Table < defs[j].Table
	})
}

// Source supplies raw table definitions to a Catalog.
type Source interface {
	Definitions() ([]Definition, error)
}

// RegistrySource exposes the built-in registry as a catalog source.
type RegistrySource struct{}

// Definitions implements Source.
func (RegistrySource) Definitions() ([]Definition, error) {
	return Registered(), nil
}

// StaticSource serves a fixed list of definitions.
type StaticSource []Definition

// Definitions implements Source.
func (s StaticSource) Definitions() ([]Definition, error) {
	return append([]Definition(nil), s...), nil
}

// DirSource reads one YAML file per domain from a directory.
// Files whose name starts with "_" are skipped. An empty Dir yields nothing.
//
// File layout:
//
//	domain: hr_core          # optional, defaults to the file name
//	tables:
//	  employees:
//	    natural_key: [employee_id]
//	    duplicate_prone: [email]
//	    fields:
//	      - {name: employee_id, type: integer, min: 1, max: 9999}
type DirSource struct {
	Dir string
}

type catalogFile struct {
	Domain string                `yaml:"domain"`
	Tables map[string]Definition `yaml:"tables"`
}

// Definitions implements Source.
func (s DirSource) Definitions() ([]Definition, error) {
	if s.Dir == "" {
		return nil, nil
	}
	var paths []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(s.Dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("catalog dir %s: %w", s.Dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	seen := make(map[TableID]string)
	var out []Definition
	for _, path := range paths {
		base := filepath.Base(path)
		if strings.HasPrefix(base, "_") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		defs, err := ParseCatalogFile(bytes.NewReader(data), stem)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", base, err)
		}
		for _, def := range defs {
			if prev, dup := seen[def.ID()]; dup {
				return nil, fmt.Errorf("%w: table %s declared in both %s and %s", ErrSchemaInvalid, def.ID(), prev, base)
			}
			seen[def.ID()] = base
			out = append(out, def)
		}
	}
	return out, nil
}

// ParseCatalogFile decodes one YAML catalog document. defaultDomain is used
// when the document does not name its domain.
func ParseCatalogFile(r io.Reader, defaultDomain string) ([]Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	domain := file.Domain
	if domain == "" {
		domain = defaultDomain
	}
	defs := make([]Definition, 0, len(file.Tables))
	for table, def := range file.Tables {
		def.Domain = domain
		def.Table = table
		defs = append(defs, def)
	}
	sortDefinitions(defs)
	return defs, nil
}

type resolution struct {
	desc *Descriptor
	err  error
}

// Catalog resolves table ids to descriptors.
//
// Sources are read once, on the first lookup. Later sources override earlier
// ones for the same table. Resolved descriptors (and resolution errors) are
// cached; a Catalog is safe for concurrent use and read-only after load.
type Catalog struct {
	sources []Source

	once       sync.Once
	loadErr    error
	defs       map[TableID]Definition
	ecosystems map[string]Ecosystem

	mu       sync.RWMutex
	resolved map[TableID]resolution
}

// NewCatalog creates a catalog over the given sources.
func NewCatalog(sources ...Source) *Catalog {
	return &Catalog{
		sources:  sources,
		resolved: make(map[TableID]resolution),
	}
}

func (c *Catalog) load() error {
	c.once.Do(func() {
		defs := make(map[TableID]Definition)
		ecos := make(map[string]Ecosystem)
		for _, src := range c.sources {
			list, err := src.Definitions()
			if err != nil {
				c.loadErr = fmt.Errorf("load catalog: %w", err)
				return
			}
			for _, def := range list {
				defs[def.ID()] = def
			}
			if es, ok := src.(EcosystemSource); ok {
				list, err := es.Ecosystems()
				if err != nil {
					c.loadErr = fmt.Errorf("load catalog: %w", err)
					return
				}
				for _, e := range list {
					ecos[e.Key] = e
				}
			}
		}
		c.defs = defs
		c.ecosystems = ecos
	})
	return c.loadErr
}

// Load returns the descriptor for id.
func (c *Catalog) Load(id TableID) (*Descriptor, error) {
	if err := c.load(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	res, ok := c.resolved[id]
	c.mu.RUnlock()
	if ok {
		return res.desc, res.err
	}

	def, ok := c.defs[id]
	if !ok {
		if !c.hasDomain(id.Domain) {
			return nil, fmt.Errorf("%w: domain %q", ErrSchemaNotFound, id.Domain)
		}
		return nil, fmt.Errorf("%w: table %q in domain %q", ErrSchemaNotFound, id.Table, id.Domain)
	}

	desc, err := def.Resolve()
	c.mu.Lock()
	c.resolved[id] = resolution{desc: desc, err: err}
	c.mu.Unlock()
	return desc, err
}

func (c *Catalog) hasDomain(domain string) bool {
	for id := range c.defs {
		if id.Domain == domain {
			return true
		}
	}
	return false
}

// Domains returns every domain name, sorted.
func (c *Catalog) Domains() ([]string, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for id := range c.defs {
		seen[id.Domain] = true
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// Tables returns the table names of a domain, sorted.
func (c *Catalog) Tables(domain string) ([]string, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	var out []string
	for id := range c.defs {
		if id.Domain == domain {
			out = append(out, id.Table)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: domain %q", ErrSchemaNotFound, domain)
	}
	sort.Strings(out)
	return out, nil
}

// ListDomains maps each domain to its tables.
func (c *Catalog) ListDomains() (map[string][]string, error) {
	domains, err := c.Domains()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(domains))
	for _, d := range domains {
		tables, err := c.Tables(d)
		if err != nil {
			return nil, err
		}
		out[d] = tables
	}
	return out, nil
}

// Ecosystem returns the ecosystem declared under key. Member tables are
// checked against the catalog.
func (c *Catalog) Ecosystem(key string) (Ecosystem, error) {
	if err := c.load(); err != nil {
		return Ecosystem{}, err
	}
	e, ok := c.ecosystems[key]
	if !ok {
		return Ecosystem{}, fmt.Errorf("%w: ecosystem %q", ErrSchemaNotFound, key)
	}
	for _, id := range e.Tables() {
		if _, exists := c.defs[id]; !exists {
			return Ecosystem{}, fmt.Errorf("%w: ecosystem %q references unknown table %s", ErrSchemaInvalid, key, id)
		}
	}
	return e, nil
}

// Ecosystems returns every declared ecosystem, sorted by key.
func (c *Catalog) Ecosystems() ([]Ecosystem, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	out := make([]Ecosystem, 0, len(c.ecosystems))
	for _, e := range c.ecosystems {
		out = append(out, e)
	}
	sortEcosystems(out)
	return out, nil
}
