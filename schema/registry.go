package schema

import (
	"sort"

	"go.uber.org/zap"

	"github.com/nodecfg/nodecfg/errors"
)

// Schema is a named registration: the parsed classes, the designated root
// class, the reference/index type used for link back-references, and the
// field-mapping table derived from the root class.
type Schema struct {
	Name      string
	RefType   string
	RootClass string
	Classes   map[string]*Class
	Order     []string // class declaration order
	Mapping   *FieldMapping
}

// Class returns the named class, if registered.
func (s *Schema) Class(name string) (*Class, bool) {
	c, ok := s.Classes[name]
	return c, ok
}

// IsModel reports whether name is a class of this schema.
func (s *Schema) IsModel(name string) bool {
	_, ok := s.Classes[name]
	return ok
}

// Registry owns all registered schemas. It is explicit state passed by
// handle into the core functions; there are no process-wide singletons.
type Registry struct {
	schemas map[string]*Schema
	logger  *zap.SugaredLogger
}

// NewRegistry creates an empty schema registry.
func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		schemas: make(map[string]*Schema),
		logger:  log.Named("schema.registry"),
	}
}

// Register parses source text and registers it under name. Registration is
// atomic: any failure leaves the registry unchanged. refType names the
// index/reference type used in Union fields ("Index" in most schemas);
// rootClass may be empty when the schema has no designated root.
func (r *Registry) Register(name, source, refType, rootClass string) (*Schema, error) {
	if name == "" {
		return nil, errors.NewInvalidRequestError("schema name is required")
	}

	classes, order := Parse(source)
	if len(classes) == 0 {
		return nil, errors.NewInvalidRequestError("schema %q contains no class declarations", name)
	}
	if rootClass != "" {
		if _, ok := classes[rootClass]; !ok {
			return nil, errors.Wrapf(errors.ErrUnknownClass, "root class %q not declared in schema %q", rootClass, name)
		}
	}

	s := &Schema{
		Name:      name,
		RefType:   refType,
		RootClass: rootClass,
		Classes:   classes,
		Order:     order,
		Mapping:   NewFieldMapping(classes, rootClass, refType),
	}
	r.schemas[name] = s

	r.logger.Infow("Schema registered",
		"schema", name,
		"classes", len(classes),
		"root_class", rootClass,
	)
	return s, nil
}

// Remove deletes a schema registration. Returns false when absent.
func (r *Registry) Remove(name string) bool {
	if _, ok := r.schemas[name]; !ok {
		return false
	}
	delete(r.schemas, name)
	r.logger.Infow("Schema removed", "schema", name)
	return true
}

// Get returns the named schema, if registered.
func (r *Registry) Get(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered schema names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
