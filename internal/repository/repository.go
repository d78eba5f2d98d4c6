package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/pipebase/internal/ctxlog"
	"github.com/vk/pipebase/internal/dataref"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Repository resolves id templates against the data it holds.
type Repository interface {
	// Schema returns the dimensions the repository knows.
	Schema() dataref.Schema
	// Resolve returns a reference for every id matching tmpl, in
	// repository order. No match is not an error.
	Resolve(ctx context.Context, tmpl dataref.Template) ([]*dataref.Ref, error)
}

// Opener opens the repository found at an input root.
type Opener func(ctx context.Context, root string) (Repository, error)

// Dimension is one named, typed axis of a data id.
type Dimension struct {
	Name string
	Type cty.Type
}

// Repo is the concrete repository used both for repo.hcl files and for
// in-memory repositories.
type Repo struct {
	root     string
	dims     []Dimension
	schema   dataref.Schema
	datasets map[string]hcl.Expression
	entries  []dataref.ID
}

// New creates an empty repository rooted at root with the given dimensions.
// Relative dataset paths are joined to root.
func New(root string, dims ...Dimension) (*Repo, error) {
	r := &Repo{
		root:     root,
		schema:   make(dataref.Schema, len(dims)),
		datasets: make(map[string]hcl.Expression),
	}
	for _, d := range dims {
		if d.Name == "" {
			return nil, fmt.Errorf("dimension name must not be empty")
		}
		if _, dup := r.schema[d.Name]; dup {
			return nil, fmt.Errorf("dimension %q declared twice", d.Name)
		}
		if !d.Type.IsPrimitiveType() {
			return nil, fmt.Errorf("dimension %q must have a primitive type, got %s", d.Name, d.Type.FriendlyName())
		}
		r.dims = append(r.dims, d)
		r.schema[d.Name] = d.Type
	}
	return r, nil
}

// Root returns the directory the repository is rooted at.
func (r *Repo) Root() string { return r.root }

// Schema implements Repository.
func (r *Repo) Schema() dataref.Schema {
	out := make(dataref.Schema, len(r.schema))
	for k, v := range r.schema {
		out[k] = v
	}
	return out
}

// Dimensions returns the dimensions in declaration order.
func (r *Repo) Dimensions() []Dimension {
	return append([]Dimension(nil), r.dims...)
}

// AddDataset registers a path template for a dataset type. The template
// interpolates id dimensions, e.g. "raw/v${visit}/R${raft}_S${sensor}.fits".
func (r *Repo) AddDataset(datasetType, template string) error {
	expr, diags := hclsyntax.ParseTemplate([]byte(template), datasetType, hcl.InitialPos)
	if diags.HasErrors() {
		return fmt.Errorf("dataset %q: invalid path template: %w", datasetType, diags)
	}
	return r.addDatasetExpr(datasetType, expr)
}

func (r *Repo) addDatasetExpr(datasetType string, expr hcl.Expression) error {
	if _, dup := r.datasets[datasetType]; dup {
		return fmt.Errorf("dataset %q declared twice", datasetType)
	}
	for _, tr := range expr.Variables() {
		if _, ok := r.schema[tr.RootName()]; !ok {
			return fmt.Errorf("dataset %q: template refers to unknown dimension %q", datasetType, tr.RootName())
		}
	}
	r.datasets[datasetType] = expr
	return nil
}

// DatasetTypes returns the registered dataset types, sorted.
func (r *Repo) DatasetTypes() []string {
	out := make([]string, 0, len(r.datasets))
	for name := range r.datasets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AddEntry adds a data id. Values are converted to the dimension types and
// the pairs are stored in dimension order.
func (r *Repo) AddEntry(values map[string]cty.Value) (dataref.ID, error) {
	for name := range values {
		if _, ok := r.schema[name]; !ok {
			return dataref.ID{}, fmt.Errorf("entry has unknown dimension %q", name)
		}
	}

	var pairs []dataref.Pair
	for _, d := range r.dims {
		v, ok := values[d.Name]
		if !ok {
			continue
		}
		converted, err := convert.Convert(v, d.Type)
		if err != nil {
			return dataref.ID{}, fmt.Errorf("entry dimension %q: %w", d.Name, err)
		}
		pairs = append(pairs, dataref.Pair{Key: d.Name, Value: converted})
	}
	id := dataref.NewID(pairs...)
	r.entries = append(r.entries, id)
	return id, nil
}

// Entries returns every id in the repository, in insertion order.
func (r *Repo) Entries() []dataref.ID {
	return append([]dataref.ID(nil), r.entries...)
}

// Resolve implements Repository.
func (r *Repo) Resolve(ctx context.Context, tmpl dataref.Template) ([]*dataref.Ref, error) {
	for _, key := range tmpl.Keys() {
		if _, ok := r.schema[key]; !ok {
			return nil, fmt.Errorf("template uses unknown dimension %q", key)
		}
	}

	var refs []*dataref.Ref
	for _, id := range r.entries {
		if tmpl.Matches(id) {
			refs = append(refs, dataref.NewRef(id, r))
		}
	}
	ctxlog.FromContext(ctx).Debug("Resolved data id template.", "template", tmpl.String(), "matches", len(refs))
	return refs, nil
}

// DatasetPath implements dataref.DatasetLookup.
func (r *Repo) DatasetPath(datasetType string, id dataref.ID) (string, error) {
	expr, ok := r.datasets[datasetType]
	if !ok {
		return "", fmt.Errorf("repository has no dataset type %q", datasetType)
	}
	val, diags := expr.Value(&hcl.EvalContext{Variables: id.Vars()})
	if diags.HasErrors() {
		return "", fmt.Errorf("dataset %q for %s: %w", datasetType, id, diags)
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil || val.IsNull() {
		return "", fmt.Errorf("dataset %q for %s: template did not produce a path", datasetType, id)
	}

	path := val.AsString()
	if !filepath.IsAbs(path) && r.root != "" {
		path = filepath.Join(r.root, path)
	}
	return path, nil
}
