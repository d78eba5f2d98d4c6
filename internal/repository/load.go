package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/pipebase/internal/ctxlog"
	pipehcl "github.com/vk/pipebase/internal/hcl"
	"github.com/zclconf/go-cty/cty"
)

// FileName is the name of the repository description file at the input root.
const FileName = "repo.hcl"

// ErrNoRepository is returned by Open when the input root holds no
// repository description.
var ErrNoRepository = errors.New("no repository found")

// repoFile decodes the top-level blocks of a repo.hcl file.
type repoFile struct {
	Dimensions *bodyBlock      `hcl:"dimensions,block"`
	Datasets   []*datasetBlock `hcl:"dataset,block"`
	Entries    []*bodyBlock    `hcl:"entry,block"`
}

type bodyBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type datasetBlock struct {
	Type     string         `hcl:"type,label"`
	Template hcl.Expression `hcl:"template"`
}

// Open loads the repository described by <root>/repo.hcl. It satisfies
// Opener.
func Open(ctx context.Context, root string) (Repository, error) {
	return Load(ctx, root)
}

// Load is like Open but returns the concrete repository.
func Load(ctx context.Context, root string) (*Repo, error) {
	logger := ctxlog.FromContext(ctx)
	path := filepath.Join(root, FileName)
	logger.Debug("Loading repository.", "file", path)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNoRepository, root)
		}
		return nil, fmt.Errorf("error accessing repository file %s: %w", path, err)
	}

	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse repository file %s: %w", path, diags)
	}
	var desc repoFile
	if diags := gohcl.DecodeBody(file.Body, nil, &desc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode repository file %s: %w", path, diags)
	}
	if desc.Dimensions == nil {
		return nil, fmt.Errorf("repository file %s: missing dimensions block", path)
	}

	// 1. Dimensions, in file order.
	dimAttrs, diags := orderedAttributes(desc.Dimensions.Body)
	if diags.HasErrors() {
		return nil, fmt.Errorf("repository file %s: %w", path, diags)
	}
	dims := make([]Dimension, 0, len(dimAttrs))
	for _, attr := range dimAttrs {
		ty, err := pipehcl.TypeExpr(ctx, attr.Expr)
		if err != nil {
			return nil, fmt.Errorf("repository file %s: dimension %q: %w", path, attr.Name, err)
		}
		dims = append(dims, Dimension{Name: attr.Name, Type: ty})
	}
	repo, err := New(root, dims...)
	if err != nil {
		return nil, fmt.Errorf("repository file %s: %w", path, err)
	}

	// 2. Dataset path templates.
	for _, ds := range desc.Datasets {
		if err := repo.addDatasetExpr(ds.Type, ds.Template); err != nil {
			return nil, fmt.Errorf("repository file %s: %w", path, err)
		}
	}

	// 3. Entries.
	for i, entry := range desc.Entries {
		attrs, diags := orderedAttributes(entry.Body)
		if diags.HasErrors() {
			return nil, fmt.Errorf("repository file %s: %w", path, diags)
		}
		values := make(map[string]cty.Value, len(attrs))
		for _, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("repository file %s: %w", path, diags)
			}
			values[attr.Name] = val
		}
		if _, err := repo.AddEntry(values); err != nil {
			return nil, fmt.Errorf("repository file %s: entry %d: %w", path, i+1, err)
		}
	}

	logger.Debug("Repository loaded.", "dimensions", len(dims), "datasets", len(desc.Datasets), "entries", len(desc.Entries))
	return repo, nil
}

// orderedAttributes returns the attributes of a body sorted by position.
func orderedAttributes(body hcl.Body) ([]*hcl.Attribute, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Range.Start.Byte < out[j].Range.Start.Byte
	})
	return out, nil
}
