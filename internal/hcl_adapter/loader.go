package hcl_adapter

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/discretego/internal/config"
	"github.com/vk/discretego/internal/ctxlog"
	"github.com/vk/discretego/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under paths and merges their domain,
// spatial_method and model blocks into one configuration. Equations are
// translated into expression trees on the way.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	models := make(map[string]string)

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, d := range root.Domains {
			dom, err := translateDomain(ctx, d)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Domains = append(model.Domains, dom)
		}
		for _, m := range root.Methods {
			model.Methods = append(model.Methods, &config.Method{Domain: m.Domain, Method: m.Method})
		}
		for _, m := range root.Models {
			if prev, ok := models[m.Name]; ok {
				return nil, fmt.Errorf("in %s: model '%s' already declared in %s", file, m.Name, prev)
			}
			models[m.Name] = file
			md, err := translateModel(ctx, m)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Models = append(model.Models, md)
		}
	}

	logger.Debug("HCL loading complete.", "domains", len(model.Domains), "methods", len(model.Methods), "models", len(model.Models))
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("model path %s does not exist", path)
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return allFiles, nil
}
