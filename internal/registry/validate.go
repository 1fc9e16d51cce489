package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/discretego/internal/config"
	"github.com/vk/discretego/internal/ctxlog"
)

// ValidateRegistry checks that every method referenced by cfg is registered
// and that no domain is assigned two methods. All problems are reported
// together.
func (r *Registry) ValidateRegistry(ctx context.Context, cfg *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	seen := make(map[string]string)
	for _, m := range cfg.Methods {
		if !r.Has(m.Method) {
			errs = append(errs, fmt.Sprintf("domain '%s': unknown spatial method '%s' (registered: %s)", m.Domain, m.Method, strings.Join(r.Names(), ", ")))
		}
		if prev, ok := seen[m.Domain]; ok && prev != m.Method {
			errs = append(errs, fmt.Sprintf("domain '%s': assigned both '%s' and '%s'", m.Domain, prev, m.Method))
		}
		seen[m.Domain] = m.Method
	}
	if len(cfg.Methods) == 0 && len(cfg.Models) > 0 {
		logger.Warn("Configuration declares models but no spatial methods.")
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", "methods", len(cfg.Methods))
	return nil
}
