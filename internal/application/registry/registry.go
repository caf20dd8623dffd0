// Package registry reports which models the generation service has installed.
package registry

import (
	"context"

	"github.com/doeshing/typecopilot/internal/ports"
)

// Registry lists models for the model picker. It never fails: any error is
// logged and reported as an empty list so the picker simply shows nothing.
type Registry struct {
	Lister ports.ModelLister
	Logger ports.Logger
}

// New builds a registry on top of lister.
func New(lister ports.ModelLister, logger ports.Logger) *Registry {
	return &Registry{Lister: lister, Logger: logger}
}

// ListModels returns installed model names in service order, or an empty slice.
func (r *Registry) ListModels(ctx context.Context) []string {
	if r == nil || r.Lister == nil {
		return []string{}
	}
	names, err := r.Lister.ListModels(ctx)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Error("Error listing models", err, nil)
		}
		return []string{}
	}
	if names == nil {
		return []string{}
	}
	return names
}

// NextAfter returns the model following current in models, wrapping around.
// When current is not installed the first model is returned; an empty list
// yields "".
func NextAfter(models []string, current string) string {
	if len(models) == 0 {
		return ""
	}
	for i, name := range models {
		if name == current {
			return models[(i+1)%len(models)]
		}
	}
	return models[0]
}
