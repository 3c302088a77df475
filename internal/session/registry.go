// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"fmt"

	"github.com/ManuGH/kiosk/internal/config"
)

// View is a rendering surface bound to one configured site.
type View struct {
	ID     string      `json:"id"`
	Site   config.Site `json:"site"`
	Hidden bool        `json:"hidden"`
}

// Rotating reports whether the view takes part in automatic rotation.
func (v View) Rotating() bool { return !v.Hidden && v.Site.Duration > 0 }

// Registry holds the normal and hidden view sets, both in configuration order.
type Registry struct {
	normal       []View
	hidden       []View
	normalBySite map[int]int
	byID         map[string]View
}

// NewRegistry classifies sites into normal (duration >= 0) and hidden (duration -1) views.
func NewRegistry(sites []config.Site) (*Registry, error) {
	r := &Registry{
		normalBySite: make(map[int]int, len(sites)),
		byID:         make(map[string]View, len(sites)),
	}
	for _, s := range sites {
		v := View{ID: fmt.Sprintf("site-%d", s.Index), Site: s}
		if s.Kind() == config.SiteHidden {
			v.Hidden = true
			r.hidden = append(r.hidden, v)
		} else {
			r.normalBySite[s.Index] = len(r.normal)
			r.normal = append(r.normal, v)
		}
		r.byID[v.ID] = v
	}
	if len(r.normal) == 0 {
		return nil, ErrNoViews
	}
	return r, nil
}

func (r *Registry) NormalCount() int { return len(r.normal) }
func (r *Registry) HiddenCount() int { return len(r.hidden) }

// Normal returns the normal view at i.
func (r *Registry) Normal(i int) View { return r.normal[i] }

// Hidden returns the hidden view at i.
func (r *Registry) Hidden(i int) View { return r.hidden[i] }

// NormalIndexOfSite maps a configured site index to its normal view index.
func (r *Registry) NormalIndexOfSite(site int) (int, bool) {
	i, ok := r.normalBySite[site]
	return i, ok
}

// ByID looks a view up by its identifier.
func (r *Registry) ByID(id string) (View, bool) {
	v, ok := r.byID[id]
	return v, ok
}

// NextRotating searches forward circularly from the view after from for a
// rotating view. It never returns from itself; false means no other view rotates.
func (r *Registry) NextRotating(from int) (int, bool) {
	n := len(r.normal)
	for step := 1; step < n; step++ {
		i := (from + step) % n
		if r.normal[i].Rotating() {
			return i, true
		}
	}
	return from, false
}
