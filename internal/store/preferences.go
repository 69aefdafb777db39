package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

const (
	FavoritesKey   = "novaPulseFavorites"
	PlannerModeKey = "plannerMode"
	ThemeKey       = "theme"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Preferences stores favorites, planner mode and theme using the same keys
// and encodings as the web frontend.
type Preferences struct {
	store Store
}

func NewPreferences(s Store) *Preferences {
	return &Preferences{store: s}
}

// Favorites returns the saved cities in insertion order. A missing or
// unreadable value yields an empty list.
func (p *Preferences) Favorites(ctx context.Context) ([]string, error) {
	raw, ok, err := p.store.Get(ctx, FavoritesKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []string{}, nil
	}

	var favorites []string
	if err := json.Unmarshal([]byte(raw), &favorites); err != nil || favorites == nil {
		return []string{}, nil
	}
	return favorites, nil
}

// AddFavorite appends city unless it is already saved. It reports whether the
// list changed.
func (p *Preferences) AddFavorite(ctx context.Context, city string) (bool, error) {
	favorites, err := p.Favorites(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(favorites, city) {
		return false, nil
	}
	return true, p.saveFavorites(ctx, append(favorites, city))
}

// RemoveFavorite deletes every exact match of city.
func (p *Preferences) RemoveFavorite(ctx context.Context, city string) error {
	favorites, err := p.Favorites(ctx)
	if err != nil {
		return err
	}
	favorites = slices.DeleteFunc(favorites, func(c string) bool { return c == city })
	return p.saveFavorites(ctx, favorites)
}

func (p *Preferences) saveFavorites(ctx context.Context, favorites []string) error {
	data, err := json.Marshal(favorites)
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	return p.store.Set(ctx, FavoritesKey, string(data))
}

func (p *Preferences) PlannerMode(ctx context.Context) (bool, error) {
	raw, _, err := p.store.Get(ctx, PlannerModeKey)
	if err != nil {
		return false, err
	}
	return raw == "true", nil
}

func (p *Preferences) SetPlannerMode(ctx context.Context, on bool) error {
	return p.store.Set(ctx, PlannerModeKey, strconv.FormatBool(on))
}

// Theme is dark unless light was explicitly chosen.
func (p *Preferences) Theme(ctx context.Context) (Theme, error) {
	raw, _, err := p.store.Get(ctx, ThemeKey)
	if err != nil {
		return ThemeDark, err
	}
	if Theme(raw) == ThemeLight {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

func (p *Preferences) SetTheme(ctx context.Context, theme Theme) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return p.store.Set(ctx, ThemeKey, string(theme))
}
