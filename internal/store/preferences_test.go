package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferences_Favorites(t *testing.T) {
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			prefs := NewPreferences(s)

			favorites, err := prefs.Favorites(ctx)
			require.NoError(t, err)
			assert.Empty(t, favorites)

			added, err := prefs.AddFavorite(ctx, "Paris")
			require.NoError(t, err)
			assert.True(t, added)

			added, err = prefs.AddFavorite(ctx, "Tokyo")
			require.NoError(t, err)
			assert.True(t, added)

			added, err = prefs.AddFavorite(ctx, "Paris")
			require.NoError(t, err)
			assert.False(t, added, "duplicate favorites are not stored")

			favorites, err = prefs.Favorites(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Paris", "Tokyo"}, favorites)

			raw, _, err := s.Get(ctx, FavoritesKey)
			require.NoError(t, err)
			assert.JSONEq(t, `["Paris","Tokyo"]`, raw)

			require.NoError(t, prefs.RemoveFavorite(ctx, "Paris"))
			require.NoError(t, prefs.RemoveFavorite(ctx, "Berlin"))

			favorites, err = prefs.Favorites(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Tokyo"}, favorites)
		})
	}
}

func TestPreferences_UnreadableFavoritesAreEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, FavoritesKey, "null"))

	favorites, err := NewPreferences(s).Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	require.NoError(t, s.Set(ctx, FavoritesKey, "Paris"))
	favorites, err = NewPreferences(s).Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestPreferences_PlannerMode(t *testing.T) {
	ctx := context.Background()
	prefs := NewPreferences(NewMemoryStore())

	on, err := prefs.PlannerMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, prefs.SetPlannerMode(ctx, true))
	on, err = prefs.PlannerMode(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, prefs.SetPlannerMode(ctx, false))
	on, err = prefs.PlannerMode(ctx)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestPreferences_Theme(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	prefs := NewPreferences(s)

	theme, err := prefs.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	require.NoError(t, prefs.SetTheme(ctx, ThemeLight))
	theme, err = prefs.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	require.Error(t, prefs.SetTheme(ctx, "sepia"))

	require.NoError(t, s.Set(ctx, ThemeKey, "garbage"))
	theme, err = prefs.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)
}
