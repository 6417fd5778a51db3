package pages

import (
	"context"
	"fmt"

	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/toast"
)

// Favorites lists the stories saved in the offline store.
func Favorites(env *Env) page.Descriptor {
	return page.Descriptor{
		Name:         "favorites",
		RequiresAuth: true,
		New: func(nav page.Navigator, args ...string) page.Page {
			return &favoritesPage{env: env, nav: nav}
		},
	}
}

type favoritesPage struct {
	env *Env
	nav page.Navigator
}

type favoritesView struct {
	Cards []storyCard
}

func (p *favoritesPage) Render(ctx context.Context) error {
	favs, err := p.env.Stories.Store().Favorites(ctx, p.env.Owner)
	if err != nil {
		return p.env.showError("Favorite Stories", err)
	}
	return p.env.render("favorites", favoritesView{Cards: p.env.cards(favs)})
}

func (p *favoritesPage) HandleAction(ctx context.Context, a Action) error {
	switch a.Name {
	case "open-story":
		return openStory(p.nav, a)
	case "remove-favorite":
		id := a.Value("id")
		if id == "" {
			return fmt.Errorf("pages: %s without id", a.Name)
		}
		if err := p.env.Stories.Store().RemoveFavorite(ctx, p.env.Owner, id); err != nil {
			toast.Error(p.env.Events, "Could not update favorites.")
			return err
		}
		toast.Info(p.env.Events, "Removed from favorites.")
		return p.Render(ctx)
	case "retry":
		return p.Render(ctx)
	}
	return ErrUnknownAction
}
