package pages

import (
	"context"

	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/story"
)

// Map shows every located story on a full-page map. The client map is
// released when the page is destroyed.
func Map(env *Env) page.Descriptor {
	return page.Descriptor{
		Name:         "map",
		RequiresAuth: true,
		New: func(nav page.Navigator, args ...string) page.Page {
			return &mapPage{env: env, nav: nav, stories: &storyMap{env: env, container: "full-map"}}
		},
	}
}

type mapPage struct {
	env     *Env
	nav     page.Navigator
	stories *storyMap
}

type mapView struct {
	Total   int
	Located int
	Offline bool
}

func (p *mapPage) Render(ctx context.Context) error {
	p.env.showLoading("Stories Map", "Loading map...")
	return p.load(ctx)
}

func (p *mapPage) load(ctx context.Context) error {
	list, src, err := p.env.Stories.List(ctx, p.env.Owner, p.env.Auth.Token(), story.DefaultListOptions)
	if err != nil {
		return p.env.showError("Stories Map", err)
	}
	located := 0
	for _, s := range list {
		if s.HasLocation() {
			located++
		}
	}
	if err := p.env.render("map", mapView{Total: len(list), Located: located, Offline: src == story.FromCache}); err != nil {
		return err
	}
	p.stories.release()
	p.stories.show(list)
	return nil
}

func (p *mapPage) HandleAction(ctx context.Context, a Action) error {
	switch a.Name {
	case "open-story":
		return openStory(p.nav, a)
	case "retry":
		return p.load(ctx)
	}
	return ErrUnknownAction
}

func (p *mapPage) Destroy() {
	p.stories.release()
}
