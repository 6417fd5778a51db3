package pages

import (
	"context"
	"fmt"
	"net/url"

	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/story"
)

// Home lists the latest stories with a map of their locations.
func Home(env *Env) page.Descriptor {
	return page.Descriptor{
		Name:         "home",
		RequiresAuth: true,
		New: func(nav page.Navigator, args ...string) page.Page {
			return &homePage{env: env, nav: nav, stories: &storyMap{env: env, container: "stories-map"}}
		},
	}
}

type homePage struct {
	env     *Env
	nav     page.Navigator
	stories *storyMap
}

type homeView struct {
	Cards   []storyCard
	Offline bool
}

func (p *homePage) Render(ctx context.Context) error {
	p.env.showLoading("Latest Stories", "Loading stories...")
	return p.load(ctx)
}

func (p *homePage) load(ctx context.Context) error {
	list, src, err := p.env.Stories.List(ctx, p.env.Owner, p.env.Auth.Token(), story.DefaultListOptions)
	if err != nil {
		return p.env.showError("Latest Stories", err)
	}
	if err := p.env.render("home", homeView{Cards: p.env.cards(list), Offline: src == story.FromCache}); err != nil {
		return err
	}
	p.stories.release()
	p.stories.show(list)
	return nil
}

func (p *homePage) HandleAction(ctx context.Context, a Action) error {
	switch a.Name {
	case "open-story":
		return openStory(p.nav, a)
	case "retry":
		return p.load(ctx)
	}
	return ErrUnknownAction
}

func (p *homePage) Destroy() {
	p.stories.release()
}

// openStory navigates to the story named by the action's "id" value.
func openStory(nav page.Navigator, a Action) error {
	id := a.Value("id")
	if id == "" {
		return fmt.Errorf("pages: %s without id", a.Name)
	}
	nav.Navigate("/story/" + url.PathEscape(id))
	return nil
}
