package pages

import (
	"context"
	"html/template"
	"time"

	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/story"
	"github.com/storyapp/storyapp/pkg/toast"
)

// StoryDetail shows one story. The story ID is the page's first argument.
func StoryDetail(env *Env) page.Descriptor {
	return page.Descriptor{
		Name:         "story",
		RequiresAuth: true,
		New: func(nav page.Navigator, args ...string) page.Page {
			p := &detailPage{env: env, nav: nav, location: &storyMap{env: env, container: "story-map"}}
			if len(args) > 0 {
				p.id = args[0]
			}
			return p
		},
	}
}

type detailPage struct {
	env      *Env
	nav      page.Navigator
	id       string
	location *storyMap

	story    story.Story
	offline  bool
	favorite bool
	loaded   bool
}

type detailView struct {
	Story       story.Story
	Description template.HTML
	Date        string
	DateISO     string
	Favorite    bool
	Offline     bool
}

func (p *detailPage) Render(ctx context.Context) error {
	p.env.showLoading("Story", "Loading story...")
	return p.load(ctx)
}

func (p *detailPage) load(ctx context.Context) error {
	if p.id == "" {
		return p.env.showError("Story", story.ErrNotFound)
	}
	st, src, err := p.env.Stories.Get(ctx, p.env.Owner, p.env.Auth.Token(), p.id)
	if err != nil {
		return p.env.showError("Story", err)
	}
	fav, err := p.env.Stories.Store().IsFavorite(ctx, p.env.Owner, st.ID)
	if err != nil {
		p.env.logger().Warn("favorite lookup failed", "story_id", st.ID, "error", err)
	}

	p.story, p.offline, p.favorite, p.loaded = st, src == story.FromCache, fav, true
	if err := p.draw(); err != nil {
		return err
	}
	p.location.release()
	p.location.show([]story.Story{st})
	return nil
}

func (p *detailPage) draw() error {
	return p.env.render("detail", detailView{
		Story:       p.story,
		Description: p.env.markup().Render(p.story.Description),
		Date:        formatDate(p.story.CreatedAt),
		DateISO:     p.story.CreatedAt.Format(time.RFC3339),
		Favorite:    p.favorite,
		Offline:     p.offline,
	})
}

func (p *detailPage) HandleAction(ctx context.Context, a Action) error {
	switch a.Name {
	case "toggle-favorite":
		if !p.loaded {
			return nil
		}
		fav, err := p.env.Stories.ToggleFavorite(ctx, p.env.Owner, p.story)
		if err != nil {
			toast.Error(p.env.Events, "Could not update favorites.")
			return err
		}
		p.favorite = fav
		if fav {
			toast.Success(p.env.Events, "Added to favorites!")
		} else {
			toast.Info(p.env.Events, "Removed from favorites.")
		}
		return p.draw()
	case "retry":
		return p.load(ctx)
	case "back":
		p.nav.Navigate("/home")
		return nil
	}
	return ErrUnknownAction
}

func (p *detailPage) Destroy() {
	p.location.release()
}
