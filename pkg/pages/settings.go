package pages

import (
	"context"

	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/toast"
)

// Settings holds the client's preferences and offline data controls.
func Settings(env *Env) page.Descriptor {
	return page.Descriptor{
		Name:         "settings",
		RequiresAuth: true,
		New: func(nav page.Navigator, args ...string) page.Page {
			return &settingsPage{env: env}
		},
	}
}

type settingsPage struct {
	env *Env
}

type settingsView struct {
	DarkMode      bool
	Notifications bool
	Cached        int
	Pending       int
}

// Theme is the payload of the theme frame.
type Theme struct {
	Dark bool `json:"dark"`
}

func (p *settingsPage) Render(ctx context.Context) error {
	store := p.env.Stories.Store()
	cached, err := store.CachedStories(ctx, p.env.Owner)
	if err != nil {
		return p.env.showError("Settings", err)
	}
	pending, err := store.Pending(ctx, p.env.Owner)
	if err != nil {
		return p.env.showError("Settings", err)
	}
	return p.env.render("settings", settingsView{
		DarkMode:      p.env.pref(PrefDarkMode),
		Notifications: p.env.pref(PrefNotifications),
		Cached:        len(cached),
		Pending:       len(pending),
	})
}

func (p *settingsPage) HandleAction(ctx context.Context, a Action) error {
	switch a.Name {
	case "toggle-dark-mode":
		dark := !p.env.pref(PrefDarkMode)
		if err := p.setPref(PrefDarkMode, dark); err != nil {
			return err
		}
		p.env.emit(FrameTheme, Theme{Dark: dark})
		return p.Render(ctx)
	case "toggle-notifications":
		on := !p.env.pref(PrefNotifications)
		if err := p.setPref(PrefNotifications, on); err != nil {
			return err
		}
		if on {
			toast.Success(p.env.Events, "Notifications enabled.")
		} else {
			toast.Info(p.env.Events, "Notifications disabled.")
		}
		return p.Render(ctx)
	case "clear-data":
		if err := p.env.Stories.Store().Clear(ctx, p.env.Owner); err != nil {
			toast.Error(p.env.Events, "Could not clear offline data.")
			return err
		}
		toast.Success(p.env.Events, "Offline data cleared.")
		return p.Render(ctx)
	case "retry":
		return p.Render(ctx)
	}
	return ErrUnknownAction
}

func (p *settingsPage) setPref(key string, v bool) error {
	if p.env.Prefs == nil {
		return nil
	}
	return p.env.Prefs.Set(key, v)
}
