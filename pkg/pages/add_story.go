package pages

import (
	"context"
	"errors"
	"strconv"

	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/story"
	"github.com/storyapp/storyapp/pkg/toast"
	"github.com/storyapp/storyapp/pkg/upload"
)

// AddStory is the submission form. Photos arrive through the upload
// endpoint; the form carries their temp ID in the "photo" value.
func AddStory(env *Env) page.Descriptor {
	return page.Descriptor{
		Name:         "add-story",
		RequiresAuth: true,
		New: func(nav page.Navigator, args ...string) page.Page {
			return &addStoryPage{env: env, nav: nav}
		},
	}
}

type addStoryPage struct {
	env *Env
	nav page.Navigator
}

type addStoryView struct {
	Error       string
	Description string
	Lat         string
	Lon         string
}

func (p *addStoryPage) Render(ctx context.Context) error {
	return p.env.render("add-story", addStoryView{})
}

func (p *addStoryPage) HandleAction(ctx context.Context, a Action) error {
	switch a.Name {
	case "submit":
		return p.submit(ctx, a)
	case "cancel":
		p.nav.Navigate("/home")
		return nil
	}
	return ErrUnknownAction
}

func (p *addStoryPage) submit(ctx context.Context, a Action) error {
	form := addStoryView{
		Description: a.Value("description"),
		Lat:         a.Value("lat"),
		Lon:         a.Value("lon"),
	}

	n, err := p.newStory(ctx, form, a.Value("photo"))
	if err != nil {
		return p.reject(form, err)
	}

	res, err := p.env.Stories.Submit(ctx, p.env.Owner, p.env.Auth.Token(), n)
	if err != nil {
		return p.reject(form, err)
	}
	if res.Queued {
		toast.Warning(p.env.Events, "You're offline. Your story was saved and will be posted when you're back online.")
	} else {
		toast.Success(p.env.Events, "Story added successfully!")
	}
	p.nav.Navigate("/home")
	return nil
}

// newStory validates the text fields before claiming the photo, so a
// rejected form keeps its upload.
func (p *addStoryPage) newStory(ctx context.Context, form addStoryView, photoID string) (story.NewStory, error) {
	n := story.NewStory{Description: form.Description}
	if n.Description == "" {
		return n, story.ErrEmptyDescription
	}
	lat, lon, err := parseCoordinates(form.Lat, form.Lon)
	if err != nil {
		return n, err
	}
	n.Lat, n.Lon = lat, lon
	if photoID == "" || p.env.Photos == nil {
		return n, story.ErrMissingPhoto
	}

	f, err := p.env.Photos.Claim(ctx, photoID)
	if err != nil {
		return n, err
	}
	data, err := f.ReadAll()
	if err != nil {
		return n, err
	}
	n.Photo, n.PhotoName, n.ContentType = data, f.Filename, f.ContentType
	return n, nil
}

func (p *addStoryPage) reject(form addStoryView, err error) error {
	form.Error = errorMessage(err)
	toast.Error(p.env.Events, form.Error)
	if rerr := p.env.render("add-story", form); rerr != nil {
		return rerr
	}
	if isUserError(err) {
		return nil
	}
	return err
}

func parseCoordinates(latText, lonText string) (*float64, *float64, error) {
	if latText == "" && lonText == "" {
		return nil, nil, nil
	}
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return nil, nil, story.ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil || !story.ValidCoordinates(lat, lon) {
		return nil, nil, story.ErrInvalidCoordinates
	}
	return &lat, &lon, nil
}

func isUserError(err error) bool {
	return errors.Is(err, story.ErrEmptyDescription) ||
		errors.Is(err, story.ErrMissingPhoto) ||
		errors.Is(err, story.ErrPhotoTooLarge) ||
		errors.Is(err, story.ErrInvalidCoordinates) ||
		errors.Is(err, upload.ErrNotFound)
}
