package pages

import (
	"context"
	"errors"

	"github.com/storyapp/storyapp/pkg/auth"
	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/toast"
)

// Login is the login form, or the registration form when register is set.
// Both are open to unauthenticated clients.
func Login(env *Env, register bool) page.Descriptor {
	name := "login"
	if register {
		name = "register"
	}
	return page.Descriptor{
		Name: name,
		New: func(nav page.Navigator, args ...string) page.Page {
			return &loginPage{env: env, nav: nav, register: register}
		},
	}
}

type loginPage struct {
	env      *Env
	nav      page.Navigator
	register bool
}

type loginView struct {
	Register bool
	Error    string
	Name     string
	Email    string
}

func (p *loginPage) Render(ctx context.Context) error {
	return p.env.render("login", loginView{Register: p.register})
}

func (p *loginPage) HandleAction(ctx context.Context, a Action) error {
	switch a.Name {
	case "login":
		return p.login(ctx, a)
	case "register":
		return p.signUp(ctx, a)
	}
	return ErrUnknownAction
}

func (p *loginPage) login(ctx context.Context, a Action) error {
	email := a.Value("email")
	if _, err := p.env.Auth.Login(ctx, email, a.Values["password"]); err != nil {
		return p.reject(loginView{Email: email}, err)
	}
	toast.Success(p.env.Events, "Login successful!")
	p.env.authChanged()
	p.nav.Navigate("/home")
	return nil
}

func (p *loginPage) signUp(ctx context.Context, a Action) error {
	name, email := a.Value("name"), a.Value("email")
	if err := p.env.Auth.Register(ctx, name, email, a.Values["password"]); err != nil {
		return p.reject(loginView{Register: true, Name: name, Email: email}, err)
	}
	toast.Success(p.env.Events, "Registration successful! Please login.")
	p.nav.Navigate("/login")
	return nil
}

func (p *loginPage) reject(view loginView, err error) error {
	view.Error = errorMessage(err)
	if errors.Is(err, auth.ErrUnauthorized) && view.Error == errorMessage(auth.ErrUnauthorized) {
		view.Error = "Invalid email or password."
	}
	toast.Error(p.env.Events, view.Error)
	if rerr := p.env.render("login", view); rerr != nil {
		return rerr
	}
	if errors.Is(err, auth.ErrMissingCredentials) || errors.Is(err, auth.ErrPasswordTooShort) {
		return nil
	}
	return err
}
