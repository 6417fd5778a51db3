// Package pages implements the pages of the stories application.
//
// Every page is a presenter that loads data through the story service or
// the auth model and draws itself on a Screen through an html/template
// view. Pages are built by page.Controller from the descriptors returned
// by Home, StoryDetail, AddStory, Map, Favorites, Settings and Login:
//
//	env := &pages.Env{Stories: svc, Auth: model, Owner: clientID, Screen: conn, Events: conn}
//	ctrl.ShowPage(ctx, pages.StoryDetail(env), "42")
//
// Interactive pages implement ActionHandler; the application shell routes
// client actions such as "open-story" or "submit" to the current page.
package pages
