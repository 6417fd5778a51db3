// Package auth decides whether a client may see protected pages.
//
// The Gate interface is all the page controller needs. Model is the
// concrete implementation: it keeps the bearer token issued by the story
// API in the client's storage, so a reconnecting tab stays signed in.
//
//	model := auth.NewModel(sess, client)
//	if _, err := model.Login(ctx, email, password); err != nil {
//	    // show the error in the form
//	}
//	model.IsAuthenticated() // true
package auth
