// Package session provides per-client key/value storage for the
// application shell.
//
// Each browser is identified by a client ID cookie. Values that a browser
// app would keep in localStorage (the auth token, the user's name, UI
// preferences) live in a Session and are persisted through a Store so that
// a reconnecting tab, or another tab of the same browser, sees them.
//
// # Stores
//
// MemoryStore is the default and suits single-process deployments.
// RedisStore shares client storage across processes:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := session.NewRedisStore(rdb, session.WithRedisPrefix("storyapp:client:"))
//	mgr := session.NewManager(store, session.WithTTL(30*24*time.Hour))
//
// # Usage
//
//	sess, err := mgr.Open(ctx, clientID)
//	sess.SetString("token", token)
//	err = mgr.Save(ctx, sess)
package session
