// Package story is the data layer of the stories application: the remote
// story API client, the per-client offline store (cached stories,
// favorites and the queue of submissions made while offline) and the
// service that combines them.
//
// Stores come in three flavours that share the Store contract and its
// tests: MemoryStore, RedisStore (go-redis) and PostgresStore (pgx).
package story
