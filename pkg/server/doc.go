// Package server hosts the stories application for browsers.
//
// The browser loads a static document and a thin client script. The script
// opens a WebSocket and the server runs one application shell (package app)
// per connection. The shell owns routing, page state and rendering; the
// script only relays browser events and applies what the server sends.
//
// # Connection Lifecycle
//
// Each WebSocket connection:
//   - Opens the client's session, identified by a cookie set with the document
//   - Waits for a hello message carrying the hash fragment and capabilities
//   - Starts a task loop, the shell, and a write loop with heartbeat pings
//   - Relays client messages onto the task loop until the connection drops
//   - Shuts the shell down and saves the session
//
// # Wire Format
//
// Both directions carry JSON text messages.
//
// Server to client frames are {"type": ..., "data": ...}:
//
//	html              page markup for #app-container
//	style             {"opacity", "offsetY", "animate"} of the container
//	navigate          {"fragment", "replace"} hash update
//	transition-start  frames until transition-end form one view transition
//	transition-end
//	toast             notification (see package toast)
//	nav               {"authenticated", "user"} navigation state
//	theme             {"dark"}
//	map, map-release  map markers for a page container
//
// Client to server messages are flat objects with a "type" field: hello,
// hashchange, action, online, offline, sync, update-available, installed.
//
// # Endpoints
//
//	GET  /           application document
//	GET  /client.js  thin client (ETag cached)
//	GET  /ws         WebSocket
//	POST /uploads    photo upload, answers {"temp_id": ...}
//	GET  /static/*   public directory files, when configured
//	GET  /sw.js      service worker from the public directory
//	GET  /healthz    liveness
//	GET  /metrics    Prometheus metrics, when configured
package server
