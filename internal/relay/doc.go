// Package relay moves encoded messages through a one-time message store.
//
// Client speaks to a remote store over HTTP with retries and jittered
// backoff; Handler serves the same protocol over a local store so the two
// can be paired:
//
//	h := relay.NewHandler(store, logger)
//	http.ListenAndServe(":8080", h)
//
//	c, _ := relay.New("http://localhost:8080")
//	id, _ := c.Send(ctx, text)
//	text, _ = c.Receive(ctx, id)
//
// A message can be received once. Unknown, expired and consumed ids all
// surface as ErrNotFound.
package relay
