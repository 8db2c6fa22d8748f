// Package chat contains the Twitch IRC listener and the outbound dispatcher.
//
// It provides two entrypoints:
//   - Listener.Run: joins the configured channel read-only as a randomized
//     anonymous guest (justinfanNNNNN), watches for the trigger command,
//     pre-checks the cooldown gate, and feeds eligible usernames into the
//     pending queue. Liveness probes are answered on the same connection; any
//     read fault tears the connection down and the listener reconnects after a
//     fixed backoff, forever.
//   - Dispatcher.Send: best-effort one-shot delivery of a message into the
//     channel over an authenticated session. Failures are reported as a
//     boolean and never block or fail a grant.
//
// Credentials: only the dispatcher needs them, a bot username and an OAuth
// token with the chat:edit scope ("oauth:..."). The listener connects
// anonymously.
package chat
