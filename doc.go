// Package session keeps the console session of a signed in user: the
// bearer token, the user profile and the organization context chat and
// insights requests run in.
//
// Session store:
//   - Store is the single source of truth for token, profile and context.
//     Every mutation is written through to a DurableStore before memory
//     changes, so a failed write leaves the session as it was. Hydrate
//     restores a session after a restart, tolerating missing or malformed
//     values.
//   - The personal scope (org 0, collection 1) is the context of signed out
//     users and the fallback whenever an org stops being available.
//   - LogoutPolicy decides whether logout purges the whole durable store or
//     only the session keys.
//
// Route guard:
//   - RouteGuard evaluates navigations against a RouteTable. Protected
//     routes redirect unauthenticated users to login, admin routes answer
//     forbidden to everyone but platform admins.
//
// Commands:
//   - LoginHandler, LogoutHandler, SwitchContextHandler and
//     RegisterUserHandler run the session flows against the console API and
//     report to an ActivitySink. Sinks run best effort, errors are logged.
//   - ExpireOnUnauthorized tears a session down when the API rejects its
//     token.
package session
