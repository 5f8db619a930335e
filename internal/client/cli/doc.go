// Package cli is the interactive MDRScore terminal client.
//
// It wires configuration, the credential store, the session transport and
// the two stores, then serves a REPL with one screen per flow: login,
// register (with a "check your email" state), welcome and the profile
// dashboard (view, edit, avatar, account settings, delete).
//
// Commands never print errors directly. They post to a notification slot
// that the REPL shows before the next prompt; a notification disappears
// after its TTL or once shown.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
