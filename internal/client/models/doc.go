// Package models holds the client-side projections of backend records:
// the authenticated Identity, the user Profile and the request payloads
// sent to the account endpoints.
package models
