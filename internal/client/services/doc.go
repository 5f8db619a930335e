// Package services holds the two client stores: the auth session
// (AuthService) and the cached user profile (ProfileService).
//
// Each store owns a mutex-guarded state and hands out copies through
// State(). Reads (Init, FetchProfile) are shared between concurrent
// callers. Mutations supersede: starting one cancels the previous call of
// the same kind, and the earlier call returns ErrSuperseded without
// touching state.
package services
