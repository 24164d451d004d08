// Package models defines the client-side view of the Would Watch domain.
//
// Every type here is a transient, non-authoritative copy of backend state:
//   - [Room] : a persistent group container, listed per user
//   - [VotingSession] : a bounded voting activity with an opaque status
//   - [Movie] : a candidate presented for a yes/no vote
//   - [Vote] : a (session, movie, direction) triple sent to the backend
//   - [Match] : a movie every participant voted yes on, as decided by the backend
//   - [Profile] and [UserSummary] : settings and social graph entries
//
// Response envelopes ([RoomList], [SearchResults], ...) mirror the JSON the backend returns.
// The gateway performs no shape validation, so their accessors treat missing lists as empty.
//
// [FollowLists] and [ReduceFollow] hold the only local list mutation in the client: after a
// follow or unfollow call succeeds, all locally held user lists are updated through one reducer.
package models
