// Package voting models the sequential swipe flow of a voting session.
//
// [Machine] is a pure state machine: it performs no I/O and never reads the clock. Callers start
// an operation (a search or a vote), perform the network call themselves, and report the outcome
// back together with the token they were given. Search results carrying a stale generation are
// ignored. At most one vote is in flight: it holds the busy flag until its outcome arrives, even
// across a new search, and a vote cast against a queue that was since replaced still raises its
// match flash but no longer moves the position.
//
// States:
//
//	IDLE ──search──▶ SEARCHING ──results──▶ VOTING ──vote…──▶ EXHAUSTED
//	                     │                     ▲                  │
//	                     └──empty results──────┼──────────────────┘
//	                                           └────── search ────┘
//
// A match reported by the backend raises a flash that is orthogonal to the state above. Each
// flash has its own occurrence id; clearing an old id never hides a newer flash.
//
// [Controller] drives a Machine against the backend for callers that are not event loops.
package voting
