package models

import (
	"encoding/json"
	"testing"
)

func TestMovie(t *testing.T) {
	t.Run("PosterURL", func(t *testing.T) {
		m := Movie{PosterPath: "/abc.jpg"}
		if m.PosterURL() != "https://image.tmdb.org/t/p/w500/abc.jpg" {
			t.Errorf("PosterURL() = %s", m.PosterURL())
		}
		if (Movie{}).PosterURL() != "" {
			t.Error("expected empty poster URL")
		}
	})

	t.Run("Year", func(t *testing.T) {
		tt := []struct {
			date string
			want string
		}{
			{"2010-07-16", "2010"},
			{"1999", "1999"},
			{"", ""},
		}
		for _, tc := range tt {
			if got := (Movie{ReleaseDate: tc.date}).Year(); got != tc.want {
				t.Errorf("Year(%q) = %q, want %q", tc.date, got, tc.want)
			}
		}
	})

	t.Run("Synopsis", func(t *testing.T) {
		if (Movie{}).Synopsis() != "No description available." {
			t.Error("expected placeholder synopsis")
		}
	})
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"yes": Yes, "Y": Yes, " no ": No, "n": No} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseDirection(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseDirection("maybe"); err == nil {
		t.Error("expected error for invalid direction")
	}
}

func TestEnvelopes(t *testing.T) {
	t.Run("missing list fields default to empty", func(t *testing.T) {
		var rooms RoomList
		if err := json.Unmarshal([]byte(`{}`), &rooms); err != nil {
			t.Fatal(err)
		}
		if rooms.Items() == nil || len(rooms.Items()) != 0 {
			t.Error("expected empty, non-nil rooms")
		}

		var nilResults *SearchResults
		if len(nilResults.Items()) != 0 {
			t.Error("nil envelope should yield empty results")
		}

		var matches *MatchList
		if matches.Items() == nil {
			t.Error("nil match list should yield empty slice")
		}
	})

	t.Run("create room body", func(t *testing.T) {
		data, err := json.Marshal(CreateRoomRequest{Name: "Movie Night"})
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `{"name":"Movie Night","is_public":false}` {
			t.Errorf("unexpected body %s", data)
		}
	})
}

func TestInvitePreference(t *testing.T) {
	p, err := ParseInvitePreference("")
	if err != nil || p != InviteEveryone {
		t.Errorf("empty preference should default to everyone, got %v %v", p, err)
	}
	if _, err := ParseInvitePreference("friends"); err == nil {
		t.Error("expected error for unknown preference")
	}
	if InviteFollowing.Label() != "People I Follow" {
		t.Errorf("Label() = %s", InviteFollowing.Label())
	}
	if (Profile{}).Normalized().InvitePreference != InviteEveryone {
		t.Error("Normalized() should default invite preference")
	}
}

func TestReduceFollow(t *testing.T) {
	alice := UserSummary{ID: "a", Email: "alice@example.com"}
	bob := UserSummary{ID: "b", Email: "bob@example.com", IsFollowing: true}

	t.Run("follow flips search flag and adds to following", func(t *testing.T) {
		lists := FollowLists{Search: []UserSummary{alice, bob}, Following: []UserSummary{bob}}

		next := ReduceFollow(lists, Followed, "a")

		if !next.Search[0].IsFollowing {
			t.Error("expected alice to be followed in search results")
		}
		if len(next.Following) != 2 || next.Following[1].ID != "a" {
			t.Errorf("expected alice appended to following, got %+v", next.Following)
		}
		if lists.Search[0].IsFollowing {
			t.Error("input lists must not be mutated")
		}
	})

	t.Run("unfollow removes from following", func(t *testing.T) {
		lists := FollowLists{Search: []UserSummary{bob}, Following: []UserSummary{bob}, Followers: []UserSummary{bob}}

		next := ReduceFollow(lists, Unfollowed, "b")

		if next.Search[0].IsFollowing {
			t.Error("expected bob to be unfollowed in search results")
		}
		if len(next.Following) != 0 {
			t.Errorf("expected empty following, got %+v", next.Following)
		}
		if len(next.Followers) != 1 {
			t.Error("followers must not change")
		}
	})

	t.Run("follow is idempotent", func(t *testing.T) {
		lists := FollowLists{Search: []UserSummary{bob}, Following: []UserSummary{bob}}

		next := ReduceFollow(lists, Followed, "b")

		if len(next.Following) != 1 {
			t.Errorf("expected single following entry, got %d", len(next.Following))
		}
	})
}
