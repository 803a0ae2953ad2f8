package leaderboard

import "testing"

func TestRank_CompetitionRanking(t *testing.T) {
	entries := []Entry{
		{UserID: "u1", DisplayName: "Alice", TotalPoints: 10},
		{UserID: "u2", DisplayName: "Bob", TotalPoints: 10},
		{UserID: "u3", DisplayName: "Carol", TotalPoints: 7},
	}

	ranked := Rank(entries)

	wantRanks := []int{1, 1, 3}
	for i, want := range wantRanks {
		if ranked[i].Rank != want {
			t.Errorf("Rank[%d] = %d, want %d", i, ranked[i].Rank, want)
		}
	}
}

func TestRank_SortsByTotalDescending(t *testing.T) {
	entries := []Entry{
		{UserID: "u1", DisplayName: "Alice", TotalPoints: 3},
		{UserID: "u2", DisplayName: "Bob", TotalPoints: 12},
		{UserID: "u3", DisplayName: "Carol", TotalPoints: 8},
	}

	ranked := Rank(entries)

	wantOrder := []string{"u2", "u3", "u1"}
	for i, want := range wantOrder {
		if ranked[i].UserID != want {
			t.Errorf("Position %d = %s, want %s", i, ranked[i].UserID, want)
		}
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 || ranked[2].Rank != 3 {
		t.Errorf("Ranks %d %d %d, want 1 2 3", ranked[0].Rank, ranked[1].Rank, ranked[2].Rank)
	}
}

func TestRank_TieBreakAlphabetical(t *testing.T) {
	entries := []Entry{
		{UserID: "u1", DisplayName: "zoe", TotalPoints: 5},
		{UserID: "u2", DisplayName: "Amir", TotalPoints: 5},
	}

	ranked := Rank(entries)

	// Case-insensitive: "Amir" before "zoe" despite ASCII order.
	if ranked[0].DisplayName != "Amir" {
		t.Errorf("First entry %s, want Amir", ranked[0].DisplayName)
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 1 {
		t.Errorf("Tied totals got ranks %d, %d", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestRank_GapAfterLongTie(t *testing.T) {
	entries := []Entry{
		{DisplayName: "a", TotalPoints: 9},
		{DisplayName: "b", TotalPoints: 9},
		{DisplayName: "c", TotalPoints: 9},
		{DisplayName: "d", TotalPoints: 2},
	}

	ranked := Rank(entries)

	if ranked[3].Rank != 4 {
		t.Errorf("Entry after a three-way tie ranked %d, want 4", ranked[3].Rank)
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("Rank(nil) = %v", got)
	}
}
