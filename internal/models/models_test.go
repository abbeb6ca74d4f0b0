package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func testSnapshotDocument() *SnapshotDocument {
	return &SnapshotDocument{
		SnapshotDate: "2026-08-27T12:00:00Z",
		Profile: Profile{
			XUID:       "2533274810000000",
			Gamertag:   "MajorNelson",
			Gamerscore: 12345,
		},
		Statistics: Statistics{
			TotalGames:        3,
			TotalHours:        92.1,
			TotalAchievements: 10,
		},
		Games: []Title{
			{ID: "100", Name: "Forza Horizon 4", HoursPlayed: 90, LastPlayed: "2020-06-10T12:00:00Z", ProgressPercent: 50},
			{ID: "200", Name: "Celeste", HoursPlayed: 2.1, LastPlayed: "2018-03-01T09:00:00Z", ProgressPercent: 100},
			{ID: "300", Name: "Unplayed Demo", ProgressPercent: 0},
		},
		Achievements: []Achievement{
			{ID: "a1", Name: "Goliath Winner", TimeUnlocked: "2020-06-01T10:00:00Z", RarityPercent: 2.5},
			{ID: "a2", Name: "First Steps", TimeUnlocked: "2018-03-01T09:00:00Z", RarityPercent: 80},
			{ID: "a3", Name: "Broken Rarity", TimeUnlocked: "2018-03-02T09:00:00Z", RarityPercent: 0},
			{ID: "a4", Name: "Locked", TimeUnlocked: "", RarityPercent: 1},
		},
	}
}

func TestSnapshotDocument(t *testing.T) {
	t.Run("TopGames orders by hours played", func(t *testing.T) {
		doc := testSnapshotDocument()

		top := doc.TopGames(2)
		if len(top) != 2 {
			t.Fatalf("expected 2 games, got %d", len(top))
		}
		if top[0].Name != "Forza Horizon 4" || top[1].Name != "Celeste" {
			t.Errorf("unexpected order: %s, %s", top[0].Name, top[1].Name)
		}

		// The document's own slice stays untouched.
		if doc.Games[0].Name != "Forza Horizon 4" || doc.Games[2].Name != "Unplayed Demo" {
			t.Error("expected the source slice to keep its order")
		}
	})

	t.Run("TopGames with zero n returns everything", func(t *testing.T) {
		doc := testSnapshotDocument()

		if got := len(doc.TopGames(0)); got != 3 {
			t.Errorf("expected all 3 games, got %d", got)
		}
	})

	t.Run("RarestUnlocked filters and sorts", func(t *testing.T) {
		doc := testSnapshotDocument()

		rarest := doc.RarestUnlocked(10, 0.01, 100)
		if len(rarest) != 2 {
			t.Fatalf("expected 2 achievements, got %d", len(rarest))
		}
		if rarest[0].ID != "a1" || rarest[1].ID != "a2" {
			t.Errorf("unexpected order: %s, %s", rarest[0].ID, rarest[1].ID)
		}
	})

	t.Run("RarestUnlocked excludes zero rarity and locked", func(t *testing.T) {
		doc := testSnapshotDocument()

		for _, a := range doc.RarestUnlocked(10, 0.01, 100) {
			if a.ID == "a3" {
				t.Error("expected zero-rarity achievement to be excluded")
			}
			if a.ID == "a4" {
				t.Error("expected locked achievement to be excluded")
			}
		}
	})

	t.Run("CompletedGames returns only finished titles", func(t *testing.T) {
		doc := testSnapshotDocument()

		done := doc.CompletedGames(10)
		if len(done) != 1 || done[0].Name != "Celeste" {
			t.Errorf("unexpected completed games: %v", done)
		}
	})

	t.Run("JSON round trip preserves the document", func(t *testing.T) {
		doc := testSnapshotDocument()
		doc.ByYear = map[string]YearStats{"2020": {Games: 1, Hours: 90}}
		doc.AchievementsByMonth = map[string]int{"2020-06": 1}
		doc.Warnings = []string{"playtime unavailable"}

		data, err := json.Marshal(doc)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var restored SnapshotDocument
		if err := json.Unmarshal(data, &restored); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if !reflect.DeepEqual(doc, &restored) {
			t.Error("expected the restored document to equal the original")
		}
	})
}

func TestTitleCompleted(t *testing.T) {
	if (Title{ProgressPercent: 99.9}).Completed() {
		t.Error("expected 99.9% to be incomplete")
	}
	if !(Title{ProgressPercent: 100}).Completed() {
		t.Error("expected 100% to be complete")
	}
}

func TestSnapshotRecord(t *testing.T) {
	t.Run("NewSnapshotRecord copies headline numbers", func(t *testing.T) {
		doc := testSnapshotDocument()
		doc.Warnings = []string{"one", "two"}

		record := NewSnapshotRecord(7, doc, "output/snap.json", "output/latest.json")

		if record.Gamertag() != "MajorNelson" {
			t.Errorf("unexpected gamertag %q", record.Gamertag())
		}
		if record.Sequence() != 7 {
			t.Errorf("unexpected sequence %d", record.Sequence())
		}
		if record.Gamerscore() != 12345 {
			t.Errorf("unexpected gamerscore %d", record.Gamerscore())
		}
		if record.WarningCount() != 2 {
			t.Errorf("unexpected warning count %d", record.WarningCount())
		}
		if record.Stats().TotalHours != 92.1 {
			t.Errorf("unexpected hours %v", record.Stats().TotalHours)
		}
		if record.CreatedAt().IsZero() || record.UpdatedAt().IsZero() {
			t.Error("expected timestamps to be set")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		doc := testSnapshotDocument()

		if err := NewSnapshotRecord(0, doc, "output/snap.json", "").Validate(); err != nil {
			t.Errorf("expected valid record, got %v", err)
		}

		doc.Profile.Gamertag = ""
		if err := NewSnapshotRecord(0, doc, "output/snap.json", "").Validate(); err == nil {
			t.Error("expected error for missing gamertag")
		}

		doc.Profile.Gamertag = "MajorNelson"
		if err := NewSnapshotRecord(0, doc, "", "").Validate(); err == nil {
			t.Error("expected error for missing snapshot path")
		}
	})
}
