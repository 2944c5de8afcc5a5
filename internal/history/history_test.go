package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pra-ai-team/marketing-agent/internal/serp"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "rank-history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleAnalysis(executedAt time.Time) *serp.Analysis {
	return &serp.Analysis{
		ExecutedAt:    executedAt,
		Location:      "神奈川県横浜市",
		TotalKeywords: 2,
		SuccessCount:  2,
		Keywords: []serp.KeywordInsight{
			{Keyword: "葬儀 横浜", OwnRank: 0, TopSites: []serp.SiteInfo{{Domain: "sogi.jp"}}},
			{Keyword: "家族葬 神奈川", OwnRank: 5},
		},
	}
}

func TestRecordAndReadBack(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.RecordAnalysis(sampleAnalysis(time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("RecordAnalysis failed: %v", err)
	}
	if runID == 0 {
		t.Fatal("expected a run ID")
	}

	runs, err := db.Runs(10)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 1 || runs[0].KeywordCount != 2 || runs[0].Location != "神奈川県横浜市" {
		t.Errorf("unexpected runs: %+v", runs)
	}

	ranks, err := db.RanksForRun(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranks) != 2 {
		t.Fatalf("expected 2 rank rows, got %d", len(ranks))
	}
	if ranks[0].Keyword != "葬儀 横浜" || ranks[0].Rank != 0 || ranks[0].TopDomain != "sogi.jp" {
		t.Errorf("unexpected first rank row: %+v", ranks[0])
	}
}

func TestKeywordHistoryNewestFirst(t *testing.T) {
	db := openTestDB(t)

	first := sampleAnalysis(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	second := sampleAnalysis(time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))
	second.Keywords[1].OwnRank = 3

	if _, err := db.RecordAnalysis(first); err != nil {
		t.Fatal(err)
	}
	if _, err := db.RecordAnalysis(second); err != nil {
		t.Fatal(err)
	}

	entries, err := db.KeywordHistory("家族葬 神奈川", 10)
	if err != nil {
		t.Fatalf("KeywordHistory failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Rank != 3 || entries[1].Rank != 5 {
		t.Errorf("expected newest first (3 then 5), got %+v", entries)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rank-history.db")

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.RecordAnalysis(sampleAnalysis(time.Now())); err != nil {
		t.Fatal(err)
	}
	db.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopening migrated database: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.Runs(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("data should survive reopen, got %d runs", len(runs))
	}
}
