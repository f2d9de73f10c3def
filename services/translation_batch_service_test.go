// services/translation_batch_service_test.go
package services

import (
	"strings"
	"testing"
	"time"

	"meepleon-backend/models"
	"meepleon-backend/repositories"
	"meepleon-backend/utils"
)

// fakeTranslator echoes input with a marker and counts calls.
type fakeTranslator struct {
	calls     int
	available bool
	nameErr   error
}

func (f *fakeTranslator) Translate(text string) (*TranslateResult, error) {
	f.calls++
	if f.nameErr != nil {
		return nil, f.nameErr
	}
	return &TranslateResult{
		TranslatedText:     "KO:" + text,
		DetectedSourceLang: "en",
		CharacterCount:     len([]rune(text)),
	}, nil
}

func (f *fakeTranslator) TranslateLong(text string) (*TranslateResult, error) {
	f.calls++
	return &TranslateResult{
		TranslatedText:     "KO:" + text,
		DetectedSourceLang: "en",
		CharacterCount:     len([]rune(text)),
	}, nil
}

func (f *fakeTranslator) Available() bool { return f.available }

func strP(s string) *string { return &s }

func newBatchFixture(t *testing.T) (*TranslationBatchService, *repositories.GameRepository, *fakeTranslator) {
	t.Helper()
	repo := repositories.NewGameRepository(setupServiceDB(t))
	translator := &fakeTranslator{available: true}
	svc := NewTranslationBatchService(repo, translator)
	svc.delay = 0
	return svc, repo, translator
}

func TestTranslateOne(t *testing.T) {
	svc, repo, translator := newBatchFixture(t)

	game, _ := repo.Upsert(&models.BggGameData{
		BggID:       266192,
		NameEn:      "Wingspan",
		Description: strP("You are bird enthusiasts."),
	})

	result, err := svc.TranslateOne(game.ID)
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if result.Skipped {
		t.Fatal("fresh game must not be skipped")
	}
	if translator.calls != 2 {
		t.Errorf("expected name + description calls, got %d", translator.calls)
	}

	wantChars := len([]rune("Wingspan")) + len([]rune("You are bird enthusiasts."))
	if result.Characters != wantChars {
		t.Errorf("expected %d characters, got %d", wantChars, result.Characters)
	}

	refreshed, _ := repo.FindByID(game.ID)
	if refreshed.NameKo == nil || !strings.HasPrefix(*refreshed.NameKo, "KO:") {
		t.Error("name_ko not written")
	}
	if refreshed.DescriptionKo == nil || !strings.HasPrefix(*refreshed.DescriptionKo, "KO:") {
		t.Error("description_ko not written")
	}
	if refreshed.TranslatedAt == nil {
		t.Error("translated_at not set")
	}

	stats, _ := repo.TranslationStatsFor(time.Now().Format("2006-01"))
	if stats == nil || stats.TotalCharacters != int64(wantChars) || stats.TotalGames != 1 {
		t.Errorf("usage ledger wrong: %+v", stats)
	}
}

func TestTranslateOneAlreadyDone(t *testing.T) {
	svc, repo, translator := newBatchFixture(t)

	game, _ := repo.Upsert(&models.BggGameData{BggID: 13, NameEn: "Catan", Description: strP("Trade. Build. Settle.")})
	if err := repo.UpdateTranslation(game.ID, strP("카탄"), strP("교역과 건설")); err != nil {
		t.Fatalf("seed translation failed: %v", err)
	}

	result, err := svc.TranslateOne(game.ID)
	if err != nil {
		t.Fatalf("expected no error: %v", err)
	}
	if !result.Skipped {
		t.Error("fully translated game must be reported as skipped")
	}
	if translator.calls != 0 {
		t.Errorf("fully translated game must not hit the API, got %d calls", translator.calls)
	}
	if stats, _ := repo.TranslationStatsFor(time.Now().Format("2006-01")); stats != nil {
		t.Error("a skip must not touch the usage ledger")
	}
}

func TestTranslateOnePartial(t *testing.T) {
	svc, repo, translator := newBatchFixture(t)

	// name already localized, description still pending
	game, _ := repo.Upsert(&models.BggGameData{BggID: 1, NameEn: "Gloomhaven", Description: strP("Vanquish monsters.")})
	if err := repo.UpdateTranslation(game.ID, strP("글룸헤이븐"), nil); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := svc.TranslateOne(game.ID)
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if translator.calls != 1 {
		t.Errorf("expected a single description call, got %d", translator.calls)
	}
	if result.Characters != len([]rune("Vanquish monsters.")) {
		t.Errorf("characters must count only what was sent: %d", result.Characters)
	}

	refreshed, _ := repo.FindByID(game.ID)
	if *refreshed.NameKo != "글룸헤이븐" {
		t.Error("existing name_ko must never be overwritten")
	}
}

func TestRunBatchHonorsQueueOrder(t *testing.T) {
	svc, repo, _ := newBatchFixture(t)

	repo.Upsert(&models.BggGameData{BggID: 1, NameEn: "Back", BggRankOverall: intP(900), Description: strP("Later.")})
	repo.Upsert(&models.BggGameData{BggID: 2, NameEn: "Front", BggRankOverall: intP(1), Description: strP("First.")})
	repo.Upsert(&models.BggGameData{BggID: 3, NameEn: "Middle", BggRankOverall: intP(50), Description: strP("Second.")})

	results, err := svc.RunBatch(2)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 translations, got %d", len(results))
	}
	if results[0].NameEn != "Front" || results[1].NameEn != "Middle" {
		t.Errorf("queue order violated: %s, %s", results[0].NameEn, results[1].NameEn)
	}
}

func TestRunBatchRequiresCredentials(t *testing.T) {
	svc, _, translator := newBatchFixture(t)
	translator.available = false

	if _, err := svc.RunBatch(5); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestQueueEstimates(t *testing.T) {
	svc, repo, _ := newBatchFixture(t)

	desc := strings.Repeat("d", 1000)
	repo.Upsert(&models.BggGameData{BggID: 1, NameEn: "Estimate", Description: &desc})

	entries, err := svc.Queue(10)
	if err != nil {
		t.Fatalf("queue failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Rank != 1 || entry.Characters != 1000 {
		t.Errorf("entry wrong: %+v", entry)
	}
	if entry.EstimatedCost != 1000*repositories.CostPerCharacter {
		t.Errorf("expected cost %v, got %v", 1000*repositories.CostPerCharacter, entry.EstimatedCost)
	}
}

func TestMonthlyStatsZeroRow(t *testing.T) {
	svc, _, _ := newBatchFixture(t)

	stats, err := svc.MonthlyStats("")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.YearMonth != time.Now().Format("2006-01") || stats.TotalCharacters != 0 {
		t.Errorf("expected a zero row for the current month, got %+v", stats)
	}
}

func TestMonthlyStatsPastMonth(t *testing.T) {
	svc, repo, _ := newBatchFixture(t)

	if err := repo.RecordTranslationStats("2026-03", 4200, 3); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	stats, err := svc.MonthlyStats("2026-03")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalCharacters != 4200 || stats.TotalGames != 3 {
		t.Errorf("past month row wrong: %+v", stats)
	}
}

func TestMonthlyStatsRejectsBadFormat(t *testing.T) {
	svc, _, _ := newBatchFixture(t)

	for _, bad := range []string{"2026", "03-2026", "2026-13", "march"} {
		if _, err := svc.MonthlyStats(bad); err == nil {
			t.Errorf("expected error for yearMonth %q", bad)
		}
	}
}

func TestTranslateOneNameFailureStillTranslatesDescription(t *testing.T) {
	svc, repo, translator := newBatchFixture(t)
	translator.nameErr = utils.NewUpstreamError("boom")

	game, _ := repo.Upsert(&models.BggGameData{BggID: 7, NameEn: "Azul", Description: strP("Draft tiles.")})

	result, err := svc.TranslateOne(game.ID)
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	if result.Skipped {
		t.Fatal("a failed title must not skip the description")
	}
	if result.Characters != len([]rune("Draft tiles.")) {
		t.Errorf("characters must count only what succeeded: %d", result.Characters)
	}

	refreshed, _ := repo.FindByID(game.ID)
	if refreshed.NameKo != nil {
		t.Error("failed name translation must leave name_ko empty")
	}
	if refreshed.DescriptionKo == nil {
		t.Error("description_ko not written")
	}
}
