// workers/bootstrap_sync.go
package workers

import (
	"context"
	"log"
	"time"

	"meepleon-backend/repositories"
	"meepleon-backend/services"
)

// popularBggIDs seeds an empty catalog with well-known games so the landing
// page has content before the first scheduled sync runs.
var popularBggIDs = []int{
	174430, // Gloomhaven
	167791, // Terraforming Mars
	233078, // Twilight Imperium 4
	220308, // Gaia Project
	266192, // Wingspan
	182028, // Through the Ages
	13,     // Catan
	36218,  // Dominion
	68448,  // 7 Wonders
	30549,  // Pandemic
}

// BootstrapSyncWorker backfills the popular-game seed list on startup,
// skipping ids the catalog already holds.
type BootstrapSyncWorker struct {
	gameRepo    *repositories.GameRepository
	syncService *services.GameSyncService
	delay       time.Duration
}

func NewBootstrapSyncWorker(gameRepo *repositories.GameRepository, syncService *services.GameSyncService) *BootstrapSyncWorker {
	return &BootstrapSyncWorker{
		gameRepo:    gameRepo,
		syncService: syncService,
		delay:       1 * time.Second,
	}
}

func (w *BootstrapSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting bootstrap game sync worker…")
	go w.run(ctx)
}

func (w *BootstrapSyncWorker) run(ctx context.Context) {
	var missing []int
	for _, bggID := range popularBggIDs {
		game, err := w.gameRepo.FindByBggID(bggID)
		if err != nil {
			log.Printf("⚠️ [Bootstrap] lookup failed (bggId: %d): %v", bggID, err)
			continue
		}
		if game == nil {
			missing = append(missing, bggID)
		}
	}
	if len(missing) == 0 {
		log.Println("✅ [Bootstrap] seed games already cached")
		return
	}

	log.Printf("🔁 [Bootstrap] syncing %d seed games", len(missing))
	for i, bggID := range missing {
		select {
		case <-ctx.Done():
			log.Println("⏹️ [Bootstrap] stopped")
			return
		default:
		}

		if _, err := w.syncService.SyncOne(bggID); err != nil {
			log.Printf("❌ [Bootstrap] sync failed (bggId: %d): %v", bggID, err)
		}
		if i < len(missing)-1 {
			time.Sleep(w.delay)
		}
	}
	log.Println("✅ [Bootstrap] seed sync complete")
}
