// services/scheduler.go
package services

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const defaultDailyTranslationLimit = 2

// StartScheduler wires the recurring jobs: the nightly hot-list sync, the
// weekly popularity recompute, and the nightly translation batch. All times
// are Asia/Seoul.
func StartScheduler(syncService *GameSyncService, translationBatch *TranslationBatchService) gocron.Scheduler {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		log.Printf("⚠️ [Scheduler] Asia/Seoul unavailable, using local time: %v", err)
		seoul = time.Local
	}

	sched, err := gocron.NewScheduler(gocron.WithLocation(seoul))
	if err != nil {
		log.Printf("❌ [Scheduler] failed to start: %v", err)
		return nil
	}

	// 03:00 daily: pull the BGG trending list into the catalog
	_, _ = sched.NewJob(
		gocron.CronJob("0 3 * * *", false),
		gocron.NewTask(func() {
			log.Println("🔥 [Scheduler] hot game sync starting")
			synced := syncService.SyncHotGames(50)
			log.Printf("✅ [Scheduler] hot game sync done: %d games", len(synced))
		}),
	)

	// 04:00 Monday: recompute every popularity score
	_, _ = sched.NewJob(
		gocron.CronJob("0 4 * * 1", false),
		gocron.NewTask(func() {
			log.Println("📊 [Scheduler] popularity recompute starting")
			if err := syncService.gameRepo.UpdateAllPopularityScores(); err != nil {
				log.Printf("❌ [Scheduler] popularity recompute failed: %v", err)
				return
			}
			log.Println("✅ [Scheduler] popularity recompute done")
		}),
	)

	// 04:30 daily: translate the top of the untranslated queue, skipped
	// entirely when Papago credentials are absent
	if translationBatch.translator.Available() {
		limit := defaultDailyTranslationLimit
		if v := os.Getenv("TRANSLATION_DAILY_LIMIT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}
		_, _ = sched.NewJob(
			gocron.CronJob("30 4 * * *", false),
			gocron.NewTask(func() {
				log.Printf("🌐 [Scheduler] translation batch starting (limit: %d)", limit)
				results, err := translationBatch.RunBatch(limit)
				if err != nil {
					log.Printf("❌ [Scheduler] translation batch failed: %v", err)
					return
				}
				log.Printf("✅ [Scheduler] translation batch done: %d games", len(results))
			}),
		)
	} else {
		log.Println("⚠️ [Scheduler] Papago credentials missing, translation job disabled")
	}

	sched.Start()
	log.Println("⏰ [Scheduler] started")
	return sched
}
