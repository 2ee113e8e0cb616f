package jobs

import (
	"log"
	"time"

	"github.com/tecnochat/tenolatina-sub000/internal/storage"
)

// CleanupJob periodically sweeps expired welcome-tracking rows so the
// table stays bounded to roughly one row per active contact per day.
type CleanupJob struct {
	store    storage.Store
	interval time.Duration
	stop     chan struct{}
}

func NewCleanupJob(store storage.Store, interval time.Duration) *CleanupJob {
	return &CleanupJob{
		store:    store,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Printf("🧹 Cleanup job started (every %s)", j.interval)
}

func (j *CleanupJob) Stop() {
	close(j.stop)
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			removed, err := j.store.DeleteExpiredWelcomeTracking()
			if err != nil {
				log.Printf("welcome tracking cleanup failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("🧹 Removed %d expired welcome tracking rows", removed)
			}
		}
	}
}
