package worker

import (
	"context"
	"log"
	"time"

	"github.com/zotexmedia/verification/utils"
)

// ListRefreshWorker keeps the disposable, role and typo reference lists
// fresh by refetching their feeds on an interval.
type ListRefreshWorker struct {
	feed     *utils.ListFeed
	interval time.Duration
	logger   *log.Logger
}

func NewListRefreshWorker(feed *utils.ListFeed, interval time.Duration, logger *log.Logger) *ListRefreshWorker {
	return &ListRefreshWorker{
		feed:     feed,
		interval: interval,
		logger:   logger,
	}
}

func (lw *ListRefreshWorker) Start(ctx context.Context) {
	lw.logger.Println("Starting list refresh worker...")

	// Refresh once up front so we serve fetched lists instead of the
	// embedded fallbacks as soon as the feeds are reachable.
	lw.refresh()

	ticker := time.NewTicker(lw.interval)

	for {
		select {
		case <-ticker.C:
			lw.refresh()
		case <-ctx.Done():
			lw.logger.Println("Stopping list refresh worker...")
			ticker.Stop()
			return
		}
	}
}

func (lw *ListRefreshWorker) refresh() {
	lw.logger.Println("Refreshing reference lists...")
	if err := lw.feed.Refresh(); err != nil {
		lw.logger.Printf("List refresh finished with errors: %v", err)
		return
	}
	lw.logger.Println("Reference lists refreshed successfully")
}
