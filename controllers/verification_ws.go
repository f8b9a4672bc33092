package controller

import (
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/zotexmedia/verification/config"
	"github.com/zotexmedia/verification/models"
	"github.com/zotexmedia/verification/verifier"
)

// jobProgressHub keeps the latest progress snapshot per job so a websocket
// client can poll it without touching the batch workers.
type jobProgressHub struct {
	mu    sync.RWMutex
	jobs  map[uint]verifier.BatchProgress
	ended map[uint]bool
}

var jobProgress = &jobProgressHub{
	jobs:  make(map[uint]verifier.BatchProgress),
	ended: make(map[uint]bool),
}

func (h *jobProgressHub) publish(jobID uint, p verifier.BatchProgress) {
	h.mu.Lock()
	h.jobs[jobID] = p
	h.mu.Unlock()
}

func (h *jobProgressHub) finish(jobID uint) {
	h.mu.Lock()
	h.ended[jobID] = true
	h.mu.Unlock()

	// Keep the final snapshot around long enough for late subscribers.
	time.AfterFunc(5*time.Minute, func() {
		h.mu.Lock()
		delete(h.jobs, jobID)
		delete(h.ended, jobID)
		h.mu.Unlock()
	})
}

// snapshot reports the latest progress for a job. tracked is false when the
// hub holds nothing for the job, either because it never ran in this
// process or its entry has already been purged.
func (h *jobProgressHub) snapshot(jobID uint) (p verifier.BatchProgress, ended, tracked bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.jobs[jobID]
	ended = h.ended[jobID]
	return p, ended, ok || ended
}

type progressFrame struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Email   string `json:"email,omitempty"`
	Verdict string `json:"verdict,omitempty"`
	Status  string `json:"status"`
}

// HandleVerificationProgressWS streams per-address progress for a running
// verification job until the batch completes. The socket is scoped to the
// authenticated API key; jobs owned by other keys are invisible.
func HandleVerificationProgressWS(c *websocket.Conn) {
	defer c.Close()

	apiKey, ok := c.Locals("api_key").(*models.APIKey)
	if !ok {
		return
	}

	jobID64, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		log.Printf("Invalid job ID on progress socket: %v", err)
		return
	}
	jobID := uint(jobID64)

	var job models.VerificationJob
	if err := config.DB.Where("id = ? AND api_key_id = ?", jobID, apiKey.ID).First(&job).Error; err != nil {
		return
	}

	// We never expect inbound frames; the reader exists to notice the peer
	// closing so the poll loop below cannot outlive the connection.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastDone := -1
	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
		}

		p, ended, tracked := jobProgress.snapshot(jobID)
		if !tracked {
			// Nothing in the hub: the job either finished long ago or has
			// not started classifying yet. Settle finished jobs from the
			// stored row; keep waiting on queued ones.
			if err := config.DB.First(&job, job.ID).Error; err != nil {
				return
			}
			if job.Status == "completed" || job.Status == "failed" {
				frame := progressFrame{
					Done:    job.TotalCount,
					Total:   job.TotalCount,
					Percent: 100,
					Status:  job.Status,
				}
				if err := c.WriteJSON(frame); err != nil {
					log.Printf("Error writing JSON: %v", err)
				}
				return
			}
			continue
		}

		completed := ended || (p.Total > 0 && p.Done == p.Total)

		if p.Done != lastDone || completed {
			lastDone = p.Done

			frame := progressFrame{
				Done:    p.Done,
				Total:   p.Total,
				Email:   p.Result.Email,
				Verdict: string(p.Result.Verdict),
				Status:  "running",
			}
			if p.Total > 0 {
				frame.Percent = p.Done * 100 / p.Total
			}
			if completed {
				frame.Status = "completed"
			}

			if err := c.WriteJSON(frame); err != nil {
				log.Printf("Error writing JSON: %v", err)
				return
			}
		}

		if completed {
			return
		}
	}
}
