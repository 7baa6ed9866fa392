// services/scheduler.go
package services

import (
	"log"
	"time"

	"community-hub-system/middleware"

	"github.com/go-co-op/gocron/v2"
)

// StartScheduler runs the periodic jobs: scheduled-course publishing and
// rate-limiter entry eviction.
func StartScheduler(courses *CourseService, limiter *middleware.RateLimiter) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: publish courses whose publish_at has passed
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			courses.publishDueCourses()
		}),
	)

	// Every 5 minutes: sweep expired rate-limit entries to bound memory
	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			evicted := limiter.Sweep()
			if evicted > 0 {
				log.Printf("[Scheduler] Rate limiter sweep evicted %d entr(ies)", evicted)
			}
		}),
	)
}
