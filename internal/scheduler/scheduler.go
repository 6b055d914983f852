package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/crop-advisor/internal/advisor"
	"github.com/i474232898/crop-advisor/internal/report"
)

// Surveyor assembles and stores the report for one site.
type Surveyor interface {
	Survey(ctx context.Context, c report.Coordinates, w report.Window) (advisor.Snapshot, error)
}

// Scheduler periodically surveys the configured sites for the current month.
type Scheduler struct {
	scheduler *gocron.Scheduler
	surveyor  Surveyor
	sites     []advisor.Site
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(sites []advisor.Site, interval time.Duration, surveyor Surveyor) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		surveyor:  surveyor,
		sites:     sites,
		interval:  interval,
		timeout:   2 * time.Minute,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.sites) == 0 {
		log.Println("scheduler: no sites configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce surveys every site concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	log.Println("scheduler: running site survey job")
	w := report.WindowAt(time.Now())

	var wg sync.WaitGroup
	for _, site := range s.sites {
		wg.Add(1)
		go func(site advisor.Site) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			snap, err := s.surveyor.Survey(ctx, site.Coordinates, w)
			if err != nil {
				log.Printf("scheduler: survey failed for %s %s: %v", site.Name, site.Coordinates, err)
				return
			}
			log.Printf("scheduler: surveyed %s (snapshot %s, missing sensors %v)", site.Name, snap.ID, snap.Sensors.Missing())
		}(site)
	}
	wg.Wait()
	log.Println("scheduler: completed site survey job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
