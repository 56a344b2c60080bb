package cron

import (
	"context"
	"time"
)

const (
	defaultEvery = 10 * time.Minute
	minTick      = time.Second
)

// Job is a unit of scheduled work. Name doubles as its lock and metric label.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry pairs a job with its cadence.
type Entry struct {
	Job   Job
	Every time.Duration
}

// Schedule is the ordered set of jobs a worker drives.
type Schedule struct {
	entries []Entry
}

func NewSchedule() *Schedule {
	return &Schedule{}
}

// Every adds job at the given cadence. A non-positive cadence falls back to
// ten minutes and nil jobs are ignored.
func (s *Schedule) Every(every time.Duration, job Job) *Schedule {
	if job == nil {
		return s
	}
	if every <= 0 {
		every = defaultEvery
	}
	s.entries = append(s.entries, Entry{Job: job, Every: every})
	return s
}

// Entries returns a copy in registration order.
func (s *Schedule) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// tick is how often the worker checks for due jobs: the shortest cadence,
// never below a second.
func (s *Schedule) tick() time.Duration {
	tick := time.Duration(0)
	for _, e := range s.entries {
		if tick == 0 || e.Every < tick {
			tick = e.Every
		}
	}
	if tick == 0 {
		return defaultEvery
	}
	if tick < minTick {
		return minTick
	}
	return tick
}
