package job

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/finscope/internal/core"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(100, time.Hour)

	job := store.Create("analysis", "AAPL")
	if job.ID == "" {
		t.Error("expected job ID")
	}
	if job.Status != StatusPending {
		t.Errorf("expected pending, got %s", job.Status)
	}

	retrieved, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.ID != job.ID || retrieved.Symbol != "AAPL" {
		t.Errorf("unexpected job %+v", retrieved)
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore(100, time.Hour)
	job := store.Create("analysis", "AAPL")

	err := store.Update(job.ID, func(j *Job) {
		j.Status = StatusComplete
		j.Result = "report"
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retrieved, _ := store.Get(job.ID)
	if retrieved.Status != StatusComplete || !retrieved.Done() {
		t.Errorf("expected complete, got %s", retrieved.Status)
	}
	if retrieved.Result != "report" {
		t.Errorf("expected result, got %v", retrieved.Result)
	}
}

func TestStore_MaxSize(t *testing.T) {
	store := NewStore(2, time.Hour)

	job1 := store.Create("analysis", "A")
	store.Create("analysis", "B")
	store.Create("analysis", "C") // evicts job1

	if _, err := store.Get(job1.ID); err == nil {
		t.Error("expected job1 to be evicted")
	}
	if n := len(store.List()); n != 2 {
		t.Errorf("expected 2 jobs, got %d", n)
	}
}

func TestStore_NotFound(t *testing.T) {
	store := NewStore(100, time.Hour)

	_, err := store.Get("nonexistent")
	if !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected JOB_NOT_FOUND, got %v", err)
	}
	if err := store.Update("nonexistent", func(*Job) {}); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected JOB_NOT_FOUND, got %v", err)
	}
}

func TestStore_ExpiresFinishedJobs(t *testing.T) {
	store := NewStore(100, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	done := store.Create("analysis", "AAPL")
	store.Update(done.ID, func(j *Job) { j.Status = StatusFailed })
	running := store.Create("analysis", "MSFT")
	store.Update(running.ID, func(j *Job) { j.Status = StatusRunning })

	now = now.Add(2 * time.Minute)

	if _, err := store.Get(done.ID); err == nil {
		t.Error("expected finished job to expire")
	}
	if _, err := store.Get(running.ID); err != nil {
		t.Errorf("running job must not expire: %v", err)
	}

	store.Create("analysis", "TSLA") // prunes
	if n := len(store.List()); n != 2 {
		t.Errorf("expected 2 live jobs, got %d", n)
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStore(100, time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { now = now.Add(time.Second); return now }

	store.Create("analysis", "A")
	store.Create("analysis", "B")

	jobs := store.List()
	if len(jobs) != 2 || jobs[0].Symbol != "B" {
		t.Errorf("expected newest first, got %+v", jobs)
	}
}
