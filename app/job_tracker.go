package app

import (
	"fmt"
	"log"
	"time"

	models "stock-analyser/database/models_pkg"
	"stock-analyser/realtime"
)

// JobStore persists job lifecycle records.
type JobStore interface {
	CreateJob(job *models.Job) error
	UpdateJob(job *models.Job) error
}

// JobTracker records ingestion and ranking runs as job rows and broadcasts
// their lifecycle over SSE. The work function returns the details string
// stored on the completed job.
type JobTracker struct {
	jobRepo JobStore
	broker  *realtime.Broker
}

func NewJobTracker(jobRepo JobStore, broker *realtime.Broker) *JobTracker {
	return &JobTracker{jobRepo: jobRepo, broker: broker}
}

// Run executes fn under a job record, flipping it to completed or failed
// when fn returns. A failed run keeps whatever details fn produced so far.
func (t *JobTracker) Run(jobType string, fn func() (string, error)) (*models.Job, error) {
	job := &models.Job{
		JobType:   jobType,
		Status:    models.JobRunning,
		StartTime: time.Now().UTC(),
	}
	if err := t.jobRepo.CreateJob(job); err != nil {
		return nil, fmt.Errorf("Run %s: create job: %w", jobType, err)
	}
	t.broker.Broadcast(realtime.EventJobStarted, job)
	log.Printf("🚀 Job %d (%s) started", job.ID, jobType)

	details, err := fn()

	now := time.Now().UTC()
	job.EndTime = &now
	if details != "" {
		job.Details = &details
	}

	if err != nil {
		msg := err.Error()
		if details != "" {
			msg = details + "; error: " + msg
		}
		job.Status = models.JobFailed
		job.Details = &msg
		if uerr := t.jobRepo.UpdateJob(job); uerr != nil {
			log.Printf("❌ Job %d (%s) failed and could not be persisted: %v", job.ID, jobType, uerr)
		}
		t.broker.Broadcast(realtime.EventJobFailed, job)
		log.Printf("❌ Job %d (%s) failed: %v", job.ID, jobType, err)
		return job, err
	}

	job.Status = models.JobCompleted
	if uerr := t.jobRepo.UpdateJob(job); uerr != nil {
		log.Printf("⚠️  Job %d (%s) completed but could not be persisted: %v", job.ID, jobType, uerr)
	}
	t.broker.Broadcast(realtime.EventJobCompleted, job)
	log.Printf("✅ Job %d (%s) completed in %v", job.ID, jobType, now.Sub(job.StartTime).Round(time.Millisecond))
	return job, nil
}

// RunAsync starts fn under a job record without waiting for it. Used by the
// admin trigger endpoint, which returns the created job immediately.
func (t *JobTracker) RunAsync(jobType string, fn func() (string, error)) (*models.Job, error) {
	job := &models.Job{
		JobType:   jobType,
		Status:    models.JobRunning,
		StartTime: time.Now().UTC(),
	}
	if err := t.jobRepo.CreateJob(job); err != nil {
		return nil, fmt.Errorf("RunAsync %s: create job: %w", jobType, err)
	}
	t.broker.Broadcast(realtime.EventJobStarted, job)
	log.Printf("🚀 Job %d (%s) started", job.ID, jobType)

	// The goroutine gets its own copy. The returned record is handed
	// straight to the trigger endpoint's JSON encoder, which must never
	// observe the completion writes.
	tracked := *job
	go func() {
		job := &tracked
		details, err := fn()

		now := time.Now().UTC()
		job.EndTime = &now
		if details != "" {
			job.Details = &details
		}

		if err != nil {
			msg := err.Error()
			if details != "" {
				msg = details + "; error: " + msg
			}
			job.Status = models.JobFailed
			job.Details = &msg
			if uerr := t.jobRepo.UpdateJob(job); uerr != nil {
				log.Printf("❌ Job %d (%s) failed and could not be persisted: %v", job.ID, jobType, uerr)
			}
			t.broker.Broadcast(realtime.EventJobFailed, job)
			log.Printf("❌ Job %d (%s) failed: %v", job.ID, jobType, err)
			return
		}

		job.Status = models.JobCompleted
		if uerr := t.jobRepo.UpdateJob(job); uerr != nil {
			log.Printf("⚠️  Job %d (%s) completed but could not be persisted: %v", job.ID, jobType, uerr)
		}
		t.broker.Broadcast(realtime.EventJobCompleted, job)
		log.Printf("✅ Job %d (%s) completed in %v", job.ID, jobType, now.Sub(job.StartTime).Round(time.Millisecond))
	}()

	return job, nil
}
