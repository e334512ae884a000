package job

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/pkg/errs"
)

var (
	// ErrJobIsNotConstructed is returned when a Job instance was not created
	// through the NewJob or RestoreJob factory methods.
	ErrJobIsNotConstructed = errors.New("Job must be created via NewJob or RestoreJob")

	// ErrJobNotLeasable is returned when leasing a job that is not pending.
	ErrJobNotLeasable = errors.New("job is not in a leasable state")

	// ErrJobNotRunning is returned when completing or failing a job that was
	// never leased.
	ErrJobNotRunning = errors.New("job is not running")
)

// Status represents the queue lifecycle state of a durable job.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	Unknown Status = iota

	// Pending means the job is waiting for a worker; RunAt gates when it is due.
	Pending

	// Running means a worker holds a lease on the job until LeasedUntil.
	Running

	// Succeeded means the job's side effects committed and it will not run again.
	Succeeded

	// Dead means the job exhausted its attempts and is parked for manual inspection.
	Dead
)

// getStatusStrings returns a map of Status values to their string representations.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "UNKNOWN",
		Pending:   "PENDING",
		Running:   "RUNNING",
		Succeeded: "SUCCEEDED",
		Dead:      "DEAD",
	}
}

// String returns the canonical name of the status.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Validate checks that the Status is one of the defined queue states.
func (s Status) Validate() error {
	if s == Unknown {
		return fmt.Errorf("job status is invalid: %d", int(s))
	}
	if _, ok := getStatusStrings()[s]; !ok {
		return fmt.Errorf("job status is invalid: %d", int(s))
	}
	return nil
}

// backoffBase is the delay before the first retry; each further retry doubles it.
const backoffBase = 30 * time.Second

// backoffCap bounds the exponential growth of retry delays.
const backoffCap = time.Hour

// BackoffFor returns the exponential backoff delay after the given attempt
// number (1-based). Delays double per attempt and are capped at backoffCap.
func BackoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= backoffCap {
			return backoffCap
		}
	}
	return delay
}

// Job is a unit of durable, retryable work. Its identifier is deterministic,
// derived by the producer from the triggering event, so enqueueing the same
// logical work twice yields a single job.
//
// A job moves Pending -> Running (leased by a worker) and then either back to
// Pending with a backoff delay on failure, to Succeeded on completion, or to
// Dead once its attempts are exhausted. A lease that expires without an
// outcome is reclaimed back to Pending; the handler-side processed-job check
// makes the re-run safe.
type Job struct {
	id          string
	queue       string
	jobType     string
	payload     []byte
	status      Status
	attempts    int
	maxAttempts int
	runAt       time.Time
	leasedUntil *time.Time
	lastError   string
	createdAt   time.Time

	isConstructed bool
}

// NewJob creates a pending job that is immediately due.
//
// Parameters:
//   - id: deterministic job identifier (the producer's idempotency key)
//   - queue: name of the queue the job belongs to
//   - jobType: handler selector
//   - payload: opaque JSON payload passed to the handler
//   - maxAttempts: retry budget before the job is parked as Dead
func NewJob(id, queue, jobType string, payload []byte, maxAttempts int) (*Job, error) {
	now := time.Now().UTC()
	j := &Job{
		status:        Pending,
		runAt:         now,
		createdAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		j.setID(id),
		j.setQueue(queue),
		j.setJobType(jobType),
		j.setMaxAttempts(maxAttempts),
	); err != nil {
		return nil, err
	}

	j.payload = payload
	return j, nil
}

// RestoreJob rehydrates a job from persistence.
func RestoreJob(
	id, queue, jobType string,
	payload []byte,
	status Status,
	attempts, maxAttempts int,
	runAt time.Time,
	leasedUntil *time.Time,
	lastError string,
	createdAt time.Time,
) (*Job, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	j, err := NewJob(id, queue, jobType, payload, maxAttempts)
	if err != nil {
		return nil, err
	}

	j.status = status
	j.attempts = attempts
	j.runAt = runAt
	j.leasedUntil = leasedUntil
	j.lastError = lastError
	j.createdAt = createdAt
	return j, nil
}

// Validate ensures the Job was constructed through NewJob or RestoreJob.
func (j *Job) Validate() error {
	if j == nil || !j.isConstructed {
		return ErrJobIsNotConstructed
	}
	return nil
}

// ID returns the deterministic job identifier.
func (j *Job) ID() string {
	return j.id
}

// Queue returns the name of the queue the job belongs to.
func (j *Job) Queue() string {
	return j.queue
}

// Type returns the handler selector.
func (j *Job) Type() string {
	return j.jobType
}

// Payload returns the opaque JSON payload.
func (j *Job) Payload() []byte {
	return j.payload
}

// Status returns the queue lifecycle state.
func (j *Job) Status() Status {
	return j.status
}

// Attempts returns how many times the job has been leased.
func (j *Job) Attempts() int {
	return j.attempts
}

// MaxAttempts returns the retry budget.
func (j *Job) MaxAttempts() int {
	return j.maxAttempts
}

// RunAt returns the earliest time the job is due.
func (j *Job) RunAt() time.Time {
	return j.runAt
}

// LeasedUntil returns the current lease deadline, or nil when not leased.
func (j *Job) LeasedUntil() *time.Time {
	return j.leasedUntil
}

// LastError returns the most recent failure message, or "".
func (j *Job) LastError() string {
	return j.lastError
}

// CreatedAt returns when the job was enqueued.
func (j *Job) CreatedAt() time.Time {
	return j.createdAt
}

// IsDue reports whether a pending job is eligible to be leased at now.
func (j *Job) IsDue(now time.Time) bool {
	return j.status == Pending && !j.runAt.After(now)
}

// Lease claims the job for one execution attempt until now+duration.
// Counts the attempt immediately so a worker crash mid-attempt still
// consumes retry budget when the lease is reclaimed.
func (j *Job) Lease(now time.Time, duration time.Duration) error {
	if !j.IsDue(now) {
		return ErrJobNotLeasable
	}

	deadline := now.Add(duration)
	j.status = Running
	j.attempts++
	j.leasedUntil = &deadline
	return nil
}

// Succeed marks the job as completed. Terminal.
func (j *Job) Succeed() error {
	if j.status != Running {
		return ErrJobNotRunning
	}

	j.status = Succeeded
	j.leasedUntil = nil
	return nil
}

// Fail records a failed attempt. The job returns to Pending with an
// exponential backoff delay, or moves to Dead once the retry budget is
// exhausted.
func (j *Job) Fail(now time.Time, cause error) error {
	if j.status != Running {
		return ErrJobNotRunning
	}

	if cause != nil {
		j.lastError = cause.Error()
	}
	j.leasedUntil = nil

	if j.attempts >= j.maxAttempts {
		j.status = Dead
		return nil
	}

	j.status = Pending
	j.runAt = now.Add(BackoffFor(j.attempts))
	return nil
}

// Park moves the job straight to Dead regardless of remaining attempts.
// Used for terminal integration failures that retrying cannot fix.
func (j *Job) Park(cause error) error {
	if j.status != Running {
		return ErrJobNotRunning
	}

	if cause != nil {
		j.lastError = cause.Error()
	}
	j.status = Dead
	j.leasedUntil = nil
	return nil
}

// Reclaim returns an expired Running job to Pending without a backoff delay.
// The attempt consumed by the dead worker stays counted.
func (j *Job) Reclaim(now time.Time) error {
	if j.status != Running || j.leasedUntil == nil || j.leasedUntil.After(now) {
		return ErrJobNotRunning
	}

	j.status = Pending
	j.leasedUntil = nil
	j.runAt = now
	return nil
}

func (j *Job) setID(id string) error {
	if id == "" {
		return errs.NewValueIsRequiredError("job id")
	}
	j.id = id
	return nil
}

func (j *Job) setQueue(queue string) error {
	if queue == "" {
		return errs.NewValueIsRequiredError("queue")
	}
	j.queue = queue
	return nil
}

func (j *Job) setJobType(jobType string) error {
	if jobType == "" {
		return errs.NewValueIsRequiredError("jobType")
	}
	j.jobType = jobType
	return nil
}

func (j *Job) setMaxAttempts(maxAttempts int) error {
	if maxAttempts <= 0 {
		return errs.NewValueIsInvalidError("maxAttempts")
	}
	j.maxAttempts = maxAttempts
	return nil
}
