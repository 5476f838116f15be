package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"deckroom-backend/internal/models"
	"deckroom-backend/internal/repository"
	"deckroom-backend/internal/services"
)

const maxRetries = 5

// Pool retries failed result writes from the Redis queue and reaps
// idle study sessions.
type Pool struct {
	redis        *redis.Client
	resultRepo   *repository.ResultRepo
	studentRepo  *repository.StudentRepo
	studyService *services.StudyService
	workerCount  int
	sweepEvery   time.Duration
	maxIdle      time.Duration
	stopChan     chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	resultRepo *repository.ResultRepo,
	studentRepo *repository.StudentRepo,
	studyService *services.StudyService,
	workerCount int,
	maxIdle time.Duration,
) *Pool {
	return &Pool{
		redis:        redisClient,
		resultRepo:   resultRepo,
		studentRepo:  studentRepo,
		studyService: studyService,
		workerCount:  workerCount,
		sweepEvery:   5 * time.Minute,
		maxIdle:      maxIdle,
		stopChan:     make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	go p.sweeper()

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

// resultTask wraps the queued result with a retry counter. The first
// enqueue carries no counter, so it starts at zero.
type resultTask struct {
	models.StudyResult
	RetryCount int `json:"retry_count,omitempty"`
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.ResultRetryQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var task resultTask
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			log.Printf("Worker %d: failed to parse result task: %v", id, err)
			continue
		}

		if err := p.resultRepo.Create(ctx, &task.StudyResult); err != nil {
			p.handleFailure(&task, err)
			continue
		}

		services.PublishResultEvent(ctx, p.redis, p.studentRepo, &task.StudyResult)
		log.Printf("Worker %d: saved queued result for assignment %s", id, task.AssignmentID)
	}
}

func (p *Pool) handleFailure(task *resultTask, err error) {
	task.RetryCount++

	if task.RetryCount >= maxRetries {
		log.Printf("Result for assignment %s failed permanently after %d attempts: %v",
			task.AssignmentID, task.RetryCount, err)
		return
	}

	log.Printf("Result for assignment %s failed (attempt %d): %v — retrying",
		task.AssignmentID, task.RetryCount, err)

	payload, marshalErr := json.Marshal(task)
	if marshalErr != nil {
		return
	}

	// Re-queue after exponential backoff
	backoff := time.Duration(1<<uint(task.RetryCount)) * time.Second
	time.AfterFunc(backoff, func() {
		p.redis.LPush(context.Background(), services.ResultRetryQueue, string(payload))
	})
}

func (p *Pool) sweeper() {
	ticker := time.NewTicker(p.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			if n := p.studyService.Sweep(p.maxIdle); n > 0 {
				log.Printf("Swept %d idle study sessions", n)
			}
		}
	}
}
