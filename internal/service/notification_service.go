package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
	"github.com/noah-isme/univ-portal-api/pkg/jobs"
)

const (
	jobTypeGradeReleased = "grade_released"
	// notifyEnqueueTimeout caps how long a request waits for room in a full queue.
	notifyEnqueueTimeout = 2 * time.Second
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type gradeReleasedPayload struct {
	EnrollmentID string
	StudentID    string
	CourseID     string
	AcademicYear string
	Semester     int
	TotalGrade   float64
	LetterGrade  string
}

// NotificationService dispatches portal notifications through a background queue.
type NotificationService struct {
	repo   notificationRepository
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService builds the service and its worker queue. The queue is idle until Start.
func NewNotificationService(repo notificationRepository, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{repo: repo, logger: logger}
	cfg.Logger = logger
	svc.queue = jobs.NewQueue("notifications", svc.handle, cfg)
	return svc
}

// Start launches the workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop delivers queued notices until ctx expires, then shuts the workers down.
func (s *NotificationService) Stop(ctx context.Context) {
	s.queue.Stop(ctx)
}

// NotifyGradeReleased queues a notice for the student once a total grade exists. It gives up
// when ctx ends or the queue stays full past notifyEnqueueTimeout.
func (s *NotificationService) NotifyGradeReleased(ctx context.Context, e *models.Enrollment) error {
	if s == nil || e == nil || e.TotalGrade == nil {
		return nil
	}
	payload := gradeReleasedPayload{
		EnrollmentID: e.ID,
		StudentID:    e.StudentID,
		CourseID:     e.CourseID,
		AcademicYear: e.AcademicYear,
		Semester:     e.Semester,
		TotalGrade:   *e.TotalGrade,
	}
	if e.LetterGrade != nil {
		payload.LetterGrade = *e.LetterGrade
	}
	ctx, cancel := context.WithTimeout(ctx, notifyEnqueueTimeout)
	defer cancel()
	if err := s.queue.EnqueueContext(ctx, jobs.Job{Type: jobTypeGradeReleased, Payload: payload}); err != nil {
		return fmt.Errorf("enqueue grade notification: %w", err)
	}
	return nil
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(gradeReleasedPayload)
	if job.Type != jobTypeGradeReleased || !ok {
		s.logger.Warn("dropping unknown notification job", zap.String("type", job.Type), zap.String("job_id", job.ID))
		return nil
	}

	ref := payload.EnrollmentID
	notification := &models.Notification{
		RecipientID: payload.StudentID,
		Type:        models.NotificationTypeGradeReleased,
		Title:       "Grade released",
		Message: fmt.Sprintf("Your grade for course %s (%s semester %d) is %.2f (%s).",
			payload.CourseID, payload.AcademicYear, payload.Semester, payload.TotalGrade, payload.LetterGrade),
		ReferenceID: &ref,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}
	s.logger.Debug("grade notification stored", zap.String("enrollment_id", payload.EnrollmentID))
	return nil
}
