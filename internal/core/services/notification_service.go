package services

import (
	"context"
	"fmt"
	"log"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/adapters/persistence/repositories"
)

// NotificationService creates in-app notifications. Clients poll the
// unread endpoint on a fixed interval, so delivery is just a row insert.
// Like auditing, notification writes are best-effort.
type NotificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// notify inserts one notification row
func (s *NotificationService) notify(ctx context.Context, userID uint, notifyType, title, message string) {
	n := &models.Notification{
		UserID:  userID,
		Type:    notifyType,
		Title:   title,
		Message: message,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Printf("⚠️ Failed to create notification for user %d: %v", userID, err)
	}
}

// notifyAdmins inserts one notification row per active admin
func (s *NotificationService) notifyAdmins(ctx context.Context, notifyType, title, message string) {
	admins, err := s.userRepo.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		log.Printf("⚠️ Failed to list admins for notification: %v", err)
		return
	}
	for _, admin := range admins {
		s.notify(ctx, admin.ID, notifyType, title, message)
	}
}

// NotifyNewRequest tells administrators a request awaits review
func (s *NotificationService) NotifyNewRequest(ctx context.Context, request *models.Request, requesterName string) {
	title := fmt.Sprintf("New %s request #%d", request.RequestType, request.ID)
	message := fmt.Sprintf("%s submitted a %s request awaiting review.", requesterName, request.RequestType)
	s.notifyAdmins(ctx, models.NotifyTypeRequestNew, title, message)
}

// NotifyRequestStatus tells the requester their request changed status
func (s *NotificationService) NotifyRequestStatus(ctx context.Context, request *models.Request) {
	title := fmt.Sprintf("Request #%d is now %s", request.ID, request.Status)
	message := fmt.Sprintf("Your %s request was moved to %s.", request.RequestType, request.Status)
	s.notify(ctx, request.RequesterID, models.NotifyTypeRequestStatus, title, message)
}

// NotifyRequestComment tells the requester someone commented on their request
func (s *NotificationService) NotifyRequestComment(ctx context.Context, request *models.Request, authorName string) {
	title := fmt.Sprintf("New comment on request #%d", request.ID)
	message := fmt.Sprintf("%s commented on your %s request.", authorName, request.RequestType)
	s.notify(ctx, request.RequesterID, models.NotifyTypeRequestComment, title, message)
}

// NotifyProjectMember tells a user they were added to a project
func (s *NotificationService) NotifyProjectMember(ctx context.Context, userID uint, projectTitle string) {
	title := "Added to project"
	message := fmt.Sprintf("You are now a member of %q.", projectTitle)
	s.notify(ctx, userID, models.NotifyTypeProjectMember, title, message)
}

// NotifyStalePendingRequests reminds admins of requests pending too long
// (called from the cron job)
func (s *NotificationService) NotifyStalePendingRequests(ctx context.Context, count int, oldestID uint) {
	if count == 0 {
		return
	}
	title := fmt.Sprintf("%d request(s) pending review", count)
	message := fmt.Sprintf("Oldest unreviewed request is #%d. Please triage the request queue.", oldestID)
	s.notifyAdmins(ctx, models.NotifyTypeSystem, title, message)
}
