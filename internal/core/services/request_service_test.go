package services

import (
	"context"
	"testing"

	"researchhub/internal/adapters/persistence/models"
	"researchhub/internal/adapters/persistence/repositories"
	"researchhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@university.edu",
		Password: "x",
		Role:     role,
		FullName: "Test " + username,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProject(t *testing.T, db *gorm.DB, ownerID uint) *models.Project {
	t.Helper()

	project := &models.Project{
		Title:   "Quantum Widgets",
		Status:  models.ProjectStatusActive,
		OwnerID: ownerID,
	}
	require.NoError(t, db.Create(project).Error)
	return project
}

func newRequestService(db *gorm.DB) *RequestService {
	userRepo := repositories.NewUserRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	return NewRequestService(
		repositories.NewRequestRepository(db),
		repositories.NewProjectRepository(db),
		userRepo,
		NewNotificationService(notificationRepo, userRepo),
		NewAuditService(auditRepo),
	)
}

func TestRequestCreateConditionalProject(t *testing.T) {
	db := setupTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	researcher := seedUser(t, db, "alice", models.RoleResearcher)
	project := seedProject(t, db, researcher.ID)

	t.Run("resources request without project is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, researcher.ID, &CreateRequestInput{
			RequestType: models.RequestTypeResources,
			Description: "need a GPU node",
		}, "")
		assert.ErrorIs(t, err, models.ErrProjectRequired)
	})

	t.Run("resources request with project succeeds", func(t *testing.T) {
		request, err := svc.Create(ctx, researcher.ID, &CreateRequestInput{
			RequestType: models.RequestTypeResources,
			Description: "need a GPU node",
			ProjectID:   &project.ID,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusPending, request.Status)
		assert.Nil(t, request.ResolutionDate)
		assert.Nil(t, request.ReviewedBy)
	})

	t.Run("other request without project succeeds", func(t *testing.T) {
		request, err := svc.Create(ctx, researcher.ID, &CreateRequestInput{
			RequestType: models.RequestTypeOther,
			Description: "please rename my account",
		}, "")
		require.NoError(t, err)
		assert.Nil(t, request.ProjectID)
	})

	t.Run("unknown project is rejected", func(t *testing.T) {
		missing := uint(9999)
		_, err := svc.Create(ctx, researcher.ID, &CreateRequestInput{
			RequestType: models.RequestTypeApproval,
			Description: "approve something",
			ProjectID:   &missing,
		}, "")
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("invalid type is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, researcher.ID, &CreateRequestInput{
			RequestType: "BANANAS",
			Description: "nope",
		}, "")
		assert.ErrorIs(t, err, models.ErrRequestTypeInvalid)
	})
}

func TestRequestCreateNotifiesWithFallbackName(t *testing.T) {
	db := setupTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	admin := seedUser(t, db, "boss", models.RoleAdmin)

	// A requester row that vanished between token issuance and submission
	// must not block the request or the admin notification
	request, err := svc.Create(ctx, 4242, &CreateRequestInput{
		RequestType: models.RequestTypeOther,
		Description: "orphaned submission",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, request.Status)

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", admin.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "A researcher submitted")
}

func TestRequestStatusLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	researcher := seedUser(t, db, "bob", models.RoleResearcher)
	admin := seedUser(t, db, "boss", models.RoleAdmin)

	create := func(t *testing.T) *models.Request {
		request, err := svc.Create(ctx, researcher.ID, &CreateRequestInput{
			RequestType: models.RequestTypeOther,
			Description: "lifecycle fixture",
		}, "")
		require.NoError(t, err)
		return request
	}

	t.Run("pending to approved stamps resolution and reviewer", func(t *testing.T) {
		request := create(t)

		updated, err := svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusApproved,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, updated.Status)
		require.NotNil(t, updated.ResolutionDate)
		require.NotNil(t, updated.ReviewedBy)
		assert.Equal(t, admin.ID, *updated.ReviewedBy)
	})

	t.Run("approved is terminal", func(t *testing.T) {
		request := create(t)
		_, err := svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusApproved,
		}, "")
		require.NoError(t, err)

		_, err = svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusRejected,
		}, "")
		assert.ErrorIs(t, err, domain.ErrRequestResolved)
	})

	t.Run("in process keeps the first resolution date and may still resolve", func(t *testing.T) {
		request := create(t)

		inProcess, err := svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusInProcess,
		}, "")
		require.NoError(t, err)
		require.NotNil(t, inProcess.ResolutionDate)
		firstResolution := *inProcess.ResolutionDate

		rejected, err := svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusRejected,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusRejected, rejected.Status)
		require.NotNil(t, rejected.ResolutionDate)
		assert.True(t, rejected.ResolutionDate.Equal(firstResolution))
	})

	t.Run("transition back to pending is rejected", func(t *testing.T) {
		request := create(t)
		_, err := svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusPending,
		}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("same status twice is rejected", func(t *testing.T) {
		request := create(t)
		_, err := svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusInProcess,
		}, "")
		require.NoError(t, err)

		_, err = svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusInProcess,
		}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("decision comment joins the thread and notifies the requester", func(t *testing.T) {
		request := create(t)
		updated, err := svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status:  models.RequestStatusRejected,
			Comment: "insufficient justification",
		}, "")
		require.NoError(t, err)
		require.Len(t, updated.Comments, 1)
		assert.Equal(t, "insufficient justification", updated.Comments[0].Text)

		var count int64
		db.Model(&models.Notification{}).
			Where("user_id = ? AND type = ?", researcher.ID, models.NotifyTypeRequestStatus).
			Count(&count)
		assert.GreaterOrEqual(t, count, int64(1))
	})
}

func TestRequestSoftDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	researcher := seedUser(t, db, "carol", models.RoleResearcher)
	admin := seedUser(t, db, "root", models.RoleAdmin)
	other := seedUser(t, db, "mallory", models.RoleResearcher)

	request, err := svc.Create(ctx, researcher.ID, &CreateRequestInput{
		RequestType: models.RequestTypeOther,
		Description: "soft delete fixture",
	}, "")
	require.NoError(t, err)

	t.Run("another researcher can not delete it", func(t *testing.T) {
		err := svc.SoftDelete(ctx, request.ID, other.ID, false, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("deleted request leaves default listings", func(t *testing.T) {
		require.NoError(t, svc.SoftDelete(ctx, request.ID, researcher.ID, false, ""))

		visible, total, err := svc.List(ctx, &ListRequestsInput{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, visible)
		assert.Zero(t, total)
	})

	t.Run("show deleted brings it back into the listing", func(t *testing.T) {
		deleted, total, err := svc.List(ctx, &ListRequestsInput{Page: 1, Limit: 10, ShowDeleted: true})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, deleted, 1)
		assert.True(t, deleted[0].IsDeleted)
	})

	t.Run("deleted request stays readable but frozen", func(t *testing.T) {
		got, err := svc.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.True(t, got.IsDeleted)

		_, err = svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
			Status: models.RequestStatusApproved,
		}, "")
		assert.ErrorIs(t, err, domain.ErrRequestDeleted)

		_, err = svc.AddComment(ctx, request.ID, admin.ID, "too late")
		assert.ErrorIs(t, err, domain.ErrRequestDeleted)
	})

	t.Run("restore clears the flag", func(t *testing.T) {
		restored, err := svc.Restore(ctx, request.ID, admin.ID, "")
		require.NoError(t, err)
		assert.False(t, restored.IsDeleted)

		visible, total, err := svc.List(ctx, &ListRequestsInput{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, visible, 1)
	})
}

func TestRequestUpdateOnlyWhilePending(t *testing.T) {
	db := setupTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	researcher := seedUser(t, db, "dave", models.RoleResearcher)
	admin := seedUser(t, db, "chief", models.RoleAdmin)

	request, err := svc.Create(ctx, researcher.ID, &CreateRequestInput{
		RequestType: models.RequestTypeOther,
		Description: "original text",
	}, "")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, request.ID, researcher.ID, &UpdateRequestInput{
		Description: "revised text",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "revised text", updated.Description)

	_, err = svc.ChangeStatus(ctx, request.ID, admin.ID, &StatusChangeInput{
		Status: models.RequestStatusInProcess,
	}, "")
	require.NoError(t, err)

	_, err = svc.Update(ctx, request.ID, researcher.ID, &UpdateRequestInput{
		Description: "too late",
	}, "")
	assert.ErrorIs(t, err, domain.ErrRequestResolved)
}

func TestRequestListFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := newRequestService(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice2", models.RoleResearcher)
	bob := seedUser(t, db, "bob2", models.RoleResearcher)
	project := seedProject(t, db, alice.ID)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, alice.ID, &CreateRequestInput{
			RequestType: models.RequestTypeResources,
			Description: "alice resources",
			ProjectID:   &project.ID,
		}, "")
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, bob.ID, &CreateRequestInput{
		RequestType: models.RequestTypeOther,
		Description: "bob misc",
	}, "")
	require.NoError(t, err)

	t.Run("filter by requester", func(t *testing.T) {
		_, total, err := svc.List(ctx, &ListRequestsInput{Page: 1, Limit: 10, RequesterID: &alice.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("filter by type", func(t *testing.T) {
		_, total, err := svc.List(ctx, &ListRequestsInput{Page: 1, Limit: 10, RequestType: models.RequestTypeOther})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("invalid status filter is rejected", func(t *testing.T) {
		_, _, err := svc.List(ctx, &ListRequestsInput{Page: 1, Limit: 10, Status: "MAYBE"})
		assert.ErrorIs(t, err, models.ErrRequestStatusInvalid)
	})

	t.Run("pagination caps the page size", func(t *testing.T) {
		items, total, err := svc.List(ctx, &ListRequestsInput{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, items, 2)
	})
}
