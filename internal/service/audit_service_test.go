package service

import (
	"context"
	"testing"
	"time"

	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuditService_Log_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	done := make(chan *domain.AuditLog, 1)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			done <- log
			return nil
		},
	)

	svc.Log(context.Background(), auditEntry(domain.AuditActionWalletCommand, "user_1", domain.AdminUserID, "wallet", "BUY", "127.0.0.1"))

	select {
	case got := <-done:
		assert.Equal(t, domain.AuditActionWalletCommand, got.Action)
		assert.NotEqual(t, uuid.Nil, got.ID)
		assert.False(t, got.CreatedAt.IsZero())
		if assert.NotNil(t, got.ActorID) {
			assert.Equal(t, domain.AdminUserID, *got.ActorID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Log_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, newTestLogger())

	// Should not panic
	svc.Log(context.Background(), auditEntry(domain.AuditActionLogin, "user_1", "", "session", "", "127.0.0.1"))

	time.Sleep(50 * time.Millisecond) // let goroutine run
}

func TestAuditEntry_SelfActorOmitted(t *testing.T) {
	entry := auditEntry(domain.AuditActionLogin, "user_1", "user_1", "session", "", "")
	assert.Nil(t, entry.ActorID)
	if assert.NotNil(t, entry.UserID) {
		assert.Equal(t, "user_1", *entry.UserID)
	}

	anon := auditEntry(domain.AuditActionRegister, "", "", "user", "", "")
	assert.Nil(t, anon.UserID)
}

func TestAuditService_Log_TakesIPFromContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, newTestLogger())

	done := make(chan *domain.AuditLog, 1)
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, log *domain.AuditLog) error {
			done <- log
			return nil
		},
	)

	ctx := domain.WithClientIP(context.Background(), "10.1.2.3")
	svc.Log(ctx, auditEntry(domain.AuditActionLogout, "user_1", "", "session", "jti", ""))

	select {
	case got := <-done:
		assert.Equal(t, "10.1.2.3", got.IPAddress)
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}
