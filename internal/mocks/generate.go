// Package mocks provides mock implementations for testing the boxsync
// reconciliation services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the repository interfaces in internal/core. To regenerate after interface
// changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	repo := mocks.NewMockPendingUpdateRepository(ctrl)
//	repo.EXPECT().DeleteMatching(gomock.Any(), chargeID, action).Return(pending, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=pending_update_repository_mock.go github.com/seasonalbox/boxsync/internal/core PendingUpdateRepository

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=faulty_subscription_repository_mock.go github.com/seasonalbox/boxsync/internal/core FaultySubscriptionRepository

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=customer_repository_mock.go github.com/seasonalbox/boxsync/internal/core CustomerRepository

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/seasonalbox/boxsync/internal/core JobRepository
