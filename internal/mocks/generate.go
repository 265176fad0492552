// Package mocks provides mock implementations for testing the report system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core repository interfaces. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockReportRepository(ctrl)
//	mockRepo.EXPECT().GetByID(gomock.Any(), gomock.Any()).Return(report, nil)
package mocks

// Generate mock for ReportRepository interface from internal/core package.
// This creates MockReportRepository with methods for all ReportRepository interface methods:
// CreateIfNoneActive, GetByID, ClaimPending, MarkRunning, MarkCompleted, MarkFailed, FailStaleRunning, List, WaitForNotification
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=report_repository_mock.go github.com/loopkitchen/storewatch/internal/core ReportRepository

// Generate mock for ObservationRepository interface from internal/core package.
// This creates MockObservationRepository with methods for all ObservationRepository interface methods:
// LatestTimestamp, ListByStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=observation_repository_mock.go github.com/loopkitchen/storewatch/internal/core ObservationRepository

// Generate mock for CatalogRepository interface from internal/core package.
// This creates MockCatalogRepository with methods for all CatalogRepository interface methods:
// StoreIDs, BusinessHours, Timezone
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=catalog_repository_mock.go github.com/loopkitchen/storewatch/internal/core CatalogRepository

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/loopkitchen/storewatch/internal/core CacheRepository

// Generate mock for ReportGenerator interface from internal/core package.
// This creates MockReportGenerator with methods for all ReportGenerator interface methods:
// Generate
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=report_generator_mock.go github.com/loopkitchen/storewatch/internal/core ReportGenerator
