// Package mocks provides mock implementations for testing the releasegate services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// core repository interfaces. The mocks are generated using go:generate directives.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for JobRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/target/releasegate/internal/core JobRepository

// Generate mock for ResultRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=result_repository_mock.go github.com/target/releasegate/internal/core ResultRepository

// Generate mock for DecisionRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=decision_repository_mock.go github.com/target/releasegate/internal/core DecisionRepository

// Generate mock for AggregateRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=aggregate_repository_mock.go github.com/target/releasegate/internal/core AggregateRepository
