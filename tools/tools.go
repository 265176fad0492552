//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run via `go run` or installed globally and are not tracked
// in go.mod since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - Mock generation for the core interfaces
//   Run: go generate ./internal/mocks
//   Version: v0.6.0 (pinned in the go:generate directives)
//   Docs: https://github.com/uber-go/mock
//
// golangci-lint - Lint aggregator used in CI
//   Install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@v1.64.8
//   Docs: https://golangci-lint.run
