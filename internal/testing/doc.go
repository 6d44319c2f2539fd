// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: Fluent builder for creating test configurations
//   - FakeCloud: In-memory Hetzner project behind an hcloud MockClient
//   - SSHServer: In-process SSH and SFTP server standing in for a node
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithClusterName("test").
//	    WithWorkers(2).
//	    Build()
//
//	cloud := testing.NewFakeCloud()
//	infra := cloud.Client()
package testing
