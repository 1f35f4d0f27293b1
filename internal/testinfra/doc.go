// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

// Package testinfra provides container infrastructure for integration tests.
//
// The package uses testcontainers-go to run a standalone NATS server with
// JetStream, so the report queue can be exercised against the same broker
// build that runs in production instead of the in-process server the unit
// tests use:
//
//	func TestQueueAgainstContainer(t *testing.T) {
//	    broker := testinfra.StartNATS(t)
//	    nc, err := reportqueue.Connect(broker.URL, 5*time.Second)
//	    // ...
//	}
//
// # CI Considerations
//
// Every file is behind the integration build tag. Tests need Docker and are
// skipped when the daemon is unreachable. StartNATS terminates its
// container when the test ends. The first run pulls the image.
package testinfra
