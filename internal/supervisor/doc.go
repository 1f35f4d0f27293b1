// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package supervisor provides process supervision for Tutorhub using suture v4.

The supervisor tree groups long-running services into three layers:

	RootSupervisor ("tutorhub")
	├── DataSupervisor ("data-layer")
	│   └── NATSServerService (embedded broker, if NATS_EMBEDDED)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── reportqueue.Worker (if QUEUE_ENABLED)
	│   ├── websocket.Hub
	│   └── websocket.EventBridge
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer counts failures independently, so a report worker that keeps
crashing backs off without taking the HTTP server with it. Supervisor events
are logged through sutureslog on top of the zerolog sink.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(worker)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# See Also

  - internal/supervisor/services: suture.Service wrappers
  - github.com/thejerf/suture/v4
*/
package supervisor
