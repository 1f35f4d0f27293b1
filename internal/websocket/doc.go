// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package websocket streams report job progress to browsers.

A client connects to GET /api/reports/session/{id}/events. The hub registers
the connection under the session id, sends a report_status snapshot of the
current job state and then forwards every QueueEvent for that session as a
report_event message. The connection is closed by the server after a
terminal event (completed or failed), or right after the snapshot when the
job has already finished.

	reportqueue worker --QueueEvent--> watermill topic reports.events
	                                        |
	                                   EventBridge.Serve
	                                        |
	                                   Hub.Publish --> clients of session

Hub and EventBridge both implement suture.Service.

Messages:

	{"type":"report_status","data":{...ReportStatus...}}
	{"type":"report_event","data":{...QueueEvent...}}
	{"type":"pong","data":null}
*/
package websocket
