// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

/*
Package authz gates API operations by role using Casbin.

The request tuple is (role, object, action), for example
(TUTOR, report, create). The embedded model and policy grant each role the
operations it may attempt at all; whether the caller is a participant of a
particular session is decided by the session and report services, not here.

Objects and actions used by the router:

	user           read
	session        create, read, update, cancel
	room           join
	message        create, read
	note           write, read
	rating         create, read
	report         create, read, list
	tutor_metrics  read, recalculate
	queue          read

A deployment may replace the model or policy with files named by
security.casbin.model_path and security.casbin.policy_path.

Usage:

	enforcer, err := authz.NewEnforcer(&cfg.Security.Casbin)
	mw := authz.NewMiddleware(enforcer, writeError)
	r.With(mw.Require(authz.ObjectReport, authz.ActionCreate)).Post(...)
*/
package authz
