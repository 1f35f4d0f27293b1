// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package authz

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"

	"github.com/tomtom215/tutorhub/internal/config"
	"github.com/tomtom215/tutorhub/internal/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Objects.
const (
	ObjectUser         = "user"
	ObjectSession      = "session"
	ObjectRoom         = "room"
	ObjectMessage      = "message"
	ObjectNote         = "note"
	ObjectRating       = "rating"
	ObjectReport       = "report"
	ObjectTutorMetrics = "tutor_metrics"
	ObjectQueue        = "queue"
)

// Actions.
const (
	ActionCreate      = "create"
	ActionRead        = "read"
	ActionUpdate      = "update"
	ActionCancel      = "cancel"
	ActionJoin        = "join"
	ActionWrite       = "write"
	ActionList        = "list"
	ActionRecalculate = "recalculate"
)

// Enforcer answers role x operation questions.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the model and policy named by cfg, falling back to the
// embedded defaults for empty paths.
func NewEnforcer(cfg *config.CasbinConfig) (*Enforcer, error) {
	var (
		m   model.Model
		err error
	)
	if cfg != nil && cfg.ModelPath != "" {
		if !fileExists(cfg.ModelPath) {
			return nil, fmt.Errorf("casbin model not found: %s", cfg.ModelPath)
		}
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg != nil && cfg.PolicyPath != "" {
		if !fileExists(cfg.PolicyPath) {
			return nil, fmt.Errorf("casbin policy not found: %s", cfg.PolicyPath)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m, stringadapter.NewAdapter(embeddedPolicy))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	rules, _ := enforcer.GetPolicy() //nolint:errcheck // only fails on a nil model
	PolicyRules.Set(float64(len(rules)))
	return &Enforcer{enforcer: enforcer}, nil
}

// Allowed reports whether role may perform action on object.
func (e *Enforcer) Allowed(role models.Role, object, action string) (bool, error) {
	start := time.Now()
	allowed, err := e.enforcer.Enforce(string(role), object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	recordDecision(role, object, action, allowed, time.Since(start))
	return allowed, nil
}

// Permissions lists the (object, action) pairs granted to role.
func (e *Enforcer) Permissions(role models.Role) [][]string {
	rules, _ := e.enforcer.GetFilteredPolicy(0, string(role)) //nolint:errcheck // only fails on a nil model
	perms := make([][]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) >= 3 {
			perms = append(perms, []string{rule[1], rule[2]})
		}
	}
	return perms
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
