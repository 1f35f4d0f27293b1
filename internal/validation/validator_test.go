// Tutorhub - Tutoring Session Lifecycle and Report Generation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tutorhub

package validation

import (
	"strings"
	"testing"
)

type bookRequest struct {
	TutorID  string `json:"tutorId" validate:"required,uuid"`
	Duration int    `json:"duration" validate:"session_duration"`
	Status   string `json:"status,omitempty" validate:"omitempty,session_status"`
	Comment  string `json:"comment" validate:"omitempty,notblank,max=10"`
	Score    int    `json:"score" validate:"gte=1,lte=5"`
}

func validBook() bookRequest {
	return bookRequest{
		TutorID:  "6f1b2c1e-7c1a-4a59-9a4f-4f6b1d1c2e3f",
		Duration: 30,
		Score:    5,
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()
	req := validBook()
	req.Status = "LIVE"
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		mutate    func(*bookRequest)
		wantField string
		wantTag   string
	}{
		{"missing tutor", func(r *bookRequest) { r.TutorID = "" }, "tutorId", "required"},
		{"bad uuid", func(r *bookRequest) { r.TutorID = "nope" }, "tutorId", "uuid"},
		{"duration 90", func(r *bookRequest) { r.Duration = 90 }, "duration", "session_duration"},
		{"unknown status", func(r *bookRequest) { r.Status = "DONE" }, "status", "session_status"},
		{"blank comment", func(r *bookRequest) { r.Comment = "   " }, "comment", "notblank"},
		{"long comment", func(r *bookRequest) { r.Comment = "abcdefghijk" }, "comment", "max"},
		{"score 0", func(r *bookRequest) { r.Score = 0 }, "score", "gte"},
		{"score 6", func(r *bookRequest) { r.Score = 6 }, "score", "lte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := validBook()
			tt.mutate(&req)
			verr := ValidateStruct(&req)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.wantField || errs[0].Tag() != tt.wantTag {
				t.Errorf("got %s/%s, want %s/%s", errs[0].Field(), errs[0].Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	t.Parallel()
	req := validBook()
	req.Duration = 20
	single := ValidateStruct(&req).ToAPIError()
	if single.Code != CodeValidation {
		t.Errorf("code = %s", single.Code)
	}
	if single.Details["field"] != "duration" {
		t.Errorf("details = %v", single.Details)
	}

	req.TutorID = ""
	multi := ValidateStruct(&req).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 2 {
		t.Fatalf("details = %v, want two fields", multi.Details)
	}
	if !strings.Contains(multi.Message, "tutorId is required") {
		t.Errorf("message = %q", multi.Message)
	}
}

func TestToModelError(t *testing.T) {
	t.Parallel()
	req := validBook()
	req.Duration = 20
	me := ValidateStruct(&req).ToModelError()
	if me.Field != "duration" || !strings.Contains(me.Message, "15, 30, 45, or 60") {
		t.Errorf("model error = %+v", me)
	}
}
