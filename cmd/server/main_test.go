package main

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/insights/auth"
	"github.com/open-rails/insights/config"
	"github.com/open-rails/insights/lookup"
)

func TestNewSchedule_WarmScheduleValidation(t *testing.T) {
	log := logrus.NewEntry(logrus.New())
	js := auth.NewJWKSKeySource(auth.JWKSConfig{URL: "http://127.0.0.1:1/jwks"}, nil)
	dir := lookup.NewDirectory(nil, nil, "", nil)

	sched := newSchedule(&config.Config{JWKSWarmSchedule: "@every 15m"}, js, dir, log)
	if got := len(sched.Entries()); got != 2 {
		t.Fatalf("valid schedule: got %d cron entries, want 2", got)
	}

	// A bad expression drops the warm job (with a logged warning) but must
	// not take the directory refresh down with it.
	sched = newSchedule(&config.Config{JWKSWarmSchedule: "every day at noon"}, js, dir, log)
	if got := len(sched.Entries()); got != 1 {
		t.Fatalf("invalid schedule: got %d cron entries, want 1", got)
	}
}
