package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/halcyard/windrose/internal/orchestrator"
	"github.com/halcyard/windrose/internal/task"
	"github.com/halcyard/windrose/internal/travel"
)

func sampleTask() *task.Task {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &task.Task{
		ID: uuid.New().String(),
		Request: &travel.TripRequest{
			Destination: "杭州",
			StartDate:   "2026-05-01",
			EndDate:     "2026-05-03",
			Budget:      travel.TierMid,
			GroupSize:   2,
		},
		Engine:    task.EngineSociety,
		Status:    task.StatusDone,
		Progress:  100,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func samplePlan() *orchestrator.PlanResult {
	return &orchestrator.PlanResult{
		ID: uuid.New().String(),
		Request: &travel.TripRequest{
			Destination: "北京",
			StartDate:   "2026-10-01",
			EndDate:     "2026-10-03",
		},
		Consensus: 0.8,
		Engine:    "society",
		CreatedAt: time.Now().UTC(),
	}
}

func TestTaskPersistence(t *testing.T) {
	ctx := context.Background()
	sample := sampleTask()

	if err := testPGStore.SaveTask(ctx, sample); err != nil {
		t.Fatalf("save task: %v", err)
	}

	got, err := testPGStore.GetTask(ctx, sample.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Request.Destination != "杭州" {
		t.Errorf("got destination %q, want 杭州", got.Request.Destination)
	}
	if got.Status != task.StatusDone || got.Progress != 100 {
		t.Errorf("got status %s progress %d, want done 100", got.Status, got.Progress)
	}

	// Saving again with new state updates in place.
	sample.Status = task.StatusFailed
	sample.Error = "boom"
	if err := testPGStore.SaveTask(ctx, sample); err != nil {
		t.Fatalf("resave task: %v", err)
	}
	got, err = testPGStore.GetTask(ctx, sample.ID)
	if err != nil {
		t.Fatalf("get task after update: %v", err)
	}
	if got.Status != task.StatusFailed || got.Error != "boom" {
		t.Errorf("upsert did not update: status %s error %q", got.Status, got.Error)
	}

	tasks, err := testPGStore.ListTasks(ctx, 10)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) == 0 {
		t.Fatal("expected at least one task listed")
	}
}

func TestTaskPurge(t *testing.T) {
	ctx := context.Background()
	old := sampleTask()
	old.UpdatedAt = time.Now().Add(-48 * time.Hour)
	if err := testPGStore.SaveTask(ctx, old); err != nil {
		t.Fatalf("save task: %v", err)
	}

	n, err := testPGStore.PurgeTasks(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n == 0 {
		t.Error("expected the stale task to be purged")
	}
	if _, err := testPGStore.GetTask(ctx, old.ID); err == nil {
		t.Error("purged task should be gone")
	}
}

func TestTripPersistence(t *testing.T) {
	ctx := context.Background()
	plan := samplePlan()

	if err := testPGStore.SaveTrip(ctx, plan); err != nil {
		t.Fatalf("save trip: %v", err)
	}

	got, err := testPGStore.GetTrip(ctx, plan.ID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if got.Request.Destination != "北京" {
		t.Errorf("got destination %q, want 北京", got.Request.Destination)
	}

	records, err := testPGStore.ListTrips(ctx, 10)
	if err != nil {
		t.Fatalf("list trips: %v", err)
	}
	found := false
	for _, r := range records {
		if r.ID == plan.ID {
			found = true
			if r.Headline != plan.Headline() {
				t.Errorf("got headline %q, want %q", r.Headline, plan.Headline())
			}
		}
	}
	if !found {
		t.Fatal("saved trip missing from listing")
	}

	if err := testPGStore.DeleteTrip(ctx, plan.ID); err != nil {
		t.Fatalf("delete trip: %v", err)
	}
	if err := testPGStore.DeleteTrip(ctx, plan.ID); err == nil {
		t.Error("deleting a missing trip should error")
	}
}
