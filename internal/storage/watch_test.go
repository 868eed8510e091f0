package storage

import (
	"testing"
	"time"
)

func TestWatchTriggersValidateOnFileChange(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(sampleScenario("watched"), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reports := make(chan Report, 4)
	w, err := s.Watch(func(r Report) { reports <- r })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if err := s.Save(sampleScenario("watched-2"), nil); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	select {
	case <-reports:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a Validate report after a filesystem write")
	}
}
