package runtime

import "testing"

func TestSandboxLifecycle(t *testing.T) {
	const id = "exec-sandbox-test-1"
	StartSandbox(id, 16)
	defer StopSandbox(id)

	if err := GrowSandbox(id, 10); err != nil {
		t.Fatalf("GrowSandbox(10): %v", err)
	}
	info, ok := SandboxStatus(id)
	if !ok {
		t.Fatal("expected sandbox status to exist")
	}
	if info.UsedPages != 10 {
		t.Fatalf("UsedPages = %d, want 10", info.UsedPages)
	}
	if !info.Active {
		t.Fatal("expected sandbox to be active")
	}
}

func TestSandboxGrowBeyondLimitRefused(t *testing.T) {
	const id = "exec-sandbox-test-2"
	StartSandbox(id, 4)
	defer StopSandbox(id)

	if err := GrowSandbox(id, 5); err == nil {
		t.Fatal("expected growth beyond MaxPages to fail")
	}
	info, _ := SandboxStatus(id)
	if info.UsedPages != 0 {
		t.Fatalf("UsedPages = %d after refused growth, want 0", info.UsedPages)
	}
}

func TestSandboxStopMarksInactiveButKeepsRecord(t *testing.T) {
	const id = "exec-sandbox-test-3"
	StartSandbox(id, 4)
	StopSandbox(id)

	info, ok := SandboxStatus(id)
	if !ok {
		t.Fatal("expected stopped sandbox's record to remain for inspection")
	}
	if info.Active {
		t.Fatal("expected Active to be false after StopSandbox")
	}
}

func TestSyncPagesSetsAbsoluteUsageAndFlagsOverrun(t *testing.T) {
	const id = "exec-sandbox-test-sync"
	StartSandbox(id, 4)
	defer StopSandbox(id)

	if err := SyncPages(id, 2); err != nil {
		t.Fatalf("SyncPages(2) within limit: %v", err)
	}
	info, _ := SandboxStatus(id)
	if info.UsedPages != 2 {
		t.Fatalf("UsedPages = %d, want 2", info.UsedPages)
	}

	// A later, smaller observation overwrites rather than accumulates —
	// SyncPages reports absolute usage, unlike GrowSandbox's delta.
	if err := SyncPages(id, 1); err != nil {
		t.Fatalf("SyncPages(1): %v", err)
	}
	info, _ = SandboxStatus(id)
	if info.UsedPages != 1 {
		t.Fatalf("UsedPages = %d, want 1", info.UsedPages)
	}

	if err := SyncPages(id, 5); err == nil {
		t.Fatal("expected SyncPages beyond MaxPages to report an error")
	}
	info, _ = SandboxStatus(id)
	if info.UsedPages != 5 {
		t.Fatalf("UsedPages = %d, want 5 even when it overruns MaxPages (diagnostic, not blocking)", info.UsedPages)
	}
}

func TestListSandboxesIncludesStarted(t *testing.T) {
	const id = "exec-sandbox-test-4"
	StartSandbox(id, 8)
	defer StopSandbox(id)

	found := false
	for _, info := range ListSandboxes() {
		if info.ExecutionID == id {
			found = true
		}
	}
	if !found {
		t.Fatal("expected ListSandboxes to include the started sandbox")
	}
}
