package runtime

import (
	"fmt"
	"sync"
	"time"
)

// SandboxInfo records the resource ceiling and live status of one execution's
// wasm sandbox — adapted from core/vm_sandbox_management.go's SandboxInfo,
// retargeted from a ledger-broadcast contract registry to an in-process
// diagnostics registry for wasm page growth (the core has no ledger or
// broadcast layer — spec.md §1 excludes durable storage and an RPC surface).
type SandboxInfo struct {
	ExecutionID string
	MaxPages    uint32
	UsedPages   uint32
	Started     time.Time
	Active      bool
}

var (
	sandboxMu sync.RWMutex
	sandboxes = make(map[string]*SandboxInfo)
)

// StartSandbox registers a new execution's sandbox, bounding it to maxPages
// 64KiB wasm pages.
func StartSandbox(executionID string, maxPages uint32) *SandboxInfo {
	sandboxMu.Lock()
	defer sandboxMu.Unlock()
	info := &SandboxInfo{ExecutionID: executionID, MaxPages: maxPages, Started: time.Now(), Active: true}
	sandboxes[executionID] = info
	return info
}

// GrowSandbox records an attempt to grow linear memory by delta pages,
// refusing the growth (without mutating UsedPages) if it would exceed
// MaxPages.
func GrowSandbox(executionID string, delta uint32) error {
	sandboxMu.Lock()
	defer sandboxMu.Unlock()
	info, ok := sandboxes[executionID]
	if !ok {
		return fmt.Errorf("runtime: sandbox %s not started", executionID)
	}
	if info.UsedPages+delta > info.MaxPages {
		return fmt.Errorf("runtime: sandbox %s: memory growth to %d pages exceeds limit of %d", executionID, info.UsedPages+delta, info.MaxPages)
	}
	info.UsedPages += delta
	return nil
}

// SyncPages updates executionID's recorded page usage to pages (not a
// delta — the guest grows its own memory via the wasm `memory.grow`
// instruction, invisible to the host until observed), returning an error if
// that now exceeds MaxPages. The caller decides whether to treat this as
// fatal; SyncPages itself never blocks the execution it is reporting on.
func SyncPages(executionID string, pages uint32) error {
	sandboxMu.Lock()
	defer sandboxMu.Unlock()
	info, ok := sandboxes[executionID]
	if !ok {
		return fmt.Errorf("runtime: sandbox %s not started", executionID)
	}
	info.UsedPages = pages
	if pages > info.MaxPages {
		return fmt.Errorf("runtime: sandbox %s: memory grew to %d pages, exceeding limit of %d", executionID, pages, info.MaxPages)
	}
	return nil
}

// StopSandbox marks an execution's sandbox inactive. The record is kept for
// post-mortem inspection rather than deleted outright.
func StopSandbox(executionID string) {
	sandboxMu.Lock()
	defer sandboxMu.Unlock()
	if info, ok := sandboxes[executionID]; ok {
		info.Active = false
	}
}

// SandboxStatus returns the current record for executionID, if any.
func SandboxStatus(executionID string) (SandboxInfo, bool) {
	sandboxMu.RLock()
	defer sandboxMu.RUnlock()
	info, ok := sandboxes[executionID]
	if !ok {
		return SandboxInfo{}, false
	}
	return *info, true
}

// ListSandboxes returns a snapshot of every sandbox record, active or not.
func ListSandboxes() []SandboxInfo {
	sandboxMu.RLock()
	defer sandboxMu.RUnlock()
	out := make([]SandboxInfo, 0, len(sandboxes))
	for _, info := range sandboxes {
		out = append(out, *info)
	}
	return out
}
