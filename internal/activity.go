package internal

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// ActivitySnapshot is one sample of the busiest process in the shell's tree.
type ActivitySnapshot struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name,omitempty"`
	CPUPercent float64 `json:"cpu_percent"`
	Active     bool    `json:"active"`
}

// ActivityProbe reports whether work is happening under the shell.
type ActivityProbe interface {
	// ActiveProcess returns the busiest process at or above the idle threshold.
	// ok is false when the tree is idle or could not be inspected.
	ActiveProcess(ctx context.Context) (snap ActivitySnapshot, ok bool)
}

// ActivityTracker samples CPU usage of the shell and all of its descendants.
//
// Usage is measured between consecutive calls, so the tracker keeps a handle per PID.
// The first time a PID is seen its lifetime average is used instead, which lets a
// freshly started busy process count as active on its first sample.
//
// CPU is a heuristic: a process blocked on I/O (sleep, read, a network wait) looks
// exactly like a finished one.
type ActivityTracker struct {
	root      int32
	threshold float64
	log       *zap.Logger

	mu      sync.Mutex
	handles map[int32]*process.Process
}

// NewActivityTracker watches the tree rooted at rootPID. Processes below threshold
// percent of one CPU are idle.
func NewActivityTracker(rootPID int, threshold float64, log *zap.Logger) *ActivityTracker {
	return &ActivityTracker{
		root:      int32(rootPID),
		threshold: threshold,
		log:       orNop(log),
		handles:   make(map[int32]*process.Process),
	}
}

// ActiveProcess never fails; OS query errors degrade to "no active process".
func (t *ActivityTracker) ActiveProcess(ctx context.Context) (ActivitySnapshot, bool) {
	pids, err := t.tree(ctx)
	if err != nil {
		t.log.Debug("process listing failed", zap.Error(err))
		return ActivitySnapshot{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var best ActivitySnapshot
	found := false
	live := make(map[int32]struct{}, len(pids))
	for _, pid := range pids {
		live[pid] = struct{}{}
		pct, err := t.sample(ctx, pid)
		if err != nil {
			// exited between listing and sampling
			continue
		}
		if !found || pct > best.CPUPercent {
			best = ActivitySnapshot{PID: pid, CPUPercent: pct}
			found = true
		}
	}
	for pid := range t.handles {
		if _, ok := live[pid]; !ok {
			delete(t.handles, pid)
		}
	}
	if !found {
		return ActivitySnapshot{}, false
	}

	if name, err := t.handles[best.PID].NameWithContext(ctx); err == nil {
		best.Name = name
	}
	best.Active = best.CPUPercent >= t.threshold
	return best, best.Active
}

func (t *ActivityTracker) sample(ctx context.Context, pid int32) (float64, error) {
	if h, ok := t.handles[pid]; ok {
		return h.PercentWithContext(ctx, 0)
	}

	h, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return 0, err
	}
	// sets the baseline for the next Percent call
	if _, err := h.PercentWithContext(ctx, 0); err != nil {
		return 0, err
	}
	t.handles[pid] = h
	return h.CPUPercentWithContext(ctx)
}

// tree lists the root and every descendant, parents before children.
func (t *ActivityTracker) tree(ctx context.Context) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	children := make(map[int32][]int32)
	for _, p := range procs {
		ppid, err := p.PpidWithContext(ctx)
		if err != nil {
			continue
		}
		children[ppid] = append(children[ppid], p.Pid)
	}

	seen := map[int32]bool{t.root: true}
	pids := []int32{t.root}
	for i := 0; i < len(pids); i++ {
		for _, child := range children[pids[i]] {
			if !seen[child] {
				seen[child] = true
				pids = append(pids, child)
			}
		}
	}
	return pids, nil
}
