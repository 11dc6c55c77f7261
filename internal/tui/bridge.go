package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typerace/internal/race"
)

// Bridge forwards engine snapshots to a running Bubble Tea program.
type Bridge struct {
	mu      sync.Mutex
	program *tea.Program
	pending *race.Snapshot
	seq     uint64

	// sendMu keeps frames in render order.
	sendMu sync.Mutex
}

// Attach connects the program. A frame rendered before attaching is replayed
// unless a newer one was rendered in the meantime.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	pending := b.pending
	b.pending = nil
	seq := b.seq
	b.mu.Unlock()
	if pending == nil {
		return
	}
	go func() {
		b.sendMu.Lock()
		defer b.sendMu.Unlock()
		b.mu.Lock()
		stale := b.seq != seq
		b.mu.Unlock()
		if !stale {
			p.Send(SnapshotMsg(*pending))
		}
	}()
}

// Render implements race.View.
func (b *Bridge) Render(s race.Snapshot) {
	b.mu.Lock()
	b.seq++
	p := b.program
	if p == nil {
		b.pending = &s
	}
	b.mu.Unlock()
	if p == nil {
		return
	}
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	p.Send(SnapshotMsg(s))
}
