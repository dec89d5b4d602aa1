// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"fmt"
	"sync"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
)

// readyCheckRegistry routes acknowledgement events to the active ready
// check they belong to. Entries live only for the duration of one check.
type readyCheckRegistry struct {
	mu     sync.RWMutex
	active map[string]*ReadyCheck
}

func newReadyCheckRegistry() *readyCheckRegistry {
	return &readyCheckRegistry{active: make(map[string]*ReadyCheck)}
}

func (r *readyCheckRegistry) add(rc *ReadyCheck) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[rc.ID] = rc
}

func (r *readyCheckRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

func (r *readyCheckRegistry) get(id string) (*ReadyCheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rc, ok := r.active[id]
	if !ok {
		return nil, fmt.Errorf("ready check %q: %w", id, models.ErrReadyCheckNotFound)
	}
	return rc, nil
}
