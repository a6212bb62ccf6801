package usecase

import (
	"TabSorter/internal/domain"
)

type record struct {
	tab        domain.Tab
	key        domain.TabKey
	status     domain.Status
	assignment domain.Assignment
}

// runState is the arena owned by a single run. Records are addressed by index;
// keys keep their first-seen order so batches are deterministic.
type runState struct {
	records []record
	byKey   map[domain.TabKey][]int
	keys    []domain.TabKey

	remote   bool
	attempts int
	calls    int
	stopped  bool
	failures []BatchFailure
	rejected int
	queued   int
}

func newRunState(tabs []domain.Tab) *runState {
	st := &runState{
		records: make([]record, len(tabs)),
		byKey:   make(map[domain.TabKey][]int, len(tabs)),
	}
	for i, t := range tabs {
		key := t.Key()
		st.records[i] = record{tab: t, key: key}
		if _, seen := st.byKey[key]; !seen {
			st.keys = append(st.keys, key)
		}
		st.byKey[key] = append(st.byKey[key], i)
	}
	return st
}

// pending returns the unresolved keys in first-seen order.
func (st *runState) pending() []domain.TabKey {
	var out []domain.TabKey
	for _, key := range st.keys {
		if st.isPending(key) {
			out = append(out, key)
		}
	}
	return out
}

func (st *runState) isPending(key domain.TabKey) bool {
	idx, ok := st.byKey[key]
	return ok && st.records[idx[0]].status == domain.StatusUnresolved
}

// tab returns the representative descriptor of key.
func (st *runState) tab(key domain.TabKey) domain.Tab {
	return st.records[st.byKey[key][0]].tab
}

// resolve assigns a to every still-unresolved record sharing key. Records that
// were already resolved are never revisited.
func (st *runState) resolve(key domain.TabKey, a domain.Assignment, status domain.Status) int {
	n := 0
	for _, i := range st.byKey[key] {
		rec := &st.records[i]
		if rec.status != domain.StatusUnresolved {
			continue
		}
		a.Key = key
		a.TabID = rec.tab.ID
		rec.assignment = a
		rec.status = status
		n++
	}
	if n > 0 && a.Source.Remote() {
		st.remote = true
	}
	return n
}

func (st *runState) assignments() []domain.Assignment {
	out := make([]domain.Assignment, len(st.records))
	for i, rec := range st.records {
		out[i] = rec.assignment
	}
	return out
}

func (st *runState) groups() map[string][]int {
	out := map[string][]int{}
	for _, rec := range st.records {
		out[rec.assignment.Category] = append(out[rec.assignment.Category], rec.tab.ID)
	}
	return out
}

func (st *runState) countBySource() map[domain.Source]int {
	out := map[domain.Source]int{}
	for _, rec := range st.records {
		out[rec.assignment.Source]++
	}
	return out
}
