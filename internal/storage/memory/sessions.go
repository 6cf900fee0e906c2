package memory

// sessionIndex is a capacity-bounded membership index over processed session
// ids. Sessions are grouped into fixed-size epochs; when adding a session
// would exceed the capacity, the whole oldest epoch is evicted. Durable
// history stays in the settlement records (or the Postgres store) — only the
// hot membership index is bounded here, so memory use never grows without
// limit the way an append-only session list would.
//
// Eviction means a session older than the retained window could in principle
// be replayed against this store; deployments that need indefinite replay
// protection keep the Postgres store, whose unique index covers all history.
type sessionIndex struct {
	capacity int
	epochLen int
	epochs   []map[string]struct{}
	size     int
}

// epochCount controls the eviction granularity: the index holds its sessions
// across this many epochs and drops the oldest one when full.
const epochCount = 8

func newSessionIndex(capacity int) *sessionIndex {
	epochLen := capacity / epochCount
	if epochLen < 1 {
		epochLen = 1
	}
	return &sessionIndex{
		capacity: capacity,
		epochLen: epochLen,
		epochs:   []map[string]struct{}{{}},
	}
}

func (ix *sessionIndex) seen(sessionID string) bool {
	for _, epoch := range ix.epochs {
		if _, ok := epoch[sessionID]; ok {
			return true
		}
	}
	return false
}

func (ix *sessionIndex) add(sessionID string) {
	current := ix.epochs[len(ix.epochs)-1]
	if len(current) >= ix.epochLen {
		current = map[string]struct{}{}
		ix.epochs = append(ix.epochs, current)
	}
	current[sessionID] = struct{}{}
	ix.size++

	for ix.size > ix.capacity && len(ix.epochs) > 1 {
		ix.size -= len(ix.epochs[0])
		ix.epochs = ix.epochs[1:]
	}
}

// len reports the number of sessions currently tracked.
func (ix *sessionIndex) len() int {
	return ix.size
}
