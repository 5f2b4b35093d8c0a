package audit

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// idGenerator issues monotonic ULIDs; entropy is not safe for concurrent use.
type idGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newIDGenerator() *idGenerator {
	return &idGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// next fails for timestamps a ULID cannot encode (before 1970 or past year 10889).
func (g *idGenerator) next(t time.Time) (EntryID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), g.entropy)
	if err != nil {
		return "", err
	}
	return EntryID(id.String()), nil
}
