// Package uploadid generates the upload/session identifiers that tie one
// asset's transfer to its configure call.
package uploadid

import (
	"strconv"
	"sync"
	"time"
)

// Generator produces upload ids.
type Generator interface {
	Next() string
}

type generator struct {
	mu   sync.Mutex
	last int64
}

// NewGenerator ...
func NewGenerator() Generator {
	return &generator{}
}

// Next returns a millisecond-epoch decimal string, the id format the
// upload endpoints expect. Ids are strictly increasing within a process,
// so two files uploaded in the same workflow never share one.
func (g *generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := time.Now().UnixNano() / int64(time.Millisecond)
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id

	return strconv.FormatInt(id, 10)
}
