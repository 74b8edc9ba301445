package teenastro

import (
	"sync"
	"testing"
	"time"

	"teenastro/pkg/alpaca"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestCodec(t *testing.T) (*Codec, *Simulator) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	sim := NewSimulator()
	return NewCodec(sim, logger), sim
}

// recorder collects published fields.
type recorder struct {
	mu     sync.Mutex
	fields []alpaca.Field
}

func (r *recorder) Publish(f alpaca.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = append(r.fields, f)
}

func (r *recorder) last(id string) (alpaca.Field, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.fields) - 1; i >= 0; i-- {
		if r.fields[i].ID == id {
			return r.fields[i], true
		}
	}
	return alpaca.Field{}, false
}

func (r *recorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.fields {
		if f.ID == id {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = nil
}

// memParks is an in-memory ParkStore.
type memParks struct {
	parks map[string]ParkPosition
	err   error
}

func (p *memParks) LoadPark(id string) (ParkPosition, bool, error) {
	if p.err != nil {
		return ParkPosition{}, false, p.err
	}
	pos, ok := p.parks[id]
	return pos, ok, nil
}

func (p *memParks) StorePark(id string, pos ParkPosition) error {
	if p.err != nil {
		return p.err
	}
	if p.parks == nil {
		p.parks = make(map[string]ParkPosition)
	}
	p.parks[id] = pos
	return nil
}

type mountFixture struct {
	mount  *Mount
	sim    *Simulator
	rec    *recorder
	parks  *memParks
	sleeps []time.Duration
}

func newMountFixture(t *testing.T, site Site) *mountFixture {
	t.Helper()
	logger, _ := test.NewNullLogger()

	f := &mountFixture{sim: NewSimulator(), rec: &recorder{}, parks: &memParks{}}
	codec := NewCodec(f.sim, logger)
	f.mount = NewMount(codec, NewLX200(codec), f.rec, f.parks, "mount-1", site, logger)
	f.mount.sleep = func(d time.Duration) { f.sleeps = append(f.sleeps, d) }
	return f
}

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	db, err := bolt.Open(t.TempDir()+"/test.db", 0600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
