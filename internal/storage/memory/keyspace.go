package memory

import "github.com/yndnr/memkv-go/internal/core/domain"

// DefaultDatabases is the database count used when none is configured.
const DefaultDatabases = 16

// Keyspace is the fixed set of numbered databases.
type Keyspace struct {
	dbs []*Database
}

// DBStats summarises one database.
type DBStats struct {
	Index int
	Keys  int
}

// New creates a keyspace with n databases. n < 1 uses DefaultDatabases.
func New(n int) *Keyspace {
	if n < 1 {
		n = DefaultDatabases
	}
	ks := &Keyspace{dbs: make([]*Database, n)}
	for i := range ks.dbs {
		ks.dbs[i] = NewDatabase(i)
	}
	return ks
}

// DB returns database i.
func (k *Keyspace) DB(i int) (*Database, error) {
	if i < 0 || i >= len(k.dbs) {
		return nil, domain.ErrDBIndexOutOfRange
	}
	return k.dbs[i], nil
}

// Len returns the number of databases.
func (k *Keyspace) Len() int {
	return len(k.dbs)
}

// FlushAll empties every database.
func (k *Keyspace) FlushAll() {
	for _, db := range k.dbs {
		db.Flush()
	}
}

// Stats returns key counts for the non-empty databases.
func (k *Keyspace) Stats() []DBStats {
	var stats []DBStats
	for _, db := range k.dbs {
		if n := db.Len(); n > 0 {
			stats = append(stats, DBStats{Index: db.index, Keys: n})
		}
	}
	return stats
}

// TotalKeys returns the key count over all databases.
func (k *Keyspace) TotalKeys() int {
	total := 0
	for _, db := range k.dbs {
		total += db.Len()
	}
	return total
}
