package sqlite

import "context"

// Storage bundles the SQLite repositories behind one handle so callers can
// open, migrate, and close the database as a unit.
type Storage struct {
	pool *ConnectionPool

	*ResourceRepository
	*ReservationRepository
	*UserRepository
	*SessionRepository
}

// Open connects to the SQLite database identified by dsn.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:                  pool,
		ResourceRepository:    NewResourceRepository(pool),
		ReservationRepository: NewReservationRepository(pool),
		UserRepository:        NewUserRepository(pool),
		SessionRepository:     NewSessionRepository(pool),
	}, nil
}

// Migrate applies pending schema versions.
func (s *Storage) Migrate(ctx context.Context) error {
	return s.pool.Migrate(ctx)
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	return s.pool.Close()
}
