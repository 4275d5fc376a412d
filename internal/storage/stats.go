package storage

import (
	"context"
	"os"
)

// TableCounts holds row counts per table.
type TableCounts struct {
	Identities       int64
	Matches          int64
	ParticipantStats int64
	RankedSnapshots  int64
	SyncedPlayers    int64
	Settings         int64
}

// Stats describes the database and its contents.
type Stats struct {
	Driver       string
	DBPath       string
	DBSizeBytes  int64
	WALSizeBytes int64
	Tables       TableCounts
	LastSweep    *SweepResult
}

// Stats returns table row counts and on-disk sizes.
func (s *Storage) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{
		Driver:    s.driver,
		DBPath:    s.path,
		LastSweep: s.LastSweep(),
	}

	counts := []struct {
		table string
		dst   *int64
	}{
		{"identities", &st.Tables.Identities},
		{"matches", &st.Tables.Matches},
		{"participant_stats", &st.Tables.ParticipantStats},
		{"ranked_cache", &st.Tables.RankedSnapshots},
		{"sync_metadata", &st.Tables.SyncedPlayers},
		{"settings", &st.Tables.Settings},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, NewInfrastructureError("failed to count "+c.table, err)
		}
	}

	if s.path != "" && s.path != ":memory:" {
		st.DBSizeBytes = fileSize(s.path)
		walSuffix := ".wal"
		if s.driver == DriverSQLite {
			walSuffix = "-wal"
		}
		st.WALSizeBytes = fileSize(s.path + walSuffix)
	}

	return st, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
