package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/l1jgo/shipcore/internal/ai"
)

// ErrDigestMismatch means a stored payload no longer hashes to its digest.
var ErrDigestMismatch = errors.New("routine library digest mismatch")

type RoutineLibraryRow struct {
	Name         string
	Digest       string
	RoutineCount int
	UpdatedAt    time.Time
}

type RoutineRepo struct {
	db *DB
}

func NewRoutineRepo(db *DB) *RoutineRepo {
	return &RoutineRepo{db: db}
}

// Save upserts lib under name. Saving an identical library leaves
// updated_at untouched.
func (r *RoutineRepo) Save(ctx context.Context, name string, lib *ai.Library) (string, error) {
	payload, err := ai.EncodeLibrary(lib)
	if err != nil {
		return "", err
	}
	digest, err := lib.Digest()
	if err != nil {
		return "", err
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO routine_libraries (name, digest, payload, routine_count)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET
		     digest = EXCLUDED.digest,
		     payload = EXCLUDED.payload,
		     routine_count = EXCLUDED.routine_count,
		     updated_at = now()
		 WHERE routine_libraries.digest <> EXCLUDED.digest`,
		name, digest, payload, lib.Len(),
	)
	if err != nil {
		return "", fmt.Errorf("save routine library %s: %w", name, err)
	}
	return digest, nil
}

// Load returns nil, nil when no library is stored under name.
func (r *RoutineRepo) Load(ctx context.Context, name string) (*ai.Library, error) {
	var digest string
	var payload []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT digest, payload FROM routine_libraries WHERE name = $1`, name,
	).Scan(&digest, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load routine library %s: %w", name, err)
	}

	lib, err := ai.DecodeLibrary(payload)
	if err != nil {
		return nil, fmt.Errorf("load routine library %s: %w", name, err)
	}
	got, err := lib.Digest()
	if err != nil {
		return nil, err
	}
	if got != digest {
		return nil, fmt.Errorf("load routine library %s: %w", name, ErrDigestMismatch)
	}
	return lib, nil
}

func (r *RoutineRepo) List(ctx context.Context) ([]RoutineLibraryRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT name, digest, routine_count, updated_at
		 FROM routine_libraries ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoutineLibraryRow
	for rows.Next() {
		var row RoutineLibraryRow
		if err := rows.Scan(&row.Name, &row.Digest, &row.RoutineCount, &row.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *RoutineRepo) Delete(ctx context.Context, name string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM routine_libraries WHERE name = $1`, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
