package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/orbitforge/studio/internal/component"
	"github.com/orbitforge/studio/internal/core/ecs"
)

// SnapshotInfo is one row of the snapshot listing.
type SnapshotInfo struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	Entities  int
}

// SceneRepo saves and restores World state as named snapshots. A snapshot
// captures every component except RigidBody: body handles are
// engine-scoped and are rebuilt from the restored transforms instead.
type SceneRepo struct {
	db *DB
}

func NewSceneRepo(db *DB) *SceneRepo {
	return &SceneRepo{db: db}
}

// Save writes one snapshot of the world in a single transaction and
// returns its id.
func (r *SceneRepo) Save(ctx context.Context, name string, w *ecs.World) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var snapID int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO scene_snapshots (name) VALUES ($1) RETURNING id`, name,
	).Scan(&snapID); err != nil {
		return 0, fmt.Errorf("snapshot insert: %w", err)
	}

	for _, tag := range w.TypeTags() {
		if tag == component.TypeRigidBody {
			continue
		}
		var encodeErr error
		w.Each(tag, func(id ecs.EntityID, c ecs.Component) {
			if encodeErr != nil {
				return
			}
			data, err := component.Encode(c)
			if err != nil {
				encodeErr = err
				return
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO snapshot_components (snapshot_id, entity_id, component_type, data)
				 VALUES ($1, $2, $3, $4)`,
				snapID, int64(id), tag, data,
			); err != nil {
				encodeErr = fmt.Errorf("component insert: %w", err)
			}
		})
		if encodeErr != nil {
			return 0, encodeErr
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("snapshot commit: %w", err)
	}
	return snapID, nil
}

// LoadLatest restores the most recent snapshot with the given name into
// the world as freshly created entities and returns their ids. Stored
// entity ids are not reused; identity is World-scoped.
func (r *SceneRepo) LoadLatest(ctx context.Context, name string, w *ecs.World) ([]ecs.EntityID, error) {
	var snapID int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id FROM scene_snapshots WHERE name = $1 ORDER BY created_at DESC LIMIT 1`,
		name,
	).Scan(&snapID)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, err)
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT entity_id, component_type, data FROM snapshot_components
		 WHERE snapshot_id = $1 ORDER BY entity_id, component_type`,
		snapID,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot components: %w", err)
	}
	defer rows.Close()

	idMap := make(map[int64]ecs.EntityID)
	var created []ecs.EntityID
	for rows.Next() {
		var storedID int64
		var tag string
		var data []byte
		if err := rows.Scan(&storedID, &tag, &data); err != nil {
			return nil, fmt.Errorf("snapshot scan: %w", err)
		}
		if err := restoreInto(w, idMap, &created, storedID, tag, data); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot rows: %w", err)
	}
	return created, nil
}

// restoreInto applies one stored component row to the world, creating a
// fresh entity the first time a stored id is seen.
func restoreInto(w *ecs.World, idMap map[int64]ecs.EntityID, created *[]ecs.EntityID, storedID int64, tag string, data []byte) error {
	id, ok := idMap[storedID]
	if !ok {
		id = w.CreateEntity()
		idMap[storedID] = id
		*created = append(*created, id)
	}
	c, err := component.Decode(tag, data)
	if err != nil {
		return err
	}
	if err := w.AddComponent(id, c); err != nil {
		return fmt.Errorf("restore entity %d: %w", storedID, err)
	}
	return nil
}

// List returns all snapshots, newest first.
func (r *SceneRepo) List(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT s.id, s.name, s.created_at, COUNT(DISTINCT c.entity_id)
		 FROM scene_snapshots s
		 LEFT JOIN snapshot_components c ON c.snapshot_id = s.id
		 GROUP BY s.id, s.name, s.created_at
		 ORDER BY s.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.CreatedAt, &info.Entities); err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
