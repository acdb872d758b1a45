package graphstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	da "github.com/lintang-b-s/navroute/pkg/datastructure"
	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/lintang-b-s/navroute/pkg/spatialindex"
	"go.uber.org/zap"
)

// PostgresStore reads the road network from PostGIS tables laid out for pgRouting:
// an edge table (id, source, target, name, geom LineString 4326) and a vertex table (id, geom Point 4326).
type PostgresStore struct {
	pool        *pgxpool.Pool
	edgeTable   string
	vertexTable string
	log         *zap.Logger
}

func NewPostgresStore(ctx context.Context, dsn, edgeTable, vertexTable string, maxConns int32,
	log *zap.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Connected to graph store", zap.String("edgeTable", edgeTable),
		zap.String("vertexTable", vertexTable))

	return &PostgresStore{
		pool:        pool,
		edgeTable:   pgx.Identifier{edgeTable}.Sanitize(),
		vertexTable: pgx.Identifier{vertexTable}.Sanitize(),
		log:         log,
	}, nil
}

// Acquire takes one pooled connection for the lifetime of the session.
func (ps *PostgresStore) Acquire(ctx context.Context) (Session, error) {
	conn, err := ps.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire graph store connection: %w", err)
	}
	return &postgresSession{store: ps, conn: conn}, nil
}

func (ps *PostgresStore) Close() error {
	ps.pool.Close()
	return nil
}

// postgresSession serializes queries: a single connection cannot run them concurrently.
type postgresSession struct {
	store *PostgresStore
	conn  *pgxpool.Conn
	mu    sync.Mutex
	once  sync.Once
}

func (s *postgresSession) nearestVertexQuery() string {
	return fmt.Sprintf(`
SELECT id
FROM %s
ORDER BY geom::geography <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, id
LIMIT 1`, s.store.vertexTable)
}

func (s *postgresSession) NearestVertex(ctx context.Context, coord geo.Coordinate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.conn.QueryRow(ctx, s.nearestVertexQuery(), coord.Lon, coord.Lat).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, spatialindex.ErrNoNetworkCoverage
	}
	if err != nil {
		return 0, fmt.Errorf("query nearest vertex: %w", err)
	}
	return id, nil
}

func (s *postgresSession) Graph(ctx context.Context) (*da.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	builder := da.NewGraphBuilder()

	if err := s.loadVertices(ctx, builder); err != nil {
		return nil, err
	}
	if err := s.loadEdges(ctx, builder); err != nil {
		return nil, err
	}
	return builder.Build(), nil
}

func (s *postgresSession) loadVertices(ctx context.Context, builder *da.GraphBuilder) error {
	q := fmt.Sprintf(`SELECT id, ST_Y(geom), ST_X(geom) FROM %s ORDER BY id`, s.store.vertexTable)
	rows, err := s.conn.Query(ctx, q)
	if err != nil {
		return fmt.Errorf("query vertices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       int64
			lat, lon float64
		)
		if err := rows.Scan(&id, &lat, &lon); err != nil {
			return err
		}
		builder.AddVertex(id, lat, lon)
	}
	return rows.Err()
}

func (s *postgresSession) loadEdges(ctx context.Context, builder *da.GraphBuilder) error {
	q := fmt.Sprintf(`
SELECT id, source, target,
       ST_Length(geom::geography) AS cost,
       ST_Length(geom::geography) AS reverse_cost,
       COALESCE(name, '') AS name,
       ST_AsGeoJSON(geom) AS geom
FROM %s
ORDER BY id`, s.store.edgeTable)

	rows, err := s.conn.Query(ctx, q)
	if err != nil {
		return fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, source, target int64
			cost, reverseCost  float64
			name               string
			payload            []byte
		)
		if err := rows.Scan(&id, &source, &target, &cost, &reverseCost, &name, &payload); err != nil {
			return err
		}

		ls, err := geo.DecodeLineString(payload)
		if err != nil {
			return fmt.Errorf("edge %d: %w", id, err)
		}

		if err := builder.AddEdge(id, source, target, cost, name, ls); err != nil {
			return err
		}
		if reverseCost >= 0 {
			if err := builder.AddEdge(id, target, source, reverseCost, name, geo.Reversed(ls)); err != nil {
				return err
			}
		}
	}
	return rows.Err()
}

// Close releases the connection back to the pool. Safe to call more than once.
func (s *postgresSession) Close() error {
	s.once.Do(func() {
		s.conn.Release()
	})
	return nil
}
