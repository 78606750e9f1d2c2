package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careeyes/fod/internal/analytics"
	"github.com/careeyes/fod/internal/config"
	"github.com/careeyes/fod/internal/models"
)

var (
	// ErrNotFound is returned by updates that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert or update violates a unique key.
	ErrDuplicate = errors.New("duplicate")
	// ErrInvalidDetection marks a detection that can never be stored.
	ErrInvalidDetection = errors.New("invalid detection")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS cctv (
	cctv_id     SERIAL PRIMARY KEY,
	location    TEXT NOT NULL,
	activate    BOOLEAN NOT NULL DEFAULT FALSE,
	stream_url  TEXT NOT NULL DEFAULT '',
	stream_type TEXT NOT NULL DEFAULT 'youtube'
);

CREATE TABLE IF NOT EXISTS events (
	event_id   BIGSERIAL PRIMARY KEY,
	event_date DATE NOT NULL,
	event_time TIME NOT NULL,
	cctv_id    INTEGER NOT NULL REFERENCES cctv (cctv_id),
	img_path   TEXT NOT NULL DEFAULT '',
	manage     SMALLINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS events_date_time_idx ON events (event_date DESC, event_time DESC);

CREATE TABLE IF NOT EXISTS detect_items (
	item_id    BIGSERIAL PRIMARY KEY,
	event_id   BIGINT NOT NULL REFERENCES events (event_id) ON DELETE CASCADE,
	item_type  TEXT NOT NULL,
	item_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS detect_items_event_idx ON detect_items (event_id);

CREATE TABLE IF NOT EXISTS members (
	member_id   TEXT PRIMARY KEY,
	member_pw   TEXT NOT NULL,
	member_name TEXT NOT NULL,
	email       TEXT NOT NULL UNIQUE,
	phone       TEXT NOT NULL UNIQUE,
	member_role TEXT NOT NULL DEFAULT 'member',
	company     TEXT NOT NULL DEFAULT '',
	department  TEXT NOT NULL DEFAULT '',
	kakao_id    BIGINT UNIQUE,
	alert_state SMALLINT NOT NULL DEFAULT 1,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the tables when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// --- Events ---

// Every event row is joined with its CCTV location and its primary item,
// the detected class with the highest count.
const eventSelect = `
SELECT e.event_id,
       to_char(e.event_date, 'YYYY-MM-DD'),
       to_char(e.event_time, 'HH24:MI:SS'),
       e.cctv_id,
       COALESCE(c.location, ''),
       COALESCE(p.item_type, ''),
       COALESCE(p.item_count, 0),
       e.img_path,
       e.manage,
       COALESCE(o.objects, '{}'::jsonb)
FROM events e
LEFT JOIN cctv c ON c.cctv_id = e.cctv_id
LEFT JOIN LATERAL (
	SELECT item_type, item_count FROM detect_items d
	WHERE d.event_id = e.event_id
	ORDER BY item_count DESC, item_id
	LIMIT 1
) p ON true
LEFT JOIN LATERAL (
	SELECT jsonb_object_agg(item_type, item_count) AS objects FROM detect_items d
	WHERE d.event_id = e.event_id
) o ON true`

const eventOrder = ` ORDER BY e.event_date DESC, e.event_time DESC, e.event_id DESC`

func scanEvent(row pgx.Row) (models.DetectionEvent, error) {
	var (
		ev      models.DetectionEvent
		id      int64
		cctvID  int
		manage  int
		objects []byte
	)
	if err := row.Scan(&id, &ev.Date, &ev.Time, &cctvID, &ev.Location,
		&ev.ItemType, &ev.ItemCount, &ev.ImagePath, &manage, &objects); err != nil {
		return ev, err
	}
	ev.ID = strconv.FormatInt(id, 10)
	ev.CCTVID = strconv.Itoa(cctvID)
	ev.Status = analytics.ClassifyStatus(manage)
	if len(objects) > 0 {
		if err := json.Unmarshal(objects, &ev.Objects); err != nil {
			return ev, fmt.Errorf("decode objects: %w", err)
		}
	}
	return ev, nil
}

func collectEvents(rows pgx.Rows) ([]models.DetectionEvent, error) {
	defer rows.Close()
	events := []models.DetectionEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListEvents returns every event, most recent first.
func (s *PostgresStore) ListEvents(ctx context.Context) ([]models.DetectionEvent, error) {
	rows, err := s.pool.Query(ctx, eventSelect+eventOrder)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectEvents(rows)
}

// EventFilter narrows FilterEvents. Nil and empty fields are ignored.
type EventFilter struct {
	ItemType string
	From     *time.Time
	To       *time.Time
	Manage   *int
}

// FilterEvents is the server-side filter of the event list. From and To are
// inclusive calendar dates.
func (s *PostgresStore) FilterEvents(ctx context.Context, f EventFilter) ([]models.DetectionEvent, error) {
	where := " WHERE true"
	args := []interface{}{}
	argIdx := 1

	if f.ItemType != "" {
		where += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM detect_items d WHERE d.event_id = e.event_id AND d.item_type = $%d)", argIdx)
		args = append(args, f.ItemType)
		argIdx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND e.event_date >= $%d::date", argIdx)
		args = append(args, f.From.Format(time.DateOnly))
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND e.event_date <= $%d::date", argIdx)
		args = append(args, f.To.Format(time.DateOnly))
		argIdx++
	}
	if f.Manage != nil {
		where += fmt.Sprintf(" AND e.manage = $%d", argIdx)
		args = append(args, *f.Manage)
	}

	rows, err := s.pool.Query(ctx, eventSelect+where+eventOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("filter events: %w", err)
	}
	return collectEvents(rows)
}

// GetEvent returns a single event by ID, or nil when it does not exist.
func (s *PostgresStore) GetEvent(ctx context.Context, id int64) (*models.DetectionEvent, error) {
	ev, err := scanEvent(s.pool.QueryRow(ctx, eventSelect+` WHERE e.event_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &ev, nil
}

// CreateDetection stores a detector report as one event plus one item row per
// detected class, atomically.
func (s *PostgresStore) CreateDetection(ctx context.Context, d models.Detection) (*models.DetectionEvent, error) {
	cctvID, err := strconv.Atoi(d.CCTVID)
	if err != nil {
		return nil, fmt.Errorf("%w: cctv id %q", ErrInvalidDetection, d.CCTVID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var eventID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO events (event_date, event_time, cctv_id, img_path, manage)
		 VALUES ($1::date, $2::time, $3, $4, $5) RETURNING event_id`,
		d.Date, d.Time, cctvID, d.ImgPath, models.StatusUnhandled.Code(),
	).Scan(&eventID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: unknown cctv %s", ErrInvalidDetection, d.CCTVID)
		}
		return nil, fmt.Errorf("insert event: %w", err)
	}

	for itemType, count := range d.Objects {
		if _, err := tx.Exec(ctx,
			`INSERT INTO detect_items (event_id, item_type, item_count) VALUES ($1, $2, $3)`,
			eventID, itemType, count); err != nil {
			return nil, fmt.Errorf("insert detect item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit detection: %w", err)
	}
	return s.GetEvent(ctx, eventID)
}

// UpdateEventStatus sets the triage state of an event.
func (s *PostgresStore) UpdateEventStatus(ctx context.Context, id int64, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("update event status: invalid status %s", status)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE events SET manage = $1 WHERE event_id = $2`, status.Code(), id)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Members ---

const memberColumns = `member_id, member_pw, member_name, email, phone, member_role, company, department, kakao_id, alert_state, created_at`

func scanMember(row pgx.Row) (*models.Member, error) {
	m := &models.Member{}
	err := row.Scan(&m.MemberID, &m.PasswordHash, &m.Name, &m.Email, &m.Phone,
		&m.Role, &m.Company, &m.Department, &m.KakaoID, &m.AlertState, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) CreateMember(ctx context.Context, m *models.Member) error {
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO members (member_id, member_pw, member_name, email, phone, member_role, company, department, alert_state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`,
		m.MemberID, m.PasswordHash, m.Name, m.Email, m.Phone, m.Role, m.Company, m.Department, m.AlertState,
	).Scan(&m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

// CountDuplicates counts members sharing the id, email or phone. Empty
// arguments never match.
func (s *PostgresStore) CountDuplicates(ctx context.Context, memberID, email, phone string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM members
		 WHERE ($1 <> '' AND member_id = $1) OR ($2 <> '' AND email = $2) OR ($3 <> '' AND phone = $3)`,
		memberID, email, phone,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count duplicates: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) GetMemberByID(ctx context.Context, memberID string) (*models.Member, error) {
	m, err := scanMember(s.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE member_id = $1`, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) GetMemberByKakaoID(ctx context.Context, kakaoID int64) (*models.Member, error) {
	m, err := scanMember(s.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM members WHERE kakao_id = $1`, kakaoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member by kakao id: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) UpdateKakaoID(ctx context.Context, memberID string, kakaoID int64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE members SET kakao_id = $1 WHERE member_id = $2`, kakaoID, memberID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update kakao id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWorkers returns the non-admin members, ordered by name.
func (s *PostgresStore) ListWorkers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+memberColumns+` FROM members WHERE member_role = $1 ORDER BY member_name`, models.RoleMember)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	workers := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		workers = append(workers, *m)
	}
	return workers, rows.Err()
}

// --- CCTVs ---

func scanCCTV(row pgx.Row) (*models.CCTV, error) {
	var (
		c  models.CCTV
		id int
	)
	if err := row.Scan(&id, &c.Location, &c.Activate, &c.StreamURL, &c.StreamType); err != nil {
		return nil, err
	}
	c.ID = strconv.Itoa(id)
	return &c, nil
}

func (s *PostgresStore) ListCCTVs(ctx context.Context) ([]models.CCTV, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cctv_id, location, activate, stream_url, stream_type FROM cctv ORDER BY cctv_id`)
	if err != nil {
		return nil, fmt.Errorf("list cctvs: %w", err)
	}
	defer rows.Close()

	cctvs := []models.CCTV{}
	for rows.Next() {
		c, err := scanCCTV(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cctv: %w", err)
		}
		cctvs = append(cctvs, *c)
	}
	return cctvs, rows.Err()
}

func (s *PostgresStore) GetCCTV(ctx context.Context, id string) (*models.CCTV, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, nil
	}
	c, err := scanCCTV(s.pool.QueryRow(ctx,
		`SELECT cctv_id, location, activate, stream_url, stream_type FROM cctv WHERE cctv_id = $1`, n))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cctv: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) UpdateCCTVActivate(ctx context.Context, id string, active bool) error {
	n, err := strconv.Atoi(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `UPDATE cctv SET activate = $1 WHERE cctv_id = $2`, active, n)
	if err != nil {
		return fmt.Errorf("update cctv: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
