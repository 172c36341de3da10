// Package repository provides the fact stores the recommendation engine reads:
// a MySQL store, an in-memory fixture store and a circuit-breaking decorator.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/okian/skillswap/internal/domain/errs"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/recommend"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Pool and timeout defaults.
const (
	defaultQueryTimeout    = 5 * time.Second
	defaultMaxOpenConns    = 50
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 60 * time.Minute
)

var _ recommend.FactProvider = (*MySQLStore)(nil)

// MySQLStore reads facts from the platform's MySQL schema. It never writes.
type MySQLStore struct {
	db              *sql.DB
	queryTimeout    time.Duration
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	logger          logger.Logger
}

// BuildDSN assembles a driver DSN from discrete settings. Times are parsed
// as UTC so window bounds compare correctly.
func BuildDSN(host string, port int, user, password, dbName string) string {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = dbName
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

// NewMySQLStore opens a pool on dsn, applies the pool limits and pings.
func NewMySQLStore(ctx context.Context, dsn string, opts ...Option) (*MySQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrMissingDSN
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	s := NewMySQLStoreFromDB(db, opts...)
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return s, nil
}

// NewMySQLStoreFromDB wraps an existing pool. Pool limits are left untouched.
func NewMySQLStoreFromDB(db *sql.DB, opts ...Option) *MySQLStore {
	s := &MySQLStore{
		db:              db,
		queryTimeout:    defaultQueryTimeout,
		maxOpenConns:    defaultMaxOpenConns,
		maxIdleConns:    defaultMaxIdleConns,
		connMaxLifetime: defaultConnMaxLifetime,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// Ping checks connectivity within the query timeout.
func (s *MySQLStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

const lookupUserSQL = `
SELECT id, username, email, full_name, role, is_active
FROM users
WHERE id = ?`

// LookupUser loads the account record of userID.
func (s *MySQLStore) LookupUser(ctx context.Context, userID int64) (model.User, error) {
	const op = "mysql.LookupUser"
	ctx, done := s.begin(ctx, "lookup_user")
	defer done()

	var (
		u        model.User
		email    sql.NullString
		fullName sql.NullString
		role     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, lookupUserSQL, userID).
		Scan(&u.ID, &u.Username, &email, &fullName, &role, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, errs.WrapKind(op, errs.ErrNotFound, err)
	}
	if err != nil {
		return model.User{}, errs.WrapKind(op, errs.ErrDependency, err)
	}
	u.Email = email.String
	u.FullName = fullName.String
	u.Role = model.Role(role.String)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	return u, nil
}

const activeSkillsSQL = `
SELECT us.user_id, s.id, s.name, s.category, us.skill_type, us.proficiency_level
FROM user_skills us
JOIN skills s ON us.skill_id = s.id
WHERE us.user_id = ? AND us.is_active = TRUE
ORDER BY us.id`

// ActiveSkillDeclarations returns the active declarations of userID.
func (s *MySQLStore) ActiveSkillDeclarations(ctx context.Context, userID int64) ([]model.SkillDeclaration, error) {
	const op = "mysql.ActiveSkillDeclarations"
	ctx, done := s.begin(ctx, "active_skills")
	defer done()

	rows, err := s.db.QueryContext(ctx, activeSkillsSQL, userID)
	if err != nil {
		return nil, errs.WrapKind(op, errs.ErrDependency, err)
	}
	defer rows.Close()

	out := make([]model.SkillDeclaration, 0)
	for rows.Next() {
		var (
			d           model.SkillDeclaration
			skillType   string
			proficiency sql.NullString
		)
		if err := rows.Scan(&d.UserID, &d.SkillID, &d.SkillName, &d.Category, &skillType, &proficiency); err != nil {
			return nil, errs.WrapKind(op, errs.ErrDependency, err)
		}
		if !s.decode(ctx, &d, skillType, proficiency.String) {
			continue
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WrapKind(op, errs.ErrDependency, err)
	}
	return out, nil
}

// candidatesSQL selects other users' active declarations that complement the
// caller. The three IN lists are expanded by candidateQuery.
const candidatesSQL = `
SELECT us.user_id, u.username, u.full_name, s.id, s.name, s.category,
       us.skill_type, us.proficiency_level, rv.avg_rating, COALESCE(tr.completed, 0) AS total_trades
FROM user_skills us
JOIN skills s ON us.skill_id = s.id
JOIN users u ON us.user_id = u.id
LEFT JOIN (
    SELECT reviewee_id, AVG(rating) AS avg_rating
    FROM reviews
    GROUP BY reviewee_id
) rv ON rv.reviewee_id = u.id
LEFT JOIN (
    SELECT user_id, COUNT(*) AS completed
    FROM (
        SELECT requester_id AS user_id FROM trades WHERE status = 'completed'
        UNION ALL
        SELECT provider_id AS user_id FROM trades WHERE status = 'completed'
    ) t
    GROUP BY user_id
) tr ON tr.user_id = u.id
WHERE us.user_id <> ?
  AND u.is_active = TRUE
  AND us.is_active = TRUE
  AND (
      (us.skill_type = 'offering' AND s.name IN (%s))
      OR (us.skill_type = 'seeking' AND s.name IN (%s))
      OR s.category IN (%s)
  )
ORDER BY rv.avg_rating DESC, total_trades DESC, us.id
LIMIT ?`

// candidateQuery renders candidatesSQL and its arguments. An empty list
// renders as IN (NULL), which matches nothing.
func candidateQuery(q recommend.CandidateQuery) (string, []any) {
	args := make([]any, 0, 2+len(q.SeekingNames)+len(q.OfferingNames)+len(q.Categories))
	args = append(args, q.ExcludeUserID)
	args = appendStrings(args, q.SeekingNames)
	args = appendStrings(args, q.OfferingNames)
	args = appendStrings(args, q.Categories)
	limit := q.PrefetchLimit
	if limit <= 0 {
		limit = recommend.DefaultPrefetchLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(candidatesSQL,
		placeholders(len(q.SeekingNames)),
		placeholders(len(q.OfferingNames)),
		placeholders(len(q.Categories)))
	return query, args
}

// CandidateDeclarations returns complementary declarations of other active users.
func (s *MySQLStore) CandidateDeclarations(ctx context.Context, q recommend.CandidateQuery) ([]model.Candidate, error) {
	const op = "mysql.CandidateDeclarations"
	ctx, done := s.begin(ctx, "candidates")
	defer done()

	query, args := candidateQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.WrapKind(op, errs.ErrDependency, err)
	}
	defer rows.Close()

	out := make([]model.Candidate, 0)
	for rows.Next() {
		var (
			c           model.Candidate
			fullName    sql.NullString
			skillType   string
			proficiency sql.NullString
			avg         sql.NullFloat64
		)
		d := &c.Declaration
		if err := rows.Scan(&d.UserID, &d.Username, &fullName, &d.SkillID, &d.SkillName, &d.Category,
			&skillType, &proficiency, &avg, &c.Reputation.CompletedTrades); err != nil {
			return nil, errs.WrapKind(op, errs.ErrDependency, err)
		}
		if !s.decode(ctx, d, skillType, proficiency.String) {
			continue
		}
		d.FullName = fullName.String
		c.Reputation.UserID = d.UserID
		if avg.Valid {
			r := avg.Float64
			c.Reputation.AverageRating = &r
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WrapKind(op, errs.ErrDependency, err)
	}
	return out, nil
}

// trendSQL counts, per active skill, its active declarations and the trades
// referencing those declarations created inside [start, end).
const trendSQL = `
SELECT s.id, s.name, s.category,
       COUNT(DISTINCT us.id) AS user_count,
       COUNT(DISTINCT t1.id) + COUNT(DISTINCT t2.id) AS trade_count
FROM skills s
JOIN user_skills us ON s.id = us.skill_id
LEFT JOIN trades t1 ON us.id = t1.requester_skill_id
    AND t1.created_at >= ? AND t1.created_at < ?
LEFT JOIN trades t2 ON us.id = t2.provider_skill_id
    AND t2.created_at >= ? AND t2.created_at < ?
WHERE s.is_active = TRUE AND us.is_active = TRUE
GROUP BY s.id, s.name, s.category
ORDER BY s.id`

// SkillTrendFacts returns per-skill activity for the window.
func (s *MySQLStore) SkillTrendFacts(ctx context.Context, w recommend.Window) ([]model.SkillTrendFact, error) {
	const op = "mysql.SkillTrendFacts"
	ctx, done := s.begin(ctx, "trend_facts")
	defer done()

	start, end := w.Start.UTC(), w.End.UTC()
	rows, err := s.db.QueryContext(ctx, trendSQL, start, end, start, end)
	if err != nil {
		return nil, errs.WrapKind(op, errs.ErrDependency, err)
	}
	defer rows.Close()

	out := make([]model.SkillTrendFact, 0)
	for rows.Next() {
		var f model.SkillTrendFact
		if err := rows.Scan(&f.SkillID, &f.Name, &f.Category, &f.UserCount, &f.TradeCount); err != nil {
			return nil, errs.WrapKind(op, errs.ErrDependency, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WrapKind(op, errs.ErrDependency, err)
	}
	return out, nil
}

// begin applies the query timeout and returns a func that records latency
// and releases the context.
func (s *MySQLStore) begin(ctx context.Context, operation string) (context.Context, func()) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	return ctx, func() {
		cancel()
		metrics.RecordProviderLatency(operation, float64(time.Since(start).Microseconds())/1000)
	}
}

// decode fills the typed enum fields. Rows with an unknown skill type are
// skipped; an unknown proficiency earns no bonus.
func (s *MySQLStore) decode(ctx context.Context, d *model.SkillDeclaration, skillType, proficiency string) bool {
	t, err := model.ParseSkillType(skillType)
	if err != nil {
		s.logger.Warn(ctx, "skipping declaration with unknown skill type",
			logger.Int64("user_id", d.UserID),
			logger.Int64("skill_id", d.SkillID),
			logger.String("skill_type", skillType))
		return false
	}
	d.Type = t
	d.Active = true
	if p, err := model.ParseProficiency(proficiency); err == nil {
		d.Proficiency = p
	}
	return true
}

func placeholders(n int) string {
	if n <= 0 {
		return "NULL"
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func appendStrings(args []any, vals []string) []any {
	for _, v := range vals {
		args = append(args, v)
	}
	return args
}
