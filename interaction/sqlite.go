package interaction

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/swipekit/core"
	"github.com/rushteam/swipekit/pkg/logging"

	_ "modernc.org/sqlite"
)

// SQLiteLog 是基于 SQLite 的持久化交互日志（modernc.org/sqlite，无需 CGo）。
//
// 表结构：
//
//	interactions(seq PK AUTOINCREMENT, user_id, item_id, action, ts_nanos)
//	UNIQUE(user_id, item_id, ts_nanos) 即幂等键
//
// ListByUser 按 seq 返回，即写入顺序。
type SQLiteLog struct {
	db     *sql.DB
	logger zerolog.Logger
}

// OpenSQLiteLog 打开（必要时创建）数据库文件并执行迁移。
// path 为 ":memory:" 时使用内存数据库。
func OpenSQLiteLog(ctx context.Context, path string) (*SQLiteLog, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite 单写者；单连接避免 database is locked，也让 :memory: 数据库在连接间共享
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	l := &SQLiteLog{
		db:     db,
		logger: logging.Component(logging.Logger(), "interaction.sqlite"),
	}
	if err := l.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return l, nil
}

func (l *SQLiteLog) Append(ctx context.Context, ev core.Interaction) error {
	if !ev.Action.Valid() {
		return core.ErrInvalidAction.With(ev.UserID, ev.ItemID, string(ev.Action))
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO interactions (user_id, item_id, action, ts_nanos) VALUES (?, ?, ?, ?)`,
		ev.UserID, ev.ItemID, string(ev.Action), ev.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	if n == 0 {
		return core.ErrDuplicateInteraction.With(ev.UserID, ev.ItemID, string(ev.Action))
	}
	return nil
}

func (l *SQLiteLog) ListByUser(ctx context.Context, userID string, actions ...core.Action) ([]core.Interaction, error) {
	query := `SELECT item_id, action, ts_nanos FROM interactions WHERE user_id = ?`
	args := []any{userID}
	if len(actions) > 0 {
		placeholders := make([]string, len(actions))
		for i, a := range actions {
			placeholders[i] = "?"
			args = append(args, string(a))
		}
		query += ` AND action IN (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` ORDER BY seq`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []core.Interaction
	for rows.Next() {
		var (
			itemID, action string
			nanos          int64
		)
		if err := rows.Scan(&itemID, &action, &nanos); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		out = append(out, core.Interaction{
			UserID:    userID,
			ItemID:    itemID,
			Action:    core.Action(action),
			Timestamp: time.Unix(0, nanos),
		})
	}
	return out, rows.Err()
}

// Close 关闭数据库连接。
func (l *SQLiteLog) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

type migration struct {
	version int
	name    string
	up      func(ctx context.Context, tx *sql.Tx) error
}

func (l *SQLiteLog) runMigrations(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`); err != nil {
		return err
	}

	var version int
	if err := l.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "interactions", up: migration001Interactions},
	}
	for _, m := range migrations {
		if version >= m.version {
			continue
		}
		l.logger.Info().Int("version", m.version).Str("name", m.name).Msg("running migration")

		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := m.up(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func migration001Interactions(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE interactions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			action TEXT NOT NULL CHECK (action IN ('like', 'pass', 'save')),
			ts_nanos INTEGER NOT NULL,
			UNIQUE (user_id, item_id, ts_nanos)
		)`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `CREATE INDEX idx_interactions_user ON interactions (user_id, seq)`)
	return err
}

var _ core.InteractionStore = (*SQLiteLog)(nil)
