package journal

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

const driver = "mysql"

type Settings struct {
	Addr          string
	User          string
	Password      string
	Db            string
	MaxPool       int
	MigrationsDir string
}

type MysqlJournal struct {
	db *sqlx.DB
}

func dsn(s Settings) string {
	mysqlConfig := mysql.Config{
		User:                 s.User,
		Passwd:               s.Password,
		Net:                  "tcp",
		Addr:                 s.Addr,
		DBName:               s.Db,
		AllowNativePasswords: true,
		ParseTime:            true,
	}
	return mysqlConfig.FormatDSN()
}

// Open runs the journal migrations and connects.
func Open(s Settings) (*MysqlJournal, error) {
	connectionString := dsn(s)
	if s.MigrationsDir == "" {
		s.MigrationsDir = "sql/journal"
	}

	log.Infof("Journal: starting migration")
	m, err := migrate.New("file://"+s.MigrationsDir, driver+"://"+connectionString+"&multiStatements=true")
	if err != nil {
		return nil, err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return nil, err
	}

	db, err := sqlx.Open(driver, connectionString)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(time.Minute * 3)
	if s.MaxPool > 0 {
		db.SetMaxOpenConns(s.MaxPool)
	}
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Infof("Journal: connected to %s, max pool = %d", s.Addr, s.MaxPool)
	return &MysqlJournal{db: db}, nil
}

func (j *MysqlJournal) Record(ctx context.Context, entry Entry) error {
	_, err := j.db.NamedExecContext(ctx,
		"INSERT INTO transition_journal (operation, sheet, topic, log_id, row_ids, row_count, created_at) "+
			"VALUES (:operation, :sheet, :topic, :log_id, :row_ids, :row_count, :created_at)",
		entry)
	return err
}

func (j *MysqlJournal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	entries := []Entry{}
	err := j.db.SelectContext(ctx, &entries,
		"SELECT id, operation, sheet, topic, log_id, row_ids, row_count, created_at "+
			"FROM transition_journal ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (j *MysqlJournal) Close() error {
	return j.db.Close()
}
