// Package journal keeps an optional audit trail of prompt state transitions.
package journal

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gopkg.in/guregu/null.v4"
)

type Entry struct {
	Id        int64       `db:"id" json:"id"`
	Operation string      `db:"operation" json:"operation"`
	Sheet     string      `db:"sheet" json:"sheet"`
	Topic     null.String `db:"topic" json:"topic"`
	LogId     null.String `db:"log_id" json:"log_id"`
	RowIds    string      `db:"row_ids" json:"row_ids"`
	RowCount  int         `db:"row_count" json:"row_count"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// NewEntry builds an entry; empty topic and logId are stored as NULL.
func NewEntry(op, sheet, topic, logId string, rowIds []int, at time.Time) Entry {
	ids := make([]string, len(rowIds))
	for i, id := range rowIds {
		ids[i] = strconv.Itoa(id)
	}
	return Entry{
		Operation: op,
		Sheet:     sheet,
		Topic:     null.NewString(topic, topic != ""),
		LogId:     null.NewString(logId, logId != ""),
		RowIds:    strings.Join(ids, ","),
		RowCount:  len(rowIds),
		CreatedAt: at,
	}
}

type Journal interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

type noopJournal struct{}

func NewNoopJournal() Journal {
	return noopJournal{}
}

func (noopJournal) Record(context.Context, Entry) error { return nil }

func (noopJournal) Recent(context.Context, int) ([]Entry, error) { return []Entry{}, nil }

func (noopJournal) Close() error { return nil }
