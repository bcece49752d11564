package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRow struct {
	raw []byte
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.raw
	return nil
}

// fakeDB keeps feed_state rows in memory, keyed by the first query argument.
type fakeDB struct {
	rows    map[string][]byte
	readErr error
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.readErr != nil {
		return fakeRow{err: f.readErr}
	}
	raw, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{raw: raw}
}

func (f *fakeDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	if len(args) == 2 {
		f.rows[args[0].(string)] = args[1].([]byte)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresStoreMissingRowIsNotFound(t *testing.T) {
	store := &PostgresStore{db: &fakeDB{rows: map[string][]byte{}}}

	if _, err := store.GetState(context.Background(), "Powerball"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("无记录应返回 ErrNotFound, 实际 %v", err)
	}
	got, err := LoadAmount(context.Background(), store, "Powerball")
	if err != nil || got != 0 {
		t.Fatalf("无记录应视为 0: %v %v", got, err)
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := &fakeDB{rows: map[string][]byte{}}
	store := &PostgresStore{db: db}
	want := FeedState{AmountMillions: 1700, ObservedAt: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}

	if err := store.PutState(ctx, "Powerball", want); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	var stored map[string]any
	if err := json.Unmarshal(db.rows["Powerball"], &stored); err != nil || stored["amountMillions"] != float64(1700) {
		t.Fatalf("JSONB 内容不正确: %s", db.rows["Powerball"])
	}

	got, err := store.GetState(ctx, "Powerball")
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if !got.ObservedAt.Equal(want.ObservedAt) || got.AmountMillions != want.AmountMillions {
		t.Fatalf("读取结果不正确: %#v", got)
	}
}

func TestPostgresStoreReadErrorIsNotNotFound(t *testing.T) {
	boom := errors.New("connection reset")
	store := &PostgresStore{db: &fakeDB{readErr: boom}}

	_, err := store.GetState(context.Background(), "Powerball")
	if !errors.Is(err, boom) || errors.Is(err, ErrNotFound) {
		t.Fatalf("读取错误应原样包装, 实际 %v", err)
	}
}

func TestPostgresStoreCorruptState(t *testing.T) {
	store := &PostgresStore{db: &fakeDB{rows: map[string][]byte{"Powerball": []byte("not json")}}}
	if _, err := store.GetState(context.Background(), "Powerball"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("损坏的状态应返回解码错误, 实际 %v", err)
	}
}
