package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type stubTimelineRepo struct {
	rows     []TimelineRow
	lastCall WindowParams
}

func (s *stubTimelineRepo) TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	s.lastCall = arg
	if int(arg.LimitRows) < len(s.rows) {
		return s.rows[:arg.LimitRows], nil
	}
	return s.rows, nil
}

func (s *stubTimelineRepo) TimelineAll(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	s.lastCall = arg
	return s.rows, nil
}

func mockRow(ts, action, entity string) TimelineRow {
	tval, _ := time.Parse(time.RFC3339, ts)
	return TimelineRow{At: tval, Actor: uuid.New(), Action: action, Entity: entity, EntityID: uuid.NewString()}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		mockRow("2026-03-10T10:00:00Z", "course.delete", "course"),
		mockRow("2026-03-09T09:00:00Z", "user.set_admin_privilege", "user"),
		mockRow("2026-03-08T08:00:00Z", "author.set_verified", "author"),
	}}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{
		From:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Page:     2,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Paging.HasNext || result.Paging.NextPage != 3 || result.Paging.PrevPage != 1 {
		t.Fatalf("unexpected paging: %+v", result.Paging)
	}
	if repo.lastCall.LimitRows != 3 {
		t.Fatalf("expected limitRows 3, got %d", repo.lastCall.LimitRows)
	}
	if repo.lastCall.OffsetRows != 2 {
		t.Fatalf("expected offset 2, got %d", repo.lastCall.OffsetRows)
	}
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	result, err := NewService(repo).Timeline(context.Background(), TimelineFilters{PageSize: 500})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if result.Paging.PageSize != maxPageSize || repo.lastCall.LimitRows != maxPageSize+1 {
		t.Fatalf("page size not clamped: %+v", result.Paging)
	}
	if result.Rows == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}

func TestServiceExportFilters(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{mockRow("2026-03-10T10:00:00Z", "course.delete", "course")}}
	actor := uuid.New()
	rows, err := NewService(repo).Export(context.Background(), TimelineFilters{Actor: actor, Entity: " course "})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if repo.lastCall.Actor != (pgtype.UUID{Bytes: actor, Valid: true}) {
		t.Fatalf("actor filter not forwarded")
	}
	if repo.lastCall.Entity.String != "course" || repo.lastCall.Action.Valid {
		t.Fatalf("unexpected text filters: %+v", repo.lastCall)
	}
	if repo.lastCall.FromAt.Valid {
		t.Fatalf("expected open lower bound")
	}
}

func TestWriteCSV(t *testing.T) {
	row := mockRow("2026-03-10T10:00:00Z", "author.set_verified", "author")
	row.Meta = map[string]any{"verified": true}
	out, err := WriteCSV([]TimelineRow{row})
	if err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "2026-03-10T10:00:00Z,") || !strings.Contains(lines[1], `"{""verified"":true}"`) {
		t.Fatalf("unexpected row: %s", lines[1])
	}
}
