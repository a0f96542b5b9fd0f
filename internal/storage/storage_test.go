package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-status/internal/apperr"
	"cv-status/internal/status"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func ptr[T any](v T) *T { return &v }

func sampleCandidate(remoteID, email string) *Candidate {
	return &Candidate{
		RemoteID:        remoteID,
		SourceName:      remoteID + ".pdf",
		Fingerprint:     "fp-1",
		Name:            "Ada Lovelace",
		Email:           email,
		YearsExperience: ptr(7.5),
		CurrentTitle:    "Backend Engineer",
		Skills:          []string{"Go", "go", "PostgreSQL"},
		Domains:         []string{"fintech"},
		Education:       []EducationEntry{{Degree: "BSc", Institution: "UCL"}},
		WorkHistory:     []WorkEntry{{Company: "Acme", Role: "Engineer", Years: ptr(3.0)}},
		Summary:         "Builds payment systems",
	}
}

func TestNewDB_MigratesToCurrentVersion(t *testing.T) {
	db := newTestDB(t)
	v, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
	assert.Equal(t, DialectSQLite, db.Dialect())
}

func TestNewDB_RejectsUnknownDSN(t *testing.T) {
	_, err := NewDB("mysql://nope")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := queries{dialect: DialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", q.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	q.dialect = DialectSQLite
	assert.Equal(t, "a = ?", q.rebind("a = ?"))
}

func TestUpsertCandidate_CreatesThenUpdatesWithoutTouchingStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	c := sampleCandidate("drive-1", "Ada@Example.com ")
	created, err := db.UpsertCandidate(ctx, c)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, status.Pending, c.Status)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, c.Skills)

	_, err = db.ApplySignal(ctx, c.ID, status.Manual(status.Interested))
	require.NoError(t, err)

	again := sampleCandidate("drive-1", "ada@example.com")
	again.SourceName = "renamed.pdf"
	again.Fingerprint = "fp-2"
	created, err = db.UpsertCandidate(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, c.ID, again.ID)
	assert.Equal(t, status.Interested, again.Status)

	got, err := db.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", got.SourceName)
	assert.Equal(t, "fp-2", got.Fingerprint)
	assert.Equal(t, status.Interested, got.Status)
	require.NotNil(t, got.YearsExperience)
	assert.Equal(t, 7.5, *got.YearsExperience)
	assert.Equal(t, "UCL", got.Education[0].Institution)
	assert.Equal(t, "Acme", got.WorkHistory[0].Company)
}

func TestUpsertCandidate_NegativeYearsBecomeUnknown(t *testing.T) {
	db := newTestDB(t)
	c := sampleCandidate("drive-neg", "")
	c.YearsExperience = ptr(-2.0)
	_, err := db.UpsertCandidate(context.Background(), c)
	require.NoError(t, err)

	got, err := db.GetCandidate(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.YearsExperience)
}

func TestUpsertCandidate_ConcurrentSameRemoteID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := sampleCandidate("drive-race", "race@example.com")
			_, err := db.UpsertCandidate(ctx, c)
			assert.NoError(t, err)
			ids[i] = c.ID
		}(i)
	}
	wg.Wait()

	all, err := db.ListCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	for _, id := range ids {
		assert.Equal(t, all[0].ID, id)
	}
}

func TestGetIngestStateAndRename(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, ok, err := db.GetIngestState(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	c := sampleCandidate("drive-fp", "")
	_, err = db.UpsertCandidate(ctx, c)
	require.NoError(t, err)
	st, ok, err := db.GetIngestState(ctx, "drive-fp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fp-1", st.Fingerprint)
	assert.Equal(t, c.ID, st.CandidateID)
	assert.Equal(t, c.SourceName, st.SourceName)

	require.NoError(t, db.RenameSource(ctx, "drive-fp", "renamed.pdf"))
	st, _, err = db.GetIngestState(ctx, "drive-fp")
	require.NoError(t, err)
	assert.Equal(t, "renamed.pdf", st.SourceName)
	assert.Equal(t, "fp-1", st.Fingerprint)

	err = db.RenameSource(ctx, "missing", "x.pdf")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestFindCandidatesByEmail(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.UpsertCandidate(ctx, sampleCandidate("a", "Dup@Example.com"))
	require.NoError(t, err)
	_, err = db.UpsertCandidate(ctx, sampleCandidate("b", "dup@example.com"))
	require.NoError(t, err)
	_, err = db.UpsertCandidate(ctx, sampleCandidate("c", ""))
	require.NoError(t, err)

	matches, err := db.FindCandidatesByEmail(ctx, "  DUP@example.COM")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = db.FindCandidatesByEmail(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchCandidates(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	junior := sampleCandidate("junior", "j@example.com")
	junior.YearsExperience = ptr(1.0)
	junior.Skills = []string{"Python"}
	junior.Domains = []string{"healthcare"}
	junior.Name = "Grace Hopper"
	for _, c := range []*Candidate{sampleCandidate("senior", "s@example.com"), junior} {
		_, err := db.UpsertCandidate(ctx, c)
		require.NoError(t, err)
	}

	got, err := db.SearchCandidates(ctx, CandidateFilter{Skills: []string{"go"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "senior", got[0].RemoteID)

	got, err = db.SearchCandidates(ctx, CandidateFilter{MinYears: ptr(2.0)})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = db.SearchCandidates(ctx, CandidateFilter{Domain: "Health"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "junior", got[0].RemoteID)

	got, err = db.SearchCandidates(ctx, CandidateFilter{Query: "hopper"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	pending := status.Pending
	got, err = db.SearchCandidates(ctx, CandidateFilter{Status: &pending, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestApplySignal(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := sampleCandidate("sig", "sig@example.com")
	_, err := db.UpsertCandidate(ctx, c)
	require.NoError(t, err)

	out, err := db.ApplySignal(ctx, c.ID, status.SigOpened)
	require.NoError(t, err)
	assert.True(t, out.OutOfOrder)
	assert.False(t, out.Changed)

	out, err = db.ApplySignal(ctx, c.ID, status.SigSent)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, status.Emailed, out.Next)

	_, err = db.ApplySignal(ctx, "nope", status.SigSent)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestApplySignal_ConcurrentOpensTransitionOnce(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := sampleCandidate("cas", "cas@example.com")
	_, err := db.UpsertCandidate(ctx, c)
	require.NoError(t, err)
	_, err = db.ApplySignal(ctx, c.ID, status.SigSent)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	changed := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := db.ApplySignal(ctx, c.ID, status.SigOpened)
			assert.NoError(t, err)
			if out.Changed {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, changed)
}

func TestApplySignal_CorruptStatusIsInternal(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := sampleCandidate("bad", "")
	_, err := db.UpsertCandidate(ctx, c)
	require.NoError(t, err)

	// Bypass the CHECK constraint the way an out-of-band edit would.
	_, err = db.GetConnection().Exec(`PRAGMA ignore_check_constraints = ON`)
	require.NoError(t, err)
	_, err = db.GetConnection().Exec(`UPDATE candidates SET status = 'ARCHIVED' WHERE id = ?`, c.ID)
	require.NoError(t, err)

	_, err = db.ApplySignal(ctx, c.ID, status.SigSent)
	assert.True(t, apperr.Is(err, apperr.CodeInternal))
	_, err = db.GetCandidate(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.CodeInternal))
}

func TestAppendNote(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	db.SetClock(func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) })
	c := sampleCandidate("notes", "")
	_, err := db.UpsertCandidate(ctx, c)
	require.NoError(t, err)

	require.NoError(t, db.AppendNote(ctx, c.ID, "first"))
	require.NoError(t, db.AppendNote(ctx, c.ID, "second"))

	got, err := db.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T09:00:00Z first\n2026-03-01T09:00:00Z second", got.Notes)

	assert.True(t, apperr.Is(db.AppendNote(ctx, "missing", "x"), apperr.CodeNotFound))
}

func TestDeleteCandidate_RemovesCampaignsAndEvents(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := sampleCandidate("del", "del@example.com")
	_, err := db.UpsertCandidate(ctx, c)
	require.NoError(t, err)
	camp := &Campaign{CandidateID: c.ID, TrackingToken: "tok-del"}
	require.NoError(t, db.InsertCampaign(ctx, camp))
	require.NoError(t, db.InsertEvent(ctx, &EmailEvent{CampaignID: camp.ID, CandidateID: c.ID, Kind: EventSent}))

	require.NoError(t, db.DeleteCandidate(ctx, c.ID))

	_, err = db.GetCandidate(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	_, err = db.GetCampaignByToken(ctx, "tok-del")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	events, err := db.ListEvents(ctx, EventFilter{CandidateID: c.ID})
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.True(t, apperr.Is(db.DeleteCandidate(ctx, c.ID), apperr.CodeNotFound))
}

func TestCountCandidatesByStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	a := sampleCandidate("a", "")
	_, err := db.UpsertCandidate(ctx, a)
	require.NoError(t, err)
	_, err = db.UpsertCandidate(ctx, sampleCandidate("b", ""))
	require.NoError(t, err)
	_, err = db.ApplySignal(ctx, a.ID, status.SigSent)
	require.NoError(t, err)

	counts, err := db.CountCandidatesByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[status.Pending])
	assert.Equal(t, 1, counts[status.Emailed])
	assert.Equal(t, 0, counts[status.Replied])
}

func TestBackfillNormalization(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := sampleCandidate("bf", "Mixed@Case.io")
	_, err := db.UpsertCandidate(ctx, c)
	require.NoError(t, err)
	_, err = db.GetConnection().Exec(`UPDATE candidates SET email_norm = '', skills_json = '["Go","GO"]' WHERE id = ?`, c.ID)
	require.NoError(t, err)

	got, err := db.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	changed, err := db.BackfillNormalization(ctx, got, true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = db.BackfillNormalization(ctx, got, false)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err = db.GetCandidate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, got.Skills)
	matches, err := db.FindCandidatesByEmail(ctx, "mixed@case.io")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	changed, err = db.BackfillNormalization(ctx, got, false)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"go", "rust"}, SplitList(" go, ,rust ,"))
	assert.Empty(t, SplitList(""))
}

func TestDedupeFold(t *testing.T) {
	assert.Equal(t, []string{"Go", "Kafka"}, DedupeFold([]string{" Go", "go", "", "Kafka", "KAFKA "}))
}
