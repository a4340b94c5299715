// Package storetest holds the behaviour every store.Store adapter shares.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdubravic83/POtranslate/internal/store"
	"github.com/mdubravic83/POtranslate/internal/translation"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func job(n int) *translation.Job {
	return &translation.Job{
		Summary: translation.Summary{
			ID:                fmt.Sprintf("job-%d", n),
			Filename:          fmt.Sprintf("file%d.po", n),
			SourceLang:        "auto",
			TargetLang:        "hr",
			TotalEntries:      2,
			TranslatedEntries: 1,
			SkippedEntries:    1,
			CreatedAt:         base.Add(time.Duration(n) * time.Minute),
		},
		Entries: []translation.Outcome{
			{MsgID: "Hello", Translated: "Pozdrav", Status: translation.StatusSuccess},
			{MsgID: "Bye", MsgStr: "Ciao", Translated: "Ciao", Status: translation.StatusSkipped},
		},
	}
}

// Run exercises s, which must be empty.
func Run(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("get missing job", func(t *testing.T) {
		_, err := s.GetJob(ctx, "does-not-exist")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("save and get job", func(t *testing.T) {
		want := job(1)
		require.NoError(t, s.SaveJob(ctx, want))

		got, err := s.GetJob(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Summary.ID, got.ID)
		assert.Equal(t, want.Filename, got.Filename)
		assert.Equal(t, want.TargetLang, got.TargetLang)
		assert.Equal(t, want.TotalEntries, got.TotalEntries)
		assert.Equal(t, want.TranslatedEntries, got.TranslatedEntries)
		assert.Equal(t, want.SkippedEntries, got.SkippedEntries)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %s != %s", want.CreatedAt, got.CreatedAt)
		assert.Equal(t, want.Entries, got.Entries)
	})

	t.Run("list newest first without entries", func(t *testing.T) {
		// saved out of order on purpose
		for _, n := range []int{3, 2, 4} {
			require.NoError(t, s.SaveJob(ctx, job(n)))
		}

		list, err := s.ListJobs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 4)
		var ids []string
		for _, sum := range list {
			ids = append(ids, sum.ID)
		}
		assert.Equal(t, []string{"job-4", "job-3", "job-2", "job-1"}, ids)
		assert.Equal(t, 2, list[0].TotalEntries)

		again, err := s.ListJobs(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, list, again)

		limited, err := s.ListJobs(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)
		assert.Equal(t, "job-4", limited[0].ID)
	})

	t.Run("list breaks timestamp ties by id", func(t *testing.T) {
		for _, id := range []string{"job-5b", "job-5c", "job-5a"} {
			j := job(5)
			j.ID = id
			require.NoError(t, s.SaveJob(ctx, j))
		}

		for i := 0; i < 3; i++ {
			list, err := s.ListJobs(ctx, 4)
			require.NoError(t, err)
			var ids []string
			for _, sum := range list {
				ids = append(ids, sum.ID)
			}
			assert.Equal(t, []string{"job-5a", "job-5b", "job-5c", "job-4"}, ids)
		}
	})

	t.Run("status checks", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, s.SaveStatus(ctx, &translation.StatusCheck{
				ID:         fmt.Sprintf("status-%d", i),
				ClientName: "probe",
				Timestamp:  base.Add(time.Duration(i) * time.Second),
			}))
		}

		checks, err := s.ListStatus(ctx, store.DefaultStatusLimit)
		require.NoError(t, err)
		require.Len(t, checks, 3)
		assert.Equal(t, "status-0", checks[0].ID)
		assert.Equal(t, "probe", checks[0].ClientName)
		assert.True(t, base.Equal(checks[0].Timestamp))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
