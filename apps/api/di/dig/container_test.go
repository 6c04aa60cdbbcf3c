package dig_container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/bunkmeter/apps/api/echo"
	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
)

type testParams struct {
	dig.In

	Reminders ReminderParams
	SubjRepo  subject.Repository
	SchdRepo  schedule.Repository
	Server    *echoapi.Server
}

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_DB_ENGINE", core.EngineMemory)
	t.Setenv("TEST_TIMEZONE", "UTC")

	c := New()
	err := c.Invoke(func(conf *core.Config, server *echoapi.Server) {
		assert.True(t, conf.TestMode)
		assert.Equal(t, time.UTC, conf.Location)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
	require.NoError(t, err)
}

func TestStartReminders(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_DB_ENGINE", core.EngineMemory)
	t.Setenv("TEST_TIMEZONE", "UTC")

	c := New()
	err := c.Invoke(func(p testParams) {
		ctx := context.Background()

		stop, err := StartReminders(ctx, p.Reminders)
		require.NoError(t, err)
		defer stop()
		assert.Empty(t, p.Reminders.Alarms.Pending())

		// writes re-register the alarms
		subj, err := p.SubjRepo.CreateSubject(ctx, subject.Subject{Name: "Math", TargetPercentage: 75})
		require.NoError(t, err)
		cs, err := p.SchdRepo.CreateSchedule(ctx, schedule.ClassSchedule{
			SubjectID: subj.ID,
			DayOfWeek: temporal.Monday,
			Start:     temporal.NewTimeOfDay(9, 0),
			End:       temporal.NewTimeOfDay(10, 0),
		})
		require.NoError(t, err)

		pending := p.Reminders.Alarms.Pending()
		require.Len(t, pending, 1)
		assert.Equal(t, cs.ID, pending[0].ScheduleID)
		assert.Equal(t, temporal.Monday, temporal.DayOf(pending[0].FireAt))

		require.NoError(t, p.SubjRepo.DeleteSubjectsByID(ctx, subj.ID))
		assert.Empty(t, p.Reminders.Alarms.Pending())
	})
	require.NoError(t, err)
}
