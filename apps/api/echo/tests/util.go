package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/bunkmeter/apps/api/echo"
	"github.com/trezcool/bunkmeter/core"
	"github.com/trezcool/bunkmeter/core/attendance"
	"github.com/trezcool/bunkmeter/core/schedule"
	"github.com/trezcool/bunkmeter/core/settings"
	"github.com/trezcool/bunkmeter/core/stats"
	"github.com/trezcool/bunkmeter/core/subject"
	"github.com/trezcool/bunkmeter/core/temporal"
	"github.com/trezcool/bunkmeter/services/logger"
	"github.com/trezcool/bunkmeter/storage/database/sqlx"
	"github.com/trezcool/bunkmeter/tests"
)

// mondayMorning is the frozen clock of every API test: Monday 2024-03-18 09:30 UTC.
var mondayMorning = time.Date(2024, time.March, 18, 9, 30, 0, 0, time.UTC)

type fixture struct {
	app      *Server
	subjRepo subject.Repository
	schdRepo schedule.Repository
	recRepo  attendance.Repository
}

func setup(t *testing.T) fixture {
	temporal.NowFunc = func() time.Time { return mondayMorning }
	t.Cleanup(func() { temporal.NowFunc = time.Now })

	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)

	// set up DB & repos
	db := testutil.PrepareDB(t)
	subjRepo := sqlxrepos.NewSubjectRepository(db)
	schdRepo := sqlxrepos.NewScheduleRepository(db)
	recRepo := sqlxrepos.NewAttendanceRepository(db)
	setRepo := sqlxrepos.NewSettingsRepository(db)

	// set up services
	ledger := attendance.NewLedger(recRepo, subjRepo, schdRepo)

	// set up server
	app := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		SubjectSvc:  subject.NewService(subjRepo, conf.DefaultTargetPercentage),
		ScheduleSvc: schedule.NewService(schdRepo, subjRepo),
		Resolver:    schedule.NewResolver(schdRepo, subjRepo),
		Ledger:      ledger,
		Stats:       stats.NewEngine(subjRepo, ledger),
		SettingsSvc: settings.NewService(setRepo),
	})

	return fixture{app: app, subjRepo: subjRepo, schdRepo: schdRepo, recRepo: recRepo}
}

func date(t *testing.T, s string) temporal.EpochDay {
	d, err := temporal.ParseEpochDay(s)
	if err != nil {
		t.Fatalf("date() failed: %v", err)
	}
	return d
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
