package service

import (
	"context"
	"testing"

	"clinic-queue-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(patients []models.Patient) []string {
	out := make([]string, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.ID)
	}
	return out
}

func loadedStore(t *testing.T, fp *fakePersistence) *QueueStore {
	t.Helper()
	store := NewQueueStore(fp)
	require.NoError(t, store.RefreshDepartments(context.Background()))
	require.NoError(t, store.Refresh(context.Background()))
	return store
}

func TestQueueStore_WaitingIsFIFO(t *testing.T) {
	fp := newFakePersistence()
	fp.seed(patient("p3", "dep-ct", models.StatusWaiting, at(30)))
	fp.seed(patient("p1", "dep-ct", models.StatusWaiting, at(10)))
	fp.seed(patient("p2", "dep-mammo", models.StatusWaiting, at(20)))
	fp.seed(patient("p0", "dep-ct", models.StatusCalled, at(5)))

	store := loadedStore(t, fp)

	assert.Equal(t, []string{"p1", "p2", "p3"}, ids(store.Waiting()))
}

func TestQueueStore_CheckInTiesBreakOnID(t *testing.T) {
	fp := newFakePersistence()
	fp.seed(patient("b", "dep-ct", models.StatusWaiting, at(1)))
	fp.seed(patient("a", "dep-ct", models.StatusWaiting, at(1)))

	store := loadedStore(t, fp)

	assert.Equal(t, []string{"a", "b"}, ids(store.Waiting()))
}

func TestQueueStore_DerivedViews(t *testing.T) {
	fp := newFakePersistence()
	fp.seed(patient("w1", "dep-ct", models.StatusWaiting, at(1)))

	c1 := patient("c1", "dep-ct", models.StatusCalled, at(2))
	c1.StationID = station(1)
	fp.seed(c1)

	fp.seed(patient("i1", "dep-mammo", models.StatusInProgress, at(3)))

	older := patient("d1", "dep-ct", models.StatusCompleted, at(4))
	olderAt := at(50)
	older.CompletedAt = &olderAt
	fp.seed(older)

	newer := patient("d2", "dep-ct", models.StatusCompleted, at(5))
	newerAt := at(60)
	newer.CompletedAt = &newerAt
	fp.seed(newer)

	store := loadedStore(t, fp)

	assert.Equal(t, []string{"w1", "c1", "i1", "d1", "d2"}, ids(store.Patients()))
	assert.Equal(t, []string{"c1", "i1"}, ids(store.Active()))
	assert.Equal(t, []string{"d2", "d1"}, ids(store.Completed()))
	assert.Equal(t, []string{"c1"}, ids(store.ByDepartment("dep-ct")))

	lobby := store.Lobby()
	assert.Equal(t, []string{"c1", "i1"}, ids(lobby.Active))
	assert.Equal(t, []string{"d2", "d1"}, ids(lobby.Completed))

	assert.Equal(t, QueueStats{
		Waiting:        1,
		Called:         1,
		InProgress:     1,
		Active:         2,
		Completed:      2,
		Total:          5,
		CompletedToday: 1,
	}, store.Stats(at(55)))
}

func TestQueueStore_View(t *testing.T) {
	fp := newFakePersistence()
	fp.seed(patient("w1", "dep-ct", models.StatusWaiting, at(1)))
	fp.seed(patient("c1", "dep-ct", models.StatusCalled, at(2)))
	store := loadedStore(t, fp)

	tests := []struct {
		view View
		want []string
	}{
		{"", []string{"w1", "c1"}},
		{ViewAll, []string{"w1", "c1"}},
		{ViewWaiting, []string{"w1"}},
		{ViewActive, []string{"c1"}},
		{ViewCompleted, []string{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			got, err := store.View(tt.view)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := store.View("archived")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "view", validation.Field)
}

func TestQueueStore_RefreshReplacesCollection(t *testing.T) {
	fp := newFakePersistence()
	fp.seed(patient("p1", "dep-ct", models.StatusWaiting, at(1)))
	store := loadedStore(t, fp)
	require.Len(t, store.Patients(), 1)

	fp.seed(patient("p2", "dep-ct", models.StatusWaiting, at(2)))
	require.NoError(t, fp.UpdatePatientStatus(context.Background(), "p1", models.StatusCalled, models.StatusFields{}))

	// not visible until the next refresh
	assert.Len(t, store.Waiting(), 1)

	require.NoError(t, store.Refresh(context.Background()))
	assert.Equal(t, []string{"p2"}, ids(store.Waiting()))
	assert.Equal(t, []string{"p1"}, ids(store.Active()))
	assert.False(t, store.RefreshedAt().IsZero())
}

func TestQueueStore_FailedRefreshKeepsLastCollection(t *testing.T) {
	fp := newFakePersistence()
	fp.seed(patient("p1", "dep-ct", models.StatusWaiting, at(1)))
	store := loadedStore(t, fp)

	fp.fail("ListPatients", errStoreDown)
	err := store.Refresh(context.Background())

	require.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, []string{"p1"}, ids(store.Patients()))
}

func TestQueueStore_PatientReturnsCopy(t *testing.T) {
	fp := newFakePersistence()
	p := patient("p1", "dep-ct", models.StatusCalled, at(1))
	p.StationID = station(2)
	fp.seed(p)
	store := loadedStore(t, fp)

	got, ok := store.Patient("p1")
	require.True(t, ok)
	*got.StationID = 5

	again, _ := store.Patient("p1")
	assert.Equal(t, 2, *again.StationID)

	_, ok = store.Patient("missing")
	assert.False(t, ok)
}

func TestQueueStore_DepartmentNameFromJoin(t *testing.T) {
	fp := newFakePersistence()
	fp.seed(patient("p1", "dep-mammo", models.StatusWaiting, at(1)))
	fp.seed(patient("p2", "dep-gone", models.StatusWaiting, at(2)))
	store := loadedStore(t, fp)

	p1, _ := store.Patient("p1")
	p2, _ := store.Patient("p2")
	assert.Equal(t, "Mammo", p1.DepartmentName)
	assert.Equal(t, "Unknown Department", p2.DepartmentName)
}

func TestQueueStore_ResolveDepartment(t *testing.T) {
	store := loadedStore(t, newFakePersistence())

	tests := []struct {
		ref    string
		wantID string
		wantOK bool
	}{
		{"dep-ct", "dep-ct", true},
		{"CT", "dep-ct", true},
		{"ct", "dep-ct", true},
		{"  X-Ray ", "dep-xray", true},
		{"x-ray", "dep-xray", true},
		{"Oncology", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			d, ok := store.ResolveDepartment(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, d.ID)
		})
	}
	assert.True(t, store.HasDepartments())
	assert.Len(t, store.Departments(), 3)
}

func TestSearch(t *testing.T) {
	patients := []models.Patient{
		{ID: "1", Name: "Alice Smith", Status: models.StatusWaiting},
		{ID: "2", Name: "Bob Stone", Status: models.StatusCalled},
		{ID: "3", Name: "alicia keys", Status: models.StatusCompleted},
	}

	tests := []struct {
		name  string
		query PatientQuery
		want  []string
	}{
		{"empty query keeps everything", PatientQuery{}, []string{"1", "2", "3"}},
		{"name is case insensitive", PatientQuery{Name: "ALI"}, []string{"1", "3"}},
		{"name substring", PatientQuery{Name: "ston"}, []string{"2"}},
		{"status filter", PatientQuery{Statuses: []models.PatientStatus{models.StatusWaiting, models.StatusCalled}}, []string{"1", "2"}},
		{"name and status", PatientQuery{Name: "ali", Statuses: []models.PatientStatus{models.StatusCompleted}}, []string{"3"}},
		{"no match", PatientQuery{Name: "zed"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Search(patients, tt.query)))
		})
	}
}
