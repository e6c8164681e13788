// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package reportcard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/insano70/bcos-sub005/internal/authz"
	"github.com/insano70/bcos-sub005/internal/cache"
	"github.com/insano70/bcos-sub005/internal/config"
	"github.com/insano70/bcos-sub005/internal/database"
	"github.com/insano70/bcos-sub005/internal/models"
)

type fakeServiceStore struct {
	org          *models.Organization
	latest       []models.ReportCardResult
	byMonth      map[time.Time][]models.ReportCardResult
	rangeCards   []models.ReportCardResult
	months       []time.Time
	trends       map[database.TrendKey]models.TrendRow
	bucketValues database.MonthStatistics
	measures     []models.MeasureConfig

	latestCalls int
	monthCalls  int
	bucketCalls int
}

func (f *fakeServiceStore) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	return f.org, nil
}

func (f *fakeServiceStore) GetLatestByOrganization(ctx context.Context, orgID string) ([]models.ReportCardResult, error) {
	f.latestCalls++
	if len(f.latest) == 0 {
		return nil, database.ErrReportCardNotFound
	}
	return f.latest, nil
}

func (f *fakeServiceStore) GetByOrganizationAndMonth(ctx context.Context, orgID string, m time.Time) ([]models.ReportCardResult, error) {
	f.monthCalls++
	cards, ok := f.byMonth[m]
	if !ok {
		return nil, database.ErrReportCardNotFound
	}
	return cards, nil
}

func (f *fakeServiceStore) GetByOrganizationRange(ctx context.Context, orgID string, startMonth, endMonth time.Time) ([]models.ReportCardResult, error) {
	return f.rangeCards, nil
}

func (f *fakeServiceStore) AvailableMonths(ctx context.Context, practiceIDs []int) ([]time.Time, error) {
	return f.months, nil
}

func (f *fakeServiceStore) GetTrendsByPractices(ctx context.Context, practiceIDs []int) (map[database.TrendKey]models.TrendRow, error) {
	return f.trends, nil
}

func (f *fakeServiceStore) GetLatestBucketValues(ctx context.Context, bucket models.SizeBucket) (database.MonthStatistics, error) {
	f.bucketCalls++
	return f.bucketValues, nil
}

func (f *fakeServiceStore) ListActiveMeasures(ctx context.Context) ([]models.MeasureConfig, error) {
	return f.measures, nil
}

type fakeOrgDirectory struct {
	orgs map[string]models.Organization
}

func (f *fakeOrgDirectory) GetOrganizationsByIDs(ctx context.Context, ids []string) ([]models.Organization, error) {
	var out []models.Organization
	for _, id := range ids {
		if org, ok := f.orgs[id]; ok {
			out = append(out, org)
		}
	}
	return out, nil
}

func (f *fakeOrgDirectory) GetDescendantOrganizationIDs(ctx context.Context, rootIDs []string) ([]string, error) {
	return nil, nil
}

func newTestService(t *testing.T, store *fakeServiceStore, orgs authz.OrganizationStore) *Service {
	t.Helper()
	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	cfg := config.AnalyticsConfig{ScoreFloor: 70, ScoreRange: 30}
	return NewService(store, authz.NewService(enforcer, orgs, nil), cache.New(time.Minute), cfg, time.Minute)
}

func superuser() *models.TenantIdentity {
	return &models.TenantIdentity{UserID: uuid.New(), IsSuperuser: true}
}

func card(practiceID int, m time.Time, score float64) models.ReportCardResult {
	return models.ReportCardResult{
		PracticeID:      practiceID,
		ReportCardMonth: m,
		OverallScore:    score,
	}
}

func TestAssembleReportCard(t *testing.T) {
	orgID := uuid.New()
	july := month(2026, time.July)
	cards := []models.ReportCardResult{
		card(1, july, 80),
		card(2, july, 91),
	}

	got := assembleReportCard(orgID, cards)

	if got.OverallScore != 85.5 {
		t.Errorf("overall = %v, want mean 85.5", got.OverallScore)
	}
	if got.Grade != "B" {
		t.Errorf("grade = %q, want B", got.Grade)
	}
	if !got.Month.Equal(july) || got.MonthLabel != "Jul 2026" {
		t.Errorf("month = %v / %q", got.Month, got.MonthLabel)
	}
	if len(got.Practices) != 2 {
		t.Errorf("practices = %d", len(got.Practices))
	}
}

func TestGetByOrganization_CachesRollup(t *testing.T) {
	orgID := uuid.New()
	store := &fakeServiceStore{latest: []models.ReportCardResult{
		card(1, month(2026, time.July), 90),
		card(2, month(2026, time.July), 92),
	}}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	first, err := svc.GetByOrganization(context.Background(), superuser(), orgID)
	if err != nil {
		t.Fatalf("GetByOrganization: %v", err)
	}
	if first.OverallScore != 91 || first.Grade != "A" {
		t.Errorf("rollup = %v %q, want 91 A", first.OverallScore, first.Grade)
	}

	second, err := svc.GetByOrganization(context.Background(), superuser(), orgID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if store.latestCalls != 1 {
		t.Errorf("store hit %d times, want 1 (second call cached)", store.latestCalls)
	}
	if second.OverallScore != first.OverallScore {
		t.Errorf("cached rollup = %v, want %v", second.OverallScore, first.OverallScore)
	}
}

func TestGetByOrganization_AuthorizesBeforeCache(t *testing.T) {
	allowed := uuid.New()
	other := uuid.New()
	store := &fakeServiceStore{latest: []models.ReportCardResult{
		card(1, month(2026, time.July), 90),
	}}
	dir := &fakeOrgDirectory{orgs: map[string]models.Organization{
		allowed.String(): {ID: allowed, PracticeIDs: []int{1}, IsActive: true},
	}}
	svc := newTestService(t, store, dir)

	// Warm the cache as a superuser, then come back as an analyst bound to
	// a different organization. The cached payload must stay out of reach.
	if _, err := svc.GetByOrganization(context.Background(), superuser(), allowed); err != nil {
		t.Fatalf("warm call: %v", err)
	}

	analyst := &models.TenantIdentity{
		UserID:      uuid.New(),
		Permissions: []string{"org_analyst"},
		OrgIDs:      []uuid.UUID{other},
	}
	if _, err := svc.GetByOrganization(context.Background(), analyst, allowed); !errors.Is(err, authz.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized despite warm cache", err)
	}
}

func TestGetByOrganization_OrgScopedAnalyst(t *testing.T) {
	orgID := uuid.New()
	store := &fakeServiceStore{latest: []models.ReportCardResult{
		card(1, month(2026, time.July), 84),
	}}
	dir := &fakeOrgDirectory{orgs: map[string]models.Organization{
		orgID.String(): {ID: orgID, PracticeIDs: []int{1}, IsActive: true},
	}}
	svc := newTestService(t, store, dir)

	analyst := &models.TenantIdentity{
		UserID:      uuid.New(),
		Permissions: []string{"org_analyst"},
		OrgIDs:      []uuid.UUID{orgID},
	}
	got, err := svc.GetByOrganization(context.Background(), analyst, orgID)
	if err != nil {
		t.Fatalf("GetByOrganization: %v", err)
	}
	if got.Grade != "B" {
		t.Errorf("grade = %q, want B", got.Grade)
	}
}

func TestGetByOrganizationAndMonth(t *testing.T) {
	orgID := uuid.New()
	june := month(2026, time.June)
	store := &fakeServiceStore{byMonth: map[time.Time][]models.ReportCardResult{
		june: {card(1, june, 78)},
	}}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	// Mid-month input snaps to the first of the month.
	got, err := svc.GetByOrganizationAndMonth(context.Background(), superuser(), orgID, june.AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("GetByOrganizationAndMonth: %v", err)
	}
	if !got.Month.Equal(june) || got.Grade != "C" {
		t.Errorf("card = %v %q", got.Month, got.Grade)
	}

	if _, err := svc.GetByOrganizationAndMonth(context.Background(), superuser(), orgID, month(2026, time.March)); !errors.Is(err, database.ErrReportCardNotFound) {
		t.Fatalf("missing month err = %v", err)
	}
}

func TestAvailableMonths_Limit(t *testing.T) {
	orgID := uuid.New()
	store := &fakeServiceStore{
		org: &models.Organization{ID: orgID, PracticeIDs: []int{1, 2}},
		months: []time.Time{
			month(2026, time.July),
			month(2026, time.June),
			month(2026, time.May),
		},
	}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	got, err := svc.AvailableMonths(context.Background(), superuser(), orgID, 2)
	if err != nil {
		t.Fatalf("AvailableMonths: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(month(2026, time.July)) {
		t.Errorf("months = %v, want newest two", got)
	}
}

func TestPreviousMonthSummary(t *testing.T) {
	orgID := uuid.New()
	july := month(2026, time.July)
	june := month(2026, time.June)
	store := &fakeServiceStore{byMonth: map[time.Time][]models.ReportCardResult{
		july: {card(1, july, 91)},
		june: {card(1, june, 85)},
	}}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	got, err := svc.PreviousMonthSummary(context.Background(), superuser(), orgID, july)
	if err != nil {
		t.Fatalf("PreviousMonthSummary: %v", err)
	}
	if got == nil {
		t.Fatal("summary = nil, want June comparison")
	}
	if !got.Month.Equal(june) || got.Score != 85 || got.Grade != "B" {
		t.Errorf("previous = %+v", got)
	}
	if got.ScoreChange != 6 {
		t.Errorf("score change = %v, want +6", got.ScoreChange)
	}
	if !got.GradeImproved {
		t.Error("B to A should report grade improved")
	}
}

func TestPreviousMonthSummary_NoPriorCard(t *testing.T) {
	orgID := uuid.New()
	july := month(2026, time.July)
	store := &fakeServiceStore{byMonth: map[time.Time][]models.ReportCardResult{
		july: {card(1, july, 91)},
	}}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	got, err := svc.PreviousMonthSummary(context.Background(), superuser(), orgID, july)
	if err != nil {
		t.Fatalf("PreviousMonthSummary: %v", err)
	}
	if got != nil {
		t.Errorf("summary = %+v, want nil when no prior month exists", got)
	}
}

func TestGradeHistory(t *testing.T) {
	orgID := uuid.New()
	may := month(2026, time.May)
	june := month(2026, time.June)
	july := month(2026, time.July)
	store := &fakeServiceStore{rangeCards: []models.ReportCardResult{
		card(1, may, 78),
		card(1, june, 85),
		// Two practices in July average to 91.
		card(1, july, 90),
		card(2, july, 92),
	}}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	entries, err := svc.GradeHistory(context.Background(), superuser(), orgID, 0)
	if err != nil {
		t.Fatalf("GradeHistory: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	newest := entries[0]
	if !newest.Month.Equal(july) || newest.Score != 91 || newest.Grade != "A" {
		t.Errorf("newest = %+v", newest)
	}
	if newest.ScoreChange == nil || *newest.ScoreChange != 6 {
		t.Errorf("newest delta = %v, want +6 vs June", newest.ScoreChange)
	}
	if !newest.GradeChanged {
		t.Error("B to A should mark grade changed")
	}

	middle := entries[1]
	if middle.ScoreChange == nil || *middle.ScoreChange != 7 || !middle.GradeChanged {
		t.Errorf("middle = %+v, want +7 and grade change C to B", middle)
	}

	oldest := entries[2]
	if oldest.ScoreChange != nil {
		t.Errorf("oldest delta = %v, want nil without a prior month", *oldest.ScoreChange)
	}
}

func TestTrendsByOrganization_Sorted(t *testing.T) {
	orgID := uuid.New()
	store := &fakeServiceStore{
		org: &models.Organization{ID: orgID, PracticeIDs: []int{1, 2}},
		trends: map[database.TrendKey]models.TrendRow{
			{PracticeID: 2, MeasureName: "charges", Period: models.TrendPeriod3Month}:  {PracticeID: 2, MeasureName: "charges", Period: models.TrendPeriod3Month},
			{PracticeID: 1, MeasureName: "payments", Period: models.TrendPeriod3Month}: {PracticeID: 1, MeasureName: "payments", Period: models.TrendPeriod3Month},
			{PracticeID: 1, MeasureName: "charges", Period: models.TrendPeriod6Month}:  {PracticeID: 1, MeasureName: "charges", Period: models.TrendPeriod6Month},
			{PracticeID: 1, MeasureName: "charges", Period: models.TrendPeriod3Month}:  {PracticeID: 1, MeasureName: "charges", Period: models.TrendPeriod3Month},
		},
	}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	rows, err := svc.TrendsByOrganization(context.Background(), superuser(), orgID)
	if err != nil {
		t.Fatalf("TrendsByOrganization: %v", err)
	}
	want := []database.TrendKey{
		{PracticeID: 1, MeasureName: "charges", Period: models.TrendPeriod3Month},
		{PracticeID: 1, MeasureName: "charges", Period: models.TrendPeriod6Month},
		{PracticeID: 1, MeasureName: "payments", Period: models.TrendPeriod3Month},
		{PracticeID: 2, MeasureName: "charges", Period: models.TrendPeriod3Month},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i, w := range want {
		got := database.TrendKey{PracticeID: rows[i].PracticeID, MeasureName: rows[i].MeasureName, Period: rows[i].Period}
		if got != w {
			t.Errorf("row %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestAggregateMonthly(t *testing.T) {
	june := month(2026, time.June)
	july := month(2026, time.July)

	soloCard := card(1, june, 88)
	soloCard.MeasureScores = map[string]models.MeasureScore{"charges": {Value: 500}}

	a := card(1, july, 80)
	a.MeasureScores = map[string]models.MeasureScore{"charges": {Value: 100}}
	b := card(2, july, 90)
	b.MeasureScores = map[string]models.MeasureScore{"charges": {Value: 200}}

	got := aggregateMonthly([]models.ReportCardResult{a, soloCard, b})

	if len(got) != 2 {
		t.Fatalf("months = %d, want 2", len(got))
	}
	if !got[0].ReportCardMonth.Equal(june) {
		t.Errorf("months not ascending: %v first", got[0].ReportCardMonth)
	}
	if got[0].OverallScore != 88 || got[0].MeasureScores["charges"].Value != 500 {
		t.Errorf("single-practice month changed: %+v", got[0])
	}

	merged := got[1]
	if merged.OverallScore != 85 {
		t.Errorf("merged score = %v, want mean 85", merged.OverallScore)
	}
	if merged.MeasureScores["charges"].Value != 150 {
		t.Errorf("merged value = %v, want mean 150", merged.MeasureScores["charges"].Value)
	}
}

func TestPeerComparison(t *testing.T) {
	store := &fakeServiceStore{
		bucketValues: database.MonthStatistics{
			"payments": {1: 10, 2: 20, 3: 30, 4: 40},
			"charges":  {1: 100, 2: 200},
		},
		measures: []models.MeasureConfig{
			{Name: "charges", DisplayName: "Charges"},
		},
	}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	got, err := svc.PeerComparison(context.Background(), superuser(), models.BucketSmall)
	if err != nil {
		t.Fatalf("PeerComparison: %v", err)
	}
	if len(got.Measures) != 2 {
		t.Fatalf("measures = %d, want 2", len(got.Measures))
	}
	if got.Measures[0].MeasureName != "charges" || got.Measures[1].MeasureName != "payments" {
		t.Errorf("measures not sorted by name: %v, %v", got.Measures[0].MeasureName, got.Measures[1].MeasureName)
	}
	if got.Measures[0].DisplayName != "Charges" {
		t.Errorf("display name = %q, want configured label", got.Measures[0].DisplayName)
	}

	payments := got.Measures[1]
	if payments.Average != 25 || payments.PracticeCount != 4 {
		t.Errorf("payments = %+v", payments)
	}
	if payments.Percentile25 != 17.5 || payments.Percentile50 != 25 || payments.Percentile75 != 32.5 {
		t.Errorf("quartiles = %v/%v/%v, want 17.5/25/32.5", payments.Percentile25, payments.Percentile50, payments.Percentile75)
	}

	if _, err := svc.PeerComparison(context.Background(), superuser(), models.BucketSmall); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if store.bucketCalls != 1 {
		t.Errorf("store hit %d times, want 1 (second call cached)", store.bucketCalls)
	}
}

func TestPeerComparison_RequiresReadScope(t *testing.T) {
	store := &fakeServiceStore{
		bucketValues: database.MonthStatistics{
			"payments": {1: 10, 2: 20, 3: 30},
		},
	}
	svc := newTestService(t, store, &fakeOrgDirectory{})

	noScope := &models.TenantIdentity{UserID: uuid.New()}
	if _, err := svc.PeerComparison(context.Background(), noScope, models.BucketSmall); !errors.Is(err, authz.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
	if _, err := svc.PeerComparison(context.Background(), nil, models.BucketSmall); !errors.Is(err, authz.ErrNilIdentity) {
		t.Fatalf("nil identity err = %v", err)
	}

	// Own scope binds a single provider; bucket aggregates cover practices
	// beyond that binding, so they need organization scope at minimum.
	ownScoped := &models.TenantIdentity{
		UserID:      uuid.New(),
		Permissions: []string{models.PermissionReadOwn},
		ProviderID:  "prov-1",
	}
	if _, err := svc.PeerComparison(context.Background(), ownScoped, models.BucketSmall); !errors.Is(err, authz.ErrNotAuthorized) {
		t.Fatalf("own-scope err = %v, want ErrNotAuthorized", err)
	}
	if store.bucketCalls != 0 {
		t.Errorf("store hit %d times, want 0 for denied callers", store.bucketCalls)
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}

	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []float64{7}, 0.5, 7},
		{"lower quartile interpolates", sorted, 0.25, 17.5},
		{"median", sorted, 0.5, 25},
		{"upper quartile interpolates", sorted, 0.75, 32.5},
		{"top", sorted, 1.0, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantile(tt.values, tt.q); got != tt.want {
				t.Errorf("quantile(%v) = %v, want %v", tt.q, got, tt.want)
			}
		})
	}
}
