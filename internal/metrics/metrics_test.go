// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestAppInfoLabels(t *testing.T) {
	AppInfo.WithLabelValues("1.2.3", "go1.24").Set(1)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var mf *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "app_info" {
			mf = f
			break
		}
	}
	if mf == nil {
		t.Fatal("app_info not registered")
	}
	if mf.GetType() != dto.MetricType_GAUGE {
		t.Errorf("app_info type = %v, want gauge", mf.GetType())
	}

	labels := func(m *dto.Metric) map[string]string {
		out := make(map[string]string, len(m.GetLabel()))
		for _, lp := range m.GetLabel() {
			out[lp.GetName()] = lp.GetValue()
		}
		return out
	}
	found := false
	for _, m := range mf.GetMetric() {
		l := labels(m)
		if l["version"] == "1.2.3" && l["go_version"] == "go1.24" && m.GetGauge().GetValue() == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("app_info series with version labels missing: %+v", mf.GetMetric())
	}
}

func TestRecordChartRequest(t *testing.T) {
	before := testutil.ToFloat64(ChartRequestsTotal.WithLabelValues("line", "success"))
	RecordChartRequest("line", false, 20*time.Millisecond, nil)
	after := testutil.ToFloat64(ChartRequestsTotal.WithLabelValues("line", "success"))
	if after != before+1 {
		t.Fatalf("success count = %v, want %v", after, before+1)
	}

	beforeFC := testutil.ToFloat64(ChartRequestsTotal.WithLabelValues("bar", "fail_closed"))
	RecordChartRequest("bar", true, 5*time.Millisecond, nil)
	afterFC := testutil.ToFloat64(ChartRequestsTotal.WithLabelValues("bar", "fail_closed"))
	if afterFC != beforeFC+1 {
		t.Fatalf("fail_closed count = %v, want %v", afterFC, beforeFC+1)
	}

	beforeErr := testutil.ToFloat64(ChartRequestsTotal.WithLabelValues("metric", "error"))
	RecordChartRequest("metric", false, 0, errors.New("boom"))
	afterErr := testutil.ToFloat64(ChartRequestsTotal.WithLabelValues("metric", "error"))
	if afterErr != beforeErr+1 {
		t.Fatalf("error count = %v, want %v", afterErr, beforeErr+1)
	}
}

func TestRecordFailClosed(t *testing.T) {
	before := testutil.ToFloat64(FailClosedTotal.WithLabelValues("7"))
	RecordFailClosed(7)
	after := testutil.ToFloat64(FailClosedTotal.WithLabelValues("7"))
	if after != before+1 {
		t.Fatalf("fail closed count = %v, want %v", after, before+1)
	}
}

func TestRecordBatchRun(t *testing.T) {
	before := testutil.ToFloat64(BatchRunsTotal.WithLabelValues("sizing", "success"))
	RecordBatchRun("sizing", time.Second, nil)
	after := testutil.ToFloat64(BatchRunsTotal.WithLabelValues("sizing", "success"))
	if after != before+1 {
		t.Fatalf("batch run count = %v, want %v", after, before+1)
	}

	beforeErr := testutil.ToFloat64(BatchRunsTotal.WithLabelValues("trend", "error"))
	RecordBatchRun("trend", time.Second, errors.New("lease"))
	afterErr := testutil.ToFloat64(BatchRunsTotal.WithLabelValues("trend", "error"))
	if afterErr != beforeErr+1 {
		t.Fatalf("batch error count = %v, want %v", afterErr, beforeErr+1)
	}
}

func TestRecordSizingResult(t *testing.T) {
	RecordSizingResult(42, map[string]int{"small": 10, "xlarge": 5})
	if got := testutil.ToFloat64(PracticesSized); got != 42 {
		t.Fatalf("practices sized = %v, want 42", got)
	}
	if got := testutil.ToFloat64(SizeBucketCounts.WithLabelValues("xlarge")); got != 5 {
		t.Fatalf("xlarge bucket = %v, want 5", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+1 {
		t.Fatalf("active = %v, want %v", got, base+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Fatalf("active = %v, want %v", got, base)
	}
}

func TestRecordDBQuery_TruncatesLongErrors(t *testing.T) {
	longErr := errors.New("this is a deliberately long error message that exceeds the fifty character truncation limit")
	RecordDBQuery("select", "agg_app_measures", time.Millisecond, longErr)
	// The truncated label must still resolve without panicking.
	truncated := longErr.Error()[:50]
	if got := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "agg_app_measures", truncated)); got < 1 {
		t.Fatalf("truncated error label count = %v, want >= 1", got)
	}
}
