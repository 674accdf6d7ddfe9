package classify

import (
	"math"
	"testing"

	"rockwatch/internal/model"
)

func TestClassifyTables(t *testing.T) {
	cases := []struct {
		kind  Kind
		value string
		want  Tier
	}{
		{KindSeverity, "LOW", TierSuccess},
		{KindSeverity, "MEDIUM", TierWarning},
		{KindSeverity, "HIGH", TierDanger},
		{KindSeverity, "CRITICAL", TierDark},
		{KindSeverity, "critical", TierSecondary},
		{KindStatus, "ACTIVE", TierDanger},
		{KindStatus, "ACKNOWLEDGED", TierWarning},
		{KindStatus, "RESOLVED", TierSuccess},
		{KindStatus, "", TierSecondary},
		{KindSensorStatus, "active", TierSuccess},
		{KindSensorStatus, "warning", TierWarning},
		{KindSensorStatus, "maintenance", TierDanger},
		{KindSensorStatus, "offline", TierSecondary},
		{KindBatteryBucket, BatteryHigh, TierSuccess},
		{KindBatteryBucket, BatteryMedium, TierWarning},
		{KindBatteryBucket, BatteryLow, TierDanger},
		{Kind("unknown"), "LOW", TierSecondary},
	}
	for _, tc := range cases {
		if got := Classify(tc.kind, tc.value); got != tc.want {
			t.Fatalf("Classify(%s, %q) = %s, want %s", tc.kind, tc.value, got, tc.want)
		}
	}
}

func TestBatteryBuckets(t *testing.T) {
	cases := []struct {
		level float64
		want  Tier
	}{
		{100, TierSuccess},
		{70.5, TierSuccess},
		{70, TierWarning},
		{31, TierWarning},
		{30, TierDanger},
		{0, TierDanger},
		{math.NaN(), TierDanger},
	}
	for _, tc := range cases {
		if got := Battery(tc.level); got != tc.want {
			t.Fatalf("Battery(%v) = %s, want %s", tc.level, got, tc.want)
		}
	}
}

func TestTypedHelpers(t *testing.T) {
	if Severity(model.SeverityCritical) != TierDark {
		t.Fatal("CRITICAL 应为 dark")
	}
	if Status(model.AlertStatus("ARCHIVED")) != TierSecondary {
		t.Fatal("未知状态应为 secondary")
	}
	if SensorStatus(model.SensorMaintenance) != TierDanger {
		t.Fatal("maintenance 应为 danger")
	}
}
