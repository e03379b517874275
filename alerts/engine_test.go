package alerts

import (
	"strings"
	"testing"

	"cattle-monitor-service/models"
)

func TestDecide(t *testing.T) {
	testCases := []struct {
		name          string
		isSafe        bool
		healthStatus  string
		wantTriggered bool
		wantSeverity  string
		wantTitle     string
	}{
		{
			name:          "Breach outranks everything",
			isSafe:        false,
			healthStatus:  "normal",
			wantTriggered: true,
			wantSeverity:  models.SeverityHigh,
			wantTitle:     "Geo-Fence Breach",
		},
		{
			name:          "Breach outranks distress",
			isSafe:        false,
			healthStatus:  "distress",
			wantTriggered: true,
			wantSeverity:  models.SeverityHigh,
			wantTitle:     "Geo-Fence Breach",
		},
		{
			name:          "Breach with unknown health label",
			isSafe:        false,
			healthStatus:  "Unknown",
			wantTriggered: true,
			wantSeverity:  models.SeverityHigh,
			wantTitle:     "Geo-Fence Breach",
		},
		{
			name:          "Distress inside the fence",
			isSafe:        true,
			healthStatus:  "distress",
			wantTriggered: true,
			wantSeverity:  models.SeverityMedium,
			wantTitle:     "Health Anomaly",
		},
		{
			name:          "Safe and normal",
			isSafe:        true,
			healthStatus:  "normal",
			wantTriggered: false,
			wantSeverity:  models.SeverityLow,
			wantTitle:     "Safe",
		},
		{
			name:          "Health label is opaque, not validated",
			isSafe:        true,
			healthStatus:  "DISTRESS",
			wantTriggered: false,
			wantSeverity:  models.SeverityLow,
			wantTitle:     "Safe",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			alert := Decide(tc.isSafe, tc.healthStatus, "cow-17")
			if alert.Triggered != tc.wantTriggered {
				t.Errorf("Triggered = %v, want %v", alert.Triggered, tc.wantTriggered)
			}
			if alert.Severity != tc.wantSeverity {
				t.Errorf("Severity = %q, want %q", alert.Severity, tc.wantSeverity)
			}
			if alert.Title != tc.wantTitle {
				t.Errorf("Title = %q, want %q", alert.Title, tc.wantTitle)
			}
		})
	}
}

func TestDecideBreachMessageNamesTheAnimal(t *testing.T) {
	alert := Decide(false, "normal", "cow-17")
	if !strings.Contains(alert.Message, "cow-17") {
		t.Errorf("breach message %q should reference the animal id", alert.Message)
	}
}

func TestEventType(t *testing.T) {
	breach := Decide(false, "normal", "cow-1")
	if got := EventType(breach); got != EventGeofenceBreach {
		t.Errorf("EventType(breach) = %q, want %q", got, EventGeofenceBreach)
	}

	anomaly := Decide(true, "distress", "cow-1")
	if got := EventType(anomaly); got != EventHealthAnomaly {
		t.Errorf("EventType(anomaly) = %q, want %q", got, EventHealthAnomaly)
	}
}
