package mockserver

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func newTestTable(t *testing.T, profiles []Profile) *ProfileTable {
	t.Helper()
	_, fallback := DefaultProfiles()
	table, err := NewProfileTable(profiles, fallback)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestEngine_AlwaysError(t *testing.T) {
	table := newTestTable(t, []Profile{{
		Tenant:       "neverwinter",
		ErrorRate:    1.0,
		MinLatency:   time.Millisecond,
		MaxLatency:   2 * time.Millisecond,
		ErrorMessage: "Gamma crash",
		ResponseSize: SizeSmall,
	}})
	engine := NewEngine(table, 1)

	valid := map[int]bool{500: true, 502: true, 503: true, 504: true}
	for i := 0; i < 200; i++ {
		outcome := engine.Handle("neverwinter", "Cart")
		if !valid[outcome.Status] {
			t.Fatalf("status %d not in {500,502,503,504}", outcome.Status)
		}
		// Errors fast-fail: no latency before upstream rejection.
		if outcome.Latency != 0 {
			t.Fatalf("error outcome carries latency %v", outcome.Latency)
		}
		body, _ := json.Marshal(outcome.Body)
		if msg := gjson.GetBytes(body, "errors.0.message").String(); msg != "Gamma crash" {
			t.Fatalf("error message = %q", msg)
		}
	}
}

func TestEngine_NeverError(t *testing.T) {
	table := newTestTable(t, []Profile{{
		Tenant:       "wonderland",
		ErrorRate:    0,
		MinLatency:   time.Millisecond,
		MaxLatency:   5 * time.Millisecond,
		ErrorMessage: "unused",
		ResponseSize: SizeSmall,
	}})
	engine := NewEngine(table, 1)

	for i := 0; i < 200; i++ {
		outcome := engine.Handle("wonderland", "Cart")
		if outcome.Status != 200 {
			t.Fatalf("status = %d, want 200", outcome.Status)
		}
		if outcome.Latency < time.Millisecond || outcome.Latency >= 5*time.Millisecond {
			t.Fatalf("latency %v outside [1ms, 5ms)", outcome.Latency)
		}
	}
}

func TestEngine_UnknownTenantUsesDefault(t *testing.T) {
	table := newTestTable(t, nil)
	engine := NewEngine(table, 1)

	profile := engine.Profile("atlantis")
	if profile.Tenant != "atlantis" {
		t.Errorf("Tenant = %q", profile.Tenant)
	}
	if profile.MinLatency != 50*time.Millisecond {
		t.Errorf("MinLatency = %v, want default 50ms", profile.MinLatency)
	}

	outcome := engine.Handle("atlantis", "Cart")
	if outcome.Status != 200 {
		t.Errorf("default profile has error rate 0, got status %d", outcome.Status)
	}
}

func TestEngine_UnknownOperationNeverFails(t *testing.T) {
	table := newTestTable(t, nil)
	engine := NewEngine(table, 1)

	outcome := engine.Handle("slumberland", "SomethingNew")
	if outcome.Status != 200 {
		t.Fatalf("status = %d", outcome.Status)
	}
	body, _ := json.Marshal(outcome.Body)
	if got := gjson.GetBytes(body, "data.status").String(); got != "success" {
		t.Errorf("generic payload = %s", body)
	}
}

func TestSynthesize_OperationShapes(t *testing.T) {
	table := newTestTable(t, nil)
	engine := NewEngine(table, 7)

	tests := []struct {
		operation string
		path      string
	}{
		{"Login", "data.login.response.accessToken"},
		{"GetUser", "data.getUser.businessPartners.0.id"},
		{"SearchResultItem", "data.searchResults.items.0.name"},
		{"LoadProfilePointAndReward", "data.profile.points"},
		{"Cart", "data.cart.total"},
		{"Notifications", "data.notifications.0.id"},
		{"ChangeOutlet", "data.changeOutlet.success"},
		{"OrderStreakOffers", "data.orderStreakOffers.offers.0.reward"},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			outcome := engine.Handle("slumberland", tt.operation)
			body, err := json.Marshal(outcome.Body)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if !gjson.GetBytes(body, tt.path).Exists() {
				t.Errorf("payload for %s missing %s: %s", tt.operation, tt.path, body)
			}
		})
	}
}

func TestSynthesize_SearchResultItemsSchema(t *testing.T) {
	table := newTestTable(t, []Profile{{
		Tenant:       "neverwinter",
		ErrorRate:    0,
		MaxLatency:   time.Millisecond,
		ErrorMessage: "unused",
		ResponseSize: SizeMedium,
	}})
	engine := NewEngine(table, 11)

	outcome := engine.Handle("neverwinter", "SearchResultItem")
	body, _ := json.Marshal(outcome.Body)

	items := gjson.GetBytes(body, "data.searchResults.items")
	if !items.IsArray() || len(items.Array()) < 1 {
		t.Fatalf("items = %s", items.Raw)
	}
	for _, item := range items.Array() {
		for _, field := range []string{"id", "name", "price", "category", "inStock"} {
			if !item.Get(field).Exists() {
				t.Errorf("product missing field %q: %s", field, item.Raw)
			}
		}
	}
}

func TestSynthesize_PaddingGrowsWithSizeClass(t *testing.T) {
	sizeOf := func(class SizeClass) int {
		table := newTestTable(t, []Profile{{
			Tenant:       "t",
			MaxLatency:   time.Millisecond,
			ErrorMessage: "unused",
			ResponseSize: class,
		}})
		outcome := NewEngine(table, 3).Handle("t", "Cart")
		body, _ := json.Marshal(outcome.Body)
		return len(body)
	}

	small, medium, large := sizeOf(SizeSmall), sizeOf(SizeMedium), sizeOf(SizeLarge)
	if !(small < medium && medium < large) {
		t.Errorf("payload sizes small=%d medium=%d large=%d not increasing", small, medium, large)
	}
	if large-small < 16000 {
		t.Errorf("large padding too small: large=%d small=%d", large, small)
	}
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"valid", Profile{Tenant: "t", ErrorRate: 0.5, MaxLatency: time.Second, ResponseSize: SizeSmall}, false},
		{"rate too high", Profile{Tenant: "t", ErrorRate: 1.5, ResponseSize: SizeSmall}, true},
		{"negative rate", Profile{Tenant: "t", ErrorRate: -0.1, ResponseSize: SizeSmall}, true},
		{"inverted latency", Profile{Tenant: "t", MinLatency: time.Second, MaxLatency: time.Millisecond, ResponseSize: SizeSmall}, true},
		{"bad size class", Profile{Tenant: "t", ResponseSize: "gigantic"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
