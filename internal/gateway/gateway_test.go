package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gqlswarm/internal/tenant"
)

func testTenant() tenant.Config {
	return tenant.Config{
		TenantID: "slumberland",
		Headers:  map[string]string{tenant.HeaderTenantID: "slumberland"},
	}
}

func newTestGateway(url string) *Gateway {
	return New(url, testTenant(), &http.Client{Timeout: 5 * time.Second}, nil, nil)
}

func TestExecute_Success(t *testing.T) {
	var gotEnvelope map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotEnvelope)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"cart":{"total":15.5}}}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	result := gw.Execute(context.Background(), Call{
		Flow:      "cart_flow",
		Operation: "Cart",
		Variables: map[string]any{"currency": "EUR"},
		Query:     "query Cart { cart { total } }",
	})

	if !result.OK() {
		t.Fatalf("expected success, got %v (%s)", result.Kind, result.ErrorText())
	}
	if result.Status != 200 {
		t.Errorf("Status = %d", result.Status)
	}
	if got := result.Field("data.cart.total").Float(); got != 15.5 {
		t.Errorf("payload extraction = %v", got)
	}
	if gotEnvelope["operationName"] != "Cart" {
		t.Errorf("envelope operationName = %v", gotEnvelope["operationName"])
	}
	if gotEnvelope["query"] != "query Cart { cart { total } }" {
		t.Errorf("envelope query = %v", gotEnvelope["query"])
	}
}

func TestExecute_SendsTenantAndAuthHeaders(t *testing.T) {
	var gotTenant, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get(tenant.HeaderTenantID)
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	gw.Execute(context.Background(), Call{Operation: "Cart", Token: "tok-123"})

	if gotTenant != "slumberland" {
		t.Errorf("tenant header = %q", gotTenant)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestExecute_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"data":{"looks":"fine"}}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	result := gw.Execute(context.Background(), Call{Operation: "Cart"})

	// Non-200 wins regardless of body content.
	if result.Kind != KindHTTPError {
		t.Errorf("Kind = %v, want KindHTTPError", result.Kind)
	}
	if result.Status != 502 {
		t.Errorf("Status = %d", result.Status)
	}
}

func TestExecute_GraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"first"},{"message":"second"}],"data":null}`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	result := gw.Execute(context.Background(), Call{Operation: "GetUser"})

	if result.Kind != KindGraphQLError {
		t.Fatalf("Kind = %v, want KindGraphQLError", result.Kind)
	}
	if len(result.Errors) != 2 || result.Errors[0] != "first" || result.Errors[1] != "second" {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestExecute_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	gw := newTestGateway(server.URL)
	result := gw.Execute(context.Background(), Call{Operation: "Cart"})

	if result.Kind != KindParseError {
		t.Errorf("Kind = %v, want KindParseError", result.Kind)
	}
}

func TestExecute_TransportFailure(t *testing.T) {
	gw := New("http://127.0.0.1:1", testTenant(), &http.Client{Timeout: time.Second}, nil, nil)
	result := gw.Execute(context.Background(), Call{Operation: "Cart"})

	if result.Kind != KindHTTPError {
		t.Errorf("Kind = %v, want KindHTTPError", result.Kind)
	}
	if result.Status != 0 {
		t.Errorf("Status = %d, want 0 for transport failure", result.Status)
	}
	if result.Detail == "" {
		t.Error("expected transport error detail")
	}
}

func TestClassify_Exhaustive(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"success", 200, `{"data":{"status":"ok"}}`, KindSuccess},
		{"empty data", 200, `{"data":{}}`, KindSuccess},
		{"empty errors list is success", 200, `{"errors":[],"data":{}}`, KindSuccess},
		{"http 500", 500, `{"data":{}}`, KindHTTPError},
		{"http 404 with garbage", 404, `garbage`, KindHTTPError},
		{"graphql errors", 200, `{"errors":[{"message":"nope"}]}`, KindGraphQLError},
		{"error without message", 200, `{"errors":[{"code":42}]}`, KindGraphQLError},
		{"malformed", 200, `{"data":`, KindParseError},
		{"empty body", 200, ``, KindParseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.status, []byte(tt.body))
			if got.Kind != tt.want {
				t.Errorf("classify(%d, %q).Kind = %v, want %v", tt.status, tt.body, got.Kind, tt.want)
			}
		})
	}
}

func TestGateway_Label(t *testing.T) {
	gw := newTestGateway("http://example.invalid")
	label := gw.Label(Call{Flow: "browse", Operation: "SearchResultItem"})
	if label != "slumberland/browse/SearchResultItem" {
		t.Errorf("Label = %q", label)
	}
}

func TestWireLogger_DumpsTraffic(t *testing.T) {
	var sb strings.Builder
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	gw := New(server.URL, testTenant(), &http.Client{Timeout: 5 * time.Second}, nil, NewWireLogger(&sb))
	gw.Execute(context.Background(), Call{Flow: "f", Operation: "Cart"})

	out := sb.String()
	if !strings.Contains(out, ">>> slumberland/f/Cart") {
		t.Errorf("request dump missing: %q", out)
	}
	if !strings.Contains(out, "Status: 200") {
		t.Errorf("response dump missing: %q", out)
	}
}
