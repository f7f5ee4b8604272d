// Package e2e drives a running eligibility engine through its HTTP API with
// Gherkin scenarios. Point E2E_BASE_URL at the server (default
// http://localhost:8080).
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext holds per-scenario HTTP state.
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client
	RunID      string

	LastStatus int
	LastBody   []byte
	LastJSON   map[string]any
}

func NewTestContext() *TestContext {
	base := os.Getenv("E2E_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &TestContext{
		BaseURL:    strings.TrimRight(base, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		RunID:      fmt.Sprintf("%d", time.Now().UnixNano()),
	}
}

// Reset clears the previous response between scenarios.
func (tc *TestContext) Reset() {
	tc.LastStatus = 0
	tc.LastBody = nil
	tc.LastJSON = nil
	tc.RunID = fmt.Sprintf("%d", time.Now().UnixNano())
}

// JourneyID scopes a scenario's journey id to this run so reruns against the
// same database do not hit earlier records.
func (tc *TestContext) JourneyID(name string) string {
	return name + "-" + tc.RunID
}

func (tc *TestContext) POST(path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return tc.do(req)
}

func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	tc.LastStatus = resp.StatusCode
	tc.LastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.LastJSON = nil
	var parsed map[string]any
	if json.Unmarshal(tc.LastBody, &parsed) == nil {
		tc.LastJSON = parsed
	}
	return nil
}

func (tc *TestContext) GetLastStatus() int { return tc.LastStatus }

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.LastJSON == nil {
		return nil, fmt.Errorf("last response was not a JSON object: %s", tc.LastBody)
	}
	v, ok := tc.LastJSON[field]
	if !ok {
		return nil, fmt.Errorf("field %q missing from response: %s", field, tc.LastBody)
	}
	return v, nil
}
