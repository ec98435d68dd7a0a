package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/products-contract-api/pkg/auth"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StateHandler puts the provider into a named state before an interaction is replayed
type StateHandler func(ctx context.Context, state string) error

// RequestFilter rewrites a request just before it is sent to the provider
type RequestFilter func(r *http.Request)

// Verifier replays pact interactions against a live provider
type Verifier struct {
	BaseURL       string
	Client        *http.Client
	StateHandler  StateHandler
	RequestFilter RequestFilter
	Logger        *slog.Logger
}

// Result is the verification outcome of a single interaction
type Result struct {
	Description string
	States      []string
	Mismatches  []string
	Err         error
}

// Passed reports whether the provider honoured the interaction
func (r Result) Passed() bool {
	return r.Err == nil && len(r.Mismatches) == 0
}

// Report collects the results of one verification run
type Report struct {
	RunID    string
	Consumer string
	Provider string
	Results  []Result
}

// Passed reports whether every interaction passed
func (r Report) Passed() bool {
	return r.Failed() == 0
}

// Failed counts the interactions that did not pass
func (r Report) Failed() int {
	failed := 0
	for _, res := range r.Results {
		if !res.Passed() {
			failed++
		}
	}
	return failed
}

// String renders a human readable summary
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verifying a pact between %s and %s (run %s)\n", r.Consumer, r.Provider, r.RunID)
	for _, res := range r.Results {
		status := "OK"
		if !res.Passed() {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "  %s [%s]\n", res.Description, status)
		if res.Err != nil {
			fmt.Fprintf(&b, "    error: %v\n", res.Err)
		}
		for _, m := range res.Mismatches {
			fmt.Fprintf(&b, "    %s\n", m)
		}
	}
	fmt.Fprintf(&b, "%d interactions, %d failed\n", len(r.Results), r.Failed())
	return b.String()
}

// RefreshAuthorization replaces a recorded Authorization header with a
// freshly issued token. Requests recorded without the header keep none.
func RefreshAuthorization(now func() time.Time) RequestFilter {
	return func(r *http.Request) {
		if r.Header.Get(auth.HeaderName) == "" {
			return
		}
		r.Header.Set(auth.HeaderName, auth.Token(now()))
	}
}

// Verify replays every interaction of p in order
func (v *Verifier) Verify(ctx context.Context, p *Pact) Report {
	report := Report{
		RunID:    uuid.NewString(),
		Consumer: p.Consumer.Name,
		Provider: p.Provider.Name,
	}

	for _, interaction := range p.Interactions {
		res := v.verifyInteraction(ctx, interaction)
		if v.Logger != nil {
			v.Logger.InfoContext(ctx, "Interaction verified",
				slog.String("run_id", report.RunID),
				slog.String("description", res.Description),
				slog.Bool("passed", res.Passed()),
				slog.Int("mismatches", len(res.Mismatches)),
			)
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func (v *Verifier) verifyInteraction(ctx context.Context, in Interaction) Result {
	res := Result{Description: in.Description, States: in.States()}

	for _, state := range res.States {
		if v.StateHandler == nil {
			res.Err = fmt.Errorf("interaction requires provider state %q but no state handler is configured", state)
			return res
		}
		if err := v.StateHandler(ctx, state); err != nil {
			res.Err = fmt.Errorf("provider state %q: %w", state, err)
			return res
		}
	}

	req, err := v.buildRequest(ctx, in.Request)
	if err != nil {
		res.Err = err
		return res
	}
	if v.RequestFilter != nil {
		v.RequestFilter(req)
	}

	resp, err := v.client().Do(req)
	if err != nil {
		res.Err = fmt.Errorf("request failed: %w", err)
		return res
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = fmt.Errorf("failed to read response body: %w", err)
		return res
	}

	res.Mismatches = compareResponse(in.Response, resp, body)
	return res
}

func (v *Verifier) buildRequest(ctx context.Context, r Request) (*http.Request, error) {
	url := strings.TrimSuffix(v.BaseURL, "/") + r.Path
	if r.Query != "" {
		url += "?" + r.Query
	}

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for name, value := range r.Headers {
		req.Header.Set(name, value)
	}
	return req, nil
}

func (v *Verifier) client() *http.Client {
	if v.Client != nil {
		return v.Client
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func compareResponse(want Response, resp *http.Response, body []byte) []string {
	var mismatches []string

	if want.Status != 0 && want.Status != resp.StatusCode {
		mismatches = append(mismatches, fmt.Sprintf("$.status: expected %d, got %d", want.Status, resp.StatusCode))
	}

	mismatches = append(mismatches, matchHeaders(want.Headers, resp.Header, want.MatchingRules)...)

	if len(want.Body) == 0 {
		return mismatches
	}

	var expected, actual any
	if err := json.Unmarshal(want.Body, &expected); err != nil {
		return append(mismatches, fmt.Sprintf("$.body: recorded body is not JSON: %v", err))
	}
	if err := json.Unmarshal(body, &actual); err != nil {
		return append(mismatches, fmt.Sprintf("$.body: response body is not JSON: %v", err))
	}
	return append(mismatches, matchBody("$.body", expected, actual, want.MatchingRules, false)...)
}

// HTTPStateHandler sets up provider states through the provider's
// /_pact/provider-states endpoint
func HTTPStateHandler(client *http.Client, setupURL, consumer string) StateHandler {
	return func(ctx context.Context, state string) error {
		payload, err := json.Marshal(map[string]any{
			"consumer": consumer,
			"state":    state,
			"states":   []string{state},
			"action":   "setup",
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, setupURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build state setup request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("state setup request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("state setup returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return nil
	}
}
