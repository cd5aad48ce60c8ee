// Command parity_check replays read requests against the legacy attendance
// server and this API and reports where status codes or payloads diverge.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string   `json:"method"`
	Path     string   `json:"path"`
	Critical bool     `json:"critical"`
	Ignore   []string `json:"ignore"`
}

type targetFile struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target         target
	LegacyStatus   int
	APIStatus      int
	StatusMatch    bool
	BodyMatch      bool
	Error          error
	DurationAPI    time.Duration
	DurationLegacy time.Duration
}

type checker struct {
	client     *http.Client
	apiBase    string
	legacyBase string
	token      string
}

func main() {
	var (
		apiBase     string
		legacyBase  string
		targetsPath string
		token       string
		timeout     time.Duration
	)

	flag.StringVar(&apiBase, "api-base", "http://localhost:8080", "API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "Legacy server base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "parity_check", "targets.json"), "Path to JSON targets file")
	flag.StringVar(&token, "token", os.Getenv("PARITY_TOKEN"), "Bearer token sent to both servers")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	chk := &checker{
		client:     &http.Client{Timeout: timeout},
		apiBase:    apiBase,
		legacyBase: legacyBase,
		token:      token,
	}
	results := make([]comparison, 0, len(targets))
	for _, t := range targets {
		results = append(results, chk.compare(t))
	}

	printReport(os.Stdout, results)
	breaking, optional := tally(results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return file.Targets, nil
}

func tally(results []comparison) (breaking, optional int) {
	for _, res := range results {
		diverged := res.Error != nil || !res.StatusMatch || !res.BodyMatch
		if !diverged {
			continue
		}
		if res.Target.Critical {
			breaking++
		} else if res.Error == nil {
			optional++
		}
	}
	return breaking, optional
}

func (c *checker) compare(tgt target) comparison {
	comp := comparison{Target: tgt}
	apiBody, apiStatus, apiDur, apiErr := c.fetch(c.apiBase, tgt)
	legacyBody, legacyStatus, legacyDur, legacyErr := c.fetch(c.legacyBase, tgt)
	comp.DurationAPI = apiDur
	comp.DurationLegacy = legacyDur

	if apiErr != nil {
		comp.Error = fmt.Errorf("api request failed: %w", apiErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.APIStatus = apiStatus
	comp.LegacyStatus = legacyStatus
	comp.StatusMatch = apiStatus == legacyStatus
	comp.BodyMatch = bodiesEqual(unwrapEnvelope(apiBody), legacyBody, tgt.Ignore)
	return comp
}

func (c *checker) fetch(base string, tgt target) ([]byte, int, time.Duration, error) {
	if c.client == nil {
		return nil, 0, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, time.Since(start), nil
}

// unwrapEnvelope returns the data member of a success envelope, or the body
// unchanged when it is not one.
func unwrapEnvelope(body []byte) []byte {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	if data, ok := envelope["data"]; ok {
		return data
	}
	return body
}

func bodiesEqual(a, b []byte, ignore []string) bool {
	if len(ignore) == 0 && bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	skip := make(map[string]struct{}, len(ignore))
	for _, key := range ignore {
		skip[key] = struct{}{}
	}
	return reflect.DeepEqual(normalize(aj, skip), normalize(bj, skip))
}

// normalize drops ignored keys at any depth and folds whole floats to
// integers so 3 and 3.0 compare equal.
func normalize(v interface{}, skip map[string]struct{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if _, ok := skip[k]; ok {
				continue
			}
			out[k] = normalize(child, skip)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = normalize(child, skip)
		}
		return out
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
	}
	return v
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Parity Report")
	fmt.Fprintln(w, "=============")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Fprintf(w, "  API status: %d (%s)\n", res.APIStatus, res.DurationAPI)
		fmt.Fprintf(w, "  Legacy status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
		} else {
			fmt.Fprintf(w, "  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
