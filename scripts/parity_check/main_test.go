package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodiesEqualUnwrapsAndIgnores(t *testing.T) {
	api := []byte(`{"data":{"students":[{"name":"Kiran","present":3.0,"markedAt":"2024-03-04T08:00:00Z"}]},"meta":{"cached":true}}`)
	legacy := []byte(`{"students":[{"name":"Kiran","present":3,"markedAt":"2024-03-04T08:00:01Z"}]}`)

	assert.False(t, bodiesEqual(unwrapEnvelope(api), legacy, nil))
	assert.True(t, bodiesEqual(unwrapEnvelope(api), legacy, []string{"markedAt"}))
}

func TestUnwrapEnvelopeLeavesPlainBodies(t *testing.T) {
	assert.Equal(t, []byte(`[1,2]`), unwrapEnvelope([]byte(`[1,2]`)))
	assert.Equal(t, []byte(`{"status":"ok"}`), unwrapEnvelope([]byte(`{"status":"ok"}`)))
}

func TestCompareSendsTokenAndFlagsDiffs(t *testing.T) {
	var apiAuth, legacyAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":["north","south"]}`))
	}))
	defer api.Close()
	legacy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		legacyAuth = r.Header.Get("Authorization")
		if r.URL.Path == "/api/v1/students/regions" {
			_, _ = w.Write([]byte(`["north","south"]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer legacy.Close()

	chk := &checker{client: api.Client(), apiBase: api.URL, legacyBase: legacy.URL, token: "secret"}
	same := chk.compare(target{Method: "GET", Path: "/api/v1/students/regions", Critical: true})
	require.NoError(t, same.Error)
	assert.True(t, same.StatusMatch)
	assert.True(t, same.BodyMatch)
	assert.Equal(t, "Bearer secret", apiAuth)
	assert.Equal(t, "Bearer secret", legacyAuth)

	diff := chk.compare(target{Method: "GET", Path: "api/v1/students/schools"})
	require.NoError(t, diff.Error)
	assert.False(t, diff.StatusMatch)

	breaking, optional := tally([]comparison{same, diff})
	assert.Equal(t, 0, breaking)
	assert.Equal(t, 1, optional)

	var out bytes.Buffer
	printReport(&out, []comparison{same, diff})
	assert.Contains(t, out.String(), "[OK] GET /api/v1/students/regions")
	assert.Contains(t, out.String(), "[DIFF] GET api/v1/students/schools")
}

func TestLoadTargets(t *testing.T) {
	targets, err := loadTargets("targets.json")
	require.NoError(t, err)
	assert.NotEmpty(t, targets)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"targets":[]}`), 0o600))
	_, err = loadTargets(empty)
	assert.Error(t, err)
}
