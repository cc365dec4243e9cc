package integration_testing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

type exerciseResponse struct {
	ID          string   `json:"_id"`
	Username    string   `json:"username"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Duration    *float64 `json:"duration"`
}

type logsResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Count    int    `json:"count"`
	Log      []struct {
		Description string   `json:"description"`
		Duration    *float64 `json:"duration"`
		Date        string   `json:"date"`
	} `json:"log"`
}

func waitForServer(t *testing.T) {
	t.Helper()
	for i := 0; i < 20; i++ {
		resp, err := http.Get(serverEndpoint + "/api/users")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatal("server did not come up")
}

func postForm(t *testing.T, path string, form url.Values) (int, []byte) {
	t.Helper()
	resp, err := http.PostForm(serverEndpoint+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func getJSON(t *testing.T, path string, dest interface{}) int {
	t.Helper()
	resp, err := http.Get(serverEndpoint + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if dest != nil {
		require.NoError(t, json.Unmarshal(body, dest), "body: %s", body)
	}
	return resp.StatusCode
}

func TestExerciseTrackerAPI(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	suite := newSuite(ctx)
	defer suite.cleanup()
	require.NotNil(t, suite.server)

	waitForServer(t)

	// create a user via a form body
	status, body := postForm(t, "/api/users", url.Values{"username": {"ana"}})
	require.Equal(t, http.StatusOK, status, "body: %s", body)
	var ana userResponse
	require.NoError(t, json.Unmarshal(body, &ana))
	assert.Equal(t, "ana", ana.Username)
	require.NotEmpty(t, ana.ID)

	// duplicate username, rejected
	status, body = postForm(t, "/api/users", url.Values{"username": {"ana"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"Username already exists"}`, string(body))

	// create a user via a json body
	resp, err := http.Post(
		serverEndpoint+"/api/users",
		"application/json",
		strings.NewReader(`{"username":"bojan"}`),
	)
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)
	var bojan userResponse
	require.NoError(t, json.Unmarshal(body, &bojan))
	assert.Equal(t, "bojan", bojan.Username)

	// both users listed, full documents
	var allUsers []userResponse
	status = getJSON(t, "/api/users", &allUsers)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, allUsers, 2)

	// add exercises
	status, body = postForm(t,
		fmt.Sprintf("/api/users/%s/exercises", ana.ID),
		url.Values{
			"description": {"running"},
			"duration":    {"30"},
			"date":        {"2023-01-01"},
		},
	)
	require.Equal(t, http.StatusOK, status, "body: %s", body)
	var added exerciseResponse
	require.NoError(t, json.Unmarshal(body, &added))
	assert.Equal(t, ana.ID, added.ID)
	assert.Equal(t, "ana", added.Username)
	assert.Equal(t, "running", added.Description)
	require.NotNil(t, added.Duration)
	assert.Equal(t, float64(30), *added.Duration)
	assert.Equal(t, "Sun Jan 01 2023", added.Date)

	status, _ = postForm(t,
		fmt.Sprintf("/api/users/%s/exercises", ana.ID),
		url.Values{
			"description": {"swimming"},
			"duration":    {"45"},
			"date":        {"2023-02-15"},
		},
	)
	require.Equal(t, http.StatusOK, status)

	// no date falls back to now
	status, body = postForm(t,
		fmt.Sprintf("/api/users/%s/exercises", ana.ID),
		url.Values{
			"description": {"stretching"},
			"duration":    {"10"},
		},
	)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &added))
	assert.NotEqual(t, "Invalid Date", added.Date)

	// non numeric duration comes back as null
	status, body = postForm(t,
		fmt.Sprintf("/api/users/%s/exercises", ana.ID),
		url.Values{
			"description": {"walking"},
			"duration":    {"a lot"},
		},
	)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &added))
	assert.Nil(t, added.Duration)

	// unknown user
	status, body = postForm(t,
		"/api/users/651111111111111111111111/exercises",
		url.Values{"description": {"running"}, "duration": {"30"}},
	)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"User not found"}`, string(body))

	// full log
	var logs logsResponse
	status = getJSON(t, fmt.Sprintf("/api/users/%s/logs", ana.ID), &logs)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ana.ID, logs.ID)
	assert.Equal(t, "ana", logs.Username)
	assert.Equal(t, 4, logs.Count)
	assert.Len(t, logs.Log, 4)

	// date range filter, inclusive
	status = getJSON(t,
		fmt.Sprintf("/api/users/%s/logs?from=2023-01-01&to=2023-01-31", ana.ID),
		&logs,
	)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, logs.Count)
	assert.Equal(t, "running", logs.Log[0].Description)
	assert.Equal(t, "Sun Jan 01 2023", logs.Log[0].Date)

	// limit caps the log and the count follows
	status = getJSON(t, fmt.Sprintf("/api/users/%s/logs?limit=2", ana.ID), &logs)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, logs.Count)
	assert.Len(t, logs.Log, 2)

	// logs for an unknown user
	status = getJSON(t, "/api/users/651111111111111111111111/logs", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
