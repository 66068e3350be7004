package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/csbs/studyportal/internal/auth"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/csbs/studyportal/internal/testserver"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type worksResponse struct {
	Success bool        `json:"success"`
	Works   []work.Work `json:"works"`
	Totals  work.Totals `json:"totals"`
}

type workResponse struct {
	Success bool        `json:"success"`
	Work    work.Work   `json:"work"`
	Totals  work.Totals `json:"totals"`
}

type portionResponse struct {
	Success bool            `json:"success"`
	Data    portion.Portion `json:"data"`
	Message string          `json:"message"`
}

type portionsResponse struct {
	Success bool              `json:"success"`
	Data    []portion.Portion `json:"data"`
}

func addWork(t *testing.T, ts *testserver.TestServer, subject, description, deadline, token string) work.Work {
	t.Helper()
	var out workResponse
	code := ts.Do(t, http.MethodPost, "/work/add", map[string]string{
		"subject": subject, "work": description, "deadline": deadline,
	}, token, &out)
	require.Equal(t, http.StatusCreated, code)
	return out.Work
}

func setStatus(t *testing.T, ts *testserver.TestServer, id, userID, username, state string) workResponse {
	t.Helper()
	var out workResponse
	code := ts.Do(t, http.MethodPost, "/work/status/"+id, map[string]string{
		"userId": userID, "username": username, "email": username + "@example.com", "state": state,
	}, "", &out)
	require.Equal(t, http.StatusOK, code)
	return out
}

func TestIntegration_StatusOverwritesInPlace(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	w := addWork(t, ts, "Math", "HW1", "2024-01-10", "")
	assert.Equal(t, work.Counts{}, w.Counts)

	out := setStatus(t, ts, w.ID, "u1", "Alice", "doing")
	assert.Equal(t, work.Counts{Doing: 1}, out.Work.Counts)

	out = setStatus(t, ts, w.ID, "u1", "Alice", "completed")
	assert.Equal(t, work.Counts{Completed: 1}, out.Work.Counts)
	require.Len(t, out.Work.Status, 1)
	assert.Equal(t, work.StateCompleted, out.Work.Status[0].State)

	again := setStatus(t, ts, w.ID, "u1", "Alice", "completed")
	assert.Equal(t, out.Work.Counts, again.Work.Counts)
	assert.Len(t, again.Work.Status, 1)
}

func TestIntegration_TotalsAcrossWorks(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	first := addWork(t, ts, "Math", "HW1", "2024-01-10", "")
	second := addWork(t, ts, "Physics", "Lab 2", "2024-01-12", "")

	setStatus(t, ts, first.ID, "u1", "Alice", "completed")
	setStatus(t, ts, second.ID, "u1", "Alice", "doing")
	setStatus(t, ts, second.ID, "u2", "Bala", "doing")
	out := setStatus(t, ts, second.ID, "u3", "Chitra", "not_started")

	want := work.Totals{TotalWorks: 2, Completed: 1, Doing: 2, NotYetStarted: 1}
	assert.Equal(t, want, out.Totals)

	var listed worksResponse
	require.Equal(t, http.StatusOK, ts.Do(t, http.MethodGet, "/works", nil, "", &listed))
	assert.Equal(t, want, listed.Totals)
	assert.Len(t, listed.Works, 2)

	var deleted struct {
		Totals work.Totals `json:"totals"`
	}
	require.Equal(t, http.StatusOK, ts.Do(t, http.MethodDelete, "/work/"+second.ID, nil, "", &deleted))
	assert.Equal(t, work.Totals{TotalWorks: 1, Completed: 1}, deleted.Totals)
}

// maxWriters stays within the status retry budget: a writer can only lose
// the compare-and-swap to each of the others once.
const maxWriters = 5

func TestIntegration_ConcurrentStatusWrites(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})
	w := addWork(t, ts, "Math", "HW2", "2024-02-01", "")

	const students = maxWriters
	var wg sync.WaitGroup
	codes := make([]int, students)
	for i := 0; i < students; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = ts.Do(t, http.MethodPost, "/work/status/"+w.ID, map[string]string{
				"userId":   fmt.Sprintf("u%d", i),
				"username": fmt.Sprintf("student%d", i),
				"state":    "doing",
			}, "", nil)
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "student %d", i)
	}

	var out struct {
		Work work.Work `json:"work"`
	}
	require.Equal(t, http.StatusOK, ts.Do(t, http.MethodGet, "/work/"+w.ID, nil, "", &out))
	assert.Len(t, out.Work.Status, students)
	assert.Equal(t, work.Counts{Doing: students}, out.Work.Counts)
}

func TestIntegration_TopicLedger(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})
	req := map[string]string{"subject": "Math", "topic": "Integration", "staff": "Mr. Kumar"}

	var first portionResponse
	require.Equal(t, http.StatusCreated, ts.Do(t, http.MethodPost, "/portions", req, "", &first))
	assert.Equal(t, []string{"Integration"}, first.Data.CompletedTopics)
	assert.Empty(t, first.Message)

	var second portionResponse
	require.Equal(t, http.StatusOK, ts.Do(t, http.MethodPost, "/portions", req, "", &second))
	assert.Equal(t, []string{"Integration"}, second.Data.CompletedTopics)
	assert.Equal(t, "Topic already exists for this staff.", second.Message)

	// a different staff member gets a separate ledger
	other := map[string]string{"subject": "Math", "topic": "Integration", "staff": "Ms. Iyer"}
	require.Equal(t, http.StatusCreated, ts.Do(t, http.MethodPost, "/portions", other, "", nil))

	var listed portionsResponse
	require.Equal(t, http.StatusOK, ts.Do(t, http.MethodGet, "/portions", nil, "", &listed))
	assert.Len(t, listed.Data, 2)
}

func TestIntegration_AuthenticatedFlow(t *testing.T) {
	ts := testserver.New(t, testserver.Options{JWTSecret: "integration-secret"})
	admin := ts.Token(t, auth.Identity{UserID: "a1", Username: "hod", Role: auth.RoleAdmin})
	student := ts.Token(t, auth.Identity{UserID: "u9", Username: "Divya", Role: "student"})

	code := ts.Do(t, http.MethodPost, "/work/add", map[string]string{
		"subject": "Math", "work": "HW3", "deadline": "2024-03-01",
	}, student, nil)
	assert.Equal(t, http.StatusForbidden, code)

	w := addWork(t, ts, "Math", "HW3", "2024-03-01", admin)
	assert.Equal(t, "hod", w.AddedBy)

	var out workResponse
	code = ts.Do(t, http.MethodPost, "/api/work/status/"+w.ID, map[string]string{
		"userId": "u1", "username": "Alice", "state": "doing",
	}, student, &out)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out.Work.Status, 1)
	assert.Equal(t, "u9", out.Work.Status[0].UserID)
	assert.Equal(t, "Divya", out.Work.Status[0].Username)
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

func TestIntegration_MCPOverHTTP(t *testing.T) {
	ctx := context.Background()
	ts := testserver.New(t, testserver.Options{JWTSecret: "integration-secret"})
	admin := ts.Token(t, auth.Identity{UserID: "a1", Username: "hod", Role: auth.RoleAdmin})
	student := ts.Token(t, auth.Identity{UserID: "u9", Username: "Divya", Role: "student"})
	w := addWork(t, ts, "Math", "HW4", "2024-04-01", admin)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "integration", Version: "v0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.StreamableClientTransport{
		Endpoint: ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: &bearerTransport{
			token: student,
			base:  ts.Server.Client().Transport,
		}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "set_work_status",
		Arguments: map[string]any{"id": w.ID, "state": "completed"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	var out struct {
		Work   work.Work   `json:"work"`
		Totals work.Totals `json:"totals"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	require.Len(t, out.Work.Status, 1)
	assert.Equal(t, "u9", out.Work.Status[0].UserID)
	assert.Equal(t, work.Totals{TotalWorks: 1, Completed: 1}, out.Totals)
}
