package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/clauselens/internal/application/coordinator"
	"github.com/clauselens/clauselens/internal/domain/analysis"
	domainconv "github.com/clauselens/clauselens/internal/domain/conversation"
	domainsession "github.com/clauselens/clauselens/internal/domain/session"
	"github.com/clauselens/clauselens/internal/infra/editor/memdoc"
)

type fakeAnalyzer struct {
	res *analysis.Result
	err error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, documentText string) (*analysis.Result, error) {
	return a.res, a.err
}

type fakeAnswerer struct {
	ans *domainconv.Answer
	err error
}

func (a *fakeAnswerer) Ask(ctx context.Context, documentID, question, documentText string) (*domainconv.Answer, error) {
	return a.ans, a.err
}

func newTestServer(az *fakeAnalyzer, an *fakeAnswerer) *httptest.Server {
	manager := coordinator.NewManager(func(tenant, id string) coordinator.Deps {
		return coordinator.Deps{Editor: memdoc.New(""), Analyzer: az, Answerer: an}
	})
	return httptest.NewServer(NewRouter(manager, nil, nil, nil))
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func openSession(t *testing.T, base string) string {
	t.Helper()
	resp, body := postJSON(t, base+"/v1/acme/sessions", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, ok := body["id"].(string)
	require.True(t, ok)
	require.Equal(t, "idle", body["state"])
	return id
}

func TestSessionEndToEnd(t *testing.T) {
	az := &fakeAnalyzer{res: &analysis.Result{Risks: []analysis.Risk{
		{Level: analysis.SeverityHigh, ClauseText: "terminated by either party with 30 days notice", Description: "short notice"},
	}}}
	an := &fakeAnswerer{ans: &domainconv.Answer{
		Text:      "Thirty days.",
		Citations: []domainconv.Citation{{Text: "30 days notice"}},
	}}
	srv := newTestServer(az, an)
	defer srv.Close()

	id := openSession(t, srv.URL)
	base := fmt.Sprintf("%s/v1/acme/sessions/%s", srv.URL, id)

	resp, body := postJSON(t, base+"/analyze", map[string]string{
		"document_text": "This Agreement may be terminated by either party with 30 days notice.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "high", body["overall"])

	resp, body = getJSON(t, base)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "analyzed", body["state"])
	assert.NotEmpty(t, body["document_id"])

	resp, body = postJSON(t, base+"/highlights/risk", map[string]int{"risk_index": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "highlighted", body["status"])
	assert.Equal(t, "#ffa500", body["color"])

	resp, body = postJSON(t, base+"/questions", map[string]string{"question": "Notice period?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "answered", body["status"])

	resp, body = getJSON(t, base+"/conversation")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries, ok := body["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)

	resp, body = postJSON(t, base+"/highlights/citation", map[string]int{
		"entry_index": 0, "citation_index": 0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "highlighted", body["status"])
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{res: &analysis.Result{}}, &fakeAnswerer{})
	defer srv.Close()

	id := openSession(t, srv.URL)
	resp, body := postJSON(t, fmt.Sprintf("%s/v1/acme/sessions/%s/analyze", srv.URL, id), map[string]string{
		"document_text": "   ",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "empty_document", body["status"])
}

func TestAnalyzeFailureReportedAsOutcome(t *testing.T) {
	az := &fakeAnalyzer{err: &analysis.ServiceError{Status: 502, Detail: "model overloaded"}}
	srv := newTestServer(az, &fakeAnswerer{})
	defer srv.Close()

	id := openSession(t, srv.URL)
	base := fmt.Sprintf("%s/v1/acme/sessions/%s", srv.URL, id)

	// the transport call succeeds; the failure travels in the payload
	resp, body := postJSON(t, base+"/analyze", map[string]string{"document_text": "some text"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", body["status"])
	assert.Contains(t, body["message"], "model overloaded")

	resp, body = getJSON(t, base)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "failed", body["state"])
	assert.Contains(t, body["failure_reason"], "model overloaded")
}

func TestAskBeforeAnalyze(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{res: &analysis.Result{}}, &fakeAnswerer{})
	defer srv.Close()

	id := openSession(t, srv.URL)
	resp, body := postJSON(t, fmt.Sprintf("%s/v1/acme/sessions/%s/questions", srv.URL, id), map[string]string{
		"question": "Anything?",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not_analyzed", body["status"])
}

func TestUnknownSessionIs404(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{res: &analysis.Result{}}, &fakeAnswerer{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/acme/sessions/0b2587e5-9169-4d36-b2f1-6a97c0b3a6cf")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// malformed session ids fail validation before the lookup
	resp, err = http.Get(srv.URL + "/v1/acme/sessions/no-such-id")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCloseSession(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{res: &analysis.Result{}}, &fakeAnswerer{})
	defer srv.Close()

	id := openSession(t, srv.URL)
	url := fmt.Sprintf("%s/v1/acme/sessions/%s", srv.URL, id)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvalidTenantRejected(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{res: &analysis.Result{}}, &fakeAnswerer{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/bad!tenant/sessions", "application/json", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type fakeHistory struct {
	records []*domainsession.Record
}

func (h *fakeHistory) Save(ctx context.Context, rec *domainsession.Record) error { return nil }

func (h *fakeHistory) Get(ctx context.Context, tenant, id string) (*domainsession.Record, error) {
	for _, rec := range h.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (h *fakeHistory) Latest(ctx context.Context, tenant string, limit int) ([]*domainsession.Record, error) {
	return h.records, nil
}

func (h *fakeHistory) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domainsession.Record, error) {
	return h.records, nil
}

func TestHistorySeverityFilter(t *testing.T) {
	hist := &fakeHistory{records: []*domainsession.Record{
		{ID: "rec-high", Overall: analysis.SeverityHigh},
		{ID: "rec-low", Overall: analysis.SeverityLow},
	}}
	manager := coordinator.NewManager(func(tenant, id string) coordinator.Deps {
		return coordinator.Deps{Editor: memdoc.New(""), Analyzer: &fakeAnalyzer{}, Answerer: &fakeAnswerer{}}
	})
	srv := httptest.NewServer(NewRouter(manager, hist, nil, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/acme/history?severity=high")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 1)
	assert.Equal(t, "rec-high", list[0]["id"])

	// filter values outside the known levels are rejected
	resp, err = http.Get(srv.URL + "/v1/acme/history?severity=urgent")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// no filter returns the full list
	resp, err = http.Get(srv.URL + "/v1/acme/history")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	assert.Len(t, list, 2)
}

func TestQuestionTooLongRejected(t *testing.T) {
	srv := newTestServer(&fakeAnalyzer{res: &analysis.Result{}}, &fakeAnswerer{})
	defer srv.Close()

	id := openSession(t, srv.URL)
	long := bytes.Repeat([]byte("a"), 2001)
	resp, err := http.Post(
		fmt.Sprintf("%s/v1/acme/sessions/%s/questions", srv.URL, id),
		"application/json",
		bytes.NewReader([]byte(fmt.Sprintf(`{"question": %q}`, long))),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
