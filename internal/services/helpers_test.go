package services

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/HamedShams/po-assist/internal/adapters/jira"
    "github.com/HamedShams/po-assist/internal/config"
    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/rs/zerolog"
)

const allTypes = `{"key":"SHOP","issueTypes":[
    {"id":"5","name":"Sub-task","subtask":true},
    {"id":"10000","name":"Epic"},
    {"id":"10001","name":"Story"},
    {"id":"10002","name":"Task"}]}`

// fakeJira is an in-process Jira REST double recording create calls.
type fakeJira struct {
    mu          sync.Mutex
    projectBody string // "" answers 404
    globalBody  string // "" answers 500
    create      func(n int, fields map[string]any) (int, string)
    creates     []map[string]any
}

func (f *fakeJira) ServeHTTP(w http.ResponseWriter, r *http.Request) {
    f.mu.Lock(); defer f.mu.Unlock()
    switch {
    case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/rest/api/3/project/"):
        if f.projectBody == "" { w.WriteHeader(http.StatusNotFound); _, _ = w.Write([]byte(`{"errorMessages":["no project"]}`)); return }
        _, _ = w.Write([]byte(f.projectBody))
    case r.Method == http.MethodGet && r.URL.Path == "/rest/api/3/issuetype":
        if f.globalBody == "" { w.WriteHeader(http.StatusInternalServerError); return }
        _, _ = w.Write([]byte(f.globalBody))
    case r.Method == http.MethodPost && r.URL.Path == "/rest/api/3/issue":
        var body struct{ Fields map[string]any `json:"fields"` }
        _ = json.NewDecoder(r.Body).Decode(&body)
        f.creates = append(f.creates, body.Fields)
        n := len(f.creates)
        status, resp := http.StatusCreated, ""
        if f.create != nil { status, resp = f.create(n, body.Fields) }
        if resp == "" && status < 300 { resp = `{"id":"` + itoa(10100+n) + `","key":"SHOP-` + itoa(n) + `"}` }
        w.WriteHeader(status)
        _, _ = w.Write([]byte(resp))
    default:
        w.WriteHeader(http.StatusNotFound)
    }
}

func (f *fakeJira) createCount() int { f.mu.Lock(); defer f.mu.Unlock(); return len(f.creates) }

func itoa(n int) string { b, _ := json.Marshal(n); return string(b) }

func testConfig(baseURL string) config.Config {
    return config.Config{
        JiraBaseURL: baseURL, JiraEmail: "po@acme.test", JiraAPIToken: "tok", JiraAPIVersion: "3",
        HTTPTimeout: 5 * time.Second, StoryTypeFallback: config.FallbackStrict, PublishDedupe: true,
        PublishRecordTTL: time.Hour, LLMHistoryWindow: 10,
    }
}

func newJiraServer(t *testing.T, f *fakeJira) (config.Config, *jira.Client) {
    t.Helper()
    srv := httptest.NewServer(f)
    t.Cleanup(srv.Close)
    cfg := testConfig(srv.URL)
    return cfg, jira.NewClient(cfg, zerolog.Nop())
}

func newTestService(t *testing.T, f *fakeJira, llm Completer) (*Service, *repo.Memory) {
    t.Helper()
    cfg, jc := newJiraServer(t, f)
    cfg.OpenAIKey = "sk-test"
    store := repo.NewMemory()
    return New(cfg, zerolog.Nop(), store, jc, llm, nil), store
}

// stubCompleter returns a canned answer and records the prompt.
type stubCompleter struct {
    answer string
    err    error
    system string
    prompt string
}

func (s *stubCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
    s.system, s.prompt = system, prompt
    return s.answer, s.err
}

// panicCreator panics for one title and succeeds otherwise.
type panicCreator struct {
    panicOn string
    calls   int
}

func (p *panicCreator) CreateIssue(_ context.Context, fields map[string]any) (*jira.CreatedIssue, error) {
    p.calls++
    if fields["summary"] == p.panicOn { panic("boom") }
    return &jira.CreatedIssue{ID: "1", Key: "SHOP-1"}, nil
}

func (p *panicCreator) RichDescription(description string, criteria []string) any {
    return jira.DescriptionDoc(description, criteria)
}

func fullMapping() domain.TypeMapping {
    return domain.TypeMapping{
        Epic:  &domain.IssueTypeDescriptor{ID: "10000", Name: "Epic"},
        Story: &domain.IssueTypeDescriptor{ID: "10001", Name: "Story"},
    }
}

func rawItems(js string) []any {
    var out []any
    if err := json.Unmarshal([]byte(js), &out); err != nil { panic(err) }
    return out
}
