package services

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "testing"

    "github.com/HamedShams/po-assist/internal/domain"
    "github.com/HamedShams/po-assist/internal/repo"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestPublish_MixedBatchScenario(t *testing.T) {
    f := &fakeJira{projectBody: allTypes}
    svc, _ := newTestService(t, f, nil)

    raw := rawItems(`[
        {"type":"epic","title":"Checkout"},
        {"type":"task","title":"ignored"},
        {"type":"story","title":"","acceptanceCriteria":["a","",7]}
    ]`)
    l, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: raw})
    require.NoError(t, err)

    out := l.Outcomes()
    require.Len(t, out, 2)
    assert.Equal(t, l.TotalEligible(), len(out))
    assert.Equal(t, 1, l.Skipped)
    assert.Equal(t, "Untitled Story", out[1].Item.Title)
    assert.Equal(t, []string{"a"}, out[1].Item.AcceptanceCriteria)
    assert.Equal(t, 2, l.PublishedCount())
    assert.Equal(t, "Published 2 out of 2 items", l.Message())

    require.Equal(t, 2, f.createCount())
    epic := f.creates[0]
    assert.Equal(t, "Checkout", epic["summary"])
    assert.Equal(t, map[string]any{"id": "10000"}, epic["issuetype"])
    assert.Equal(t, map[string]any{"key": "SHOP"}, epic["project"])
    _, hasPriority := epic["priority"]
    assert.False(t, hasPriority, "priority is advisory by default")

    doc := f.creates[1]["description"].(map[string]any)
    blocks := doc["content"].([]any)
    require.Len(t, blocks, 3)
    assert.Equal(t, "heading", blocks[1].(map[string]any)["type"])
}

func TestPublish_UnresolvedStoryType(t *testing.T) {
    f := &fakeJira{projectBody: `{"issueTypes":[{"id":"10000","name":"Epic"},{"id":"10002","name":"Task"}]}`}
    svc, _ := newTestService(t, f, nil)

    raw := rawItems(`[{"type":"epic","title":"E"},{"type":"story","title":"S1"},{"type":"story","title":"S2"}]`)
    l, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: raw})
    require.NoError(t, err)

    out := l.Outcomes()
    require.Len(t, out, 3)
    assert.Equal(t, domain.StatusPublished, out[0].Status)
    for _, o := range out[1:] {
        assert.Equal(t, domain.StatusFailed, o.Status)
        assert.Equal(t, "no suitable issue type for story", o.ErrorDetail)
        assert.Zero(t, o.Attempts)
    }
    assert.Equal(t, 1, f.createCount())
}

func TestPublish_RichRejectedMinimalAccepted(t *testing.T) {
    f := &fakeJira{projectBody: allTypes, create: func(n int, fields map[string]any) (int, string) {
        if _, rich := fields["description"]; rich { return http.StatusBadRequest, `{"errors":{"description":"Field cannot be set"}}` }
        return http.StatusCreated, ""
    }}
    svc, _ := newTestService(t, f, nil)

    l, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: rawItems(`[{"type":"story","title":"Pay","acceptanceCriteria":["x"]}]`)})
    require.NoError(t, err)

    o := l.Outcomes()[0]
    assert.Equal(t, domain.StatusPublished, o.Status)
    assert.Equal(t, "SHOP-2", o.ExternalKey)
    assert.Equal(t, 2, o.Attempts)
    require.Equal(t, 2, f.createCount())
    assert.Len(t, f.creates[1], 3, "minimal payload has only project, summary and issuetype")
}

func TestPublish_BothAttemptsFail(t *testing.T) {
    f := &fakeJira{projectBody: allTypes, create: func(n int, _ map[string]any) (int, string) {
        if n == 1 { return http.StatusBadRequest, "rich-bad" }
        return http.StatusInternalServerError, "minimal-bad"
    }}
    svc, _ := newTestService(t, f, nil)

    l, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: rawItems(`[{"type":"epic","title":"E"}]`)})
    require.NoError(t, err)
    o := l.Outcomes()[0]
    assert.Equal(t, domain.StatusFailed, o.Status)
    assert.Contains(t, o.ErrorDetail, "rich-bad")
    assert.Contains(t, o.ErrorDetail, "minimal-bad")
    assert.Empty(t, o.ExternalKey)
    assert.Equal(t, "Published 0 out of 1 items", l.Message())
}

func TestPublish_NoIssueTypesMeansNoCreates(t *testing.T) {
    f := &fakeJira{}
    svc, _ := newTestService(t, f, nil)

    raw := rawItems(`[{"type":"epic","title":"E"},{"type":"story","title":"S"}]`)
    l, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: raw})
    require.NoError(t, err)
    for _, o := range l.Outcomes() {
        assert.Equal(t, domain.StatusFailed, o.Status)
        assert.True(t, strings.HasPrefix(o.ErrorDetail, "no suitable issue type"))
    }
    assert.Equal(t, 2, l.TotalEligible())
    assert.Zero(t, f.createCount())
}

func TestPublish_GlobalCatalogFallback(t *testing.T) {
    f := &fakeJira{globalBody: `[{"id":"7","name":"Story"}]`}
    svc, _ := newTestService(t, f, nil)

    l, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: rawItems(`[{"type":"story","title":"S"}]`)})
    require.NoError(t, err)
    assert.Equal(t, 1, l.PublishedCount())
    assert.Equal(t, map[string]any{"id": "7"}, f.creates[0]["issuetype"])
}

func TestPublish_ConfigErrorBeforeAnyCall(t *testing.T) {
    f := &fakeJira{projectBody: allTypes}
    svc, _ := newTestService(t, f, nil)

    _, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: " ", Items: rawItems(`[{"type":"epic"}]`)})
    assert.True(t, errors.Is(err, ErrConfig))
    assert.True(t, errors.Is(err, ErrInvalidInput), "blank key maps to a 400")

    svc.jira = nil
    _, err = svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: rawItems(`[{"type":"epic"}]`)})
    assert.True(t, errors.Is(err, ErrConfig))
    assert.Zero(t, f.createCount())
}

func TestPublish_RetriedBatchIsDeduplicated(t *testing.T) {
    f := &fakeJira{projectBody: allTypes}
    svc, store := newTestService(t, f, nil)
    raw := rawItems(`[{"type":"epic","title":"Checkout"},{"type":"story","title":"Pay"}]`)

    first, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: raw})
    require.NoError(t, err)
    require.Equal(t, 2, first.PublishedCount())

    second, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: raw})
    require.NoError(t, err)
    assert.Equal(t, 2, f.createCount(), "retried batch must not create duplicates")
    for i, o := range second.Outcomes() {
        assert.True(t, o.Deduplicated)
        assert.Equal(t, first.Outcomes()[i].ExternalKey, o.ExternalKey)
        assert.Zero(t, o.Attempts)
    }

    rec, err := store.FindPublished(context.Background(), Fingerprint("SHOP", first.Outcomes()[0].Item))
    require.NoError(t, err)
    assert.Equal(t, first.Outcomes()[0].ExternalKey, rec.ExternalKey)

    pruned, err := svc.PruneRecords(context.Background())
    require.NoError(t, err)
    assert.Zero(t, pruned, "records younger than the TTL survive")
}

func TestPublish_IdenticalItemsInOneBatchEachCreate(t *testing.T) {
    f := &fakeJira{projectBody: allTypes}
    svc, _ := newTestService(t, f, nil)
    raw := rawItems(`[{"id":"a","type":"story"},{"id":"b","type":"story"}]`)

    first, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: raw})
    require.NoError(t, err)
    require.Equal(t, 2, f.createCount())
    out := first.Outcomes()
    require.Len(t, out, 2)
    for _, o := range out {
        assert.Equal(t, domain.StatusPublished, o.Status)
        assert.False(t, o.Deduplicated)
        assert.Equal(t, 1, o.Attempts)
    }
    assert.NotEqual(t, out[0].ExternalKey, out[1].ExternalKey)

    second, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: raw})
    require.NoError(t, err)
    assert.Equal(t, 2, f.createCount(), "retry maps each repeat back to its own issue")
    for i, o := range second.Outcomes() {
        assert.True(t, o.Deduplicated)
        assert.Equal(t, out[i].ExternalKey, o.ExternalKey)
    }
}

func TestPublish_PanicIsContainedToItem(t *testing.T) {
    pc := &panicCreator{panicOn: "Bad"}
    pub := NewPublisher(pc, nil, PublisherOptions{}, zerolog.Nop())
    items := Normalize(rawItems(`[{"type":"epic","title":"Good"},{"type":"story","title":"Bad"},{"type":"story","title":"Also good"}]`)).Items

    l := pub.Publish(context.Background(), "SHOP", items, fullMapping())
    out := l.Outcomes()
    require.Len(t, out, 3)
    assert.Equal(t, domain.StatusPublished, out[0].Status)
    assert.Equal(t, domain.StatusFailed, out[1].Status)
    assert.Contains(t, out[1].ErrorDetail, "boom")
    assert.Equal(t, domain.StatusPublished, out[2].Status)
    assert.Equal(t, 3, pc.calls)
}

func TestPublish_OptInPriorityAndStoryPoints(t *testing.T) {
    f := &fakeJira{projectBody: allTypes}
    _, jc := newJiraServer(t, f)
    pub := NewPublisher(jc, repo.NewMemory(), PublisherOptions{PriorityField: "priority", StoryPointsField: "customfield_10016"}, zerolog.Nop())
    items := Normalize(rawItems(`[{"type":"story","title":"S","priority":"low","storyPoints":3}]`)).Items

    l := pub.Publish(context.Background(), "SHOP", items, fullMapping())
    require.Equal(t, 1, l.PublishedCount())
    assert.Equal(t, map[string]any{"name": "Low"}, f.creates[0]["priority"])
    assert.EqualValues(t, 3, f.creates[0]["customfield_10016"])
}

func TestPublish_CancelledContextRecordsEveryItem(t *testing.T) {
    pc := &panicCreator{}
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    items := Normalize(rawItems(`[{"type":"epic"},{"type":"story"}]`)).Items
    l := NewPublisher(pc, nil, PublisherOptions{}, zerolog.Nop()).Publish(ctx, "SHOP", items, fullMapping())
    assert.Len(t, l.Outcomes(), l.TotalEligible())
    assert.Zero(t, pc.calls)
    assert.Equal(t, 0, l.PublishedCount())
}

func TestFingerprint_StableAndContentSensitive(t *testing.T) {
    a := domain.CandidateItem{ID: "item-1", Kind: domain.KindStory, Title: "Pay", Description: "d", AcceptanceCriteria: []string{"x"}}
    b := a
    b.ID = "other-id"
    assert.Equal(t, Fingerprint("SHOP", a), Fingerprint("shop", b))
    c := a
    c.AcceptanceCriteria = []string{"y"}
    assert.NotEqual(t, Fingerprint("SHOP", a), Fingerprint("SHOP", c))
    assert.NotEqual(t, Fingerprint("SHOP", a), Fingerprint("OPS", a))
}

func TestPublish_AcceptedCreateWithoutBodyIsNotReposted(t *testing.T) {
    f := &fakeJira{projectBody: allTypes, create: func(int, map[string]any) (int, string) { return http.StatusCreated, " " }}
    svc, _ := newTestService(t, f, nil)

    l, err := svc.PublishBatch(context.Background(), PublishRequest{ProjectKey: "SHOP", Items: rawItems(`[{"type":"story","title":"Pay"}]`)})
    require.NoError(t, err)
    o := l.Outcomes()[0]
    assert.Equal(t, domain.StatusPublished, o.Status)
    assert.Empty(t, o.ExternalKey)
    assert.Equal(t, 1, o.Attempts)
    assert.Equal(t, 1, f.createCount(), "minimal payload must not be posted after a 2xx")
}
