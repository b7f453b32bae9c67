package app

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"studybuddy/internal/ai"
	"studybuddy/internal/cache"
	"studybuddy/internal/model"
	"studybuddy/internal/platform/objectstore"
)

func intPtr(v int) *int { return &v }

func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.Cell(40, 10, text)
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

type fakeTranscripts struct {
	mu        sync.Mutex
	records   []model.TranscriptRecord
	createErr error
	listErr   error
}

func (f *fakeTranscripts) Create(_ context.Context, r *model.TranscriptRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeTranscripts) GetByID(_ context.Context, id string) (*model.TranscriptRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].ID == id {
			r := f.records[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeTranscripts) ListCourses(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, r := range f.records {
		if !seen[r.CourseName] {
			seen[r.CourseName] = true
			out = append(out, r.CourseName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeTranscripts) ListWeeks(_ context.Context, course string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[int]bool{}
	var out []int
	for _, r := range f.records {
		if r.CourseName == course && r.WeekNumber != nil && !seen[*r.WeekNumber] {
			seen[*r.WeekNumber] = true
			out = append(out, *r.WeekNumber)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (f *fakeTranscripts) List(_ context.Context, filter model.TranscriptFilter) ([]model.TranscriptRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.TranscriptRecord
	for _, r := range f.records {
		if filter.CourseName != "" && r.CourseName != filter.CourseName {
			continue
		}
		if !weekMatches(r.WeekNumber, filter) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func weekMatches(week *int, filter model.TranscriptFilter) bool {
	if len(filter.Weeks) > 0 {
		if week == nil {
			return false
		}
		for _, w := range filter.Weeks {
			if w == *week {
				return true
			}
		}
		return false
	}
	if filter.Week != nil {
		return week != nil && *week == *filter.Week
	}
	return true
}

type fakeFiles struct {
	mu        sync.Mutex
	rows      map[string]model.FileContent
	createErr error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{rows: map[string]model.FileContent{}}
}

func (f *fakeFiles) Create(_ context.Context, c *model.FileContent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	f.rows[c.ID] = *c
	return nil
}

func (f *fakeFiles) GetByID(_ context.Context, id string) (*model.FileContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// recordingStore wraps an object store and counts calls.
type recordingStore struct {
	objectstore.Store
	uploads   int
	downloads int
	uploadErr error
}

func (r *recordingStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	r.uploads++
	if r.uploadErr != nil {
		return r.uploadErr
	}
	return r.Store.Upload(ctx, path, data, contentType)
}

func (r *recordingStore) Download(ctx context.Context, path string) ([]byte, error) {
	r.downloads++
	return r.Store.Download(ctx, path)
}

func newMemStore(t *testing.T) *recordingStore {
	t.Helper()
	store, err := objectstore.OpenBadger("", "transcripts")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return &recordingStore{Store: store}
}

// fakeEmbedder returns [len(text), 1] for every text.
type fakeEmbedder struct {
	mu       sync.Mutex
	batches  []int
	queries  []string
	embedErr error
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.batches = append(f.batches, len(texts))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.queries = append(f.queries, text)
	return []float32{float32(len(text)), 1}, nil
}

type storedVector struct {
	ID       string
	Metadata map[string]any
}

type searchCall struct {
	Query  string
	TopK   int
	Filter any
}

// memVectors is an in-memory vector store. Like the Pinecone store it embeds
// through its embedder and keeps the text under the "text" metadata key.
// Search matches on metadata filter only and scores in insertion order.
type memVectors struct {
	mu       sync.Mutex
	embedder embeddings.Embedder
	vectors  []storedVector
	searches []searchCall
	addErr   error
	queryErr error
}

func (m *memVectors) AddDocuments(ctx context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return nil, m.addErr
	}
	if m.embedder != nil {
		texts := make([]string, 0, len(docs))
		for _, d := range docs {
			texts = append(texts, d.PageContent)
		}
		if _, err := m.embedder.EmbedDocuments(ctx, texts); err != nil {
			return nil, err
		}
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		md := make(map[string]any, len(d.Metadata)+1)
		for k, v := range d.Metadata {
			md[k] = v
		}
		md["text"] = d.PageContent
		id := uuid.NewString()
		m.vectors = append(m.vectors, storedVector{ID: id, Metadata: md})
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memVectors) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var opts vectorstores.Options
	for _, o := range options {
		o(&opts)
	}
	m.searches = append(m.searches, searchCall{Query: query, TopK: numDocuments, Filter: opts.Filters})
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.embedder != nil {
		if _, err := m.embedder.EmbedQuery(ctx, query); err != nil {
			return nil, err
		}
	}
	filter, _ := opts.Filters.(map[string]any)
	var out []schema.Document
	for i, v := range m.vectors {
		if !filterMatches(v.Metadata, filter) {
			continue
		}
		md := make(map[string]any, len(v.Metadata))
		for k, val := range v.Metadata {
			md[k] = val
		}
		text, _ := md["text"].(string)
		delete(md, "text")
		out = append(out, schema.Document{PageContent: text, Metadata: md, Score: 1 / float32(i+1)})
		if len(out) == numDocuments {
			break
		}
	}
	return out, nil
}

func filterMatches(md, filter map[string]any) bool {
	for key, cond := range filter {
		ops := cond.(map[string]any)
		val, ok := md[key]
		if !ok {
			return false
		}
		if eq, ok := ops["$eq"]; ok && eq != val {
			return false
		}
		if in, ok := ops["$in"]; ok {
			found := false
			for _, w := range in.([]int) {
				if w == val {
					found = true
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

type fakeLLM struct {
	mu      sync.Mutex
	calls   [][]ai.ChatMessage
	configs []ai.ChatConfig
	reply   string
	err     error
}

func (f *fakeLLM) Complete(_ context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	f.configs = append(f.configs, cfg)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) lastUserMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.calls[len(f.calls)-1]
	return msgs[len(msgs)-1].Content
}

type fakeRetriever struct {
	chunks  []RetrievedChunk
	err     error
	filters []model.TranscriptFilter
	topKs   []int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, filter model.TranscriptFilter, topK int) ([]RetrievedChunk, error) {
	f.filters = append(f.filters, filter)
	f.topKs = append(f.topKs, topK)
	return f.chunks, f.err
}

type fakeTexts struct {
	texts map[string]string
	err   error
}

func (f *fakeTexts) TranscriptText(_ context.Context, r *model.TranscriptRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[r.ID], nil
}

type fakePublisher struct {
	jobs []model.IndexJob
	err  error
}

func (f *fakePublisher) PublishIndexJob(_ context.Context, job model.IndexJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type memChatLog struct {
	mu   sync.Mutex
	logs map[string][]model.ChatMessage
}

func newMemChatLog() *memChatLog {
	return &memChatLog{logs: map[string][]model.ChatMessage{}}
}

func (m *memChatLog) Start(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[id] = []model.ChatMessage{}
	return nil
}

func (m *memChatLog) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.logs[id]
	return ok, nil
}

func (m *memChatLog) Append(_ context.Context, id string, messages ...model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log, ok := m.logs[id]
	if !ok {
		return cache.ErrSessionNotFound
	}
	m.logs[id] = append(log, messages...)
	return nil
}

func (m *memChatLog) History(_ context.Context, id string) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log, ok := m.logs[id]
	if !ok {
		return nil, cache.ErrSessionNotFound
	}
	return append([]model.ChatMessage(nil), log...), nil
}

func (m *memChatLog) Recent(ctx context.Context, id string, n int) ([]model.ChatMessage, error) {
	log, err := m.History(ctx, id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	if len(log) > n {
		log = log[len(log)-n:]
	}
	return log, nil
}

func (m *memChatLog) End(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logs[id]; !ok {
		return cache.ErrSessionNotFound
	}
	delete(m.logs, id)
	return nil
}

var errBoom = errors.New("boom")
