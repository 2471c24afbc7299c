package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"ats-pipeline/domain"
)

// In-memory fakes for the domain interfaces, shared by the usecase tests.

type fakeResumeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.UploadedResume
	byHash map[string]int64

	failCreate error
	// hideFromHashLookup simulates the window where a concurrent insert
	// has committed but this worker's read missed it; only the unique
	// index on Create catches the collision.
	hideFromHashLookup bool
}

func newFakeResumeRepo() *fakeResumeRepo {
	return &fakeResumeRepo{
		rows:   make(map[int64]*domain.UploadedResume),
		byHash: make(map[string]int64),
	}
}

func (r *fakeResumeRepo) Create(_ context.Context, res *domain.UploadedResume) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if _, ok := r.byHash[res.ContentHash]; ok {
		// The collision ends the race window; reads see the winner now.
		r.hideFromHashLookup = false
		return domain.ErrDuplicateHash
	}
	r.nextID++
	res.ID = r.nextID
	cp := *res
	r.rows[res.ID] = &cp
	r.byHash[res.ContentHash] = res.ID
	return nil
}

func (r *fakeResumeRepo) FindByID(_ context.Context, id int64) (*domain.UploadedResume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *fakeResumeRepo) FindByHash(_ context.Context, hash string) (*domain.UploadedResume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byHash[hash]
	if !ok || r.hideFromHashLookup {
		return nil, domain.ErrNotFound
	}
	cp := *r.rows[id]
	return &cp, nil
}

func (r *fakeResumeRepo) UpdateStatus(_ context.Context, id int64, status domain.ResumeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	res.Status = status
	return nil
}

type fakeCandidateRepo struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]*domain.Candidate
	byResume map[int64]int64

	failSave      error
	setVectorErr  error
	batchRequests [][]int64
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{
		rows:     make(map[int64]*domain.Candidate),
		byResume: make(map[int64]int64),
	}
}

func (r *fakeCandidateRepo) Save(_ context.Context, c *domain.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	if c.ID == 0 {
		r.nextID++
		c.ID = r.nextID
	}
	cp := *c
	r.rows[c.ID] = &cp
	r.byResume[c.ResumeID] = c.ID
	return nil
}

func (r *fakeCandidateRepo) FindByID(_ context.Context, id int64) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCandidateRepo) FindByIDs(_ context.Context, ids []int64) ([]domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batchRequests = append(r.batchRequests, ids)
	var out []domain.Candidate
	for _, id := range ids {
		if c, ok := r.rows[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCandidateRepo) FindByResumeID(_ context.Context, resumeID int64) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byResume[resumeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r.rows[id]
	return &cp, nil
}

func (r *fakeCandidateRepo) SetVector(_ context.Context, id int64, vectorID, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setVectorErr != nil {
		return r.setVectorErr
	}
	c, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.VectorID = &vectorID
	c.Summary = &summary
	return nil
}

func (r *fakeCandidateRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	delete(r.byResume, c.ResumeID)
	return nil
}

type fakeJobRepo struct {
	rows map[int64]*domain.Job
}

func newFakeJobRepo() *fakeJobRepo { return &fakeJobRepo{rows: make(map[int64]*domain.Job)} }

func (r *fakeJobRepo) Create(_ context.Context, j *domain.Job) error {
	if j.ID == 0 {
		j.ID = int64(len(r.rows) + 1)
	}
	r.rows[j.ID] = j
	return nil
}

func (r *fakeJobRepo) FindByID(_ context.Context, id int64) (*domain.Job, error) {
	j, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j, nil
}

type fakeAppRepo struct {
	rows       map[int64]*domain.JobApplication
	savedScore *domain.JobApplication
	saves      int
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{rows: make(map[int64]*domain.JobApplication)}
}

func (r *fakeAppRepo) Create(_ context.Context, a *domain.JobApplication) error {
	if a.ID == 0 {
		a.ID = int64(len(r.rows) + 1)
	}
	r.rows[a.ID] = a
	return nil
}

func (r *fakeAppRepo) FindByID(_ context.Context, id int64) (*domain.JobApplication, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppRepo) SaveScore(_ context.Context, a *domain.JobApplication) error {
	cp := *a
	r.savedScore = &cp
	r.saves++
	r.rows[a.ID] = &cp
	return nil
}

type fakeHashCache struct {
	mu   sync.Mutex
	data map[string]int64
	gets int
}

func newFakeHashCache() *fakeHashCache { return &fakeHashCache{data: make(map[string]int64)} }

func (c *fakeHashCache) GetResumeID(_ context.Context, hash string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	id, ok := c.data[hash]
	return id, ok, nil
}

func (c *fakeHashCache) SetResumeID(_ context.Context, hash string, id int64, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[hash] = id
	return nil
}

type fakeMarker struct {
	mu   sync.Mutex
	held     map[string]bool
	releases int

	acquireErr error
}

func newFakeMarker() *fakeMarker { return &fakeMarker{held: make(map[string]bool)} }

func (m *fakeMarker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireErr != nil {
		return false, m.acquireErr
	}
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *fakeMarker) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	delete(m.held, key)
	return nil
}

type fakeStatusStore struct {
	mu      sync.Mutex
	records map[string]domain.TaskStatusRecord
	history []domain.TaskStatusRecord
}

func newFakeStatusStore() *fakeStatusStore {
	return &fakeStatusStore{records: make(map[string]domain.TaskStatusRecord)}
}

func (s *fakeStatusStore) Put(_ context.Context, taskID string, rec domain.TaskStatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[taskID] = rec
	s.history = append(s.history, rec)
	return nil
}

func (s *fakeStatusStore) Get(_ context.Context, taskID string) (*domain.TaskStatusRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.IngestionTask
}

func (p *fakePublisher) Publish(_ context.Context, task domain.IngestionTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, task)
	return nil
}

type fakeObjectStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore { return &fakeObjectStore{files: make(map[string][]byte)} }

func (s *fakeObjectStore) Save(_ context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = data
	return key, nil
}

func (s *fakeObjectStore) Load(_ context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
	texts  []string
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	e.texts = append(e.texts, text)
	if e.err != nil {
		return nil, e.err
	}
	if e.vector == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return e.vector, nil
}

type fakeIndex struct {
	mu        sync.Mutex
	upserts   []domain.CandidateVector
	deletes   []int64
	hits      []domain.VectorHit
	searchErr error
	upsertErr error
	lastTopK  int
}

func (i *fakeIndex) Upsert(_ context.Context, v domain.CandidateVector) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.upsertErr != nil {
		return i.upsertErr
	}
	i.upserts = append(i.upserts, v)
	return nil
}

func (i *fakeIndex) Search(_ context.Context, _ []float32, topK int) ([]domain.VectorHit, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastTopK = topK
	if i.searchErr != nil {
		return nil, i.searchErr
	}
	return i.hits, nil
}

func (i *fakeIndex) Delete(_ context.Context, candidateID int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.deletes = append(i.deletes, candidateID)
	return nil
}

type fakeTextExtractor struct {
	text string
	err  error
}

func (e *fakeTextExtractor) Extract(_ []byte) (string, error) {
	return e.text, e.err
}

type fakeAIExtractor struct {
	result *domain.ExtractedCandidate
	raw    string
	err    error
	calls  int
}

func (e *fakeAIExtractor) ExtractCandidate(_ context.Context, _ string) (*domain.ExtractedCandidate, string, error) {
	e.calls++
	return e.result, e.raw, e.err
}
