package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"coursemart/internal/model"
	"coursemart/internal/notifications"
	"coursemart/internal/payment"
	"coursemart/internal/repository"
	"coursemart/internal/video"
)

type memCourses struct {
	byID      map[string]*model.Course
	deleteErr error
}

func newMemCourses(cs ...model.Course) *memCourses {
	m := &memCourses{byID: map[string]*model.Course{}}
	for i := range cs {
		c := cs[i]
		m.byID[c.ID] = &c
	}
	return m
}

func (m *memCourses) List(_ context.Context, publishedOnly bool) ([]model.Course, error) {
	out := []model.Course{}
	for _, c := range m.byID {
		if publishedOnly && !c.Published {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCourses) GetByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memCourses) GetBySlug(_ context.Context, slug string) (*model.Course, error) {
	for _, c := range m.byID {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memCourses) Create(_ context.Context, c *model.Course) error {
	for _, existing := range m.byID {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	if c.ID == "" {
		c.ID = "course-" + c.Slug
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCourses) Update(_ context.Context, c *model.Course) error {
	if _, ok := m.byID[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCourses) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memLessons struct {
	byID map[string]*model.Lesson
	err  error
}

func newMemLessons(ls ...model.Lesson) *memLessons {
	m := &memLessons{byID: map[string]*model.Lesson{}}
	for i := range ls {
		l := ls[i]
		m.byID[l.ID] = &l
	}
	return m
}

func (m *memLessons) ListByCourse(_ context.Context, courseID string) ([]model.Lesson, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Lesson{}
	for _, l := range m.byID {
		if l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memLessons) GetByID(_ context.Context, id string) (*model.Lesson, error) {
	l, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *memLessons) Create(ctx context.Context, l *model.Lesson) error {
	existing, _ := m.ListByCourse(ctx, l.CourseID)
	l.Position = len(existing) + 1
	if l.ID == "" {
		l.ID = l.CourseID + "-lesson-" + string(rune('0'+l.Position))
	}
	cp := *l
	m.byID[l.ID] = &cp
	return nil
}

func (m *memLessons) Update(_ context.Context, l *model.Lesson) error {
	existing, ok := m.byID[l.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Title, existing.Description, existing.IsPreview = l.Title, l.Description, l.IsPreview
	*l = *existing
	return nil
}

func (m *memLessons) UpdateVideo(_ context.Context, id string, v model.LessonVideo) error {
	l, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.VideoProvider, l.VideoUploadID, l.VideoAssetID = v.Provider, v.UploadID, v.AssetID
	l.VideoPlaybackURL, l.VideoStatus, l.DurationSeconds = v.PlaybackURL, v.Status, v.DurationSeconds
	return nil
}

func (m *memLessons) Delete(_ context.Context, id string) error {
	l, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	for _, other := range m.byID {
		if other.CourseID == l.CourseID && other.Position > l.Position {
			other.Position--
		}
	}
	return nil
}

func (m *memLessons) Reorder(ctx context.Context, courseID string, ids []string) error {
	existing, _ := m.ListByCourse(ctx, courseID)
	if len(existing) != len(ids) {
		return repository.ErrInvalidOrder
	}
	seen := map[string]bool{}
	for _, id := range ids {
		l, ok := m.byID[id]
		if !ok || l.CourseID != courseID || seen[id] {
			return repository.ErrInvalidOrder
		}
		seen[id] = true
	}
	for i, id := range ids {
		m.byID[id].Position = i + 1
	}
	return nil
}

// memPurchases mirrors the purchases table, including the one-COMPLETED-per-user-and-course index.
type memPurchases struct {
	mu       sync.Mutex
	byID     map[string]*model.Purchase
	getErr   error
	checked  map[string]int
	checkSeq int
}

func newMemPurchases(ps ...model.Purchase) *memPurchases {
	m := &memPurchases{byID: map[string]*model.Purchase{}, checked: map[string]int{}}
	for i := range ps {
		p := ps[i]
		m.byID[p.MerchantOrderID] = &p
	}
	return m
}

func (m *memPurchases) Create(_ context.Context, p *model.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.State == model.PurchaseStateCompleted {
		if m.ownedLocked(p.UserID, p.CourseID, "") {
			return repository.ErrDuplicatePurchase
		}
		now := time.Now()
		p.CompletedAt = &now
	}
	p.ID = "p-" + p.MerchantOrderID
	p.CreatedAt = time.Now()
	cp := *p
	m.byID[p.MerchantOrderID] = &cp
	return nil
}

func (m *memPurchases) GetByMerchantOrderID(_ context.Context, id string) (*model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPurchases) ListByUser(_ context.Context, userID string) ([]model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Purchase{}
	for _, p := range m.byID {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPurchases) HasCompleted(_ context.Context, userID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.UserID == userID && p.CourseID == courseID && p.State == model.PurchaseStateCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPurchases) ownedLocked(userID, courseID, exceptID string) bool {
	for id, p := range m.byID {
		if id != exceptID && p.UserID == userID && p.CourseID == courseID && p.State == model.PurchaseStateCompleted {
			return true
		}
	}
	return false
}

func (m *memPurchases) ListPending(_ context.Context, before time.Time, limit int) ([]model.Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Purchase{}
	for _, p := range m.byID {
		if p.State == model.PurchaseStatePending && p.CreatedAt.Before(before) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := m.checked[out[i].MerchantOrderID], m.checked[out[j].MerchantOrderID]
		if ci != cj {
			return ci < cj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPurchases) MarkChecked(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkSeq++
	m.checked[id] = m.checkSeq
	return nil
}

func (m *memPurchases) SetGatewayOrderID(_ context.Context, id, gatewayOrderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.GatewayOrderID = gatewayOrderID
	return nil
}

func (m *memPurchases) MarkCompleted(_ context.Context, id, gatewayOrderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.State != model.PurchaseStatePending {
		return false, nil
	}
	if m.ownedLocked(p.UserID, p.CourseID, id) {
		return false, repository.ErrDuplicatePurchase
	}
	now := time.Now()
	p.State = model.PurchaseStateCompleted
	p.CompletedAt = &now
	if gatewayOrderID != "" {
		p.GatewayOrderID = gatewayOrderID
	}
	return true, nil
}

func (m *memPurchases) MarkFailed(_ context.Context, id, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok || p.State != model.PurchaseStatePending {
		return false, nil
	}
	p.State = model.PurchaseStateFailed
	p.FailureReason = reason
	return true, nil
}

type memSlides struct {
	byID       map[string]*model.HeroSlide
	reorderErr error
}

func (m *memSlides) List(_ context.Context, activeOnly bool) ([]model.HeroSlide, error) {
	out := []model.HeroSlide{}
	for _, s := range m.byID {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memSlides) GetByID(_ context.Context, id string) (*model.HeroSlide, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSlides) Create(_ context.Context, s *model.HeroSlide) error {
	s.Position = len(m.byID) + 1
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSlides) Update(_ context.Context, s *model.HeroSlide) error {
	if _, ok := m.byID[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSlides) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memSlides) Reorder(context.Context, []string) error { return m.reorderErr }

type memTestimonials struct {
	byID map[string]*model.Testimonial
}

func (m *memTestimonials) List(_ context.Context, publishedOnly bool) ([]model.Testimonial, error) {
	out := []model.Testimonial{}
	for _, t := range m.byID {
		if publishedOnly && !t.Published {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *memTestimonials) GetByID(_ context.Context, id string) (*model.Testimonial, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memTestimonials) Create(_ context.Context, t *model.Testimonial) error {
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTestimonials) Update(_ context.Context, t *model.Testimonial) error {
	if _, ok := m.byID[t.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *t
	m.byID[t.ID] = &cp
	return nil
}

func (m *memTestimonials) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTestimonials) Reorder(context.Context, []string) error { return nil }

type fakeStorage struct {
	deleted []string
	presign error
}

func (f *fakeStorage) PresignUpload(_ context.Context, key, _ string) (string, error) {
	if f.presign != nil {
		return "", f.presign
	}
	return "https://s3.test/upload/" + key + "?X-Amz-Signature=sig", nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return publicObjectURL("https://cdn.test/public", key)
}

type fakeProvider struct {
	name    string
	deleted []string
	upload  *video.Upload
	err     error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) CreateUpload(_ context.Context, req video.UploadRequest) (*video.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.upload != nil {
		return f.upload, nil
	}
	return &video.Upload{ID: "up-" + req.LessonID, URL: "https://upload.test/" + req.LessonID, Method: http.MethodPut}, nil
}

func (f *fakeProvider) ResolveUpload(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (f *fakeProvider) GetAsset(_ context.Context, id string) (*video.Asset, error) {
	return &video.Asset{ID: id, Status: video.StatusProcessing}, nil
}

func (f *fakeProvider) DeleteAsset(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeJobQueue struct {
	sent  [][]byte
	queue string
	err   error
}

func (f *fakeJobQueue) Send(_ context.Context, queue string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.queue = queue
	f.sent = append(f.sent, payload)
	return nil
}

type fakeGateway struct {
	name       string
	ttl        time.Duration
	status     *payment.OrderStatus
	statusErr  error
	initErr    error
	webhook    *payment.OrderStatus
	webhookErr error
	requests   []payment.CheckoutRequest
	statusCall int
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) OrderTTL() time.Duration { return g.ttl }

func (g *fakeGateway) Initiate(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.requests = append(g.requests, req)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &payment.CheckoutSession{GatewayOrderID: "GW-" + req.MerchantOrderID, RedirectURL: "https://pay.test/" + req.MerchantOrderID}, nil
}

func (g *fakeGateway) Status(_ context.Context, merchantOrderID, _ string) (*payment.OrderStatus, error) {
	g.statusCall++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	st := *g.status
	st.MerchantOrderID = merchantOrderID
	return &st, nil
}

func (g *fakeGateway) ParseWebhook(*http.Request, []byte) (*payment.OrderStatus, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	return g.webhook, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return "msg-1", nil
}

type recordingSender struct {
	receipts []notifications.Receipt
	err      error
}

func (s *recordingSender) SendPurchaseReceipt(_ context.Context, r notifications.Receipt) error {
	s.receipts = append(s.receipts, r)
	return s.err
}

var errBoom = errors.New("boom")
