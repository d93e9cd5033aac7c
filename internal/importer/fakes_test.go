package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/imrishuroy/go-invoice-importflow/internal/audit"
	"github.com/imrishuroy/go-invoice-importflow/internal/invoices"
	"github.com/imrishuroy/go-invoice-importflow/internal/landing"
	"github.com/imrishuroy/go-invoice-importflow/internal/notify"
	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
)

// memStore mimics the conditional writes of transactions.Store.
type memStore struct {
	mu      sync.Mutex
	records map[string]transactions.Transaction
	history map[string][]transactions.Status
	// beforeCAS runs (without the lock) before each conditional write.
	beforeCAS func(id string, expected, next transactions.Status)
	casErr    error
}

func newMemStore() *memStore {
	return &memStore{
		records: map[string]transactions.Transaction{},
		history: map[string][]transactions.Status{},
	}
}

func (s *memStore) Create(ctx context.Context, tx transactions.Transaction) (transactions.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[tx.TransactionID]; ok {
		return transactions.Transaction{}, transactions.ErrAlreadyExists
	}
	tx.PK = transactions.PartitionKey
	tx.Status = transactions.StatusGenerated
	tx.CreatedAt = time.Now()
	tx.ExpiresAt = tx.CreatedAt.Add(2 * time.Minute).Unix()
	s.records[tx.TransactionID] = tx
	s.history[tx.TransactionID] = []transactions.Status{tx.Status}
	return tx, nil
}

func (s *memStore) Get(ctx context.Context, id string) (*transactions.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.records[id]
	if !ok {
		return nil, transactions.ErrNotFound
	}
	return &tx, nil
}

func (s *memStore) CompareAndSetStatus(ctx context.Context, id string, expected, next transactions.Status) error {
	if s.beforeCAS != nil {
		s.beforeCAS(id, expected, next)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.casErr != nil {
		return s.casErr
	}
	if !transactions.CanTransition(expected, next) {
		return transactions.ErrInvalidTransition
	}
	tx, ok := s.records[id]
	if !ok || tx.Status != expected {
		return transactions.ErrStatusMismatch
	}
	tx.Status = next
	s.records[id] = tx
	s.history[id] = append(s.history[id], next)
	return nil
}

func (s *memStore) expire(id string) (transactions.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.records[id]
	delete(s.records, id)
	return tx, ok
}

func (s *memStore) status(id string) transactions.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.records[id]
	if !ok {
		return transactions.StatusNotFound
	}
	return tx.Status
}

// pathError checks that every recorded status sequence follows the lifecycle graph.
func (s *memStore) pathError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, path := range s.history {
		if len(path) == 0 || path[0] != transactions.StatusGenerated {
			return fmt.Errorf("%s: path must start at GENERATED: %v", id, path)
		}
		for i := 1; i < len(path); i++ {
			if !transactions.CanTransition(path[i-1], path[i]) {
				return fmt.Errorf("%s: illegal step %s -> %s in %v", id, path[i-1], path[i], path)
			}
		}
	}
	return nil
}

type memInvoices struct {
	mu       sync.Mutex
	items    map[string]invoices.Invoice
	creates  int
	failWith error
}

func newMemInvoices() *memInvoices {
	return &memInvoices{items: map[string]invoices.Invoice{}}
}

func (m *memInvoices) Create(ctx context.Context, inv invoices.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.failWith != nil {
		return m.failWith
	}
	k := invoices.PartitionKey(inv.CustomerName) + "|" + inv.InvoiceNumber
	if _, ok := m.items[k]; ok {
		return invoices.ErrAlreadyExists
	}
	m.items[k] = inv
	return nil
}

func (m *memInvoices) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memZone struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes map[string]int
	reads   int
}

func newMemZone() *memZone {
	return &memZone{objects: map[string][]byte{}, deletes: map[string]int{}}
}

func (z *memZone) IssueWriteCredential(ctx context.Context, key string, ttl time.Duration) (landing.Credential, error) {
	return landing.Credential{URL: "https://bucket.local/" + key + "?sig=1", Key: key, ExpiresIn: ttl}, nil
}

func (z *memZone) Get(ctx context.Context, key string) ([]byte, error) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.reads++
	data, ok := z.objects[key]
	if !ok {
		return nil, landing.ErrObjectNotFound
	}
	return data, nil
}

func (z *memZone) Delete(ctx context.Context, key string) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.deletes[key]++
	delete(z.objects, key)
	return nil
}

func (z *memZone) put(key, body string) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.objects[key] = []byte(body)
}

type sent struct {
	connectionID string
	payload      any
}

type memChannel struct {
	mu      sync.Mutex
	sent    []sent
	closed  []string
	sendErr error
}

func (c *memChannel) Send(ctx context.Context, connectionID string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, sent{connectionID: connectionID, payload: payload})
	return nil
}

func (c *memChannel) Close(ctx context.Context, connectionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = append(c.closed, connectionID)
	return nil
}

// statuses returns the status messages sent for transactionID, in order.
func (c *memChannel) statuses(transactionID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, s := range c.sent {
		if m, ok := s.payload.(notify.StatusMessage); ok && m.TransactionID == transactionID {
			out = append(out, m.Status)
		}
	}
	return out
}

type memAudit struct {
	mu       sync.Mutex
	events   []audit.Event
	failWith error
}

func (a *memAudit) Emit(ctx context.Context, ev audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return a.failWith
	}
	a.events = append(a.events, ev)
	return nil
}

type memMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *memMetrics) RecordOutcome(ctx context.Context, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, status)
	return nil
}

type harness struct {
	store    *memStore
	invoices *memInvoices
	zone     *memZone
	channel  *memChannel
	audit    *memAudit
	metrics  *memMetrics
	c        *Coordinator
}

func newHarness() *harness {
	h := &harness{
		store:    newMemStore(),
		invoices: newMemInvoices(),
		zone:     newMemZone(),
		channel:  &memChannel{},
		audit:    &memAudit{},
		metrics:  &memMetrics{},
	}
	h.c = NewCoordinator(Dependencies{
		Transactions:    h.store,
		Invoices:        h.invoices,
		Zone:            h.zone,
		Channel:         h.channel,
		Audit:           h.audit,
		Metrics:         h.metrics,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		UploadURLExpiry: 5 * time.Minute,
	})
	var n int
	var mu sync.Mutex
	h.c.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("T%d", n)
	}
	return h
}

func (h *harness) issue(connectionID string) string {
	msg, err := h.c.IssueUploadURL(context.Background(), UploadRequest{ConnectionID: connectionID, RequestID: "req-" + connectionID})
	if err != nil {
		panic(err)
	}
	return msg.TransactionID
}

var errUnavailable = errors.New("service unavailable")
