package service

import (
	"context"
	"fmt"

	"payment-service/gateway"
	"payment-service/model"
	"payment-service/repository"
)

// fakeStore is an in-memory PaymentStore that enforces the order_id
// uniqueness constraint the way postgres does.
type fakeStore struct {
	records map[string]*model.Payment // keyed by order id
	nextID  uint

	// raceRecord simulates a concurrent winner: the next Create fails
	// with ErrDuplicateOrder and this record becomes visible to re-reads.
	raceRecord *model.Payment

	createErr    error
	setStatusErr error
	deleteErr    error

	findCalls   int
	deleteCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]*model.Payment{}}
}

func (fs *fakeStore) seed(p *model.Payment) *model.Payment {
	fs.nextID++
	p.ID = fs.nextID
	fs.records[p.OrderID] = p
	return p
}

func (fs *fakeStore) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	fs.findCalls++
	if p, ok := fs.records[orderID]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (fs *fakeStore) FindByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
	for _, p := range fs.records {
		if p.IntentID == intentID {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (fs *fakeStore) FindByID(ctx context.Context, id uint) (*model.Payment, error) {
	for _, p := range fs.records {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (fs *fakeStore) Create(ctx context.Context, p *model.Payment) error {
	if fs.raceRecord != nil {
		fs.records[fs.raceRecord.OrderID] = fs.raceRecord
		fs.raceRecord = nil
		return repository.ErrDuplicateOrder
	}
	if fs.createErr != nil {
		return fs.createErr
	}
	if _, ok := fs.records[p.OrderID]; ok {
		return repository.ErrDuplicateOrder
	}
	fs.nextID++
	p.ID = fs.nextID
	fs.records[p.OrderID] = p
	return nil
}

func (fs *fakeStore) SetStatus(ctx context.Context, p *model.Payment, status string) error {
	if fs.setStatusErr != nil {
		return fs.setStatusErr
	}
	p.Status = status
	return nil
}

func (fs *fakeStore) Delete(ctx context.Context, p *model.Payment) error {
	if fs.deleteErr != nil {
		return fs.deleteErr
	}
	fs.deleteCalls++
	delete(fs.records, p.OrderID)
	return nil
}

// fakeGateway mints deterministic intents (pi_1, pi_2, ...) and records
// every call so tests can assert how often the gateway was touched.
type fakeGateway struct {
	intents map[string]*gateway.Intent

	created     int
	retrieves   int
	cancelCalls []string
	lastCreated gateway.CreateIntentParams
	createErr   error
	retrieveErr error
	cancelErr   error
	verifyEvent *gateway.Event
	verifyErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*gateway.Intent{}}
}

func (fg *fakeGateway) addIntent(id, status string) *gateway.Intent {
	in := &gateway.Intent{ID: id, ClientSecret: id + "_secret", Status: status}
	fg.intents[id] = in
	return in
}

func (fg *fakeGateway) CreateIntent(ctx context.Context, params gateway.CreateIntentParams) (*gateway.Intent, error) {
	if fg.createErr != nil {
		return nil, fg.createErr
	}
	fg.created++
	fg.lastCreated = params
	return fg.addIntent(fmt.Sprintf("pi_%d", fg.created), gateway.IntentStatusRequiresPaymentMethod), nil
}

func (fg *fakeGateway) RetrieveIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	fg.retrieves++
	if fg.retrieveErr != nil {
		return nil, fg.retrieveErr
	}
	if in, ok := fg.intents[id]; ok {
		return in, nil
	}
	return nil, fmt.Errorf("no such intent: %s", id)
}

func (fg *fakeGateway) CancelIntent(ctx context.Context, id string) error {
	fg.cancelCalls = append(fg.cancelCalls, id)
	if fg.cancelErr != nil {
		return fg.cancelErr
	}
	if in, ok := fg.intents[id]; ok {
		in.Status = "canceled"
	}
	return nil
}

func (fg *fakeGateway) VerifyWebhook(payload []byte, signature string) (*gateway.Event, error) {
	if fg.verifyErr != nil {
		return nil, fg.verifyErr
	}
	return fg.verifyEvent, nil
}

// fakeNotifier records sends.
type fakeNotifier struct {
	sms    []string
	emails []string
	smsErr error
}

func (fn *fakeNotifier) SendSMS(phone, body string) error {
	if fn.smsErr != nil {
		return fn.smsErr
	}
	fn.sms = append(fn.sms, phone+": "+body)
	return nil
}

func (fn *fakeNotifier) SendEmail(to, subject, body string) error {
	fn.emails = append(fn.emails, to+": "+subject)
	return nil
}

// fakePublisher records published topics.
type fakePublisher struct {
	topics []string
}

func (fp *fakePublisher) PublishPaymentEvent(topic string, payment *model.Payment) {
	fp.topics = append(fp.topics, topic)
}
