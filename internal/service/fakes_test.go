package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventledger/internal/model"
)

// The fakes below stand in for the repository layer. They enforce the same
// guarantees the SQL implementations provide under row locks: capacity and
// duplicate checks inside Book, exact payment aggregation, and compare-and-set
// target-met detection.

type fakeStore struct {
	mu          sync.Mutex
	events      map[string]*model.Event
	regs        map[string]*model.Registration
	guests      map[string][]model.Guest
	fields      map[string][]model.FormField
	responses   map[string]map[string]string
	items       map[string]*model.MerchandiseItem
	orders      map[string][]model.CartOrder
	collections map[string]*model.BatchCollection
	payments    map[string][]model.BatchAdminPayment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:      make(map[string]*model.Event),
		regs:        make(map[string]*model.Registration),
		guests:      make(map[string][]model.Guest),
		fields:      make(map[string][]model.FormField),
		responses:   make(map[string]map[string]string),
		items:       make(map[string]*model.MerchandiseItem),
		orders:      make(map[string][]model.CartOrder),
		collections: make(map[string]*model.BatchCollection),
		payments:    make(map[string][]model.BatchAdminPayment),
	}
}

func (f *fakeStore) addEvent(e *model.Event) { f.events[e.ID] = e }

// ── EventStore ────────────────────────────────────────────────────────────────

func (f *fakeStore) GetEvent(_ context.Context, id string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ── RegistrationStore ─────────────────────────────────────────────────────────

func (f *fakeStore) GetRegistration(_ context.Context, id string) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.regs[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (f *fakeStore) GetByEventUser(_ context.Context, eventID, userID string) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.regs {
		if reg.EventID == eventID && reg.UserID == userID {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeStore) Book(_ context.Context, p BookParams) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	event, ok := f.events[p.EventID]
	if !ok {
		return nil, model.ErrNotFound
	}
	for _, reg := range f.regs {
		if reg.EventID == p.EventID && reg.UserID == p.UserID {
			return nil, model.ErrAlreadyRegistered
		}
	}
	if event.Capacity != nil && event.ConfirmedCount >= *event.Capacity {
		return nil, model.ErrEventFull
	}

	now := time.Now().UTC()
	reg := &model.Registration{
		ID:                  uuid.New().String(),
		EventID:             p.EventID,
		UserID:              p.UserID,
		Status:              model.RegistrationConfirmed,
		PaymentStatus:       p.PaymentStatus,
		Mode:                p.Mode,
		RegistrationFeePaid: p.Breakdown.RegistrationFee,
		GuestFeesPaid:       p.Breakdown.GuestFees,
		MerchandiseTotal:    p.Breakdown.Merchandise,
		DonationAmount:      p.Breakdown.Donation,
		TotalAmount:         p.Breakdown.Total,
		TotalGuests:         len(p.GuestNames),
		ActiveGuests:        len(p.GuestNames),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	event.ConfirmedCount++
	f.regs[reg.ID] = reg

	for _, name := range p.GuestNames {
		f.guests[reg.ID] = append(f.guests[reg.ID], model.Guest{
			ID:             uuid.New().String(),
			RegistrationID: reg.ID,
			Name:           name,
			Status:         model.GuestActive,
			FeePaid:        p.GuestFeeEach,
			CreatedAt:      now,
		})
	}
	if len(p.FormResponses) > 0 {
		f.responses[reg.ID] = p.FormResponses
	}

	cp := *reg
	return &cp, nil
}

func (f *fakeStore) ListGuests(_ context.Context, registrationID string, status model.GuestStatus) ([]model.Guest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Guest
	for _, g := range f.guests[registrationID] {
		if g.Status == status {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyGuestChange(_ context.Context, registrationID string, change GuestChange) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reg, ok := f.regs[registrationID]
	if !ok {
		return nil, model.ErrNotFound
	}

	now := time.Now().UTC()
	for _, name := range change.AddNames {
		f.guests[registrationID] = append(f.guests[registrationID], model.Guest{
			ID:             uuid.New().String(),
			RegistrationID: registrationID,
			Name:           name,
			Status:         model.GuestActive,
			FeePaid:        change.FeeEach,
			CreatedAt:      now,
		})
	}
	for _, id := range change.RemoveIDs {
		found := false
		for i := range f.guests[registrationID] {
			g := &f.guests[registrationID][i]
			if g.ID == id && g.Status == model.GuestActive {
				g.Status = model.GuestCancelled
				found = true
				break
			}
		}
		if !found {
			return nil, model.ErrNotFound
		}
	}

	reg.GuestFeesPaid = change.Delta.NewGuestFees
	reg.DonationAmount = change.Delta.NewDonation
	reg.TotalAmount = change.Delta.NewTotal
	reg.TotalGuests += len(change.AddNames)
	reg.ActiveGuests = change.Delta.NewGuestCount
	reg.UpdatedAt = now

	cp := *reg
	return &cp, nil
}

func (f *fakeStore) CancelRegistration(_ context.Context, registrationID string) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reg, ok := f.regs[registrationID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if reg.Status == model.RegistrationConfirmed {
		if event, ok := f.events[reg.EventID]; ok {
			event.ConfirmedCount--
		}
	}
	reg.Status = model.RegistrationCancelled
	cp := *reg
	return &cp, nil
}

// ── FormStore ─────────────────────────────────────────────────────────────────

func (f *fakeStore) ListFields(_ context.Context, eventID string) ([]model.FormField, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields[eventID], nil
}

func (f *fakeStore) SaveResponses(_ context.Context, registrationID string, responses map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[registrationID] = responses
	return nil
}

// ── CartStore ─────────────────────────────────────────────────────────────────

func (f *fakeStore) GetItem(_ context.Context, itemID string) (*model.MerchandiseItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeStore) ListItems(_ context.Context, eventID string) ([]model.MerchandiseItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MerchandiseItem
	for _, item := range f.items {
		if item.EventID == eventID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeStore) AddCartOrder(_ context.Context, order *model.CartOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[order.RegistrationID] = append(f.orders[order.RegistrationID], *order)
	return nil
}

func (f *fakeStore) RemoveCartOrder(_ context.Context, registrationID, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	orders := f.orders[registrationID]
	for i, o := range orders {
		if o.ID == orderID {
			f.orders[registrationID] = append(orders[:i], orders[i+1:]...)
			return nil
		}
	}
	return model.ErrNotFound
}

func (f *fakeStore) ListCartLines(_ context.Context, registrationID string) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var lines []model.CartLine
	for _, o := range f.orders[registrationID] {
		item := f.items[o.ItemID]
		line := model.CartLine{
			Order:      o,
			ItemName:   item.Name,
			ItemActive: item.Active,
		}
		switch {
		case item.Stock == nil:
			line.StockStatus = model.StockUnlimited
		case *item.Stock < o.Quantity:
			line.StockStatus = model.StockInsufficient
		default:
			line.StockStatus = model.StockAvailable
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (f *fakeStore) FinalizeCheckout(_ context.Context, registrationID string, cartTotal decimal.Decimal) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reg, ok := f.regs[registrationID]
	if !ok {
		return nil, model.ErrNotFound
	}
	demand := make(map[string]int)
	for _, o := range f.orders[registrationID] {
		demand[o.ItemID] += o.Quantity
	}
	for itemID, quantity := range demand {
		item := f.items[itemID]
		if !item.Active {
			return nil, model.Conflict("%s is no longer available", item.Name)
		}
		if item.Stock != nil && *item.Stock < quantity {
			return nil, model.Conflict("insufficient stock for %s", item.Name)
		}
	}
	for itemID, quantity := range demand {
		if item := f.items[itemID]; item.Stock != nil {
			*item.Stock -= quantity
		}
	}
	reg.MerchandiseTotal = reg.MerchandiseTotal.Add(cartTotal)
	reg.TotalAmount = reg.TotalAmount.Add(cartTotal)
	delete(f.orders, registrationID)

	cp := *reg
	return &cp, nil
}

// ── BatchStore ────────────────────────────────────────────────────────────────

func (f *fakeStore) GetCollection(_ context.Context, id string) (*model.BatchCollection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) GetCollectionByEventCohort(_ context.Context, eventID, cohortID string) (*model.BatchCollection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.collections {
		if c.EventID == eventID && c.CohortID == cohortID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeStore) CreateCollection(_ context.Context, c *model.BatchCollection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.collections {
		if existing.EventID == c.EventID && existing.CohortID == c.CohortID {
			return model.ErrCollectionExists
		}
	}
	cp := *c
	f.collections[c.ID] = &cp
	return nil
}

func (f *fakeStore) RecordPayment(_ context.Context, collectionID string, payment *model.BatchAdminPayment) (*model.BatchCollection, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.collections[collectionID]
	if !ok {
		return nil, false, model.ErrNotFound
	}
	if c.Status != model.BatchActive {
		return nil, false, model.Conflict("this collection is no longer accepting payments")
	}

	f.payments[collectionID] = append(f.payments[collectionID], *payment)
	c.CollectedAmount = c.CollectedAmount.Add(payment.Amount)

	targetJustMet := false
	if !c.TargetMet && c.CollectedAmount.GreaterThanOrEqual(c.TargetAmount) {
		c.TargetMet = true
		targetJustMet = true
	}

	cp := *c
	return &cp, targetJustMet, nil
}

func (f *fakeStore) ApproveAndRegister(_ context.Context, collectionID string, seed BulkRegistrationSeed) (*model.BatchApprovalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.collections[collectionID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if c.Approved {
		return nil, model.Conflict("this collection has already been approved")
	}
	if !c.TargetMet {
		return nil, model.Conflict("the funding target has not been met")
	}

	result := &model.BatchApprovalResult{MemberCount: len(seed.Members)}
	var pending []string
	for _, member := range seed.Members {
		exists := false
		for _, reg := range f.regs {
			if reg.EventID == seed.EventID && reg.UserID == member.UserID {
				exists = true
				break
			}
		}
		if exists {
			result.Skipped++
		} else {
			pending = append(pending, member.UserID)
		}
	}

	event := f.events[seed.EventID]
	if event == nil {
		return nil, model.ErrNotFound
	}
	if event.Capacity != nil && len(pending) > *event.Capacity-event.ConfirmedCount {
		return nil, model.ErrEventFull
	}

	c.Approved = true
	c.Status = model.BatchCompleted

	for _, userID := range pending {
		reg := &model.Registration{
			ID:                  uuid.New().String(),
			EventID:             seed.EventID,
			UserID:              userID,
			Status:              model.RegistrationConfirmed,
			PaymentStatus:       model.PaymentCompleted,
			Mode:                model.ModeBatchAutoRegistered,
			RegistrationFeePaid: seed.RegistrationFee,
			TotalAmount:         seed.RegistrationFee,
			CreatedAt:           seed.Now,
			UpdatedAt:           seed.Now,
		}
		f.regs[reg.ID] = reg
		result.Registered++
		event.ConfirmedCount++
	}

	result.Collection = *c
	return result, nil
}

func (f *fakeStore) CancelCollection(_ context.Context, collectionID string) (*model.BatchCollection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collectionID]
	if !ok {
		return nil, model.ErrNotFound
	}
	c.Status = model.BatchCancelled
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListPayments(_ context.Context, collectionID string) ([]model.BatchAdminPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.BatchAdminPayment, len(f.payments[collectionID]))
	copy(out, f.payments[collectionID])
	return out, nil
}

// ── Collaborators ─────────────────────────────────────────────────────────────

type fakeCohorts struct {
	members map[string][]model.CohortMember
	admins  map[string]bool // "userID/cohortID"
}

func newFakeCohorts() *fakeCohorts {
	return &fakeCohorts{
		members: make(map[string][]model.CohortMember),
		admins:  make(map[string]bool),
	}
}

func (f *fakeCohorts) ActiveMembers(_ context.Context, cohortID string) ([]model.CohortMember, error) {
	return f.members[cohortID], nil
}

func (f *fakeCohorts) IsAdministrator(_ context.Context, userID, cohortID string) (bool, error) {
	return f.admins[userID+"/"+cohortID], nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	targetMet     []CollectionNotice
	approvedCalls []CollectionNotice
}

func (f *fakeNotifier) TargetMet(_ context.Context, n CollectionNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targetMet = append(f.targetMet, n)
}

func (f *fakeNotifier) CollectionApproved(_ context.Context, n CollectionNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvedCalls = append(f.approvedCalls, n)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
	}
}

// ── Shared helpers ────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func intPtr(n int) *int { return &n }

func openEvent(id string, capacity *int) *model.Event {
	return &model.Event{
		ID:              id,
		Title:           "Annual Gala",
		Status:          model.EventStatusOpen,
		StartAt:         time.Now().Add(30 * 24 * time.Hour),
		Capacity:        capacity,
		RegistrationFee: dec("500"),
		GuestFee:        dec("100"),
		HasRegistration: true,
		HasGuests:       true,
		HasMerchandise:  true,

		AllowFormModification: true,
		ModificationDeadline:  24,
	}
}
