package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/domain"
	"github.com/CHEzRIF21/logiclinic/internal/domain/billing"
	"github.com/CHEzRIF21/logiclinic/internal/domain/dispensation"
	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pharmacy"
	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/CHEzRIF21/logiclinic/internal/domain/pricing"
	"github.com/CHEzRIF21/logiclinic/pkg/metrics"
	"github.com/google/uuid"
)

// Prometheus collectors register globally, so all tests in the package
// share one instance.
var (
	testCollector     *metrics.Collector
	testCollectorOnce sync.Once
)

func testMetrics() *metrics.Collector {
	testCollectorOnce.Do(func() {
		testCollector = metrics.NewCollector("test")
	})
	return testCollector
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (f *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (f *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for _, existing := range f.patients {
		if existing.Identifiant == p.Identifiant {
			return patient.ErrPatientAlreadyExists
		}
	}
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok || p.ClinicID != clinicID {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatientRepo) GetByIdentifiant(_ context.Context, clinicID uuid.UUID, identifiant string) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patients {
		if p.ClinicID == clinicID && p.Identifiant == identifiant {
			cp := *p
			return &cp, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (f *fakePatientRepo) Update(_ context.Context, clinicID, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok || p.ClinicID != clinicID {
		return nil, patient.ErrPatientNotFound
	}
	if cmd.Nom != nil {
		p.Nom = *cmd.Nom
	}
	if cmd.Coverage != nil {
		p.Coverage = *cmd.Coverage
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatientRepo) SoftDelete(_ context.Context, clinicID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok || p.ClinicID != clinicID {
		return patient.ErrPatientNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	p.Status = patient.StatusInactive
	return nil
}

func (f *fakePatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*patient.Patient
	for _, p := range f.patients {
		if p.ClinicID == q.ClinicID && p.DeletedAt == nil {
			cp := *p
			out = append(out, &cp)
		}
	}
	return &patient.PagedPatients{Patients: out, TotalCount: int64(len(out)), Page: q.Page, PageSize: q.PageSize}, nil
}

type fakePrescriptionRepo struct {
	mu            sync.Mutex
	prescriptions map[uuid.UUID]*prescription.Prescription
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{prescriptions: make(map[uuid.UUID]*prescription.Prescription)}
}

func (f *fakePrescriptionRepo) Create(_ context.Context, p *prescription.Prescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Lines {
		if p.Lines[i].ID == uuid.Nil {
			p.Lines[i].ID = uuid.New()
		}
		p.Lines[i].PrescriptionID = p.ID
	}
	f.prescriptions[p.ID] = p
	return nil
}

func (f *fakePrescriptionRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*prescription.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prescriptions[id]
	if !ok || p.ClinicID != clinicID {
		return nil, prescription.ErrPrescriptionNotFound
	}
	cp := *p
	cp.Lines = append([]prescription.Line(nil), p.Lines...)
	return &cp, nil
}

func (f *fakePrescriptionRepo) UpdateStatus(_ context.Context, clinicID, id uuid.UUID, status prescription.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prescriptions[id]
	if !ok || p.ClinicID != clinicID {
		return prescription.ErrPrescriptionNotFound
	}
	p.Status = status
	return nil
}

func (f *fakePrescriptionRepo) ListActive(_ context.Context, clinicID uuid.UUID, patientID *uuid.UUID) ([]*prescription.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*prescription.Prescription
	for _, p := range f.prescriptions {
		if p.ClinicID != clinicID || !p.Dispensable() {
			continue
		}
		if patientID != nil && p.PatientID != *patientID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DatePrescription.Before(out[j].DatePrescription)
	})
	return out, nil
}

func (f *fakePrescriptionRepo) List(_ context.Context, q *prescription.ListPrescriptionsQuery) (*prescription.PagedPrescriptions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*prescription.Prescription
	for _, p := range f.prescriptions {
		if p.ClinicID == q.ClinicID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return &prescription.PagedPrescriptions{Prescriptions: out, TotalCount: int64(len(out))}, nil
}

func (f *fakePrescriptionRepo) LastNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	last := ""
	for _, p := range f.prescriptions {
		if strings.HasPrefix(p.NumeroOrdonnance, prefix) && p.NumeroOrdonnance > last {
			last = p.NumeroOrdonnance
		}
	}
	return last, nil
}

type fakeLotRepo struct {
	mu   sync.Mutex
	lots map[uuid.UUID]*pharmacy.Lot
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[uuid.UUID]*pharmacy.Lot)}
}

func (f *fakeLotRepo) Create(_ context.Context, lot *pharmacy.Lot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	f.lots[lot.ID] = lot
	return nil
}

func (f *fakeLotRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*pharmacy.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lot, ok := f.lots[id]
	if !ok || lot.ClinicID != clinicID {
		return nil, pharmacy.ErrLotNotFound
	}
	cp := *lot
	return &cp, nil
}

func (f *fakeLotRepo) ExistsByNumero(_ context.Context, clinicID, medicamentID uuid.UUID, numeroLot string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, lot := range f.lots {
		if lot.ClinicID == clinicID && lot.MedicamentID == medicamentID && lot.NumeroLot == numeroLot {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLotRepo) ListAvailable(_ context.Context, clinicID, medicamentID uuid.UUID) ([]*pharmacy.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var out []*pharmacy.Lot
	for _, lot := range f.lots {
		if lot.ClinicID == clinicID && lot.MedicamentID == medicamentID &&
			lot.Status == pharmacy.LotActif && lot.QuantiteDisponible > 0 && lot.DateExpiration.After(now) {
			cp := *lot
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateExpiration.Before(out[j].DateExpiration)
	})
	return out, nil
}

func (f *fakeLotRepo) ListExpired(_ context.Context, clinicID uuid.UUID, asOf time.Time) ([]*pharmacy.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*pharmacy.Lot
	for _, lot := range f.lots {
		if lot.ClinicID == clinicID && lot.QuantiteDisponible > 0 && !lot.DateExpiration.After(asOf) {
			cp := *lot
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLotRepo) ListNearExpiry(_ context.Context, clinicID uuid.UUID, asOf time.Time, withinDays int) ([]*pharmacy.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	limit := asOf.Add(time.Duration(withinDays) * 24 * time.Hour)
	var out []*pharmacy.Lot
	for _, lot := range f.lots {
		if lot.ClinicID == clinicID && lot.Status == pharmacy.LotActif && lot.QuantiteDisponible > 0 &&
			lot.DateExpiration.After(asOf) && !lot.DateExpiration.After(limit) {
			cp := *lot
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLotRepo) Decrement(_ context.Context, clinicID, lotID uuid.UUID, qty int) (*pharmacy.Lot, error) {
	if qty <= 0 {
		return nil, pharmacy.ErrInvalidQuantity
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decrementLocked(clinicID, lotID, qty)
}

// decrementLocked is the guarded update: check and subtract under the
// same lock, as the SQL implementation does in one statement.
func (f *fakeLotRepo) decrementLocked(clinicID, lotID uuid.UUID, qty int) (*pharmacy.Lot, error) {
	lot, ok := f.lots[lotID]
	if !ok || lot.ClinicID != clinicID {
		return nil, pharmacy.ErrLotNotFound
	}
	if lot.QuantiteDisponible < qty {
		return nil, pharmacy.ErrInsufficientStock
	}
	lot.QuantiteDisponible -= qty
	cp := *lot
	return &cp, nil
}

func (f *fakeLotRepo) Adjust(_ context.Context, clinicID, lotID uuid.UUID, delta int) (*pharmacy.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lot, ok := f.lots[lotID]
	if !ok || lot.ClinicID != clinicID {
		return nil, pharmacy.ErrLotNotFound
	}
	if lot.QuantiteDisponible+delta < 0 {
		return nil, pharmacy.ErrInsufficientStock
	}
	lot.QuantiteDisponible += delta
	cp := *lot
	return &cp, nil
}

func (f *fakeLotRepo) UpdateStatus(_ context.Context, clinicID, lotID uuid.UUID, status pharmacy.LotStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lot, ok := f.lots[lotID]
	if !ok || lot.ClinicID != clinicID {
		return pharmacy.ErrLotNotFound
	}
	lot.Status = status
	return nil
}

func (f *fakeLotRepo) quantity(lotID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lots[lotID].QuantiteDisponible
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*pharmacy.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*pharmacy.Product)}
}

func (f *fakeProductRepo) Create(_ context.Context, p *pharmacy.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*pharmacy.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.ClinicID != clinicID {
		return nil, pharmacy.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *pharmacy.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
	return nil
}

func (f *fakeProductRepo) List(_ context.Context, clinicID uuid.UUID, _ string) ([]*pharmacy.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*pharmacy.Product
	for _, p := range f.products {
		if p.ClinicID == clinicID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) StockByProduct(_ context.Context, clinicID uuid.UUID) ([]pharmacy.ProductStock, error) {
	return nil, nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []*pharmacy.StockMovement
}

func (f *fakeMovementRepo) Create(_ context.Context, m *pharmacy.StockMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeMovementRepo) List(_ context.Context, clinicID uuid.UUID, lotID *uuid.UUID, _ int) ([]*pharmacy.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*pharmacy.StockMovement
	for _, m := range f.movements {
		if m.ClinicID != clinicID {
			continue
		}
		if lotID != nil && m.LotID != *lotID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type fakeDispensationRepo struct {
	mu            sync.Mutex
	dispensations map[uuid.UUID]*dispensation.Dispensation
	lots          *fakeLotRepo
	prescriptions *fakePrescriptionRepo
	movements     *fakeMovementRepo
}

func newFakeDispensationRepo(lots *fakeLotRepo, prescriptions *fakePrescriptionRepo, movements *fakeMovementRepo) *fakeDispensationRepo {
	return &fakeDispensationRepo{
		dispensations: make(map[uuid.UUID]*dispensation.Dispensation),
		lots:          lots,
		prescriptions: prescriptions,
		movements:     movements,
	}
}

func (f *fakeDispensationRepo) Create(_ context.Context, d *dispensation.Dispensation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.dispensations[d.ID] = d
	return nil
}

func (f *fakeDispensationRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*dispensation.Dispensation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dispensations[id]
	if !ok || d.ClinicID != clinicID {
		return nil, dispensation.ErrDispensationNotFound
	}
	cp := *d
	cp.Lines = append([]dispensation.Line(nil), d.Lines...)
	return &cp, nil
}

func (f *fakeDispensationRepo) AddLine(_ context.Context, line *dispensation.Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dispensations[line.DispensationID]
	if !ok {
		return dispensation.ErrDispensationNotFound
	}
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	d.Lines = append(d.Lines, *line)
	return nil
}

func (f *fakeDispensationRepo) UpdateStatus(_ context.Context, clinicID, id uuid.UUID, status dispensation.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dispensations[id]
	if !ok || d.ClinicID != clinicID {
		return dispensation.ErrDispensationNotFound
	}
	d.Status = status
	return nil
}

// Finalize mirrors the transactional semantics of the SQL repository:
// all lot decrements succeed or every applied decrement is rolled back.
func (f *fakeDispensationRepo) Finalize(ctx context.Context, d *dispensation.Dispensation) error {
	f.lots.mu.Lock()
	type applied struct {
		lotID uuid.UUID
		qty   int
	}
	var done []applied
	for i := range d.Lines {
		line := &d.Lines[i]
		if _, err := f.lots.decrementLocked(d.ClinicID, line.LotID, line.QuantiteDelivree); err != nil {
			for _, a := range done {
				f.lots.lots[a.lotID].QuantiteDisponible += a.qty
			}
			f.lots.mu.Unlock()
			return err
		}
		done = append(done, applied{line.LotID, line.QuantiteDelivree})
	}
	f.lots.mu.Unlock()

	f.prescriptions.mu.Lock()
	if p, ok := f.prescriptions.prescriptions[d.PrescriptionID]; ok {
		for i := range d.Lines {
			for j := range p.Lines {
				if p.Lines[j].ID == d.Lines[i].PrescriptionLineID {
					p.Lines[j].QuantiteDispensee += d.Lines[i].QuantiteDelivree
				}
			}
		}
		p.Status = p.DeriveStatus()
	}
	f.prescriptions.mu.Unlock()

	f.mu.Lock()
	stored := f.dispensations[d.ID]
	stored.Status = d.Status
	stored.MontantTotal = d.MontantTotal
	stored.MontantAssurance = d.MontantAssurance
	stored.MontantPatient = d.MontantPatient
	stored.AssuranceID = d.AssuranceID
	stored.AssuranceNom = d.AssuranceNom
	stored.Observations = d.Observations
	f.mu.Unlock()
	return nil
}

func (f *fakeDispensationRepo) List(_ context.Context, q *dispensation.ListDispensationsQuery) (*dispensation.PagedDispensations, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*dispensation.Dispensation
	for _, d := range f.dispensations {
		if d.ClinicID == q.ClinicID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return &dispensation.PagedDispensations{Dispensations: out, TotalCount: int64(len(out))}, nil
}

func (f *fakeDispensationRepo) LastNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	last := ""
	for _, d := range f.dispensations {
		if strings.HasPrefix(d.NumeroDispensation, prefix) && d.NumeroDispensation > last {
			last = d.NumeroDispensation
		}
	}
	return last, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]*billing.Ticket
	fail    bool
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[uuid.UUID]*billing.Ticket)}
}

func (f *fakeTicketRepo) Create(_ context.Context, t *billing.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.tickets[t.ID] = t
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*billing.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok || t.ClinicID != clinicID {
		return nil, billing.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTicketRepo) ListPending(_ context.Context, clinicID uuid.UUID, patientID *uuid.UUID) ([]*billing.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*billing.Ticket
	for _, t := range f.tickets {
		if t.ClinicID != clinicID || t.Status != billing.TicketEnAttente {
			continue
		}
		if patientID != nil && t.PatientID != *patientID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeTicketRepo) MarkInvoiced(_ context.Context, clinicID uuid.UUID, ticketIDs []uuid.UUID, invoiceID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ticketIDs {
		t, ok := f.tickets[id]
		if !ok || t.ClinicID != clinicID || t.Status != billing.TicketEnAttente {
			return billing.ErrTicketNotFound
		}
		t.Status = billing.TicketFacture
		t.InvoiceID = &invoiceID
	}
	return nil
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*billing.Invoice
	payments []billing.Payment
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*billing.Invoice)}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, inv *billing.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	f.invoices[inv.ID] = inv
	return nil
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*billing.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok || inv.ClinicID != clinicID {
		return nil, billing.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceRepo) RecordPayment(_ context.Context, inv *billing.Invoice, p *billing.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.invoices[inv.ID]
	if !ok {
		return billing.ErrInvoiceNotFound
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	f.payments = append(f.payments, *p)
	stored.AmountPaid = inv.AmountPaid
	stored.Status = inv.Status
	return nil
}

func (f *fakeInvoiceRepo) LastNumberWithPrefix(_ context.Context, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	last := ""
	for _, inv := range f.invoices {
		if strings.HasPrefix(inv.Numero, prefix) && inv.Numero > last {
			last = inv.Numero
		}
	}
	return last, nil
}

func (f *fakeInvoiceRepo) ListPayments(_ context.Context, clinicID uuid.UUID, from, to time.Time) ([]billing.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []billing.Payment
	for _, p := range f.payments {
		if p.ClinicID == clinicID && !p.CreatedAt.Before(from) && p.CreatedAt.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCashRepo struct {
	mu      sync.Mutex
	entries []billing.CashEntry
}

func (f *fakeCashRepo) CreateEntry(_ context.Context, e *billing.CashEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeCashRepo) ListEntries(_ context.Context, clinicID uuid.UUID, from, to time.Time, entryType *billing.CashEntryType) ([]billing.CashEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []billing.CashEntry
	for _, e := range f.entries {
		if e.ClinicID != clinicID || e.Date.Before(from) || !e.Date.Before(to) {
			continue
		}
		if entryType != nil && e.Type != *entryType {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type fakeClinicRepo struct {
	clinic *domain.Clinic
}

func (f *fakeClinicRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Clinic, error) {
	cp := *f.clinic
	return &cp, nil
}

type fakePricingRepo struct {
	mu        sync.Mutex
	services  map[uuid.UUID]*pricing.BillableService
	overrides map[uuid.UUID]map[uuid.UUID]*pricing.ClinicPricing
}

func newFakePricingRepo() *fakePricingRepo {
	return &fakePricingRepo{
		services:  make(map[uuid.UUID]*pricing.BillableService),
		overrides: make(map[uuid.UUID]map[uuid.UUID]*pricing.ClinicPricing),
	}
}

func (f *fakePricingRepo) CreateService(_ context.Context, svc *pricing.BillableService) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	f.services[svc.ID] = svc
	return nil
}

func (f *fakePricingRepo) GetService(_ context.Context, id uuid.UUID) (*pricing.BillableService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	svc, ok := f.services[id]
	if !ok {
		return nil, pricing.ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

func (f *fakePricingRepo) GetServiceByCode(_ context.Context, code string) (*pricing.BillableService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, svc := range f.services {
		if svc.Code == code {
			cp := *svc
			return &cp, nil
		}
	}
	return nil, pricing.ErrServiceNotFound
}

func (f *fakePricingRepo) ListServices(_ context.Context, _ string, _ bool) ([]pricing.BillableService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pricing.BillableService
	for _, svc := range f.services {
		out = append(out, *svc)
	}
	return out, nil
}

func (f *fakePricingRepo) GetClinicPricing(_ context.Context, clinicID, serviceID uuid.UUID) (*pricing.ClinicPricing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byService, ok := f.overrides[clinicID]
	if !ok {
		return nil, nil
	}
	p, ok := byService[serviceID]
	if !ok || !p.Active {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePricingRepo) UpsertClinicPricing(_ context.Context, p *pricing.ClinicPricing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	byService, ok := f.overrides[p.ClinicID]
	if !ok {
		byService = make(map[uuid.UUID]*pricing.ClinicPricing)
		f.overrides[p.ClinicID] = byService
	}
	byService[p.ServiceID] = p
	return nil
}

func (f *fakePricingRepo) ListClinicPricing(_ context.Context, clinicID uuid.UUID) ([]pricing.ClinicPricing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pricing.ClinicPricing
	for _, p := range f.overrides[clinicID] {
		out = append(out, *p)
	}
	return out, nil
}
