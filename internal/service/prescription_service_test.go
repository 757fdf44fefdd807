package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/CHEzRIF21/logiclinic/internal/config"
	"github.com/CHEzRIF21/logiclinic/internal/domain/patient"
	"github.com/CHEzRIF21/logiclinic/internal/domain/prescription"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type prescriptionFixture struct {
	svc     *PrescriptionService
	repo    *fakePrescriptionRepo
	caller  Caller
	patient *patient.Patient
}

func newPrescriptionFixture(t *testing.T) *prescriptionFixture {
	t.Helper()

	clinicID := uuid.New()
	log := zap.NewNop()
	auditSvc := NewAuditService(&fakeAuditRepo{}, log)
	t.Cleanup(auditSvc.Shutdown)

	patients := newFakePatientRepo()
	repo := newFakePrescriptionRepo()

	cfg := config.ClinicConfig{PrescriptionMaxAgeDays: 7, NearExpiryWarnDays: 30, AlertExpirationDays: 30, Currency: "XOF"}
	svc := NewPrescriptionService(repo, patients, auditSvc, testMetrics(), cfg, log)

	pat := &patient.Patient{
		ID:          uuid.New(),
		ClinicID:    clinicID,
		Identifiant: "PAT-2026-0002",
		Nom:         "Diallo",
		Prenoms:     "Moussa",
		Sexe:        patient.SexeMasculin,
		Status:      patient.StatusActive,
	}
	patients.patients[pat.ID] = pat

	return &prescriptionFixture{
		svc:     svc,
		repo:    repo,
		caller:  Caller{UserID: uuid.New(), ClinicID: clinicID, Role: "medecin", IP: "10.0.0.6"},
		patient: pat,
	}
}

func (f *prescriptionFixture) validCommand() *prescription.CreatePrescriptionCommand {
	return &prescription.CreatePrescriptionCommand{
		ConsultationID: uuid.New(),
		PatientID:      f.patient.ID,
		PrescripteurID: f.caller.UserID,
		Lines: []prescription.CreateLineInput{
			{MedicamentID: uuid.New(), NomMedicament: "Paracetamol 500mg", Posologie: "1cp x3/j", QuantiteTotale: 20},
			{MedicamentID: uuid.New(), NomMedicament: "Amoxicilline 1g", QuantiteTotale: 10},
		},
	}
}

func TestCreatePrescriptionRequiresPrescriberRole(t *testing.T) {
	f := newPrescriptionFixture(t)
	f.caller.Role = "pharmacien"

	if _, err := f.svc.CreatePrescription(context.Background(), f.validCommand(), f.caller); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for pharmacien, got %v", err)
	}
}

func TestCreatePrescriptionNumbersAndOrdersLines(t *testing.T) {
	f := newPrescriptionFixture(t)

	p1, err := f.svc.CreatePrescription(context.Background(), f.validCommand(), f.caller)
	if err != nil {
		t.Fatalf("CreatePrescription failed: %v", err)
	}
	p2, err := f.svc.CreatePrescription(context.Background(), f.validCommand(), f.caller)
	if err != nil {
		t.Fatalf("CreatePrescription failed: %v", err)
	}

	prefix := dailyPrefix("ORD", time.Now())
	if !strings.HasPrefix(p1.NumeroOrdonnance, prefix) || !strings.HasSuffix(p1.NumeroOrdonnance, "0001") {
		t.Errorf("first numero = %q, want %s0001", p1.NumeroOrdonnance, prefix)
	}
	if !strings.HasSuffix(p2.NumeroOrdonnance, "0002") {
		t.Errorf("second numero = %q, want suffix 0002", p2.NumeroOrdonnance)
	}

	if p1.Status != prescription.StatusPrescrit {
		t.Errorf("status = %q, want PRESCRIT", p1.Status)
	}
	for i, l := range p1.Lines {
		if l.Ordre != i {
			t.Errorf("line %d Ordre = %d, want insertion order", i, l.Ordre)
		}
		if l.QuantiteDispensee != 0 {
			t.Errorf("line %d dispensed = %d, want 0", i, l.QuantiteDispensee)
		}
	}
}

func TestCreatePrescriptionRejectsUnknownPatient(t *testing.T) {
	f := newPrescriptionFixture(t)

	cmd := f.validCommand()
	cmd.PatientID = uuid.New()
	if _, err := f.svc.CreatePrescription(context.Background(), cmd, f.caller); !errors.Is(err, patient.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
}

func TestCreatePrescriptionValidation(t *testing.T) {
	f := newPrescriptionFixture(t)

	cmd := f.validCommand()
	cmd.Lines = nil
	var ve *ValidationError
	if _, err := f.svc.CreatePrescription(context.Background(), cmd, f.caller); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError without lines, got %v", err)
	}

	cmd = f.validCommand()
	cmd.Lines[1].QuantiteTotale = 0
	cmd.Lines[1].NomMedicament = " "
	if _, err := f.svc.CreatePrescription(context.Background(), cmd, f.caller); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 2 {
		t.Errorf("validation fields = %v, want the two line faults", ve.Fields)
	}
}

func TestCancelPrescription(t *testing.T) {
	f := newPrescriptionFixture(t)
	p, err := f.svc.CreatePrescription(context.Background(), f.validCommand(), f.caller)
	if err != nil {
		t.Fatalf("CreatePrescription failed: %v", err)
	}

	if err := f.svc.CancelPrescription(context.Background(), p.ID, f.caller); err != nil {
		t.Fatalf("CancelPrescription failed: %v", err)
	}
	if err := f.svc.CancelPrescription(context.Background(), p.ID, f.caller); !errors.Is(err, prescription.ErrAlreadyCancelled) {
		t.Errorf("expected ErrAlreadyCancelled on repeat, got %v", err)
	}

	// Cancelled prescriptions leave the dispensing queue.
	active, err := f.svc.ListActive(context.Background(), nil, f.caller)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active = %d, want 0 after cancellation", len(active))
	}
}

func TestRecomputeStatusRepairsDrift(t *testing.T) {
	f := newPrescriptionFixture(t)
	p, err := f.svc.CreatePrescription(context.Background(), f.validCommand(), f.caller)
	if err != nil {
		t.Fatalf("CreatePrescription failed: %v", err)
	}

	// Lines fully served but the status was left behind.
	stored := f.repo.prescriptions[p.ID]
	for i := range stored.Lines {
		stored.Lines[i].QuantiteDispensee = stored.Lines[i].QuantiteTotale
	}

	got, err := f.svc.RecomputeStatus(context.Background(), p.ID, f.caller)
	if err != nil {
		t.Fatalf("RecomputeStatus failed: %v", err)
	}
	if got.Status != prescription.StatusDispense {
		t.Errorf("status = %q, want DISPENSE", got.Status)
	}
	if stored.Status != prescription.StatusDispense {
		t.Errorf("persisted status = %q, want DISPENSE", stored.Status)
	}

	// Idempotent: a second call changes nothing.
	again, err := f.svc.RecomputeStatus(context.Background(), p.ID, f.caller)
	if err != nil {
		t.Fatalf("RecomputeStatus failed: %v", err)
	}
	if again.Status != prescription.StatusDispense {
		t.Errorf("status = %q, want DISPENSE unchanged", again.Status)
	}
}

func TestListActiveOldestFirst(t *testing.T) {
	f := newPrescriptionFixture(t)

	p1, err := f.svc.CreatePrescription(context.Background(), f.validCommand(), f.caller)
	if err != nil {
		t.Fatalf("CreatePrescription failed: %v", err)
	}
	p2, err := f.svc.CreatePrescription(context.Background(), f.validCommand(), f.caller)
	if err != nil {
		t.Fatalf("CreatePrescription failed: %v", err)
	}
	// Make the second one older.
	f.repo.prescriptions[p2.ID].DatePrescription = time.Now().Add(-48 * time.Hour)

	active, err := f.svc.ListActive(context.Background(), nil, f.caller)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}
	if active[0].ID != p2.ID || active[1].ID != p1.ID {
		t.Error("active list must be ordered oldest first")
	}
}
