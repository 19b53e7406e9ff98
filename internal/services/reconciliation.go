package services

import (
	"context"

	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/models"
)

// ReconciliationService lets operators work through captured payments that
// have no order
type ReconciliationService struct {
	reconciliations ReconciliationRepository
}

func NewReconciliationService(reconciliations ReconciliationRepository) *ReconciliationService {
	return &ReconciliationService{reconciliations: reconciliations}
}

func (s *ReconciliationService) ListOpen(ctx context.Context) ([]*models.Reconciliation, error) {
	return s.reconciliations.ListUnresolved(ctx)
}

// Resolve marks a reconciliation as handled
func (s *ReconciliationService) Resolve(ctx context.Context, id int) error {
	if err := s.reconciliations.Resolve(ctx, id); err != nil {
		return err
	}

	logging.FromContext(ctx).WithField("reconciliation_id", id).Info("Reconciliation resolved")
	return nil
}
