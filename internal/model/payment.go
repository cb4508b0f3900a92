package model

import (
	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

var outcomeToModel = map[domain.PaymentOutcomeKind]PaymentOutcome{
	domain.OutcomeCleared:         PaymentCleared,
	domain.OutcomePendingEMIs:     PaymentPendingEMIs,
	domain.OutcomeMonthsRemaining: PaymentMonthsRemaining,
}

var outcomeToEntity = map[PaymentOutcome]domain.PaymentOutcomeKind{
	PaymentCleared:         domain.OutcomeCleared,
	PaymentPendingEMIs:     domain.OutcomePendingEMIs,
	PaymentMonthsRemaining: domain.OutcomeMonthsRemaining,
}

func PaymentFromEntity(data *domain.Payment) Payment {
	return Payment{
		ID:               data.ID,
		Reference:        data.Reference,
		LoanID:           data.LoanID,
		CustomerID:       data.CustomerID,
		Amount:           data.Amount,
		Outcome:          outcomeToModel[data.Outcome],
		RemainingBalance: data.RemainingBalance,
	}
}

func PaymentToEntity(data Payment) *domain.Payment {
	return &domain.Payment{
		ID:               data.ID,
		Reference:        data.Reference,
		LoanID:           data.LoanID,
		CustomerID:       data.CustomerID,
		Amount:           data.Amount,
		Outcome:          outcomeToEntity[data.Outcome],
		RemainingBalance: data.RemainingBalance,
		CreatedAt:        data.CreatedAt,
	}
}

func PaymentsToEntity(data []Payment) []domain.Payment {
	payments := make([]domain.Payment, len(data))
	for i, p := range data {
		payments[i] = *PaymentToEntity(p)
	}
	return payments
}
