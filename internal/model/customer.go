package model

import (
	"github.com/fazamuttaqien/credit-engine/internal/domain"
)

func CustomerFromEntity(data *domain.Customer) Customer {
	return Customer{
		ID:            data.ID,
		FirstName:     data.FirstName,
		LastName:      data.LastName,
		Age:           data.Age,
		PhoneNumber:   data.PhoneNumber,
		MonthlyIncome: data.MonthlyIncome,
		ApprovedLimit: data.ApprovedLimit,
	}
}

func CustomerToEntity(data Customer) *domain.Customer {
	return &domain.Customer{
		ID:            data.ID,
		FirstName:     data.FirstName,
		LastName:      data.LastName,
		Age:           data.Age,
		PhoneNumber:   data.PhoneNumber,
		MonthlyIncome: data.MonthlyIncome,
		ApprovedLimit: data.ApprovedLimit,
		CreatedAt:     data.CreatedAt,
	}
}
