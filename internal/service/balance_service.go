package service

import (
	"context"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
)

// BalanceService derives the ledger balance from stored transactions
type BalanceService struct {
	transactionRepo domain.TransactionRepository
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(transactionRepo domain.TransactionRepository) *BalanceService {
	return &BalanceService{transactionRepo: transactionRepo}
}

// TransactionsWithBalance is every transaction plus the balance computed over them
type TransactionsWithBalance struct {
	Transactions []*domain.Transaction `json:"transactions"`
	Balance      domain.Balance        `json:"balance"`
}

// GetBalance computes the balance over all transactions
func (s *BalanceService) GetBalance(ctx context.Context) (domain.Balance, error) {
	transactions, err := s.transactionRepo.FindAll(ctx)
	if err != nil {
		return domain.Balance{}, err
	}
	return domain.ComputeBalance(transactions), nil
}

// ListWithBalance returns all transactions and their balance from a single read
func (s *BalanceService) ListWithBalance(ctx context.Context) (*TransactionsWithBalance, error) {
	transactions, err := s.transactionRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	return &TransactionsWithBalance{
		Transactions: transactions,
		Balance:      domain.ComputeBalance(transactions),
	}, nil
}
