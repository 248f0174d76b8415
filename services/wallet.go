package services

import (
	"errors"
	"fmt"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/driftgate-labs/sortie_api/dto"
	"github.com/driftgate-labs/sortie_api/model"
	"github.com/driftgate-labs/sortie_api/shared"
)

// WalletService moves in-game currency. Every movement writes a ledger
// entry, balances are never updated without one.
//
// The Tx methods take the caller's transaction-bound repositories so fee
// charges and payouts commit atomically with the game state they pay for.
type WalletService struct {
	appContext.DefaultService

	sqlSvc *PostgresService
}

const WALLET_SVC = "wallet_svc"

func (svc WalletService) Id() string {
	return WALLET_SVC
}

func (svc *WalletService) Configure(ctx *appContext.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *WalletService) Start() error {
	return nil
}

// ==================== TRANSACTIONAL OPERATIONS ====================

// ChargeTx debits amount from the user's balance or fails with 402.
func (svc *WalletService) ChargeTx(r *Repos, userID string, amount int64, memo, sessionID string) error {
	if amount <= 0 {
		return nil
	}

	wallet, err := svc.getOrCreateWallet(r, userID)
	if err != nil {
		return err
	}

	if wallet.Balance < amount {
		return shared.NewPaymentRequiredError(
			fmt.Errorf("balance %d short of %d", wallet.Balance, amount), "Insufficient funds")
	}

	wallet.Balance -= amount
	if err := r.Profiles.UpdateWallet(wallet); err != nil {
		return err
	}

	return r.Profiles.CreateWalletEntry(&model.WalletEntry{
		UserID:    userID,
		Amount:    -amount,
		Memo:      memo,
		SessionID: sessionID,
	})
}

// CreditTx adds amount to the user's spendable balance.
func (svc *WalletService) CreditTx(r *Repos, userID string, amount int64, memo, sessionID string) error {
	if amount <= 0 {
		return nil
	}

	wallet, err := svc.getOrCreateWallet(r, userID)
	if err != nil {
		return err
	}

	wallet.Balance += amount
	if err := r.Profiles.UpdateWallet(wallet); err != nil {
		return err
	}

	return r.Profiles.CreateWalletEntry(&model.WalletEntry{
		UserID:    userID,
		Amount:    amount,
		Memo:      memo,
		SessionID: sessionID,
	})
}

// CreditEscrowTx adds amount to the user's escrow balance. Delegation
// revenue shares land here until the owner withdraws them.
func (svc *WalletService) CreditEscrowTx(r *Repos, userID string, amount int64, memo, sessionID string) error {
	if amount <= 0 {
		return nil
	}

	wallet, err := svc.getOrCreateWallet(r, userID)
	if err != nil {
		return err
	}

	wallet.EscrowBalance += amount
	if err := r.Profiles.UpdateWallet(wallet); err != nil {
		return err
	}

	return r.Profiles.CreateWalletEntry(&model.WalletEntry{
		UserID:    userID,
		Amount:    amount,
		Memo:      memo,
		SessionID: sessionID,
	})
}

func (svc *WalletService) getOrCreateWallet(r *Repos, userID string) (*model.WalletAccount, error) {
	wallet, err := r.Profiles.GetWallet(userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return r.Profiles.CreateWallet(&model.WalletAccount{UserID: userID})
}

// ==================== QUERIES ====================

func (svc *WalletService) GetWallet(userID string, limit, offset int) (*dto.WalletResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	wallet, err := svc.sqlSvc.Profiles().GetWallet(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.WalletResponse{Entries: []dto.WalletEntryResponse{}}, nil
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load wallet")
	}

	entries, _, err := svc.sqlSvc.Profiles().GetWalletEntries(userID, limit, offset)
	if err != nil {
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to load wallet history")
	}

	entryResponses := make([]dto.WalletEntryResponse, len(entries))
	for i, e := range entries {
		entryResponses[i] = dto.WalletEntryResponse{
			ID:        e.ID,
			Amount:    e.Amount,
			Memo:      e.Memo,
			SessionID: e.SessionID,
			CreatedAt: e.CreatedAt.Unix(),
		}
	}

	return &dto.WalletResponse{
		Balance:       wallet.Balance,
		EscrowBalance: wallet.EscrowBalance,
		Entries:       entryResponses,
	}, nil
}

// WithdrawEscrow moves the full escrow balance into the spendable balance.
func (svc *WalletService) WithdrawEscrow(userID string) (*dto.WalletResponse, error) {
	err := svc.sqlSvc.Transaction(func(r *Repos) error {
		wallet, err := r.Profiles.GetWallet(userID)
		if err != nil {
			return err
		}

		if wallet.EscrowBalance <= 0 {
			return shared.NewBadRequestError(fmt.Errorf("empty escrow"), "Nothing to withdraw")
		}

		amount := wallet.EscrowBalance
		wallet.EscrowBalance = 0
		wallet.Balance += amount
		if err := r.Profiles.UpdateWallet(wallet); err != nil {
			return err
		}

		return r.Profiles.CreateWalletEntry(&model.WalletEntry{
			UserID: userID,
			Amount: amount,
			Memo:   shared.MemoEscrowWithdraw,
		})
	})
	if err != nil {
		if _, ok := shared.GetAppError(err); ok {
			return nil, err
		}
		return nil, shared.NewInternalError(svc.sqlSvc.HandleError(err), "Failed to withdraw escrow")
	}

	log.WithField("user_id", userID).Info("Escrow withdrawn")

	return svc.GetWallet(userID, 0, 0)
}
