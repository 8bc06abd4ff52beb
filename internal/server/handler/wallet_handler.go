package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/domain/wallet"
	"github.com/rupeeflow/bbps-backend/internal/ledger"
)

// WalletHandler serves wallet and ledger reads.
type WalletHandler struct {
	logger *slog.Logger
	ledger *ledger.Store
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, store *ledger.Store) *WalletHandler {
	return &WalletHandler{logger: logger, ledger: store}
}

// GetByUserID returns a user's primary wallet with its most recent
// ledger entries. GET /api/v1/wallets/:userId
func (h *WalletHandler) GetByUserID(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	w, err := h.ledger.GetPrimaryWallet(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get wallet", "user_id", userID.String(), "error", err)
		RespondError(c, err)
		return
	}

	entries, err := h.ledger.Entries(c.Request.Context(), w.ID, 10, 0)
	if err != nil {
		h.logger.Error("Failed to get ledger entries", "wallet_id", w.ID.String(), "error", err)
		RespondError(c, err)
		return
	}

	RespondOK(c, mapWalletToResponse(w, entries))
}

// Entries returns a paginated ledger history for a wallet.
// GET /api/v1/wallets/:userId/entries?page=1&per_page=20
func (h *WalletHandler) Entries(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	w, err := h.ledger.GetPrimaryWallet(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}

	offset := (pagination.Page - 1) * pagination.PerPage
	entries, err := h.ledger.Entries(c.Request.Context(), w.ID, pagination.PerPage, offset)
	if err != nil {
		h.logger.Error("Failed to get ledger entries", "wallet_id", w.ID.String(), "error", err)
		RespondError(c, err)
		return
	}

	responses := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, mapEntryToResponse(e))
	}
	RespondOK(c, responses)
}

func mapWalletToResponse(w *wallet.Wallet, entries []*wallet.LedgerEntry) WalletResponse {
	resp := WalletResponse{
		ID:        w.ID.String(),
		UserID:    w.UserID.String(),
		Balance:   shared.FormatMinor(w.Balance),
		Currency:  w.Currency,
		IsPrimary: w.IsPrimary,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, mapEntryToResponse(e))
	}
	return resp
}

func mapEntryToResponse(e *wallet.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID.String(),
		TransactionID:  e.TransactionID.String(),
		EntryType:      string(e.EntryType),
		Amount:         shared.FormatMinor(e.Amount),
		RunningBalance: shared.FormatMinor(e.RunningBalance),
		Narration:      e.Narration,
		CreatedBy:      e.CreatedBy,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}
