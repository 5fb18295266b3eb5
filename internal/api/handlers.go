package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/go-chi/chi/v5"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/dividends"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/fees"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/schedule"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

type dividendsResponse struct {
	Account      string `json:"account"`
	Withdrawable string `json:"withdrawable"`
	Withdrawn    string `json:"withdrawn"`
	Excluded     bool   `json:"excluded"`
}

type amountResponse struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type refundResponse struct {
	Account    string `json:"account"`
	AmountOwed string `json:"amountOwed"`
	UnlockTime uint64 `json:"unlockTime"`
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDividends(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r)
	if err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	tracker := s.service.Tracker()
	withdrawn := sdkmath.ZeroInt()
	if state, ok := tracker.HolderOf(account); ok {
		withdrawn = state.WithdrawnDividends
	}

	writeJSON(w, http.StatusOK, dividendsResponse{
		Account:      account.String(),
		Withdrawable: tracker.WithdrawableOf(account).String(),
		Withdrawn:    withdrawn.String(),
		Excluded:     tracker.IsExcluded(account),
	})
}

func (s *Server) handleWithdrawDividends(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r)
	if err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	amount, err := s.service.WithdrawDividends(r.Context(), account)
	if errors.Is(err, dividends.ErrNothingToWithdraw) {
		writeError(w, types.NewError(http.StatusNotFound, types.NotFound, err))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Account: account.String(), Amount: amount.String()})
}

func (s *Server) handleGetRefund(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r)
	if err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	pending, ok := s.service.Engine().PendingRefundOf(account)
	if !ok {
		writeError(w, types.NewError(http.StatusNotFound, types.NotFound, fees.ErrNoRefundAvailable))
		return
	}
	writeJSON(w, http.StatusOK, refundResponse{
		Account:    account.String(),
		AmountOwed: pending.AmountOwed.String(),
		UnlockTime: pending.UnlockTime,
	})
}

func (s *Server) handleClaimRefund(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r)
	if err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	amount, err := s.service.ClaimRefund(r.Context(), account)
	switch {
	case errors.Is(err, fees.ErrNoRefundAvailable):
		writeError(w, types.NewError(http.StatusNotFound, types.NotFound, err))
		return
	case errors.Is(err, fees.ErrRefundLocked):
		writeError(w, types.NewError(http.StatusConflict, types.Forbidden, err))
		return
	case err != nil:
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Account: account.String(), Amount: amount.String()})
}

type distributeRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}
	amount, ok := sdkmath.NewIntFromString(req.Amount)
	if !ok || !amount.IsPositive() {
		writeError(w, types.NewValidationFailedError(
			fmt.Errorf("amount %q must be a positive integer", req.Amount),
		))
		return
	}

	if err := s.service.Distribute(r.Context(), amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"amount": amount.String()})
}

type bracketRequest struct {
	FromSeconds uint64 `json:"fromSeconds"`
	ToSeconds   uint64 `json:"toSeconds"`
	TaxRate     uint32 `json:"taxRate"`
	PreScaling  uint32 `json:"preScaling"`
	PostScaling uint32 `json:"postScaling"`
}

func (s *Server) handleSetBracket(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	var req bracketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	bracket := schedule.TaxBracket{
		FromSeconds: req.FromSeconds,
		ToSeconds:   req.ToSeconds,
		TaxRate:     req.TaxRate,
		PreScaling:  req.PreScaling,
		PostScaling: req.PostScaling,
	}
	if err := s.service.SetBracket(r.Context(), index, bracket); err != nil {
		if errors.Is(err, schedule.ErrOrderingViolation) {
			writeError(w, types.NewValidationFailedError(err))
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{
		"version": s.service.Engine().Table().Version(),
	})
}

type feeConfigRequest struct {
	DynamicFloorFrac     uint32 `json:"dynamicFloorFrac"`
	BuyFeeFloorPriceE18  string `json:"buyFeeFloorPriceE18"`
	SellCapFloorPriceE18 string `json:"sellCapFloorPriceE18"`
	AntiFlashloanMode    string `json:"antiFlashloanMode"`
	RefundPeriodSeconds  uint64 `json:"refundPeriodSeconds"`
}

func (s *Server) handleUpdateFeeConfig(w http.ResponseWriter, r *http.Request) {
	var req feeConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	buyFloor, ok := sdkmath.NewIntFromString(req.BuyFeeFloorPriceE18)
	if !ok {
		writeError(w, types.NewValidationFailedError(
			fmt.Errorf("buyFeeFloorPriceE18 %q is not an integer", req.BuyFeeFloorPriceE18),
		))
		return
	}
	sellFloor, ok := sdkmath.NewIntFromString(req.SellCapFloorPriceE18)
	if !ok {
		writeError(w, types.NewValidationFailedError(
			fmt.Errorf("sellCapFloorPriceE18 %q is not an integer", req.SellCapFloorPriceE18),
		))
		return
	}
	mode, err := types.ParseAntiFlashloanMode(req.AntiFlashloanMode)
	if err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	cfg := &fees.Config{
		DynamicFloorFrac:     req.DynamicFloorFrac,
		BuyFeeFloorPriceE18:  buyFloor,
		SellCapFloorPriceE18: sellFloor,
		AntiFlashloanMode:    mode,
		RefundPeriodSeconds:  req.RefundPeriodSeconds,
	}
	if err := s.service.UpdateFeeConfig(r.Context(), cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type minimumBalanceRequest struct {
	Minimum string `json:"minimum"`
}

func (s *Server) handleSetMinimumBalance(w http.ResponseWriter, r *http.Request) {
	var req minimumBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}
	minimum, ok := sdkmath.NewIntFromString(req.Minimum)
	if !ok {
		writeError(w, types.NewValidationFailedError(
			fmt.Errorf("minimum %q is not an integer", req.Minimum),
		))
		return
	}

	if err := s.service.SetMinimumBalance(r.Context(), minimum); err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"minimum": minimum.String()})
}

type exclusionRequest struct {
	Account  string `json:"account"`
	Excluded bool   `json:"excluded"`
}

func (s *Server) handleSetExcluded(w http.ResponseWriter, r *http.Request) {
	var req exclusionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}
	account, err := types.NormalizeAccount(req.Account)
	if err != nil {
		writeError(w, types.NewValidationFailedError(err))
		return
	}

	if err := s.service.SetExcluded(r.Context(), account, req.Excluded); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account":  account.String(),
		"excluded": req.Excluded,
	})
}
