// Package api serves the read-side of the platform over HTTP: sale
// listings from the cache plus per-address staking, tier, and vesting
// views read straight from the chain.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"launchpad/internal/cerrors"
	"launchpad/internal/staking"
	"launchpad/internal/store"
	"launchpad/internal/tier"
	"launchpad/internal/types"
	"launchpad/internal/vesting"
)

// Server wires the HTTP routes to the services.
type Server struct {
	sales    *store.SaleCache
	staking  *staking.Service
	tiers    *tier.Service
	vesting  *vesting.Service
	profiles store.ProfileStore
	logger   *zap.Logger
}

// New builds the server. Any service may be nil; its routes then report
// the capability as unavailable.
func New(sales *store.SaleCache, stakingSvc *staking.Service, tierSvc *tier.Service, vestingSvc *vesting.Service, profiles store.ProfileStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		sales:    sales,
		staking:  stakingSvc,
		tiers:    tierSvc,
		vesting:  vestingSvc,
		profiles: profiles,
		logger:   logger,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/sales", s.handleSales).Methods(http.MethodGet)
	r.HandleFunc("/api/sales/{id:[0-9]+}", s.handleSale).Methods(http.MethodGet)
	r.HandleFunc("/api/staking/{address}", s.handleStaking).Methods(http.MethodGet)
	r.HandleFunc("/api/tier/{address}", s.handleTier).Methods(http.MethodGet)
	r.HandleFunc("/api/vesting/{address}", s.handleVesting).Methods(http.MethodGet)
	r.HandleFunc("/api/profile/{address}", s.handleGetProfile).Methods(http.MethodGet)
	r.HandleFunc("/api/profile/{address}", s.handlePutProfile).Methods(http.MethodPut)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	if s.sales == nil {
		s.writeError(w, cerrors.Unavailable("sales"))
		return
	}
	records, stale, err := s.sales.Sales(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sales": records,
		"stale": stale,
	})
}

func (s *Server) handleSale(w http.ResponseWriter, r *http.Request) {
	if s.sales == nil {
		s.writeError(w, cerrors.Unavailable("sales"))
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid sale id"))
		return
	}
	record, _, err := s.sales.Sale(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if record.Token == "" {
		writeJSON(w, http.StatusNotFound, errorBody("sale not found"))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleStaking(w http.ResponseWriter, r *http.Request) {
	if s.staking == nil {
		s.writeError(w, cerrors.Unavailable("staking"))
		return
	}
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}
	info, err := s.staking.GetStakeInfo(r.Context(), addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.StakingSummary{
		Address:        addr.Hex(),
		StakedAmount:   info.StakedAmount.String(),
		PendingRewards: info.PendingRewards.String(),
		Tier:           info.Tier,
		UnlockTime:     info.UnlockTime.Int64(),
	})
}

func (s *Server) handleTier(w http.ResponseWriter, r *http.Request) {
	if s.tiers == nil {
		s.writeError(w, cerrors.Unavailable("tier"))
		return
	}
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}
	res, err := s.tiers.Resolve(r.Context(), addr)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.TierSummary{
		Address:              addr.Hex(),
		Tier:                 res.Tier,
		StakedAmount:         res.StakedAmount.String(),
		AllocationMultiplier: res.AllocationMultiplier.String(),
		EarlyAccessHours:     res.EarlyAccessHours.String(),
		Source:               string(res.Source),
	})
}

func (s *Server) handleVesting(w http.ResponseWriter, r *http.Request) {
	if s.vesting == nil {
		s.writeError(w, cerrors.Unavailable("vesting"))
		return
	}
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}

	ids, err := s.vesting.UserSchedules(r.Context(), addr)
	if err != nil {
		s.writeError(w, err)
		return
	}

	summaries := make([]types.VestingSummary, 0, len(ids))
	for _, id := range ids {
		sched, err := s.vesting.Schedule(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		summary := types.VestingSummary{
			ScheduleID:  common.Hash(id).Hex(),
			Beneficiary: sched.Beneficiary.Hex(),
			Token:       sched.Token.Hex(),
			Total:       sched.TotalAmount.String(),
			Claimed:     sched.ClaimedAmount.String(),
			Claimable:   "0",
			Revoked:     sched.Revoked,
		}
		if claimable, err := s.vesting.ClaimableAmount(r.Context(), id); err == nil {
			summary.Claimable = claimable.String()
		}
		if unlock, err := s.vesting.NextUnlock(r.Context(), id); err == nil {
			summary.NextUnlock = unlock.Time.Int64()
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schedules": summaries})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		s.writeError(w, cerrors.Unavailable("profiles"))
		return
	}
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}
	profile, err := s.profiles.GetProfile(r.Context(), addr.Hex())
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("profile not found"))
			return
		}
		s.writeError(w, err)
		return
	}
	// a failed tier lookup serves the stored values unchanged
	if s.tiers != nil {
		if res, err := s.tiers.Resolve(r.Context(), addr); err == nil {
			profile.Tier = res.Tier
			profile.StakedAmount = res.StakedAmount.String()
		}
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		s.writeError(w, cerrors.Unavailable("profiles"))
		return
	}
	addr, ok := parseAddress(w, r)
	if !ok {
		return
	}

	var profile types.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid profile body"))
		return
	}
	profile.Address = addr.Hex()
	if err := s.profiles.UpsertProfile(r.Context(), profile); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// Serve runs the HTTP server until the listener fails.
func (s *Server) Serve(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("api listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}

func parseAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := mux.Vars(r)["address"]
	if !common.IsHexAddress(raw) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid address"))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cerrors.ErrCapabilityUnavailable):
		status = http.StatusNotImplemented
	case errors.Is(err, cerrors.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, cerrors.ErrProviderMissing), errors.Is(err, cerrors.ErrNotConnected):
		status = http.StatusServiceUnavailable
	case errors.Is(err, cerrors.ErrContractRead):
		status = http.StatusBadGateway
	}
	s.logger.Warn("request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
