package gateway

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Salvionied/cbor/v2"

	"github.com/zenGate-Global/cardano-tx-platform/internal/platformerr"
	"github.com/zenGate-Global/cardano-tx-platform/internal/protocol"
)

// claimIntents are the multisig intents spec.md §5 subjects to the leaky-
// bucket limiter: both pay out of contract-controlled funds to a caller on
// demand, the pattern the limiter exists to throttle.
var claimIntents = map[string]bool{
	"reward_claim":    true,
	"collection_mint": true,
}

// authedHandler is an HTTP handler that has already had its bearer token
// verified; tenantID is the JWT's sub claim.
type authedHandler func(w http.ResponseWriter, r *http.Request, tenantID int64)

func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		tenantID, err := s.Auth.TenantID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		ctx := r.Context()
		if s.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
			defer cancel()
		}
		next(w, r.WithContext(ctx), tenantID)
	}
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "authorization, content-type")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Max-Age", "300")
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponseJSON{Detail: err.Error()})
}

// statusFor maps a dispatcher error to one of the gateway's closed set of
// response codes, consulting platformerr.Kind when the error was tagged and
// otherwise defaulting to 500 per spec.md §7's propagation rule.
func statusFor(err error) int {
	return platformerr.KindOf(err).HTTPStatus()
}

// handleContractBuild serves POST /cn/{contract_type}/{action}.
func (s *Server) handleContractBuild(w http.ResponseWriter, r *http.Request, tenantID int64) {
	action := r.PathValue("action")
	s.build(w, r, tenantID, "bct", action)
}

// handleMultisigBuild serves POST /ms/{multisig_type}. reward_claim and
// collection_mint are claim endpoints and subject to the per-tenant leaky
// bucket (spec.md §5).
func (s *Server) handleMultisigBuild(w http.ResponseWriter, r *http.Request, tenantID int64) {
	intent := r.PathValue("multisig_type")
	if claimIntents[intent] && !s.Limiter.Allow(tenantID) {
		writeError(w, http.StatusTooManyRequests, fmt.Errorf("gateway: rate limit exceeded"))
		return
	}
	s.build(w, r, tenantID, "bms", intent)
}

// handleStdBuild serves POST /tx/{std_type}. A treasury_payout request
// additionally carries a password, checked against the contract's signing
// key as a second factor ahead of the JWT alone (spec.md §4.2) before the
// build itself is attempted.
func (s *Server) handleStdBuild(w http.ResponseWriter, r *http.Request, tenantID int64) {
	intent := r.PathValue("std_type")
	if intent == "treasury_payout" {
		var probe transactionPattern
		body, err := readBody(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := json.Unmarshal(body, &probe); err != nil || !probe.valid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("gateway: request body does not match any known intent shape"))
			return
		}
		if probe.Password != "" {
			if err := s.verifyPassword(r.Context(), tenantID, probe.ContractID, probe.Version, probe.Password); err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}
		}
		s.buildFromPattern(w, r, tenantID, "stx", intent, probe)
		return
	}
	s.build(w, r, tenantID, "stx", intent)
}

func (s *Server) verifyPassword(ctx context.Context, tenantID, contractID int64, version float32, password string) error {
	payload, err := cbor.Marshal(protocol.VerifyUserRequest{ContractID: contractID, Version: version, Password: password})
	if err != nil {
		return err
	}
	resp, err := s.Dispatch.Do(ctx, protocol.CommandFrame("vus", tenantID, payload))
	if err != nil {
		return err
	}
	if resp.Kind != protocol.KindSimple || resp.Str != "OK" {
		return fmt.Errorf("gateway: password verification failed")
	}
	return nil
}

// build decodes a transaction-pattern body and runs it, the shared path
// every bct/bms/stx build route uses.
func (s *Server) build(w http.ResponseWriter, r *http.Request, tenantID int64, opcode, intent string) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var pattern transactionPattern
	if err := json.Unmarshal(body, &pattern); err != nil || !pattern.valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("gateway: request body does not match any known intent shape"))
		return
	}
	s.buildFromPattern(w, r, tenantID, opcode, intent, pattern)
}

func (s *Server) buildFromPattern(w http.ResponseWriter, r *http.Request, tenantID int64, opcode, intent string, pattern transactionPattern) {
	params, err := paramsToCBOR(pattern.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req := protocol.BuildRequest{
		ContractID: pattern.ContractID,
		Version:    pattern.Version,
		Intent:     intent,
		Common: protocol.CommonRequest{
			UsedAddresses: pattern.UsedAddresses,
			StakeAddr:     pattern.StakeAddress,
			Collateral:    pattern.Collateral,
		},
		Params: params,
	}
	payload, err := cbor.Marshal(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp, err := s.Dispatch.Do(r.Context(), protocol.CommandFrame(opcode, tenantID, payload))
	if err != nil {
		s.Log.Error(intent, err, "dispatcher build failed")
		writeError(w, statusFor(err), err)
		return
	}
	var out protocol.BuildResponse
	if err := cbor.Unmarshal(resp.Bulk, &out); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, buildResponseJSON{
		Fingerprint: out.Fingerprint,
		UnsignedTx:  hex.EncodeToString(out.UnsignedTx),
	})
}

// handleContractFinalize, handleMultisigFinalize and handleStdFinalize all
// run the same finalize path against a different opcode; the fingerprint
// comes from the path, the witness from the body.
func (s *Server) handleContractFinalize(w http.ResponseWriter, r *http.Request, tenantID int64) {
	s.finalize(w, r, tenantID, "fct", r.PathValue("fingerprint"))
}

func (s *Server) handleMultisigFinalize(w http.ResponseWriter, r *http.Request, tenantID int64) {
	s.finalize(w, r, tenantID, "fms", r.PathValue("fingerprint"))
}

func (s *Server) handleStdFinalize(w http.ResponseWriter, r *http.Request, tenantID int64) {
	s.finalize(w, r, tenantID, "ftx", r.PathValue("fingerprint"))
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request, tenantID int64, opcode, fingerprint string) {
	if fingerprint == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("gateway: missing fingerprint"))
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var sig signature
	if len(body) > 0 {
		if err := json.Unmarshal(body, &sig); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("gateway: request body does not match any known intent shape"))
			return
		}
	}
	vkey, err := decodeHexOrEmpty(sig.UserVkeyHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("gateway: userVkey does not hex-decode: %w", err))
		return
	}
	userSig, err := decodeHexOrEmpty(sig.UserSigHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("gateway: userSignature does not hex-decode: %w", err))
		return
	}

	req := protocol.FinalizeRequest{
		ContractID:    sig.ContractID,
		Version:       sig.Version,
		Fingerprint:   fingerprint,
		UserVkey:      vkey,
		UserSignature: userSig,
	}
	payload, err := cbor.Marshal(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp, err := s.Dispatch.Do(r.Context(), protocol.CommandFrame(opcode, tenantID, payload))
	if err != nil {
		s.Log.Error(fingerprint, err, "dispatcher finalize failed")
		writeError(w, statusFor(err), err)
		return
	}
	var out protocol.FinalizeResponse
	if err := cbor.Unmarshal(resp.Bulk, &out); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, finalizeResponseJSON{TxHash: out.TxHash})
}

// handleOneshotMint serves POST /api/mint/oneshot. Unlike the general
// build/finalize split, a oneshot mint runs both steps inside one HTTP call:
// the contract's own key locator signs the mint with no wallet witness
// needed, so there is nothing for a client to countersign between build and
// finalize.
func (s *Server) handleOneshotMint(w http.ResponseWriter, r *http.Request, tenantID int64) {
	if !s.Limiter.Allow(tenantID) {
		writeError(w, http.StatusTooManyRequests, fmt.Errorf("gateway: rate limit exceeded"))
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var mint oneshotMintPayload
	if err := json.Unmarshal(body, &mint); err != nil || !mint.valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("gateway: request body does not match any known intent shape"))
		return
	}

	params, err := cbor.Marshal(map[string]interface{}{
		"AssetName": mint.AssetName,
		"Quantity":  mint.Quantity,
		"Recipient": mint.Recipient,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	buildReq := protocol.BuildRequest{
		ContractID: mint.ContractID,
		Version:    mint.Version,
		Intent:     "oneshot_mint",
		Common: protocol.CommonRequest{
			UsedAddresses: []string{mint.Recipient},
		},
		Params: params,
	}
	buildPayload, err := cbor.Marshal(buildReq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	buildResp, err := s.Dispatch.Do(r.Context(), protocol.CommandFrame("bms", tenantID, buildPayload))
	if err != nil {
		s.Log.Error("oneshot_mint", err, "dispatcher build failed")
		writeError(w, statusFor(err), err)
		return
	}
	var built protocol.BuildResponse
	if err := cbor.Unmarshal(buildResp.Bulk, &built); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	finalizeReq := protocol.FinalizeRequest{
		ContractID:  mint.ContractID,
		Version:     mint.Version,
		Fingerprint: built.Fingerprint,
	}
	finalizePayload, err := cbor.Marshal(finalizeReq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	finalizeResp, err := s.Dispatch.Do(r.Context(), protocol.CommandFrame("fms", tenantID, finalizePayload))
	if err != nil {
		s.Log.Error(built.Fingerprint, err, "dispatcher finalize failed")
		writeError(w, statusFor(err), err)
		return
	}
	var final protocol.FinalizeResponse
	if err := cbor.Unmarshal(finalizeResp.Bulk, &final); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	policyID := ""
	if contract, err := s.Contracts.Get(r.Context(), tenantID, mint.ContractID); err == nil && contract.PolicyID.Valid {
		policyID = contract.PolicyID.String
	}
	writeJSON(w, http.StatusOK, oneshotMintResponseJSON{
		PolicyID:   policyID,
		TokenNames: []string{mint.AssetName},
		Amounts:    []int64{mint.Quantity},
		TxHash:     final.TxHash,
	})
}

// handleListContracts serves GET /lcn, the one admin route: it lists the
// caller's own tenant's contracts directly off the System DB rather than
// through L8, since none of the fixed dispatcher opcodes cover a list
// query.
func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request, tenantID int64) {
	contracts, err := s.Contracts.ListByTenant(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]contractJSON, len(contracts))
	for i, c := range contracts {
		out[i] = contractJSON{
			ContractID:   c.ContractID,
			ContractType: string(c.ContractType),
			Version:      c.Version,
			Address:      c.Address,
			PolicyID:     c.PolicyID.String,
			Deprecated:   c.Deprecated,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway: reading request body: %w", err)
	}
	return body, nil
}
