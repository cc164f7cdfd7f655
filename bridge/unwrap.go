package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"gosolbridge/config"
	"gosolbridge/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// AuthError is a rejected unwrap request; Reason is wire-visible.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// InconsistentError is the burn-confirmed-but-release-failed state: wrapped
// supply was destroyed and no SPL left the vault. Requires manual operator
// reconciliation; the burn cannot be rolled back.
type InconsistentError struct {
	BurnTxHash string
	Err        error
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("burn %s confirmed but vault release failed: %v", e.BurnTxHash, e.Err)
}

func (e *InconsistentError) Unwrap() error { return e.Err }

var ErrNotConfigured = errors.New("reverse bridge not configured")

// WrappedToken is the destination-chain BridgeFactory surface the reverse
// bridge needs. Burn blocks until the transaction is confirmed.
type WrappedToken interface {
	LookupWrapped(ctx context.Context, mintKey common.Hash) (common.Address, error)
	BalanceOf(ctx context.Context, token common.Address, holder common.Address) (*big.Int, error)
	Burn(ctx context.Context, mintKey common.Hash, holder common.Address, amount *big.Int) (string, error)
}

// VaultReleaser transfers the original SPL asset out of the vault and blocks
// until the transfer is confirmed.
type VaultReleaser interface {
	Release(ctx context.Context, toSolanaAddress string, amountBaseUnits uint64) (string, error)
}

// Unwrapper verifies authenticated unwrap requests and performs
// burn-then-release, in that fixed order.
type Unwrapper struct {
	Wrapped WrappedToken
	Vault   VaultReleaser

	PrimaryMint string
	Token       types.AssetMetadata

	Now func() time.Time
}

func (u *Unwrapper) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

// Verified is a validated unwrap request: the recovered holder identity,
// the normalized Solana release address and the amount in base units.
type Verified struct {
	Holder     common.Address
	SolAddress string
	Amount     *big.Int
}

// Verify runs the ordered request checks: amount, Solana address, timestamp
// freshness, signature recovery over the canonical message, live wrapped
// balance. Any failure is a distinct AuthError; there is no partial success.
func (u *Unwrapper) Verify(ctx context.Context, req types.UnwrapRequest) (*Verified, error) {
	if u.Wrapped == nil || u.Vault == nil || u.PrimaryMint == "" {
		return nil, ErrNotConfigured
	}

	amt, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || strings.TrimSpace(req.Amount) == "" || amt.Sign() <= 0 {
		return nil, &AuthError{Reason: "invalid amount"}
	}

	solPub, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.SolanaAddress))
	if err != nil {
		return nil, &AuthError{Reason: "invalid Solana address"}
	}
	solAddress := solPub.String()

	if req.Timestamp == 0 {
		return nil, &AuthError{Reason: "missing timestamp"}
	}
	now := u.now().Unix()
	skew := now - req.Timestamp
	if skew < 0 {
		skew = -skew
	}
	if skew > config.UNWRAP_FRESHNESS_SEC {
		return nil, &AuthError{Reason: "request timestamp too old or in the future"}
	}

	// field order and colon delimiting are part of the wire contract
	msg := fmt.Sprintf("UNWRAP:%s:%s:%d", req.Amount, solAddress, req.Timestamp)
	recovered, err := RecoverSigner(msg, req.Signature)
	if err != nil || recovered == nil {
		return nil, &AuthError{Reason: "invalid signature"}
	}
	if req.EVMAddress == "" || !strings.EqualFold(req.EVMAddress, recovered.Hex()) {
		return nil, &AuthError{Reason: "signer mismatch"}
	}

	units := amt.Shift(int32(u.Token.Decimals))
	if !units.IsInteger() || !units.BigInt().IsUint64() {
		return nil, &AuthError{Reason: "invalid amount"}
	}
	amountUnits := units.BigInt()

	wrappedAddr, err := u.Wrapped.LookupWrapped(ctx, MintKey(u.PrimaryMint))
	if err != nil {
		return nil, fmt.Errorf("cannot look up wrapped token: %w", err)
	}
	if wrappedAddr == (common.Address{}) {
		return nil, &AuthError{Reason: "wrapped token for this Solana mint does not exist, bridge in first"}
	}

	// live chain state, not cached
	balance, err := u.Wrapped.BalanceOf(ctx, wrappedAddr, *recovered)
	if err != nil {
		return nil, fmt.Errorf("cannot read wrapped balance: %w", err)
	}
	if balance.Cmp(amountUnits) < 0 {
		return nil, &AuthError{Reason: "insufficient wrapped token balance to unwrap"}
	}

	return &Verified{Holder: *recovered, SolAddress: solAddress, Amount: amountUnits}, nil
}

// Execute verifies the request, burns the wrapped amount on the destination
// chain and, only on a confirmed burn, releases the original asset from the
// vault. A burn failure causes no source-chain call at all; a release
// failure after a confirmed burn is surfaced as InconsistentError.
func (u *Unwrapper) Execute(ctx context.Context, req types.UnwrapRequest) (*types.UnwrapReceipt, error) {
	v, err := u.Verify(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Printf("Unwrap: burning %s from %s and sending to Solana %s",
		v.Amount.String(), v.Holder.Hex(), v.SolAddress)

	burnTx, err := u.Wrapped.Burn(ctx, MintKey(u.PrimaryMint), v.Holder, v.Amount)
	if err != nil {
		return nil, fmt.Errorf("burn failed: %w", err)
	}

	solSig, err := u.Vault.Release(ctx, v.SolAddress, v.Amount.Uint64())
	if err != nil {
		log.Printf("ERROR: burn %s confirmed but vault release to %s failed: %s, manual reconciliation required",
			burnTx, v.SolAddress, err.Error())
		return nil, &InconsistentError{BurnTxHash: burnTx, Err: err}
	}

	return &types.UnwrapReceipt{EVMTxHash: burnTx, SolanaTx: solSig}, nil
}
