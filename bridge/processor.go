package bridge

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"gosolbridge/types"
)

// TokenBalance is one vault-relevant token account balance inside a source
// transaction, already resolved to base units.
type TokenBalance struct {
	AccountIndex uint16
	Mint         string
	Owner        string
	Amount       *big.Int
	Decimals     uint8
}

// TxView is the explicit, tagged view of one fetched source transaction:
// not found yet, executed with an on-chain error, or executed with the
// pre/post token balances needed to detect a vault deposit.
type TxView struct {
	Found         bool
	Failed        bool
	FailureDetail string
	Pre           []TokenBalance
	Post          []TokenBalance
}

// SourceChain reads one transaction from the source chain. A transport error
// or a not-yet-found transaction is a pending condition, never a terminal one.
type SourceChain interface {
	TransactionView(ctx context.Context, signature string) (*TxView, error)
}

// Minter submits the destination-chain mint and blocks until it is confirmed.
type Minter interface {
	Mint(ctx context.Context, req types.MintRequest) (string, error)
}

// Ledger is the durable processed-deposit store.
type Ledger interface {
	Has(signature string) (bool, error)
	Get(signature string) (*types.DepositRecord, error)
	Put(signature string, rec *types.DepositRecord) error
}

// Processor drives one candidate signature to a terminal disposition.
// Safe for concurrent use: the guard admits one attempt per signature and the
// ledger check at the top keeps minted signatures out of the mint path.
type Processor struct {
	Source SourceChain
	Minter Minter
	Ledger Ledger
	Guard  *Guard

	Vault string
	Mints []string // accepted SPL mint allowlist
	Token types.AssetMetadata

	Now func() time.Time
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Processor) mintAllowed(mint string) bool {
	for _, m := range p.Mints {
		if m == mint {
			return true
		}
	}
	return false
}

// Process decides the disposition of one source-chain signature.
//
// Failure before the mint is confirmed leaves no record, so the signature
// stays eligible for retry on a later poll; failure to persist after a
// confirmed mint is the loudest condition in the system because a retry
// would mint twice.
func (p *Processor) Process(ctx context.Context, signature string, dest string) types.Outcome {
	if p.Vault == "" || len(p.Mints) == 0 || p.Minter == nil {
		return types.Outcome{Status: types.StatusNotConfigured}
	}

	if found, err := p.Ledger.Has(signature); err != nil {
		log.Printf("Error reading ledger for %s: %s", signature, err.Error())
		return types.Outcome{Status: types.StatusError, Message: "ledger read failed"}
	} else if found {
		rec, err := p.Ledger.Get(signature)
		if err != nil {
			log.Printf("Error loading deposit record for %s: %s", signature, err.Error())
		}
		return types.Outcome{Status: types.StatusAlreadyProcessed, Record: rec}
	}

	if !p.Guard.TryAcquire(signature) {
		return types.Outcome{Status: types.StatusProcessing}
	}
	defer p.Guard.Release(signature)

	view, err := p.Source.TransactionView(ctx, signature)
	if err != nil {
		// next poll tick retries; no internal retry loop
		log.Printf("Error fetching Solana tx %s: %s", signature, err.Error())
		return types.Outcome{Status: types.StatusPending}
	}
	if view == nil || !view.Found {
		return types.Outcome{Status: types.StatusPending}
	}
	if view.Failed {
		log.Printf("Solana tx %s has error meta: %s", signature, view.FailureDetail)
		return types.Outcome{Status: types.StatusFailed, Message: view.FailureDetail}
	}

	// first qualifying vault balance increase wins; a transaction carrying
	// several qualifying deposits is honored once (single vault ATA)
	var deposit *TokenBalance
	var delta *big.Int
	for i := range view.Post {
		post := &view.Post[i]
		if !p.mintAllowed(post.Mint) || post.Owner != p.Vault {
			continue
		}
		pre := big.NewInt(0)
		for j := range view.Pre {
			if view.Pre[j].AccountIndex == post.AccountIndex {
				pre = view.Pre[j].Amount
				break
			}
		}
		d := new(big.Int).Sub(post.Amount, pre)
		if d.Sign() <= 0 {
			continue
		}
		deposit = post
		delta = d
		break
	}
	if deposit == nil {
		return types.Outcome{Status: types.StatusNoDeposit}
	}

	if dest == "" {
		log.Printf("Destination EVM address not set, skipping mint for %s", signature)
		return types.Outcome{Status: types.StatusNoDestination}
	}

	// base units pass through 1:1, decimals preserved from the source asset
	req := types.MintRequest{
		MintKey:   MintKey(deposit.Mint),
		Mint:      deposit.Mint,
		Name:      fmt.Sprintf("M %s", p.Token.Name),
		Symbol:    fmt.Sprintf("M%s", p.Token.Symbol),
		Decimals:  deposit.Decimals,
		Recipient: dest,
		Amount:    delta,
	}

	log.Printf("Detected deposit on Solana. tx=%s, mint=%s, amountBase=%s, decimals=%d",
		signature, deposit.Mint, delta.String(), deposit.Decimals)

	evmTxHash, err := p.Minter.Mint(ctx, req)
	if err != nil {
		// no record written: the transfer stays eligible for retry
		log.Printf("Error minting for Solana tx %s: %s", signature, err.Error())
		return types.Outcome{Status: types.StatusError, Message: err.Error()}
	}

	log.Printf("Minted %s M tokens to %s. mint=%s, tx=%s", delta.String(), dest, deposit.Mint, evmTxHash)

	rec := &types.DepositRecord{
		SolanaSignature: signature,
		SolanaMint:      deposit.Mint,
		Vault:           p.Vault,
		Recipient:       dest,
		Amount:          delta.String(),
		Decimals:        deposit.Decimals,
		EVMTxHash:       evmTxHash,
		Timestamp:       p.now().UnixMilli(),
	}
	if err := p.Ledger.Put(signature, rec); err != nil {
		// the mint already happened on-chain; losing this record risks a
		// duplicate mint on the next poll
		log.Printf("ERROR: failed to persist deposit record for %s (tx %s): %s",
			signature, evmTxHash, err.Error())
		return types.Outcome{
			Status:  types.StatusMinted,
			Record:  rec,
			Message: "deposit record persistence failed, operator attention required",
		}
	}

	return types.Outcome{Status: types.StatusMinted, Record: rec}
}
