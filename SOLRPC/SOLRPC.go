package SOLRPC

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"gosolbridge/bridge"
	"gosolbridge/config"

	"github.com/gagliardetto/solana-go"
	ata "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// simple wrapper around the Solana JSON-RPC client
type RPCClient struct {
	Client   *rpc.Client
	vault    solana.PublicKey
	vaultKey *solana.PrivateKey
}

var client *RPCClient

func GetClient() *RPCClient {
	if client == nil {
		vault, err := solana.PublicKeyFromBase58(config.Config.Solana.VaultAddress)
		if err != nil {
			log.Fatalln("invalid Solana vault address:", err)
		}

		client = &RPCClient{
			Client: rpc.New(config.Config.Solana.RPCHost),
			vault:  vault,
		}

		if key, err := parseVaultKey(config.Config.Solana.VaultPrivateKey); err != nil {
			log.Printf("Failed to parse Solana vault private key, reverse bridge disabled: %s", err.Error())
		} else if key != nil {
			if !key.PublicKey().Equals(vault) {
				log.Printf("WARNING: vault private key pubkey != vault address, reverse bridge transfers use the key wallet %s", key.PublicKey())
			}
			client.vaultKey = key
		}
	}
	return client
}

// the key can be base58 or the solana-keygen JSON byte array form
func parseVaultKey(raw string) (*solana.PrivateKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(raw), &ints); err != nil {
			return nil, fmt.Errorf("invalid JSON key array: %w", err)
		}
		if len(ints) != 64 {
			return nil, fmt.Errorf("invalid key length %d, want 64", len(ints))
		}
		bytes := make([]byte, len(ints))
		for i, v := range ints {
			bytes[i] = byte(v)
		}
		key := solana.PrivateKey(bytes)
		return &key, nil
	}
	key, err := solana.PrivateKeyFromBase58(raw)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// HasVaultKey reports whether the reverse bridge can sign vault transfers.
func (c *RPCClient) HasVaultKey() bool {
	return c.vaultKey != nil
}

// VaultSignatures lists the newest transaction signatures touching the vault
// account, up to limit.
func (c *RPCClient) VaultSignatures(ctx context.Context, limit int) ([]string, error) {
	infos, err := c.Client.GetSignaturesForAddressWithOpts(ctx, c.vault, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, err
	}
	sigs := make([]string, 0, len(infos))
	for _, info := range infos {
		sigs = append(sigs, info.Signature.String())
	}
	return sigs, nil
}

// TransactionView fetches one transaction and maps it to the tagged
// found/failed/balances view the processor consumes.
func (c *RPCClient) TransactionView(ctx context.Context, signature string) (*bridge.TxView, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %s: %w", signature, err)
	}

	maxVersion := uint64(0)
	res, err := c.Client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return &bridge.TxView{Found: false}, nil
		}
		return nil, err
	}
	if res == nil || res.Meta == nil {
		return &bridge.TxView{Found: false}, nil
	}

	view := &bridge.TxView{Found: true}
	if res.Meta.Err != nil {
		view.Failed = true
		view.FailureDetail = fmt.Sprintf("%v", res.Meta.Err)
		return view, nil
	}

	view.Pre = mapBalances(res.Meta.PreTokenBalances)
	view.Post = mapBalances(res.Meta.PostTokenBalances)
	return view, nil
}

func mapBalances(in []rpc.TokenBalance) []bridge.TokenBalance {
	out := make([]bridge.TokenBalance, 0, len(in))
	for _, tb := range in {
		if tb.UiTokenAmount == nil {
			continue
		}
		amount, ok := new(big.Int).SetString(tb.UiTokenAmount.Amount, 10)
		if !ok {
			continue
		}
		owner := ""
		if tb.Owner != nil {
			owner = tb.Owner.String()
		}
		out = append(out, bridge.TokenBalance{
			AccountIndex: tb.AccountIndex,
			Mint:         tb.Mint.String(),
			Owner:        owner,
			Amount:       amount,
			Decimals:     tb.UiTokenAmount.Decimals,
		})
	}
	return out
}

// Release transfers amountBaseUnits of the primary mint from the vault to
// the recipient's associated token account (creating it when absent) and
// blocks until the transfer is confirmed.
func (c *RPCClient) Release(ctx context.Context, toSolanaAddress string, amountBaseUnits uint64) (string, error) {
	if c.vaultKey == nil {
		return "", errors.New("vault keypair not configured for reverse bridge")
	}
	mintStr := config.PrimaryMint()
	if mintStr == "" {
		return "", errors.New("primary mint not configured")
	}
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return "", fmt.Errorf("invalid primary mint: %w", err)
	}
	destOwner, err := solana.PublicKeyFromBase58(toSolanaAddress)
	if err != nil {
		return "", fmt.Errorf("invalid destination address: %w", err)
	}

	vaultPub := c.vaultKey.PublicKey()
	sourceAta, _, err := solana.FindAssociatedTokenAddress(vaultPub, mint)
	if err != nil {
		return "", fmt.Errorf("cannot derive vault token account: %w", err)
	}
	destAta, _, err := solana.FindAssociatedTokenAddress(destOwner, mint)
	if err != nil {
		return "", fmt.Errorf("cannot derive destination token account: %w", err)
	}

	var instructions []solana.Instruction
	if _, err := c.Client.GetAccountInfo(ctx, destAta); err != nil {
		if !errors.Is(err, rpc.ErrNotFound) {
			return "", fmt.Errorf("cannot check destination token account: %w", err)
		}
		createIx, err := ata.NewCreateInstruction(vaultPub, destOwner, mint).ValidateAndBuild()
		if err != nil {
			return "", fmt.Errorf("cannot build create account instruction: %w", err)
		}
		instructions = append(instructions, createIx)
	}

	transferIx, err := token.NewTransferCheckedInstruction(
		amountBaseUnits,
		config.Config.Token.Decimals,
		sourceAta,
		mint,
		destAta,
		vaultPub,
		[]solana.PublicKey{},
	).ValidateAndBuild()
	if err != nil {
		return "", fmt.Errorf("cannot build transfer instruction: %w", err)
	}
	instructions = append(instructions, transferIx)

	recent, err := c.Client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return "", fmt.Errorf("cannot get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(vaultPub))
	if err != nil {
		return "", fmt.Errorf("cannot build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(vaultPub) {
			return c.vaultKey
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("cannot sign transaction: %w", err)
	}

	sig, err := c.Client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("cannot send transaction: %w", err)
	}

	if err := c.waitForConfirmation(ctx, sig); err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (c *RPCClient) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for Solana tx %s", sig)
		case <-ticker.C:
			res, err := c.Client.GetSignatureStatuses(ctx, true, sig)
			if err != nil || res == nil || len(res.Value) == 0 || res.Value[0] == nil {
				continue
			}
			status := res.Value[0]
			if status.Err != nil {
				return fmt.Errorf("Solana tx %s failed: %v", sig, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}
}

// VaultTokenBalance returns the vault's primary-mint balance in base units.
func (c *RPCClient) VaultTokenBalance(ctx context.Context) (string, error) {
	mintStr := config.PrimaryMint()
	if mintStr == "" {
		return "", errors.New("primary mint not configured")
	}
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return "", fmt.Errorf("invalid primary mint: %w", err)
	}
	vaultAta, _, err := solana.FindAssociatedTokenAddress(c.vault, mint)
	if err != nil {
		return "", fmt.Errorf("cannot derive vault token account: %w", err)
	}
	res, err := c.Client.GetTokenAccountBalance(ctx, vaultAta, rpc.CommitmentConfirmed)
	if err != nil {
		return "", err
	}
	if res == nil || res.Value == nil {
		return "", errors.New("empty balance response")
	}
	return res.Value.Amount, nil
}
