package EVMRPC

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gosolbridge/config"
	"gosolbridge/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// BridgeFactoryABI covers the factory methods the relayer calls; the
// on-chain contract is deployed and maintained elsewhere.
const BridgeFactoryABI = `[
	{
		"inputs": [
			{"internalType": "bytes32", "name": "solMintHash", "type": "bytes32"},
			{"internalType": "string", "name": "solMint", "type": "string"},
			{"internalType": "string", "name": "name", "type": "string"},
			{"internalType": "string", "name": "symbol", "type": "string"},
			{"internalType": "uint8", "name": "decimals", "type": "uint8"},
			{"internalType": "address", "name": "recipient", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "mintFromSolana",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "solMintHash", "type": "bytes32"},
			{"internalType": "address", "name": "holder", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "burnForSolana",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "bytes32", "name": "", "type": "bytes32"}],
		"name": "solMintToWrapped",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const ERC20BalanceABI = `[
	{
		"inputs": [{"internalType": "address", "name": "", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var (
	factoryABI = mustABI(BridgeFactoryABI)
	erc20ABI   = mustABI(ERC20BalanceABI)
)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Factory dispatches BridgeFactory calls. Implements the mint and wrapped
// token surfaces the bridge package depends on. All state-changing calls
// block until the transaction is mined and checked for revert.
type Factory struct{}

func factoryContract(client *ethclient.Client) *bind.BoundContract {
	addr := common.HexToAddress(config.Config.EVM.BridgeFactoryAddr)
	return bind.NewBoundContract(addr, factoryABI, client, client, client)
}

func waitMined(ctx context.Context, client *ethclient.Client, tx *ethtypes.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, 90*time.Second)
	defer cancel()

	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return fmt.Errorf("error waiting for tx %s: %s", tx.Hash().Hex(), err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return nil
}

// Mint calls mintFromSolana and blocks until the mint is confirmed. The
// caller must not record the deposit unless this returns without error.
func (Factory) Mint(ctx context.Context, req types.MintRequest) (string, error) {
	return WithClient(func(client *ethclient.Client) (string, error) {
		auth, err := transactOpts(ctx, client)
		if err != nil {
			return "", err
		}

		tx, err := factoryContract(client).Transact(auth, "mintFromSolana",
			[32]byte(req.MintKey), req.Mint, req.Name, req.Symbol, req.Decimals,
			common.HexToAddress(req.Recipient), req.Amount)
		if err != nil {
			return "", fmt.Errorf("error calling mintFromSolana: %s", err)
		}

		if err := waitMined(ctx, client, tx); err != nil {
			return "", err
		}
		return tx.Hash().Hex(), nil
	})
}

// Burn calls burnForSolana and blocks until the burn is confirmed.
func (Factory) Burn(ctx context.Context, mintKey common.Hash, holder common.Address, amount *big.Int) (string, error) {
	return WithClient(func(client *ethclient.Client) (string, error) {
		auth, err := transactOpts(ctx, client)
		if err != nil {
			return "", err
		}

		tx, err := factoryContract(client).Transact(auth, "burnForSolana",
			[32]byte(mintKey), holder, amount)
		if err != nil {
			return "", fmt.Errorf("error calling burnForSolana: %s", err)
		}

		if err := waitMined(ctx, client, tx); err != nil {
			return "", err
		}
		return tx.Hash().Hex(), nil
	})
}

// LookupWrapped resolves the wrapped token for a mint key; the zero address
// means no token was deployed yet.
func (Factory) LookupWrapped(ctx context.Context, mintKey common.Hash) (common.Address, error) {
	return WithClient(func(client *ethclient.Client) (common.Address, error) {
		var out []interface{}
		err := factoryContract(client).Call(&bind.CallOpts{Context: ctx}, &out, "solMintToWrapped", [32]byte(mintKey))
		if err != nil {
			return common.Address{}, fmt.Errorf("error calling solMintToWrapped: %s", err)
		}
		return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
	})
}

// BalanceOf reads a wrapped-token balance from live chain state.
func (Factory) BalanceOf(ctx context.Context, token common.Address, holder common.Address) (*big.Int, error) {
	return WithClient(func(client *ethclient.Client) (*big.Int, error) {
		contract := bind.NewBoundContract(token, erc20ABI, client, client, client)
		var out []interface{}
		err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", holder)
		if err != nil {
			return nil, fmt.Errorf("error calling balanceOf: %s", err)
		}
		return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
	})
}
