package EVMRPC

import (
	"context"
	"fmt"
	"math/big"

	"gosolbridge/config"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

const StakingABI = `[
	{
		"inputs": [{"internalType": "uint256", "name": "price", "type": "uint256"}],
		"name": "updatePrice",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "distributeDailyRewards",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	}
]`

var stakingABI = mustABI(StakingABI)

func stakingContract(client *ethclient.Client) *bind.BoundContract {
	addr := common.HexToAddress(config.Config.EVM.StakingAddr)
	return bind.NewBoundContract(addr, stakingABI, client, client, client)
}

// UpdatePrice pushes the configured price to the staking contract, scaled to
// the contract's 8 decimals, and waits for the receipt.
func UpdatePrice(ctx context.Context, price float64) (string, error) {
	scaled := decimal.NewFromFloat(price).Shift(8).BigInt()

	return WithClient(func(client *ethclient.Client) (string, error) {
		auth, err := transactOpts(ctx, client)
		if err != nil {
			return "", err
		}

		tx, err := stakingContract(client).Transact(auth, "updatePrice", scaled)
		if err != nil {
			return "", fmt.Errorf("error calling updatePrice: %s", err)
		}

		if err := waitMined(ctx, client, tx); err != nil {
			return "", err
		}
		return tx.Hash().Hex(), nil
	})
}

// DistributeRewards sends half of the validator wallet's native balance into
// distributeDailyRewards. Returns the tx hash and the distributed amount.
func DistributeRewards(ctx context.Context) (string, *big.Int, error) {
	validator := common.HexToAddress(config.Config.EVM.PublicAddress)

	type result struct {
		hash   string
		amount *big.Int
	}

	res, err := WithClient(func(client *ethclient.Client) (result, error) {
		balance, err := client.BalanceAt(ctx, validator, nil)
		if err != nil {
			return result{}, fmt.Errorf("error getting validator balance: %s", err)
		}

		reward := new(big.Int).Div(balance, big.NewInt(2))
		if reward.Sign() <= 0 {
			return result{amount: big.NewInt(0)}, nil
		}

		auth, err := transactOpts(ctx, client)
		if err != nil {
			return result{}, err
		}
		auth.Value = reward

		tx, err := stakingContract(client).Transact(auth, "distributeDailyRewards")
		if err != nil {
			return result{}, fmt.Errorf("error calling distributeDailyRewards: %s", err)
		}

		if err := waitMined(ctx, client, tx); err != nil {
			return result{}, err
		}
		return result{hash: tx.Hash().Hex(), amount: reward}, nil
	})
	if err != nil {
		return "", nil, err
	}
	return res.hash, res.amount, nil
}
