package EVMRPC

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"gosolbridge/config"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

func WithClient[T any](f func(client *ethclient.Client) (T, error)) (res T, err error) {
	var client *ethclient.Client
	for _, url := range config.Config.EVM.RPCList {
		client, err = ethclient.Dial(url)
		if err != nil {
			log.Println(fmt.Sprintf("Error connecting to %s: %s", url, err.Error()))
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
	}
	return
}

// transactOpts builds the validator's keyed transactor the way every
// state-changing call here uses it.
func transactOpts(ctx context.Context, client *ethclient.Client) (*bind.TransactOpts, error) {
	chainID := config.Config.EVM.ChainID

	nonce, err := client.PendingNonceAt(ctx, common.HexToAddress(config.Config.EVM.PublicAddress))
	if err != nil {
		return nil, fmt.Errorf("error getting nonce for wallet: %s", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting suggested gas price: %s", err)
	}

	privateKey, err := crypto.HexToECDSA(config.Config.EVM.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("error instantiating private key: %s", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(int64(chainID)))
	if err != nil {
		return nil, fmt.Errorf("error instantiating contract call: %s", err)
	}

	auth.Context = ctx
	auth.Nonce = big.NewInt(int64(nonce))
	auth.Value = big.NewInt(0)
	auth.GasLimit = uint64(1200000)
	if chainID == 1 {
		auth.GasPrice = gasPrice
	} else {
		auth.GasPrice = gasPrice.Mul(gasPrice, big.NewInt(2))
	}

	return auth, nil
}
