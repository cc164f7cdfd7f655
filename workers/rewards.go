package workers

import (
	"context"
	"log"
	"time"

	"gosolbridge/EVMRPC"

	"github.com/robfig/cron/v3"
)

// Worker_rewards distributes half of the validator wallet's native balance
// to stakers at 00:00 UTC every day. Errors are logged and the next run
// proceeds as scheduled; this job carries no correctness-critical state.
func Worker_rewards() {
	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc("0 0 * * *", func() {
		log.Print("Running daily reward distribution")

		txHash, amount, err := EVMRPC.DistributeRewards(context.Background())
		if err != nil {
			log.Printf("Error distributing daily rewards: %s", err.Error())
			return
		}
		if amount.Sign() <= 0 {
			log.Print("No balance to distribute")
			return
		}
		log.Printf("Distributed %s wei (native) to stakers, tx=%s", amount.String(), txHash)
	})
	if err != nil {
		log.Printf("Error scheduling reward distribution: %s", err.Error())
		return
	}

	c.Run()
}
