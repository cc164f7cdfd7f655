package workers

import (
	"context"
	"log"
	"time"

	"gosolbridge/SOLRPC"
	"gosolbridge/bridge"
	"gosolbridge/config"
	"gosolbridge/ledger"
	"gosolbridge/types"
)

// Worker_pollSolana lists recent vault signatures on a fixed interval and
// forwards every one not already recorded to the processor. It is a cheap
// filter only; the processor re-validates everything, so a stale known set
// is safe.
func Worker_pollSolana(proc *bridge.Processor, store *ledger.Store, dest *bridge.Destinations) {
	known := make(map[string]struct{})
	errCounts := make(map[string]int)
	if ids, err := store.AllIDs(); err != nil {
		log.Printf("Error seeding known signatures from ledger: %s", err.Error())
	} else {
		for _, id := range ids {
			known[id] = struct{}{}
		}
		log.Printf("Seeded %d processed signatures from ledger", len(ids))
	}

	for !WorkerShutdown {
		time.Sleep(time.Duration(config.PollInterval()) * time.Second)

		sigs, err := SOLRPC.GetClient().VaultSignatures(context.Background(), config.SignatureLimit())
		if err != nil {
			// transport hiccup: log and try again on the next tick
			log.Printf("Error listing vault signatures: %s", err.Error())
			continue
		}

		for _, sig := range sigs {
			if _, done := known[sig]; done {
				continue
			}

			// destination is read once here and bound to this attempt
			outcome := proc.Process(context.Background(), sig, dest.Get())

			switch outcome.Status {
			case types.StatusMinted, types.StatusAlreadyProcessed:
				known[sig] = struct{}{}
				delete(errCounts, sig)
			case types.StatusError:
				// keep retrying on later ticks, but escalate once
				errCounts[sig]++
				if errCounts[sig] == config.EVM_RETRIES {
					log.Printf("Signature %s errored %d times in a row, operator attention may be required", sig, errCounts[sig])
				}
			}
		}
	}
}
