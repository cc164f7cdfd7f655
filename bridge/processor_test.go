package bridge

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"gosolbridge/types"
)

const (
	testVault = "Vau1t11111111111111111111111111111111111111"
	testMint  = "So11111111111111111111111111111111111111112"
	testDest  = "0x1111111111111111111111111111111111111111"
)

type fakeSource struct {
	mu    sync.Mutex
	view  *TxView
	err   error
	calls int
}

func (f *fakeSource) TransactionView(ctx context.Context, signature string) (*TxView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

type fakeMinter struct {
	mu      sync.Mutex
	tx      string
	err     error
	calls   int
	lastReq types.MintRequest

	// when set, Mint blocks until release is closed
	started chan struct{}
	release chan struct{}
}

func (f *fakeMinter) Mint(ctx context.Context, req types.MintRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	if f.err != nil {
		return "", f.err
	}
	return f.tx, nil
}

type fakeLedger struct {
	mu     sync.Mutex
	recs   map[string]*types.DepositRecord
	putErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{recs: map[string]*types.DepositRecord{}}
}

func (f *fakeLedger) Has(signature string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.recs[signature]
	return ok, nil
}

func (f *fakeLedger) Get(signature string) (*types.DepositRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[signature]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

func (f *fakeLedger) Put(signature string, rec *types.DepositRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	if _, ok := f.recs[signature]; !ok {
		f.recs[signature] = rec
	}
	return nil
}

func depositView(mint, owner string, pre, post int64) *TxView {
	return &TxView{
		Found: true,
		Pre: []TokenBalance{
			{AccountIndex: 3, Mint: mint, Owner: owner, Amount: big.NewInt(pre), Decimals: 6},
		},
		Post: []TokenBalance{
			{AccountIndex: 3, Mint: mint, Owner: owner, Amount: big.NewInt(post), Decimals: 6},
		},
	}
}

func newTestProcessor(source *fakeSource, minter *fakeMinter, store Ledger) *Processor {
	return &Processor{
		Source: source,
		Minter: minter,
		Ledger: store,
		Guard:  NewGuard(),
		Vault:  testVault,
		Mints:  []string{testMint},
		Token:  types.AssetMetadata{Name: "Solana", Symbol: "SOL", Decimals: 6},
		Now:    func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func TestProcessor_MintsExactlyOnce(t *testing.T) {
	source := &fakeSource{view: depositView(testMint, testVault, 0, 1000000)}
	minter := &fakeMinter{tx: "0xabc"}
	p := newTestProcessor(source, minter, newFakeLedger())

	out := p.Process(context.Background(), "sig_1", testDest)
	if out.Status != types.StatusMinted {
		t.Fatalf("first Process = %s, want %s (%s)", out.Status, types.StatusMinted, out.Message)
	}
	if out.Record == nil {
		t.Fatal("minted outcome carries no record")
	}
	if out.Record.Amount != "1000000" || out.Record.Recipient != testDest ||
		out.Record.SolanaMint != testMint || out.Record.EVMTxHash != "0xabc" ||
		out.Record.Decimals != 6 || out.Record.Timestamp != 1700000000000 {
		t.Fatalf("record mismatch: %+v", out.Record)
	}

	if minter.lastReq.MintKey != MintKey(testMint) {
		t.Fatalf("mint key = %s, want keccak of mint address", minter.lastReq.MintKey.Hex())
	}
	if minter.lastReq.Name != "M Solana" || minter.lastReq.Symbol != "MSOL" {
		t.Fatalf("wrapped naming mismatch: %q / %q", minter.lastReq.Name, minter.lastReq.Symbol)
	}

	for i := 0; i < 4; i++ {
		out := p.Process(context.Background(), "sig_1", testDest)
		if out.Status != types.StatusAlreadyProcessed {
			t.Fatalf("repeat Process = %s, want %s", out.Status, types.StatusAlreadyProcessed)
		}
		if out.Record == nil || out.Record.EVMTxHash != "0xabc" {
			t.Fatalf("repeat outcome lost the original record: %+v", out.Record)
		}
	}

	if minter.calls != 1 {
		t.Fatalf("minter called %d times, want 1", minter.calls)
	}
}

func TestProcessor_NotConfigured(t *testing.T) {
	source := &fakeSource{view: depositView(testMint, testVault, 0, 1)}
	minter := &fakeMinter{tx: "0xabc"}

	cases := []struct {
		name   string
		mutate func(p *Processor)
	}{
		{"no vault", func(p *Processor) { p.Vault = "" }},
		{"no mints", func(p *Processor) { p.Mints = nil }},
		{"no minter", func(p *Processor) { p.Minter = nil }},
	}
	for _, tc := range cases {
		p := newTestProcessor(source, minter, newFakeLedger())
		tc.mutate(p)
		out := p.Process(context.Background(), "sig_1", testDest)
		if out.Status != types.StatusNotConfigured {
			t.Fatalf("%s: Process = %s, want %s", tc.name, out.Status, types.StatusNotConfigured)
		}
	}
	if minter.calls != 0 {
		t.Fatalf("minter called %d times while unconfigured", minter.calls)
	}
}

func TestProcessor_PendingUntilVisible(t *testing.T) {
	source := &fakeSource{view: &TxView{Found: false}}
	minter := &fakeMinter{tx: "0xabc"}
	store := newFakeLedger()
	p := newTestProcessor(source, minter, store)

	if out := p.Process(context.Background(), "sig_1", testDest); out.Status != types.StatusPending {
		t.Fatalf("Process = %s, want %s", out.Status, types.StatusPending)
	}
	if found, _ := store.Has("sig_1"); found {
		t.Fatal("pending signature was recorded")
	}

	// the transaction lands and a later poll retries the same signature
	source.view = depositView(testMint, testVault, 0, 500)
	if out := p.Process(context.Background(), "sig_1", testDest); out.Status != types.StatusMinted {
		t.Fatalf("retry Process = %s, want %s", out.Status, types.StatusMinted)
	}
}

func TestProcessor_PendingOnFetchError(t *testing.T) {
	source := &fakeSource{err: errors.New("rpc unavailable")}
	minter := &fakeMinter{tx: "0xabc"}
	p := newTestProcessor(source, minter, newFakeLedger())

	if out := p.Process(context.Background(), "sig_1", testDest); out.Status != types.StatusPending {
		t.Fatalf("Process = %s, want %s", out.Status, types.StatusPending)
	}
	if minter.calls != 0 {
		t.Fatal("minter called despite fetch error")
	}
}

func TestProcessor_FailedTransaction(t *testing.T) {
	source := &fakeSource{view: &TxView{Found: true, Failed: true, FailureDetail: "InstructionError"}}
	p := newTestProcessor(source, &fakeMinter{tx: "0xabc"}, newFakeLedger())

	out := p.Process(context.Background(), "sig_1", testDest)
	if out.Status != types.StatusFailed {
		t.Fatalf("Process = %s, want %s", out.Status, types.StatusFailed)
	}
	if !strings.Contains(out.Message, "InstructionError") {
		t.Fatalf("failure detail lost: %q", out.Message)
	}
}

func TestProcessor_NoDeposit(t *testing.T) {
	cases := []struct {
		name string
		view *TxView
	}{
		{"foreign mint", depositView("Fake111111111111111111111111111111111111111", testVault, 0, 1000)},
		{"foreign owner", depositView(testMint, "2wmVCSfPxGPjrnMMn7rchp4uaeoTqN39mXFC2zhPdri9", 0, 1000)},
		{"no balance change", depositView(testMint, testVault, 500, 500)},
		{"withdrawal", depositView(testMint, testVault, 1000, 400)},
		{"no token balances", &TxView{Found: true}},
	}
	for _, tc := range cases {
		minter := &fakeMinter{tx: "0xabc"}
		p := newTestProcessor(&fakeSource{view: tc.view}, minter, newFakeLedger())
		out := p.Process(context.Background(), "sig_1", testDest)
		if out.Status != types.StatusNoDeposit {
			t.Fatalf("%s: Process = %s, want %s", tc.name, out.Status, types.StatusNoDeposit)
		}
		if minter.calls != 0 {
			t.Fatalf("%s: minter called for non-deposit", tc.name)
		}
	}
}

func TestProcessor_NoDestination(t *testing.T) {
	source := &fakeSource{view: depositView(testMint, testVault, 0, 1000)}
	minter := &fakeMinter{tx: "0xabc"}
	store := newFakeLedger()
	p := newTestProcessor(source, minter, store)

	out := p.Process(context.Background(), "sig_1", "")
	if out.Status != types.StatusNoDestination {
		t.Fatalf("Process = %s, want %s", out.Status, types.StatusNoDestination)
	}
	if minter.calls != 0 {
		t.Fatal("minter called without a destination")
	}

	// once an operator sets the destination the deposit is recoverable
	if out := p.Process(context.Background(), "sig_1", testDest); out.Status != types.StatusMinted {
		t.Fatalf("retry Process = %s, want %s", out.Status, types.StatusMinted)
	}
}

func TestProcessor_MintFailureLeavesNoRecord(t *testing.T) {
	source := &fakeSource{view: depositView(testMint, testVault, 0, 1000)}
	minter := &fakeMinter{err: errors.New("nonce too low")}
	store := newFakeLedger()
	p := newTestProcessor(source, minter, store)

	out := p.Process(context.Background(), "sig_1", testDest)
	if out.Status != types.StatusError {
		t.Fatalf("Process = %s, want %s", out.Status, types.StatusError)
	}
	if found, _ := store.Has("sig_1"); found {
		t.Fatal("failed mint was recorded as processed")
	}

	minter.err = nil
	minter.tx = "0xretry"
	out = p.Process(context.Background(), "sig_1", testDest)
	if out.Status != types.StatusMinted || out.Record.EVMTxHash != "0xretry" {
		t.Fatalf("retry after mint failure = %s (%+v)", out.Status, out.Record)
	}
}

func TestProcessor_FirstQualifyingDepositWins(t *testing.T) {
	view := &TxView{
		Found: true,
		Pre: []TokenBalance{
			{AccountIndex: 2, Mint: testMint, Owner: testVault, Amount: big.NewInt(100), Decimals: 6},
			{AccountIndex: 5, Mint: testMint, Owner: testVault, Amount: big.NewInt(0), Decimals: 6},
		},
		Post: []TokenBalance{
			{AccountIndex: 2, Mint: testMint, Owner: testVault, Amount: big.NewInt(400), Decimals: 6},
			{AccountIndex: 5, Mint: testMint, Owner: testVault, Amount: big.NewInt(9000), Decimals: 6},
		},
	}
	minter := &fakeMinter{tx: "0xabc"}
	p := newTestProcessor(&fakeSource{view: view}, minter, newFakeLedger())

	out := p.Process(context.Background(), "sig_1", testDest)
	if out.Status != types.StatusMinted {
		t.Fatalf("Process = %s, want %s", out.Status, types.StatusMinted)
	}
	if minter.calls != 1 {
		t.Fatalf("minter called %d times, want 1", minter.calls)
	}
	if minter.lastReq.Amount.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("minted %s, want the first qualifying delta 300", minter.lastReq.Amount)
	}
}

func TestProcessor_ConcurrentSameSignature(t *testing.T) {
	source := &fakeSource{view: depositView(testMint, testVault, 0, 1000)}
	minter := &fakeMinter{
		tx:      "0xabc",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	p := newTestProcessor(source, minter, newFakeLedger())

	var wg sync.WaitGroup
	var first types.Outcome
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = p.Process(context.Background(), "sig_1", testDest)
	}()

	// the first attempt is parked inside Mint, so the guard is held
	<-minter.started
	second := p.Process(context.Background(), "sig_1", testDest)
	if second.Status != types.StatusProcessing {
		t.Fatalf("concurrent Process = %s, want %s", second.Status, types.StatusProcessing)
	}

	close(minter.release)
	wg.Wait()

	if first.Status != types.StatusMinted {
		t.Fatalf("held Process = %s, want %s", first.Status, types.StatusMinted)
	}
	if minter.calls != 1 {
		t.Fatalf("minter called %d times, want 1", minter.calls)
	}
}

// A confirmed mint whose record cannot be persisted still reports minted,
// with the record attached so an operator can reconcile by hand.
func TestProcessor_PersistFailureStillReportsMint(t *testing.T) {
	source := &fakeSource{view: depositView(testMint, testVault, 0, 1000)}
	minter := &fakeMinter{tx: "0xabc"}
	store := newFakeLedger()
	store.putErr = errors.New("disk full")
	p := newTestProcessor(source, minter, store)

	out := p.Process(context.Background(), "sig_1", testDest)
	if out.Status != types.StatusMinted {
		t.Fatalf("Process = %s, want %s", out.Status, types.StatusMinted)
	}
	if out.Record == nil || out.Record.EVMTxHash != "0xabc" {
		t.Fatalf("record missing from degraded outcome: %+v", out.Record)
	}
	if out.Message == "" {
		t.Fatal("degraded outcome carries no operator message")
	}
}
