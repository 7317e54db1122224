package elementswallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/tdex-network/walletd/pkg/explorer"
	"github.com/tdex-network/walletd/pkg/explorer/esplora"
	pkgwallet "github.com/tdex-network/walletd/pkg/wallet"
	"github.com/vulpemventures/go-elements/address"
	"github.com/vulpemventures/go-elements/elementsutil"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/payment"
	"github.com/vulpemventures/go-elements/psetv2"
	"github.com/vulpemventures/go-elements/transaction"
)

const (
	testMnemonic  = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	otherMnemonic = "legal winner thank year wave sausage worth useful legal winner thank yellow"
	testAsset     = "f0e1d2c3b4a5968778695a4b3c2d1e0ff0e1d2c3b4a5968778695a4b3c2d1e0f"
	hardened      = hdkeychain.HardenedKeyStart
)

var (
	ctx         = context.Background()
	policyAsset = network.Regtest.AssetID
	testFp      = domain.Fingerprint{0x73, 0xc5, 0xda, 0x0a}
)

// fakeExplorer serves the history of the scripts and the txs it is given.
type fakeExplorer struct {
	lock       sync.Mutex
	history    map[string][]explorer.TxStatus
	txs        map[string]*transaction.Transaction
	fetched    []string
	broadcasts []string
}

func newFakeExplorer() *fakeExplorer {
	return &fakeExplorer{
		history: make(map[string][]explorer.TxStatus),
		txs:     make(map[string]*transaction.Transaction),
	}
}

// addTx indexes the tx under every given script.
func (e *fakeExplorer) addTx(tx *transaction.Transaction, confirmed bool, scripts ...[]byte) string {
	e.lock.Lock()
	defer e.lock.Unlock()

	txid := tx.TxHash().String()
	e.txs[txid] = tx
	for _, script := range scripts {
		key := hex.EncodeToString(script)
		e.history[key] = append(e.history[key], explorer.TxStatus{
			Txid: txid, Confirmed: confirmed, BlockHeight: 10,
		})
	}
	return txid
}

func (e *fakeExplorer) GetScriptHistory(_ context.Context, script []byte) ([]explorer.TxStatus, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.history[hex.EncodeToString(script)], nil
}

func (e *fakeExplorer) GetTransactionHex(_ context.Context, txid string) (string, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	tx, ok := e.txs[txid]
	if !ok {
		return "", explorer.ErrTransactionNotFound
	}
	return tx.ToHex()
}

func (e *fakeExplorer) GetTransactions(
	_ context.Context, txids []string,
) (map[string]*transaction.Transaction, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	txs := make(map[string]*transaction.Transaction)
	for _, txid := range txids {
		tx, ok := e.txs[txid]
		if !ok {
			return nil, explorer.ErrTransactionNotFound
		}
		txs[txid] = tx
		e.fetched = append(e.fetched, txid)
	}
	return txs, nil
}

func (e *fakeExplorer) BroadcastTransaction(_ context.Context, txhex string) (string, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	tx, err := transaction.NewTxFromHex(txhex)
	if err != nil {
		return "", err
	}
	e.broadcasts = append(e.broadcasts, txhex)
	return tx.TxHash().String(), nil
}

func (e *fakeExplorer) GetBlockHeight(context.Context) (uint32, error) {
	return 10, nil
}

func newTestFactory(t *testing.T, fake *fakeExplorer) *factory {
	f := NewFactory(FactoryOpts{GapLimit: 5}).(*factory)
	f.newExplorer = func(opts esplora.ServiceOpts) (explorer.Service, error) {
		require.Equal(t, "localhost:3001", opts.Addr)
		return fake, nil
	}
	return f
}

func testConfig(t *testing.T) ports.WalletConfig {
	return ports.WalletConfig{
		Network:  network.Regtest.Name,
		Endpoint: "localhost:3001",
		Datadir:  t.TempDir(),
	}
}

func newSoftwareWallet(t *testing.T, mnemonic string) *pkgwallet.Wallet {
	w, err := pkgwallet.NewWalletFromMnemonic(pkgwallet.NewWalletFromMnemonicOpts{
		Mnemonic: mnemonic,
	})
	require.NoError(t, err)
	return w
}

func wpkhDescriptor(t *testing.T, mnemonic string) string {
	w := newSoftwareWallet(t, mnemonic)
	xpub, err := w.DeriveXpub([]uint32{84 + hardened, 1 + hardened, hardened})
	require.NoError(t, err)
	fp, err := w.Fingerprint()
	require.NoError(t, err)
	return fmt.Sprintf("elwpkh([%x/84'/1'/0']%s/<0;1>/*)", fp, xpub)
}

func explicitOutput(t *testing.T, asset string, amount uint64, script []byte) *transaction.TxOutput {
	assetBytes, err := elementsutil.AssetHashToBytes(asset)
	require.NoError(t, err)
	value, err := elementsutil.ValueToBytes(amount)
	require.NoError(t, err)
	return transaction.NewTxOutput(assetBytes, value, script)
}

func externalScript(t *testing.T, w *wallet, index uint32) []byte {
	ds, err := w.desc.deriveScript(externalChain, index)
	require.NoError(t, err)
	return ds.script
}

func randomAddress(t *testing.T) string {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := payment.FromPublicKey(key.PubKey(), &network.Regtest, nil).WitnessPubKeyHash()
	require.NoError(t, err)
	return addr
}

// fundWallet sends policy and test asset funds to the first external
// address, then spends the policy output to the third one.
func fundWallet(t *testing.T, fake *fakeExplorer, w *wallet) {
	script0 := externalScript(t, w, 0)
	script1 := externalScript(t, w, 1)
	script2 := externalScript(t, w, 2)

	funding := transaction.NewTx(2)
	funding.AddInput(transaction.NewTxInput(make([]byte, 32), 0))
	funding.AddOutput(explicitOutput(t, policyAsset, 100000, script0))
	funding.AddOutput(explicitOutput(t, testAsset, 5000, script1))
	fundingTxid := fake.addTx(funding, true, script0, script1)

	hash, err := elementsutil.TxIDToBytes(fundingTxid)
	require.NoError(t, err)
	spending := transaction.NewTx(2)
	spending.AddInput(transaction.NewTxInput(hash, 0))
	spending.AddOutput(explicitOutput(t, policyAsset, 60000, script2))
	spending.AddOutput(explicitOutput(t, policyAsset, 39000, []byte{0x00, 0x14}))
	spending.AddOutput(explicitOutput(t, policyAsset, 1000, nil))
	fake.addTx(spending, false, script0, script2)
}

func TestNewWallet(t *testing.T) {
	f := newTestFactory(t, newFakeExplorer())

	t.Run("invalid", func(t *testing.T) {
		cfg := testConfig(t)

		_, err := f.NewWallet(ctx, cfg, "elwpkh(notakey)")
		require.ErrorIs(t, err, domain.ErrInvalidDescriptor)

		xpub := strings.TrimSuffix(strings.Split(wpkhDescriptor(t, testMnemonic), "]")[1], "/<0;1>/*)")
		_, err = f.NewWallet(ctx, cfg, fmt.Sprintf("elsh(multi(1,%s))", xpub))
		require.ErrorIs(t, err, domain.ErrUnsupportedDescriptor)

		_, err = f.NewWallet(ctx, cfg, fmt.Sprintf("ct(notakey,elwpkh(%s/*))", xpub))
		require.ErrorIs(t, err, domain.ErrUnsupportedDescriptor)

		cfg.Network = "bitcoin"
		_, err = f.NewWallet(ctx, cfg, wpkhDescriptor(t, testMnemonic))
		require.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		descriptor := wpkhDescriptor(t, testMnemonic)
		w, err := f.NewWallet(ctx, testConfig(t), descriptor)
		require.NoError(t, err)
		defer w.Close()

		require.Equal(t, descriptor, w.Descriptor())
		require.Equal(t, []domain.Fingerprint{testFp}, w.Signers())
	})
}

func TestAddresses(t *testing.T) {
	f := newTestFactory(t, newFakeExplorer())
	sw := newSoftwareWallet(t, testMnemonic)
	descriptor := wpkhDescriptor(t, testMnemonic)
	body := strings.TrimPrefix(descriptor, "el")

	tests := []struct {
		name       string
		descriptor string
		prefix     string
	}{
		{"wpkh", descriptor, "ert1q"},
		{"shwpkh", fmt.Sprintf("elsh(%s)", body), "X"},
		{"elip151", fmt.Sprintf("ct(elip151,%s)", descriptor), "el1q"},
		{
			"slip77",
			fmt.Sprintf("ct(slip77(%x),%s)", sw.MasterBlindingKey(), descriptor),
			"el1q",
		},
		{
			"sortedmulti",
			fmt.Sprintf(
				"elwsh(sortedmulti(1,%s,%s))",
				strings.TrimSuffix(strings.TrimPrefix(descriptor, "elwpkh("), ")"),
				strings.TrimSuffix(strings.TrimPrefix(wpkhDescriptor(t, otherMnemonic), "elwpkh("), ")"),
			),
			"ert1q",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			w, err := f.NewWallet(ctx, testConfig(t), tt.descriptor)
			require.NoError(t, err)
			defer w.Close()

			index := uint32(3)
			addr, err := w.Address(ctx, &index)
			require.NoError(t, err)
			require.Equal(t, index, addr.Index)
			require.True(t, strings.HasPrefix(addr.Address, tt.prefix), addr.Address)

			script, err := address.ToOutputScript(addr.Address)
			require.NoError(t, err)
			require.Equal(t, externalScript(t, w.(*wallet), index), script)

			first, err := w.Address(ctx, nil)
			require.NoError(t, err)
			require.Zero(t, first.Index)
		})
	}

	t.Run("slip77 blinding key", func(t *testing.T) {
		w, err := f.NewWallet(ctx, testConfig(t), tests[3].descriptor)
		require.NoError(t, err)
		defer w.Close()

		addr, err := w.Address(ctx, nil)
		require.NoError(t, err)
		info, err := address.FromConfidential(addr.Address)
		require.NoError(t, err)

		_, expected, err := sw.DeriveBlindingKeyPair(externalScript(t, w.(*wallet), 0))
		require.NoError(t, err)
		require.Equal(t, expected.SerializeCompressed(), info.BlindingKey)
	})

	t.Run("non ranged descriptor", func(t *testing.T) {
		fixed := strings.Replace(descriptor, "/<0;1>/*", "/0/5", 1)
		w, err := f.NewWallet(ctx, testConfig(t), fixed)
		require.NoError(t, err)
		defer w.Close()

		zero := uint32(0)
		for _, index := range []*uint32{nil, &zero} {
			addr, err := w.Address(ctx, index)
			require.NoError(t, err)
			require.Zero(t, addr.Index)
			require.True(t, strings.HasPrefix(addr.Address, "ert1q"), addr.Address)
		}

		index := uint32(3)
		_, err = w.Address(ctx, &index)
		require.ErrorIs(t, err, domain.ErrIndexNotRanged)
	})
}

func TestSyncAndBalance(t *testing.T) {
	fake := newFakeExplorer()
	f := newTestFactory(t, fake)

	w, err := f.NewWallet(ctx, testConfig(t), wpkhDescriptor(t, testMnemonic))
	require.NoError(t, err)
	defer w.Close()
	fundWallet(t, fake, w.(*wallet))

	require.NoError(t, w.SyncTxs(ctx))

	balance, err := w.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{policyAsset: 60000, testAsset: 5000}, balance)

	addr, err := w.Address(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(3), addr.Index)

	// Only the confirmed tx is cached and it is not fetched again.
	count, err := w.(*wallet).cache.count()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
	require.Len(t, fake.fetched, 2)

	require.NoError(t, w.SyncTxs(ctx))
	require.Len(t, fake.fetched, 3)
}

func TestEmptyWalletBalance(t *testing.T) {
	f := newTestFactory(t, newFakeExplorer())
	w, err := f.NewWallet(ctx, testConfig(t), wpkhDescriptor(t, testMnemonic))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.SyncTxs(ctx))
	balance, err := w.Balance(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{policyAsset: 0}, balance)
}

func TestSendMany(t *testing.T) {
	fake := newFakeExplorer()
	f := newTestFactory(t, fake)

	w, err := f.NewWallet(ctx, testConfig(t), wpkhDescriptor(t, testMnemonic))
	require.NoError(t, err)
	defer w.Close()
	fundWallet(t, fake, w.(*wallet))
	require.NoError(t, w.SyncTxs(ctx))

	t.Run("invalid", func(t *testing.T) {
		negative := float64(-1)
		tests := []struct {
			name       string
			addressees []ports.Addressee
			feeRate    *float64
			err        error
		}{
			{"no addressees", nil, nil, domain.ErrInvalidAddressee},
			{"zero amount", []ports.Addressee{{Address: randomAddress(t)}}, nil, domain.ErrInvalidAddressee},
			{"bad address", []ports.Addressee{{Satoshi: 1000, Address: "notanaddress"}}, nil, domain.ErrInvalidAddressee},
			{"bad asset", []ports.Addressee{{Satoshi: 1000, Address: randomAddress(t), Asset: "ab"}}, nil, domain.ErrInvalidAddressee},
			{"bad fee rate", []ports.Addressee{{Satoshi: 1000, Address: randomAddress(t)}}, &negative, domain.ErrInvalidFeeRate},
			{"insufficient funds", []ports.Addressee{{Satoshi: 70000, Address: randomAddress(t)}}, nil, domain.ErrInsufficientFunds},
			{"insufficient asset", []ports.Addressee{{Satoshi: 6000, Address: randomAddress(t), Asset: testAsset}}, nil, domain.ErrInsufficientFunds},
		}
		for _, tt := range tests {
			_, err := w.SendMany(ctx, tt.addressees, tt.feeRate)
			require.ErrorIs(t, err, tt.err, tt.name)
		}
	})

	t.Run("valid", func(t *testing.T) {
		ptx, err := w.SendMany(ctx, []ports.Addressee{
			{Satoshi: 30000, Address: randomAddress(t)},
			{Satoshi: 2000, Address: randomAddress(t), Asset: testAsset},
		}, nil)
		require.NoError(t, err)

		// 2 recipients, 2 changes and the fee.
		require.Len(t, ptx.Inputs, 2)
		require.Len(t, ptx.Outputs, 5)

		var in, out, fee uint64
		for i := range ptx.Inputs {
			require.NotNil(t, ptx.Inputs[i].WitnessUtxo)
			require.Len(t, ptx.Inputs[i].Bip32Derivation, 1)
			value, err := elementsutil.ValueFromBytes(ptx.Inputs[i].WitnessUtxo.Value)
			require.NoError(t, err)
			in += value
		}
		for i := range ptx.Outputs {
			out += ptx.Outputs[i].Value
			if len(ptx.Outputs[i].Script) <= 0 {
				fee = ptx.Outputs[i].Value
			}
		}
		require.Equal(t, uint64(65000), in)
		require.Equal(t, in, out)
		require.Greater(t, fee, uint64(0))

		details, err := w.PsetDetails(ctx, ptx)
		require.NoError(t, err)
		require.Empty(t, details.FingerprintsHas)
		require.Equal(t, []domain.Fingerprint{testFp}, details.FingerprintsMissing)

		count, err := newSoftwareWallet(t, testMnemonic).SignPset(ptx)
		require.NoError(t, err)
		require.Equal(t, 2, count)

		details, err = w.PsetDetails(ctx, ptx)
		require.NoError(t, err)
		require.Equal(t, []domain.Fingerprint{testFp}, details.FingerprintsHas)
		require.Empty(t, details.FingerprintsMissing)

		tx, err := w.Finalize(ctx, ptx)
		require.NoError(t, err)
		require.Len(t, tx.Txid, 64)

		txid, err := w.Broadcast(ctx, tx)
		require.NoError(t, err)
		require.Equal(t, tx.Txid, txid)
		require.Len(t, fake.broadcasts, 1)
	})
}

func TestCombine(t *testing.T) {
	fake := newFakeExplorer()
	f := newTestFactory(t, fake)

	w, err := f.NewWallet(ctx, testConfig(t), wpkhDescriptor(t, testMnemonic))
	require.NoError(t, err)
	defer w.Close()
	fundWallet(t, fake, w.(*wallet))
	require.NoError(t, w.SyncTxs(ctx))

	ptx, err := w.SendMany(ctx, []ports.Addressee{
		{Satoshi: 10000, Address: randomAddress(t)},
	}, nil)
	require.NoError(t, err)

	unsigned := clonePset(t, ptx)
	signed := clonePset(t, ptx)
	count, err := newSoftwareWallet(t, testMnemonic).SignPset(signed)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	combined, err := w.Combine(ctx, []*psetv2.Pset{unsigned, signed})
	require.NoError(t, err)
	require.Len(t, combined.Inputs[0].PartialSigs, 1)

	_, err = w.Finalize(ctx, combined)
	require.NoError(t, err)

	other, err := w.SendMany(ctx, []ports.Addressee{
		{Satoshi: 20000, Address: randomAddress(t)},
	}, nil)
	require.NoError(t, err)
	_, err = w.Combine(ctx, []*psetv2.Pset{clonePset(t, ptx), other})
	require.ErrorIs(t, err, domain.ErrPsetMismatch)
}

func TestIssueAsset(t *testing.T) {
	fake := newFakeExplorer()
	f := newTestFactory(t, fake)

	w, err := f.NewWallet(ctx, testConfig(t), wpkhDescriptor(t, testMnemonic))
	require.NoError(t, err)
	defer w.Close()
	fundWallet(t, fake, w.(*wallet))
	require.NoError(t, w.SyncTxs(ctx))

	_, err = w.IssueAsset(ctx, ports.IssueArgs{})
	require.ErrorIs(t, err, domain.ErrInvalidAddressee)

	_, err = w.IssueAsset(ctx, ports.IssueArgs{SatoshiAsset: 1000, Contract: "{}"})
	require.ErrorIs(t, err, domain.ErrInvalidContract)

	ptx, err := w.IssueAsset(ctx, ports.IssueArgs{
		SatoshiAsset: 1000,
		SatoshiToken: 1,
	})
	require.NoError(t, err)
	// Change and fee, plus the issued asset and token.
	require.Len(t, ptx.Inputs, 1)
	require.Len(t, ptx.Outputs, 4)

	count, err := newSoftwareWallet(t, testMnemonic).SignPset(ptx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	_, err = w.Finalize(ctx, ptx)
	require.NoError(t, err)
}

func TestFeeAmount(t *testing.T) {
	require.Equal(t, uint64(26), feeAmount(255, 100))
	require.Equal(t, uint64(255), feeAmount(255, 1000))
	require.Equal(t, uint64(1), feeAmount(1, 100))
}

func clonePset(t *testing.T, ptx *psetv2.Pset) *psetv2.Pset {
	b64, err := ptx.ToBase64()
	require.NoError(t, err)
	clone, err := psetv2.NewPsetFromBase64(b64)
	require.NoError(t, err)
	return clone
}
