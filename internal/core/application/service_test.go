package application_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/walletd/internal/core/application"
	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/internal/core/ports"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/psetv2"
)

var (
	ctx = context.Background()

	fpA = domain.Fingerprint{0x73, 0xc5, 0xda, 0x0a}
	fpB = domain.Fingerprint{0x11, 0x22, 0x33, 0x44}
	fpC = domain.Fingerprint{0xde, 0xad, 0xbe, 0xef}
)

func newTestService(t *testing.T) (
	*application.Service, *mockWalletFactory, *mockSignerFactory,
) {
	walletFactory := &mockWalletFactory{}
	signerFactory := &mockSignerFactory{}
	svc, err := application.NewService(application.Config{
		Network:        &network.Regtest,
		Datadir:        t.TempDir(),
		ExplorerAddr:   "localhost:3001",
		ValidateDomain: true,
		Version:        "v0.0.0-test",
		WalletFactory:  walletFactory,
		SignerFactory:  signerFactory,
	})
	require.NoError(t, err)
	return svc, walletFactory, signerFactory
}

func newTestDescriptor(t *testing.T, seed byte) string {
	master, err := hdkeychain.NewMaster(
		bytes.Repeat([]byte{seed}, 32), &chaincfg.TestNet3Params,
	)
	require.NoError(t, err)
	xpub, err := master.Neuter()
	require.NoError(t, err)
	return fmt.Sprintf("ct(elip151,elwpkh([%s/84h/1h/0h]%s/<0;1>/*))", fpA, xpub)
}

func newMockWallet(descriptor string, signers ...domain.Fingerprint) *mockWallet {
	w := &mockWallet{}
	w.On("Descriptor").Return(descriptor)
	w.On("Signers").Return(signers)
	w.On("Close").Return(nil)
	return w
}

func loadWallet(
	t *testing.T, svc *application.Service, factory *mockWalletFactory,
	name string, w *mockWallet,
) {
	descriptor := w.Descriptor()
	factory.On("NewWallet", mock.Anything, mock.Anything, descriptor).Return(w, nil)
	res, err := svc.LoadWallet(ctx, rpcmodel.LoadWalletRequest{
		Name: name, Descriptor: descriptor,
	})
	require.NoError(t, err)
	require.Equal(t, name, res.Name)
}

func loadExternalSigner(
	t *testing.T, svc *application.Service, name string, fp domain.Fingerprint,
) {
	str := fp.String()
	res, err := svc.LoadSigner(ctx, rpcmodel.LoadSignerRequest{
		Name: name, Kind: application.SignerKindExternal, Fingerprint: &str,
	})
	require.NoError(t, err)
	require.Equal(t, str, res.Fingerprint)
	require.Nil(t, res.ID)
	require.Nil(t, res.Xpub)
}

func newTestPset(t *testing.T) string {
	script := append([]byte{0x00, 0x14}, make([]byte, 20)...)
	pset, err := psetv2.New(
		[]psetv2.InputArgs{{Txid: strings.Repeat("ab", 32), TxIndex: 0}},
		[]psetv2.OutputArgs{{
			Asset:  network.Regtest.AssetID,
			Amount: 1000,
			Script: script,
		}},
		nil,
	)
	require.NoError(t, err)
	b64, err := pset.ToBase64()
	require.NoError(t, err)
	return b64
}

func TestLoadWalletConflict(t *testing.T) {
	svc, factory, _ := newTestService(t)

	d1, d2 := newTestDescriptor(t, 1), newTestDescriptor(t, 2)
	loadWallet(t, svc, factory, "w", newMockWallet(d1, fpA))

	_, err := svc.LoadWallet(ctx, rpcmodel.LoadWalletRequest{Name: "w", Descriptor: d2})
	require.ErrorIs(t, err, domain.ErrNameAlreadyExists)
	require.Equal(t, application.KindConflict, application.KindOf(err))

	list, err := svc.ListWallets(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Equal(t, []rpcmodel.Wallet{{Descriptor: d1, Name: "w"}}, list.Wallets)
	factory.AssertNumberOfCalls(t, "NewWallet", 1)
}

func TestLoadWalletEngineFailure(t *testing.T) {
	svc, factory, _ := newTestService(t)

	factory.On("NewWallet", mock.Anything, mock.Anything, "elwpkh(notakey)").
		Return(nil, domain.ErrInvalidDescriptor)

	_, err := svc.LoadWallet(ctx, rpcmodel.LoadWalletRequest{
		Name: "w", Descriptor: "elwpkh(notakey)",
	})
	require.ErrorIs(t, err, domain.ErrInvalidDescriptor)
	require.Equal(t, application.KindParameter, application.KindOf(err))

	_, err = svc.LoadWallet(ctx, rpcmodel.LoadWalletRequest{Descriptor: "elwpkh(notakey)"})
	require.ErrorIs(t, err, domain.ErrEmptyName)

	list, err := svc.ListWallets(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Empty(t, list.Wallets)
}

func TestUnloadWalletNotFound(t *testing.T) {
	svc, factory, _ := newTestService(t)

	d := newTestDescriptor(t, 1)
	loadWallet(t, svc, factory, "w", newMockWallet(d, fpA))

	_, err := svc.UnloadWallet(ctx, rpcmodel.UnloadWalletRequest{Name: "other"})
	require.ErrorIs(t, err, domain.ErrNameNotFound)
	require.Equal(t, application.KindNotFound, application.KindOf(err))

	list, err := svc.ListWallets(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Len(t, list.Wallets, 1)
}

func TestWalletRoundTrip(t *testing.T) {
	svc, factory, _ := newTestService(t)

	d := newTestDescriptor(t, 1)
	w := newMockWallet(d, fpA)
	loadWallet(t, svc, factory, "w", w)

	list, err := svc.ListWallets(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Equal(t, []rpcmodel.Wallet{{Descriptor: d, Name: "w"}}, list.Wallets)

	res, err := svc.UnloadWallet(ctx, rpcmodel.UnloadWalletRequest{Name: "w"})
	require.NoError(t, err)
	require.Equal(t, rpcmodel.Wallet{Descriptor: d, Name: "w"}, res.Unloaded)
	w.AssertCalled(t, "Close")

	list, err = svc.ListWallets(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Empty(t, list.Wallets)
}

func TestConcurrentLoadWallet(t *testing.T) {
	svc, factory, _ := newTestService(t)

	d := newTestDescriptor(t, 1)
	factory.On("NewWallet", mock.Anything, mock.Anything, d).
		Return(newMockWallet(d, fpA), nil)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		loaded    int
		conflicts int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LoadWallet(ctx, rpcmodel.LoadWalletRequest{Name: "w", Descriptor: d})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				loaded++
				return
			}
			if errors.Is(err, domain.ErrNameAlreadyExists) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, loaded)
	require.Equal(t, 19, conflicts)
	factory.AssertNumberOfCalls(t, "NewWallet", 1)
}

func TestWalletDetails(t *testing.T) {
	t.Run("external signer", func(t *testing.T) {
		svc, factory, _ := newTestService(t)
		loadWallet(t, svc, factory, "w", newMockWallet(newTestDescriptor(t, 1), fpA))
		loadExternalSigner(t, svc, "s", fpA)

		res, err := svc.WalletDetails(ctx, rpcmodel.WalletDetailsRequest{Name: "w"})
		require.NoError(t, err)
		require.Equal(t, "wpkh", res.Type)
		require.Len(t, res.Signers, 1)
		require.NotNil(t, res.Signers[0].Name)
		require.Equal(t, "s", *res.Signers[0].Name)
		require.Equal(t, fpA.String(), res.Signers[0].Fingerprint)
		require.Empty(t, res.Warnings)
	})

	t.Run("signer not loaded", func(t *testing.T) {
		svc, factory, _ := newTestService(t)
		loadWallet(t, svc, factory, "w", newMockWallet(newTestDescriptor(t, 1), fpB))
		loadExternalSigner(t, svc, "s", fpA)

		res, err := svc.WalletDetails(ctx, rpcmodel.WalletDetailsRequest{Name: "w"})
		require.NoError(t, err)
		require.Nil(t, res.Signers[0].Name)
		require.NotEmpty(t, res.Warnings)
		require.Contains(t, res.Warnings, fpB.String())
	})

	t.Run("duplicate loaded signers", func(t *testing.T) {
		svc, factory, _ := newTestService(t)
		loadWallet(t, svc, factory, "w", newMockWallet("elwsh(multi(2,...))", fpA, fpC))
		loadExternalSigner(t, svc, "a", fpA)
		loadExternalSigner(t, svc, "b", fpA)
		loadExternalSigner(t, svc, "c", fpC)

		for i := 0; i < 2; i++ {
			res, err := svc.WalletDetails(ctx, rpcmodel.WalletDetailsRequest{Name: "w"})
			require.NoError(t, err)
			require.Equal(t, "unknown", res.Type)
			require.Equal(t, domain.WarningDuplicateLoadedSigners, res.Warnings)
			require.Nil(t, res.Signers[0].Name)
			require.Equal(t, fpA.String(), res.Signers[0].Fingerprint)
			require.Equal(t, "c", *res.Signers[1].Name)
		}
	})

	t.Run("duplicate wallet and loaded signers", func(t *testing.T) {
		svc, factory, _ := newTestService(t)
		loadWallet(t, svc, factory, "w", newMockWallet("elwsh(multi(2,...))", fpA, fpA))
		loadExternalSigner(t, svc, "a", fpA)
		loadExternalSigner(t, svc, "b", fpA)

		res, err := svc.WalletDetails(ctx, rpcmodel.WalletDetailsRequest{Name: "w"})
		require.NoError(t, err)
		require.Equal(t, domain.WarningDuplicateWalletSigners, res.Warnings)
		require.Len(t, res.Signers, 2)
		require.Nil(t, res.Signers[0].Name)
		require.Nil(t, res.Signers[1].Name)
	})

	t.Run("duplicate wallet signers", func(t *testing.T) {
		svc, factory, _ := newTestService(t)
		w := newMockWallet(newTestDescriptor(t, 1), fpA, fpA)
		loadWallet(t, svc, factory, "w", w)
		loadExternalSigner(t, svc, "a", fpA)

		res, err := svc.WalletDetails(ctx, rpcmodel.WalletDetailsRequest{Name: "w"})
		require.NoError(t, err)
		require.Equal(t, domain.WarningDuplicateWalletSigners, res.Warnings)

		w.On("PsetDetails", mock.Anything, mock.Anything).Return(&ports.PsetDetails{
			FingerprintsHas: []domain.Fingerprint{fpA},
		}, nil)
		details, err := svc.WalletPsetDetails(ctx, rpcmodel.WalletPsetDetailsRequest{
			Name: "w", Pset: newTestPset(t),
		})
		require.NoError(t, err)
		require.Empty(t, details.Warnings)
	})

	t.Run("wallet not found", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.WalletDetails(ctx, rpcmodel.WalletDetailsRequest{Name: "w"})
		require.Equal(t, application.KindNotFound, application.KindOf(err))
	})
}

func TestWalletPsetDetails(t *testing.T) {
	svc, factory, _ := newTestService(t)

	w := newMockWallet("elwsh(multi(2,...))", fpA, fpB, fpC)
	w.On("PsetDetails", mock.Anything, mock.Anything).Return(&ports.PsetDetails{
		FingerprintsHas:     []domain.Fingerprint{fpA},
		FingerprintsMissing: []domain.Fingerprint{fpB, fpC},
	}, nil)
	loadWallet(t, svc, factory, "w", w)
	loadExternalSigner(t, svc, "a", fpA)
	loadExternalSigner(t, svc, "b1", fpB)
	loadExternalSigner(t, svc, "b2", fpB)

	res, err := svc.WalletPsetDetails(ctx, rpcmodel.WalletPsetDetailsRequest{
		Name: "w", Pset: newTestPset(t),
	})
	require.NoError(t, err)
	require.Len(t, res.HasSignaturesFrom, 1)
	require.Equal(t, "a", *res.HasSignaturesFrom[0].Name)
	require.Len(t, res.MissingSignaturesFrom, 2)
	require.Nil(t, res.MissingSignaturesFrom[0].Name)
	require.Equal(t, fpB.String(), res.MissingSignaturesFrom[0].Fingerprint)
	require.Nil(t, res.MissingSignaturesFrom[1].Name)
	require.Equal(t, 1, strings.Count(res.Warnings, domain.WarningDuplicateLoadedSigners))
	require.Contains(t, res.Warnings, fpC.String())

	_, err = svc.WalletPsetDetails(ctx, rpcmodel.WalletPsetDetailsRequest{
		Name: "w", Pset: "notapset",
	})
	require.ErrorIs(t, err, application.ErrInvalidPset)
	require.Equal(t, application.KindParameter, application.KindOf(err))
}

func TestLoadSigner(t *testing.T) {
	svc, _, signerFactory := newTestService(t)

	mnemonic := "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	signer := &mockSigner{}
	signer.On("Fingerprint").Return(fpA, nil)
	signer.On("Identifier").Return("73c5da0a7f0d3bd2f8ee6c9c8b3a3d1c0b5c6f01", nil)
	signer.On("Xpub").Return("tpubD6NzVbkrYhZ4", nil)
	signer.On("Close").Return(nil)
	signerFactory.On("NewSoftwareSigner", mnemonic, false).Return(signer, nil)

	res, err := svc.LoadSigner(ctx, rpcmodel.LoadSignerRequest{
		Name: "sw", Kind: application.SignerKindSoftware, Mnemonic: &mnemonic,
	})
	require.NoError(t, err)
	require.Equal(t, fpA.String(), res.Fingerprint)
	require.NotNil(t, res.ID)
	require.NotNil(t, res.Xpub)

	loadExternalSigner(t, svc, "ext", fpB)

	list, err := svc.ListSigners(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Len(t, list.Signers, 2)
	require.Equal(t, "ext", list.Signers[0].Name)
	require.Nil(t, list.Signers[0].Xpub)
	require.Equal(t, "sw", list.Signers[1].Name)

	unloaded, err := svc.UnloadSigner(ctx, rpcmodel.UnloadSignerRequest{Name: "sw"})
	require.NoError(t, err)
	require.Equal(t, *res, unloaded.Unloaded)
	signer.AssertCalled(t, "Close")

	_, err = svc.UnloadSigner(ctx, rpcmodel.UnloadSignerRequest{Name: "sw"})
	require.Equal(t, application.KindNotFound, application.KindOf(err))
}

func TestFailingLoadSigner(t *testing.T) {
	svc, _, _ := newTestService(t)
	loadExternalSigner(t, svc, "ext", fpA)

	badFingerprint := "xyz"
	fingerprint := fpB.String()
	tests := []struct {
		name        string
		req         rpcmodel.LoadSignerRequest
		expectedErr error
		kind        application.ErrorKind
	}{
		{
			name:        "invalid kind",
			req:         rpcmodel.LoadSignerRequest{Name: "s", Kind: "hardware"},
			expectedErr: application.ErrInvalidSignerKind,
			kind:        application.KindParameter,
		},
		{
			name:        "missing mnemonic",
			req:         rpcmodel.LoadSignerRequest{Name: "s", Kind: application.SignerKindSoftware},
			expectedErr: application.ErrMissingMnemonic,
			kind:        application.KindParameter,
		},
		{
			name:        "missing fingerprint",
			req:         rpcmodel.LoadSignerRequest{Name: "s", Kind: application.SignerKindExternal},
			expectedErr: application.ErrMissingFingerprint,
			kind:        application.KindParameter,
		},
		{
			name: "invalid fingerprint",
			req: rpcmodel.LoadSignerRequest{
				Name: "s", Kind: application.SignerKindExternal, Fingerprint: &badFingerprint,
			},
			expectedErr: domain.ErrInvalidFingerprint,
			kind:        application.KindParameter,
		},
		{
			name: "name conflict",
			req: rpcmodel.LoadSignerRequest{
				Name: "ext", Kind: application.SignerKindExternal, Fingerprint: &fingerprint,
			},
			expectedErr: domain.ErrNameAlreadyExists,
			kind:        application.KindConflict,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.LoadSigner(ctx, tt.req)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Equal(t, tt.kind, application.KindOf(err))
		})
	}

	list, err := svc.ListSigners(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Len(t, list.Signers, 1)
}

func TestSign(t *testing.T) {
	svc, _, signerFactory := newTestService(t)
	loadExternalSigner(t, svc, "ext", fpA)

	pset := newTestPset(t)

	t.Run("external signer", func(t *testing.T) {
		req := rpcmodel.SignRequest{Name: "ext", Pset: pset}
		_, err := svc.Sign(ctx, req)
		require.ErrorIs(t, err, application.ErrSignerNotAvailable)
		require.Equal(t, application.KindParameter, application.KindOf(err))
		require.Equal(t, pset, req.Pset)

		_, err = svc.Sign(ctx, rpcmodel.SignRequest{Name: "ext", Pset: "notapset"})
		require.ErrorIs(t, err, application.ErrSignerNotAvailable)

		_, err = svc.Xpub(ctx, rpcmodel.XpubRequest{Name: "ext", XpubKind: "bip84"})
		require.ErrorIs(t, err, application.ErrSignerNotAvailable)

		_, err = svc.SinglesigDescriptor(ctx, rpcmodel.SinglesigDescriptorRequest{
			Name: "ext", DescriptorBlindingKey: "elip151", SinglesigKind: "wpkh",
		})
		require.ErrorIs(t, err, application.ErrSignerNotAvailable)
	})

	t.Run("available signer", func(t *testing.T) {
		mnemonic := "test mnemonic"
		signer := &mockSigner{}
		signer.On("Fingerprint").Return(fpB, nil)
		signer.On("Identifier").Return("id", nil)
		signer.On("Xpub").Return("xpub", nil)
		signer.On("Sign", mock.Anything, mock.Anything).Return(1, nil)
		signerFactory.On("NewSoftwareSigner", mnemonic, false).Return(signer, nil)

		_, err := svc.LoadSigner(ctx, rpcmodel.LoadSignerRequest{
			Name: "sw", Kind: application.SignerKindSoftware, Mnemonic: &mnemonic,
		})
		require.NoError(t, err)

		res, err := svc.Sign(ctx, rpcmodel.SignRequest{Name: "sw", Pset: pset})
		require.NoError(t, err)
		signed, err := psetv2.NewPsetFromBase64(res.Pset)
		require.NoError(t, err)
		require.Len(t, signed.Inputs, 1)
		signer.AssertNumberOfCalls(t, "Sign", 1)

		_, err = svc.Sign(ctx, rpcmodel.SignRequest{Name: "sw", Pset: "notapset"})
		require.ErrorIs(t, err, application.ErrInvalidPset)
		signer.AssertNumberOfCalls(t, "Sign", 1)
	})

	t.Run("signer not found", func(t *testing.T) {
		_, err := svc.Sign(ctx, rpcmodel.SignRequest{Name: "missing", Pset: pset})
		require.Equal(t, application.KindNotFound, application.KindOf(err))
	})
}

func TestBroadcast(t *testing.T) {
	svc, factory, _ := newTestService(t)

	tx := &ports.Transaction{Txid: strings.Repeat("cd", 32), Hex: "00"}
	w := newMockWallet(newTestDescriptor(t, 1), fpA)
	w.On("Finalize", mock.Anything, mock.Anything).Return(tx, nil)
	w.On("Broadcast", mock.Anything, tx).Return(tx.Txid, nil)
	loadWallet(t, svc, factory, "w", w)

	pset := newTestPset(t)

	dryRun, err := svc.Broadcast(ctx, rpcmodel.BroadcastRequest{
		Name: "w", Pset: pset, DryRun: true,
	})
	require.NoError(t, err)
	w.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)

	res, err := svc.Broadcast(ctx, rpcmodel.BroadcastRequest{Name: "w", Pset: pset})
	require.NoError(t, err)
	w.AssertNumberOfCalls(t, "Broadcast", 1)

	require.Equal(t, tx.Txid, dryRun.Txid)
	require.Equal(t, res.Txid, dryRun.Txid)

	_, err = svc.Broadcast(ctx, rpcmodel.BroadcastRequest{Name: "w", Pset: "notapset"})
	require.Equal(t, application.KindParameter, application.KindOf(err))
}

func TestSyncingMethods(t *testing.T) {
	svc, factory, _ := newTestService(t)

	index := uint32(3)
	w := newMockWallet(newTestDescriptor(t, 1), fpA)
	w.On("SyncTxs", mock.Anything).Return(nil)
	w.On("Address", mock.Anything, &index).Return(ports.AddressInfo{
		Address: "el1qq", Index: 3,
	}, nil)
	w.On("Balance", mock.Anything).Return(map[string]uint64{
		network.Regtest.AssetID: 1000,
	}, nil)
	loadWallet(t, svc, factory, "w", w)

	addr, err := svc.Address(ctx, rpcmodel.AddressRequest{Name: "w", Index: &index})
	require.NoError(t, err)
	require.Equal(t, uint32(3), addr.Index)

	balance, err := svc.Balance(ctx, rpcmodel.BalanceRequest{Name: "w"})
	require.NoError(t, err)
	require.Equal(t, uint64(1000), balance.Balance[network.Regtest.AssetID])

	w.AssertNumberOfCalls(t, "SyncTxs", 2)

	failing := newMockWallet(newTestDescriptor(t, 2), fpB)
	failing.On("SyncTxs", mock.Anything).Return(errors.New("explorer unreachable"))
	loadWallet(t, svc, factory, "failing", failing)

	_, err = svc.Balance(ctx, rpcmodel.BalanceRequest{Name: "failing"})
	require.Error(t, err)
	require.Equal(t, application.KindUpstream, application.KindOf(err))
	failing.AssertNotCalled(t, "Balance", mock.Anything)
}

func TestPureMethods(t *testing.T) {
	svc, _, signerFactory := newTestService(t)

	version, err := svc.Version(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Equal(t, "v0.0.0-test", version.Version)

	signerFactory.On("NewMnemonic").Return("twelve words", nil)
	gen, err := svc.GenerateSigner(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Equal(t, "twelve words", gen.Mnemonic)

	list, err := svc.ListSigners(ctx, rpcmodel.Empty{})
	require.NoError(t, err)
	require.Empty(t, list.Signers)

	schema, err := svc.Schema(ctx, rpcmodel.SchemaRequest{
		Method: "balance", Direction: rpcmodel.DirectionRequest,
	})
	require.NoError(t, err)
	require.Equal(t, []interface{}{"name"}, (*schema)["required"])

	_, err = svc.Schema(ctx, rpcmodel.SchemaRequest{
		Method: "nope", Direction: rpcmodel.DirectionRequest,
	})
	require.Equal(t, application.KindParameter, application.KindOf(err))

	c, err := svc.Contract(ctx, rpcmodel.ContractRequest{
		Domain:       "tether.to",
		IssuerPubkey: "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		Name:         "Tether USD",
		Precision:    8,
		Ticker:       "USDt",
	})
	require.NoError(t, err)
	require.Equal(t, "tether.to", c.Entity.Domain)

	_, err = svc.Contract(ctx, rpcmodel.ContractRequest{Domain: "tether.to"})
	require.ErrorIs(t, err, domain.ErrInvalidContract)

	asset, err := svc.AssetDetails(ctx, rpcmodel.AssetDetailsRequest{
		AssetID: network.Regtest.AssetID,
	})
	require.NoError(t, err)
	require.Equal(t, "liquid bitcoin", asset.Name)

	_, err = svc.AssetDetails(ctx, rpcmodel.AssetDetailsRequest{
		AssetID: strings.Repeat("00", 32),
	})
	require.Equal(t, application.KindNotFound, application.KindOf(err))

	_, err = svc.Stop(ctx, rpcmodel.Empty{})
	require.ErrorIs(t, err, application.ErrStop)
	require.Equal(t, application.KindStop, application.KindOf(err))
}

func TestMultisigDescriptor(t *testing.T) {
	svc, _, _ := newTestService(t)

	master, err := hdkeychain.NewMaster(bytes.Repeat([]byte{7}, 32), &chaincfg.TestNet3Params)
	require.NoError(t, err)
	xpub, err := master.Neuter()
	require.NoError(t, err)
	key := fmt.Sprintf("[%s/87h/1h/0h]%s", fpA, xpub)

	res, err := svc.MultisigDescriptor(ctx, rpcmodel.MultisigDescriptorRequest{
		DescriptorBlindingKey: "elip151",
		MultisigKind:          "wsh",
		Threshold:             1,
		KeyoriginXpubs:        []string{key, key},
	})
	require.NoError(t, err)
	require.Equal(t, "wsh_multi_1of2", domain.ClassifyDescriptor(res.Descriptor).String())

	_, err = svc.MultisigDescriptor(ctx, rpcmodel.MultisigDescriptorRequest{
		DescriptorBlindingKey: "slip77",
		MultisigKind:          "wsh",
		Threshold:             1,
		KeyoriginXpubs:        []string{key},
	})
	require.ErrorIs(t, err, domain.ErrMultisigSlip77)
	require.Equal(t, application.KindParameter, application.KindOf(err))
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		kind application.ErrorKind
	}{
		{fmt.Errorf("%w: w", domain.ErrNameNotFound), application.KindNotFound},
		{fmt.Errorf("%w: w", domain.ErrNameAlreadyExists), application.KindConflict},
		{domain.ErrInvalidFingerprint, application.KindParameter},
		{fmt.Errorf("%w: got 3", domain.ErrIndexNotRanged), application.KindParameter},
		{application.ErrAlreadyStarted, application.KindLifecycle},
		{application.ErrNotStarted, application.KindLifecycle},
		{application.ErrStop, application.KindStop},
		{errors.New("connection refused"), application.KindUpstream},
		{&application.Error{Kind: application.KindConflict, Err: errors.New("x")}, application.KindConflict},
	}
	for _, tt := range tests {
		require.Equal(t, tt.kind, application.KindOf(tt.err), tt.err.Error())
	}
}
