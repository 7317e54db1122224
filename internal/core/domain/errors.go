package domain

import "errors"

var (
	// ErrNameAlreadyExists is returned when inserting an entry under a name
	// that is already registered.
	ErrNameAlreadyExists = errors.New("name already exists")
	// ErrNameNotFound is returned when looking up or removing a name that is
	// not registered.
	ErrNameNotFound = errors.New("name not found")
	// ErrEmptyName ...
	ErrEmptyName = errors.New("name must not be empty")

	// ErrInvalidFingerprint ...
	ErrInvalidFingerprint = errors.New("fingerprint must be a 4 bytes hex string")

	// ErrInvalidDescriptor ...
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	// ErrUnsupportedDescriptor is returned for descriptors that are valid
	// but that the wallet engine is not able to handle.
	ErrUnsupportedDescriptor = errors.New("unsupported descriptor")
	// ErrInvalidKeyOriginXpub ...
	ErrInvalidKeyOriginXpub = errors.New("invalid key origin xpub")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")

	// ErrInvalidSinglesigVariant ...
	ErrInvalidSinglesigVariant = errors.New(
		"invalid singlesig variant, valid values are: wpkh, shwpkh",
	)
	// ErrInvalidMultisigVariant ...
	ErrInvalidMultisigVariant = errors.New(
		"invalid multisig variant, valid values are: wsh",
	)
	// ErrInvalidBlindingKeyVariant ...
	ErrInvalidBlindingKeyVariant = errors.New(
		"invalid blinding key variant, valid values are: slip77, slip77-rand, elip151",
	)
	// ErrInvalidBipVariant ...
	ErrInvalidBipVariant = errors.New(
		"invalid bip variant, valid values are: bip84, bip49, bip87",
	)
	// ErrInvalidThreshold ...
	ErrInvalidThreshold = errors.New(
		"threshold must be greater than 0 and not greater than the number of xpubs",
	)
	// ErrMultisigSlip77 ...
	ErrMultisigSlip77 = errors.New("multisig cannot use slip77 blinding key")
	// ErrSlip77RandSinglesig ...
	ErrSlip77RandSinglesig = errors.New(
		"singlesig descriptors cannot use a random slip77 blinding key",
	)

	// ErrInvalidContract wraps every contract validation failure.
	ErrInvalidContract = errors.New("invalid contract")

	// ErrAssetNotFound ...
	ErrAssetNotFound = errors.New("asset not found")
	// ErrInvalidAddressee is returned for recipients with an invalid address
	// or amount.
	ErrInvalidAddressee = errors.New("invalid addressee")
	// ErrInvalidFeeRate ...
	ErrInvalidFeeRate = errors.New("fee rate must be positive")
	// ErrPsetMismatch is returned when combining psets of different
	// transactions.
	ErrPsetMismatch = errors.New("psets refer to different transactions")
	// ErrInsufficientFunds ...
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrIndexNotRanged is returned when deriving a non-zero index from a
	// descriptor without wildcards.
	ErrIndexNotRanged = errors.New("descriptor is not ranged, address index must be 0")
	// ErrInvalidAssetID ...
	ErrInvalidAssetID = errors.New("asset id must be a 32 bytes hex string")
)
