package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/btcsuite/btcd/btcec/v2"
)

const (
	maxContractPrecision = 8
	maxContractNameLen   = 255
	maxDomainLen         = 255
	maxDomainLabelLen    = 63
)

var tickerRgx = regexp.MustCompile(`^[a-zA-Z0-9.\-]{3,24}$`)

// ContractEntity identifies the issuer of an asset.
type ContractEntity struct {
	Domain string `json:"domain"`
}

// Contract is the asset contract committed in an issuance. Fields are
// declared in lexicographic order so that the JSON encoding is canonical.
type Contract struct {
	Entity       ContractEntity `json:"entity"`
	IssuerPubkey string         `json:"issuer_pubkey"`
	Name         string         `json:"name"`
	Precision    uint8          `json:"precision"`
	Ticker       string         `json:"ticker"`
	Version      uint8          `json:"version"`
}

// NewContract builds and validates a contract.
func NewContract(
	domain, issuerPubkey, name string, precision uint8, ticker string, version uint8,
) (*Contract, error) {
	c := &Contract{
		Entity:       ContractEntity{domain},
		IssuerPubkey: issuerPubkey,
		Name:         name,
		Precision:    precision,
		Ticker:       ticker,
		Version:      version,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseContract decodes and validates a contract in JSON format.
func ParseContract(str string) (*Contract, error) {
	c := &Contract{}
	if err := json.Unmarshal([]byte(str), c); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidContract, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the contract against the registry rules.
func (c *Contract) Validate() error {
	if c.Version != 0 {
		return fmt.Errorf("%w: version must be 0", ErrInvalidContract)
	}
	if c.Precision > maxContractPrecision {
		return fmt.Errorf(
			"%w: precision must be in range [0, %d]", ErrInvalidContract, maxContractPrecision,
		)
	}
	if len(c.Name) == 0 || len(c.Name) > maxContractNameLen {
		return fmt.Errorf(
			"%w: name length must be in range [1, %d]", ErrInvalidContract, maxContractNameLen,
		)
	}
	if !isASCII(c.Name) {
		return fmt.Errorf("%w: name must be ascii", ErrInvalidContract)
	}
	if !tickerRgx.MatchString(c.Ticker) {
		return fmt.Errorf(
			"%w: ticker must be 3 to 24 chars among a-z A-Z 0-9 . -", ErrInvalidContract,
		)
	}
	if err := validateDomain(c.Entity.Domain); err != nil {
		return err
	}

	pubkey, err := hex.DecodeString(c.IssuerPubkey)
	if err != nil {
		return fmt.Errorf("%w: issuer pubkey must be hex encoded", ErrInvalidContract)
	}
	if _, err := btcec.ParsePubKey(pubkey); err != nil || len(pubkey) != 33 {
		return fmt.Errorf(
			"%w: issuer pubkey must be a valid compressed public key", ErrInvalidContract,
		)
	}
	return nil
}

// Hash returns the sha256 of the canonical JSON serialization.
func (c *Contract) Hash() ([]byte, error) {
	buf, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(buf)
	return hash[:], nil
}

func validateDomain(domain string) error {
	if domain == "" || len(domain) > maxDomainLen || !isASCII(domain) {
		return fmt.Errorf("%w: invalid domain", ErrInvalidContract)
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return fmt.Errorf("%w: domain must have at least two labels", ErrInvalidContract)
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > maxDomainLabelLen {
			return fmt.Errorf("%w: invalid domain label length", ErrInvalidContract)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("%w: domain labels cannot start or end with -", ErrInvalidContract)
		}
		for _, r := range label {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
				return fmt.Errorf("%w: invalid char in domain", ErrInvalidContract)
			}
		}
	}
	return nil
}

func isASCII(str string) bool {
	for _, r := range str {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
