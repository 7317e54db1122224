package domain

import (
	"fmt"
	"strings"
)

const (
	// WarningDuplicateWalletSigners is reported when a wallet descriptor lists
	// the same fingerprint more than once.
	WarningDuplicateWalletSigners = "wallet has multiple signers with the same fingerprint"
	// WarningDuplicateLoadedSigners is reported when more than one loaded
	// signer share a fingerprint that had to be resolved.
	WarningDuplicateLoadedSigners = "multiple loaded signers share the same fingerprint"
)

// NamedFingerprint is a loaded signer name along with its fingerprint.
type NamedFingerprint struct {
	Name        string
	Fingerprint Fingerprint
}

// FingerprintResolver resolves fingerprints to loaded signer names and
// collects the warnings raised while doing so. A resolver is meant to live
// for a single request.
type FingerprintResolver struct {
	names    map[Fingerprint][]string
	warnings []string

	duplicateReported bool
}

// NewFingerprintResolver builds a resolver from a snapshot of the loaded
// signers, expected to be sorted by name.
func NewFingerprintResolver(signers []NamedFingerprint) *FingerprintResolver {
	names := make(map[Fingerprint][]string)
	for _, s := range signers {
		names[s.Fingerprint] = append(names[s.Fingerprint], s.Name)
	}
	return &FingerprintResolver{names: names}
}

// Resolve returns the name of the only loaded signer with the given
// fingerprint. It returns nil if no signer matches, or if several do since
// none of them can be told apart. A collision is reported with a single
// duplicate warning for the lifetime of the resolver.
func (r *FingerprintResolver) Resolve(fp Fingerprint) *string {
	names := r.names[fp]
	switch len(names) {
	case 0:
		r.AddWarning(fmt.Sprintf("signer with fingerprint %s is not loaded", fp))
		return nil
	case 1:
		name := names[0]
		return &name
	default:
		r.AddDuplicateWarning(WarningDuplicateLoadedSigners)
		return nil
	}
}

// AddDuplicateWarning records the given duplicate fingerprints warning
// unless one was already recorded, either by this method or by Resolve.
func (r *FingerprintResolver) AddDuplicateWarning(warning string) {
	if r.duplicateReported {
		return
	}
	r.duplicateReported = true
	r.AddWarning(warning)
}

// AddWarning appends a warning to the ones collected so far.
func (r *FingerprintResolver) AddWarning(warning string) {
	r.warnings = append(r.warnings, warning)
}

// Warnings returns the collected warnings.
func (r *FingerprintResolver) Warnings() []string {
	return append([]string{}, r.warnings...)
}

// JoinedWarnings returns the collected warnings as a single string.
func (r *FingerprintResolver) JoinedWarnings() string {
	return strings.Join(r.warnings, ", ")
}

// HasUniqueFingerprints returns whether the given list has no repetitions.
func HasUniqueFingerprints(fps []Fingerprint) bool {
	seen := make(map[Fingerprint]struct{}, len(fps))
	for _, fp := range fps {
		if _, ok := seen[fp]; ok {
			return false
		}
		seen[fp] = struct{}{}
	}
	return true
}
