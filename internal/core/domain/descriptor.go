package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// ScriptKind is the output script template of a descriptor.
type ScriptKind int

const (
	ScriptUnknown ScriptKind = iota
	ScriptWpkh
	ScriptShWpkh
	ScriptWshMulti
	ScriptWshSortedMulti
)

// KeyOrigin is the [fingerprint/path] prefix of a descriptor key.
type KeyOrigin struct {
	Fingerprint Fingerprint
	Path        DerivationPath
}

// DescriptorKey is a single key expression of a descriptor.
type DescriptorKey struct {
	Origin *KeyOrigin
	// Key is either an extended public key or a hex encoded compressed
	// public key.
	Key string
	// Path are the fixed unhardened steps following the extended key.
	Path DerivationPath
	// Multipath holds the alternatives of a <a;b> step, the first one is
	// the external chain, the second one the internal chain.
	Multipath []uint32
	Wildcard  bool
}

// IsExtended returns whether the key is an extended public key.
func (k DescriptorKey) IsExtended() bool {
	return !isHexPubKey(k.Key)
}

// MasterFingerprint returns the fingerprint of the origin if present,
// otherwise the fingerprint of the key itself.
func (k DescriptorKey) MasterFingerprint() (Fingerprint, error) {
	if k.Origin != nil {
		return k.Origin.Fingerprint, nil
	}
	pubkey, err := k.rootPubKey()
	if err != nil {
		return Fingerprint{}, err
	}
	return FingerprintFromPubKey(pubkey.SerializeCompressed()), nil
}

// Derive returns the public key for the given chain and index, along with
// the full derivation path from the master key (when an origin is known).
func (k DescriptorKey) Derive(chain, index uint32) (*btcec.PublicKey, DerivationPath, error) {
	if !k.IsExtended() {
		pubkey, err := k.rootPubKey()
		if err != nil {
			return nil, nil, err
		}
		return pubkey, k.originPath(), nil
	}

	xpub, err := hdkeychain.NewKeyFromString(k.Key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidDescriptor, err)
	}

	steps := append(DerivationPath{}, k.Path...)
	if len(k.Multipath) > 0 {
		if int(chain) >= len(k.Multipath) {
			return nil, nil, fmt.Errorf("chain %d not available for key %s", chain, k.Key)
		}
		steps = append(steps, k.Multipath[chain])
	}
	if k.Wildcard {
		steps = append(steps, index)
	}

	for _, step := range steps {
		if xpub, err = xpub.Derive(step); err != nil {
			return nil, nil, err
		}
	}
	pubkey, err := xpub.ECPubKey()
	if err != nil {
		return nil, nil, err
	}
	return pubkey, append(k.originPath(), steps...), nil
}

func (k DescriptorKey) originPath() DerivationPath {
	if k.Origin == nil {
		return DerivationPath{}
	}
	return append(DerivationPath{}, k.Origin.Path...)
}

func (k DescriptorKey) rootPubKey() (*btcec.PublicKey, error) {
	if !k.IsExtended() {
		buf, _ := hex.DecodeString(k.Key)
		return btcec.ParsePubKey(buf)
	}
	xpub, err := hdkeychain.NewKeyFromString(k.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDescriptor, err)
	}
	return xpub.ECPubKey()
}

// Descriptor is the parsed form of a (confidential) output descriptor.
type Descriptor struct {
	// BlindingKey is the first argument of ct(), empty for non confidential
	// descriptors.
	BlindingKey string
	Kind        ScriptKind
	Threshold   int
	Keys        []DescriptorKey
	raw         string
}

// ParseDescriptor parses descriptors in the forms
//
//	[ct(<blinding key>,]<script>[)][#checksum]
//
// where script is one of (el)wpkh(KEY), (el)sh(wpkh(KEY)),
// (el)wsh(multi(k,KEY,...)) or (el)wsh(sortedmulti(k,KEY,...)).
// Any other well formed script expression is returned with ScriptUnknown.
func ParseDescriptor(str string) (*Descriptor, error) {
	raw := strings.TrimSpace(str)
	body := raw
	if i := strings.LastIndex(body, "#"); i >= 0 {
		body = body[:i]
	}
	if body == "" {
		return nil, fmt.Errorf("%w: empty descriptor", ErrInvalidDescriptor)
	}

	desc := &Descriptor{raw: raw}

	name, args, err := splitExpression(body)
	if err != nil {
		return nil, err
	}
	if name == "ct" {
		parts := splitArgs(args)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf(
				"%w: ct() requires a blinding key and a script", ErrInvalidDescriptor,
			)
		}
		desc.BlindingKey = parts[0]
		if name, args, err = splitExpression(parts[1]); err != nil {
			return nil, err
		}
	}

	switch strings.TrimPrefix(name, "el") {
	case "wpkh":
		key, err := parseDescriptorKey(args)
		if err != nil {
			return nil, err
		}
		desc.Kind = ScriptWpkh
		desc.Keys = []DescriptorKey{key}
	case "sh":
		innerName, innerArgs, err := splitExpression(args)
		if err != nil {
			return nil, err
		}
		if innerName != "wpkh" {
			return desc, nil
		}
		key, err := parseDescriptorKey(innerArgs)
		if err != nil {
			return nil, err
		}
		desc.Kind = ScriptShWpkh
		desc.Keys = []DescriptorKey{key}
	case "wsh":
		innerName, innerArgs, err := splitExpression(args)
		if err != nil {
			return nil, err
		}
		switch innerName {
		case "multi":
			desc.Kind = ScriptWshMulti
		case "sortedmulti":
			desc.Kind = ScriptWshSortedMulti
		default:
			return desc, nil
		}
		if err := desc.parseMulti(innerArgs); err != nil {
			return nil, err
		}
	}

	return desc, nil
}

func (d *Descriptor) parseMulti(args string) error {
	parts := splitArgs(args)
	if len(parts) < 2 {
		return fmt.Errorf("%w: multi requires a threshold and keys", ErrInvalidDescriptor)
	}
	threshold, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("%w: invalid threshold %s", ErrInvalidDescriptor, parts[0])
	}
	keys := make([]DescriptorKey, 0, len(parts)-1)
	for _, p := range parts[1:] {
		key, err := parseDescriptorKey(p)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	if threshold < 1 || threshold > len(keys) {
		return fmt.Errorf(
			"%w: threshold %d out of range [1, %d]", ErrInvalidDescriptor, threshold, len(keys),
		)
	}
	d.Threshold = threshold
	d.Keys = keys
	return nil
}

// String returns the descriptor as it was given.
func (d *Descriptor) String() string {
	return d.raw
}

// IsConfidential returns whether the descriptor is wrapped in ct().
func (d *Descriptor) IsConfidential() bool {
	return d.BlindingKey != ""
}

// Fingerprints returns the master fingerprint of every key, in descriptor
// order, duplicates included.
func (d *Descriptor) Fingerprints() ([]Fingerprint, error) {
	fps := make([]Fingerprint, 0, len(d.Keys))
	for _, k := range d.Keys {
		fp, err := k.MasterFingerprint()
		if err != nil {
			return nil, err
		}
		fps = append(fps, fp)
	}
	return fps, nil
}

func parseDescriptorKey(str string) (DescriptorKey, error) {
	var key DescriptorKey
	str = strings.TrimSpace(str)

	if strings.HasPrefix(str, "[") {
		end := strings.Index(str, "]")
		if end < 0 {
			return key, fmt.Errorf("%w: unterminated key origin", ErrInvalidDescriptor)
		}
		origin, err := parseKeyOrigin(str[1:end])
		if err != nil {
			return key, err
		}
		key.Origin = origin
		str = str[end+1:]
	}

	steps := strings.Split(str, "/")
	key.Key = steps[0]
	if key.Key == "" {
		return key, fmt.Errorf("%w: missing key", ErrInvalidDescriptor)
	}
	if isHexPubKey(key.Key) {
		if len(steps) > 1 {
			return key, fmt.Errorf(
				"%w: derivation steps on a non extended key", ErrInvalidDescriptor,
			)
		}
		if _, err := key.rootPubKey(); err != nil {
			return key, fmt.Errorf("%w: %s", ErrInvalidDescriptor, err)
		}
		return key, nil
	}
	if _, err := hdkeychain.NewKeyFromString(key.Key); err != nil {
		return key, fmt.Errorf("%w: invalid extended key: %s", ErrInvalidDescriptor, err)
	}

	for i, step := range steps[1:] {
		last := i == len(steps)-2
		switch {
		case step == "*":
			if !last {
				return key, fmt.Errorf("%w: wildcard must be the last step", ErrInvalidDescriptor)
			}
			key.Wildcard = true
		case strings.HasPrefix(step, "<") && strings.HasSuffix(step, ">"):
			if key.Multipath != nil {
				return key, fmt.Errorf("%w: multiple multipath steps", ErrInvalidDescriptor)
			}
			for _, alt := range strings.Split(step[1:len(step)-1], ";") {
				n, err := strconv.ParseUint(alt, 10, 31)
				if err != nil {
					return key, fmt.Errorf("%w: invalid multipath step %s", ErrInvalidDescriptor, step)
				}
				key.Multipath = append(key.Multipath, uint32(n))
			}
			if len(key.Multipath) < 2 {
				return key, fmt.Errorf("%w: invalid multipath step %s", ErrInvalidDescriptor, step)
			}
		default:
			if key.Multipath != nil {
				return key, fmt.Errorf(
					"%w: fixed step after multipath step", ErrInvalidDescriptor,
				)
			}
			path, err := ParseDerivationPath(step)
			if err != nil {
				return key, err
			}
			if path.IsHardened() {
				return key, fmt.Errorf(
					"%w: hardened step after extended public key", ErrInvalidDescriptor,
				)
			}
			key.Path = append(key.Path, path...)
		}
	}
	return key, nil
}

func parseKeyOrigin(str string) (*KeyOrigin, error) {
	fpStr, pathStr := str, ""
	if i := strings.Index(str, "/"); i >= 0 {
		fpStr, pathStr = str[:i], str[i+1:]
	}
	fp, err := ParseFingerprint(fpStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDescriptor, err)
	}
	path, err := ParseDerivationPath(pathStr)
	if err != nil {
		return nil, err
	}
	return &KeyOrigin{fp, path}, nil
}

// splitExpression splits name(args) into its name and arguments.
func splitExpression(str string) (string, string, error) {
	str = strings.TrimSpace(str)
	open := strings.Index(str, "(")
	if open <= 0 || !strings.HasSuffix(str, ")") {
		return "", "", fmt.Errorf("%w: malformed expression %s", ErrInvalidDescriptor, str)
	}
	args := str[open+1 : len(str)-1]
	depth := 0
	for _, c := range args {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth < 0 {
			return "", "", fmt.Errorf("%w: unbalanced parenthesis", ErrInvalidDescriptor)
		}
	}
	if depth != 0 {
		return "", "", fmt.Errorf("%w: unbalanced parenthesis", ErrInvalidDescriptor)
	}
	return str[:open], args, nil
}

// splitArgs splits comma separated arguments at the top nesting level.
func splitArgs(str string) []string {
	args := make([]string, 0)
	depth, start := 0, 0
	for i, c := range str {
		switch c {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(str[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(str[start:]))
}

func isHexPubKey(str string) bool {
	if len(str) != 66 {
		return false
	}
	_, err := hex.DecodeString(str)
	return err == nil
}
