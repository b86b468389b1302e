// Package uild implements the UILD identifier scheme used for every entity
// in the platform (tenants, users, sessions, actions, pages, components).
//
// A UILD is self-describing and self-checksummed:
//
//	<prefix>-<timestampMillis>-<entropy>-<checksum>
//	tn-1649836800000-a1b2c3-9f3e
//
// The checksum guards against transcription errors and trivial tampering;
// it is not a signature and provides no security boundary.
package uild

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the entity class a UILD belongs to.
type Kind string

const (
	KindTenant    Kind = "tenant"
	KindUser      Kind = "user"
	KindSession   Kind = "session"
	KindAction    Kind = "action"
	KindPage      Kind = "page"
	KindComponent Kind = "component"
)

// prefixes maps each kind to its two-letter wire prefix. The set is closed;
// unknown prefixes never validate.
var prefixes = map[Kind]string{
	KindTenant:    "tn",
	KindUser:      "us",
	KindSession:   "ss",
	KindAction:    "ac",
	KindPage:      "pg",
	KindComponent: "cp",
}

// kinds is the reverse of prefixes.
var kinds = func() map[string]Kind {
	m := make(map[string]Kind, len(prefixes))
	for k, p := range prefixes {
		m[p] = k
	}
	return m
}()

// ErrInvalidIdentifier is returned by Compare when an input does not validate.
var ErrInvalidIdentifier = errors.New("invalid identifier")

const (
	entropyLen  = 6
	checksumLen = 4
)

var entropyPattern = regexp.MustCompile(`^[a-z0-9]{6}$`)

const entropyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Identifier is an immutable UILD value. The zero value is invalid.
type Identifier string

// Generate mints a new identifier of the given kind. Metadata is accepted
// but never affects the minted value: identifiers validate from their text
// alone, with no out-of-band context. Collisions in the entropy component
// are accepted (not a security boundary).
func Generate(kind Kind, metadata map[string]string) (Identifier, error) {
	prefix, ok := prefixes[kind]
	if !ok {
		return "", fmt.Errorf("generate: unknown kind %q", kind)
	}

	ts := time.Now().UnixMilli()
	entropy := newEntropy()
	base := prefix + "-" + strconv.FormatInt(ts, 10) + "-" + entropy

	return Identifier(base + "-" + checksum(base)), nil
}

// MustGenerate is Generate for a kind known at compile time. It panics on an
// unknown kind.
func MustGenerate(kind Kind) Identifier {
	id, err := Generate(kind, nil)
	if err != nil {
		panic(err)
	}
	return id
}

// Validate reports whether text decomposes into prefix, timestamp, entropy
// and checksum, with a known prefix, a non-negative decimal timestamp, a
// six-char [a-z0-9] entropy and a matching recomputed checksum.
func Validate(text string) bool {
	parts := strings.Split(text, "-")
	if len(parts) != 4 {
		return false
	}
	prefix, ts, entropy, sum := parts[0], parts[1], parts[2], parts[3]

	if _, ok := kinds[prefix]; !ok {
		return false
	}
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || n < 0 {
		return false
	}
	if !entropyPattern.MatchString(entropy) {
		return false
	}
	if len(sum) != checksumLen {
		return false
	}
	return sum == checksum(prefix + "-" + ts + "-" + entropy)
}

// KindOf returns the kind encoded in text, or false if text is not a valid
// identifier.
func KindOf(text string) (Kind, bool) {
	if !Validate(text) {
		return "", false
	}
	return kinds[strings.SplitN(text, "-", 2)[0]], true
}

// TimestampOf returns the mint time in milliseconds, or false if text is not
// a valid identifier.
func TimestampOf(text string) (int64, bool) {
	if !Validate(text) {
		return 0, false
	}
	n, _ := strconv.ParseInt(strings.Split(text, "-")[1], 10, 64)
	return n, true
}

// IsKind reports whether text is a valid identifier of the given kind.
func IsKind(text string, kind Kind) bool {
	k, ok := KindOf(text)
	return ok && k == kind
}

// Compare orders two identifiers by mint timestamp: -1 if a is older, 0 if
// equal, 1 if newer. Tie order between equal timestamps is unspecified.
// Returns ErrInvalidIdentifier when either input does not validate.
func Compare(a, b string) (int, error) {
	ta, ok := TimestampOf(a)
	if !ok {
		return 0, fmt.Errorf("compare %q: %w", a, ErrInvalidIdentifier)
	}
	tb, ok := TimestampOf(b)
	if !ok {
		return 0, fmt.Errorf("compare %q: %w", b, ErrInvalidIdentifier)
	}
	switch {
	case ta < tb:
		return -1, nil
	case ta > tb:
		return 1, nil
	default:
		return 0, nil
	}
}

// String returns the wire form.
func (id Identifier) String() string { return string(id) }

// Kind returns the kind of a valid identifier, or false.
func (id Identifier) Kind() (Kind, bool) { return KindOf(string(id)) }

// Timestamp returns the mint time of a valid identifier.
func (id Identifier) Timestamp() (time.Time, bool) {
	ms, ok := TimestampOf(string(id))
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// checksum is the first four hex chars of SHA-256 over the base string.
// Order-sensitive: any reordering of the base components produces a
// different digest.
func checksum(base string) string {
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])[:checksumLen]
}

// newEntropy derives six [a-z0-9] chars from a v4 UUID.
func newEntropy() string {
	u := uuid.New()
	b := make([]byte, entropyLen)
	for i := 0; i < entropyLen; i++ {
		b[i] = entropyAlphabet[int(u[i])%len(entropyAlphabet)]
	}
	return string(b)
}
