package shortener

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/jaevor/go-nanoid"
	"github.com/sqids/sqids-go"
)

// StrategyName identifies a registered shortening strategy.
type StrategyName string

const (
	StrategyNanoID StrategyName = "nano_id"
	StrategyMD5    StrategyName = "md5"
	StrategySHA256 StrategyName = "sha256"
	StrategyCRC32  StrategyName = "crc32"
)

const (
	// DefaultMinLength is the code length used when callers do not ask for one.
	DefaultMinLength = 5
	// DefaultMaxLength caps every generated code.
	DefaultMaxLength = 12
)

// Strategy turns a URL into a short code.
//
// Implementations are stateless apart from internal caches and are safe for concurrent use.
type Strategy interface {
	Name() StrategyName
	// Shorten returns a code of the requested length, clamped to the strategy's
	// minimum and maximum. A length <= 0 selects the minimum.
	Shorten(url string, length int) (Code, error)
	// AlwaysGrowing reports whether every call yields a fresh code. When false the same
	// URL always maps to the same code and callers may reuse an existing mapping.
	AlwaysGrowing() bool
}

type lengthPolicy struct {
	min int
	max int
}

func newLengthPolicy(minLength, maxLength int) lengthPolicy {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	if maxLength < minLength {
		maxLength = minLength
	}

	return lengthPolicy{min: minLength, max: maxLength}
}

func (p lengthPolicy) resolve(length int) int {
	if length < p.min {
		return p.min
	}

	if length > p.max {
		return p.max
	}

	return length
}

func checked(name StrategyName, code string, length int) (Code, error) {
	if len(code) != length {
		return "", &GenerationError{
			Strategy: name,
			Err:      fmt.Errorf("got %d characters, want %d", len(code), length),
		}
	}

	if !IsSafeCode(code) {
		return "", &GenerationError{Strategy: name, Err: fmt.Errorf("unsafe character in %q", code)}
	}

	return Code(code), nil
}

// NanoIDStrategy generates a random code on every call. The URL is ignored.
type NanoIDStrategy struct {
	lengths    lengthPolicy
	generators sync.Map // int -> func() string
}

// NewNanoIDStrategy creates a random-code strategy over SafeAlphabet.
func NewNanoIDStrategy(minLength, maxLength int) *NanoIDStrategy {
	return &NanoIDStrategy{lengths: newLengthPolicy(minLength, maxLength)}
}

func (s *NanoIDStrategy) Name() StrategyName {
	return StrategyNanoID
}

func (s *NanoIDStrategy) AlwaysGrowing() bool {
	return true
}

func (s *NanoIDStrategy) Shorten(_ string, length int) (Code, error) {
	n := s.lengths.resolve(length)

	generate, err := s.generator(n)
	if err != nil {
		return "", &GenerationError{Strategy: StrategyNanoID, Err: err}
	}

	return checked(StrategyNanoID, generate(), n)
}

func (s *NanoIDStrategy) generator(length int) (func() string, error) {
	if g, ok := s.generators.Load(length); ok {
		return g.(func() string), nil
	}

	g, err := nanoid.CustomASCII(SafeAlphabet, length)
	if err != nil {
		return nil, err
	}

	var fn func() string = g

	actual, _ := s.generators.LoadOrStore(length, fn)

	return actual.(func() string), nil
}

// DigestStrategy derives the code from a digest of the URL re-encoded in base62.
type DigestStrategy struct {
	name    StrategyName
	digest  func([]byte) []byte
	lengths lengthPolicy
}

// NewMD5Strategy creates a deterministic strategy over the MD5 digest of the URL.
func NewMD5Strategy(minLength, maxLength int) *DigestStrategy {
	return &DigestStrategy{
		name: StrategyMD5,
		digest: func(b []byte) []byte {
			sum := md5.Sum(b)
			return sum[:]
		},
		lengths: newLengthPolicy(minLength, maxLength),
	}
}

// NewSHA256Strategy creates a deterministic strategy over the SHA-256 digest of the URL.
func NewSHA256Strategy(minLength, maxLength int) *DigestStrategy {
	return &DigestStrategy{
		name: StrategySHA256,
		digest: func(b []byte) []byte {
			sum := sha256.Sum256(b)
			return sum[:]
		},
		lengths: newLengthPolicy(minLength, maxLength),
	}
}

func (s *DigestStrategy) Name() StrategyName {
	return s.name
}

func (s *DigestStrategy) AlwaysGrowing() bool {
	return false
}

func (s *DigestStrategy) Shorten(url string, length int) (Code, error) {
	n := s.lengths.resolve(length)

	return checked(s.name, encodeBase62(s.digest([]byte(url)), n), n)
}

// sqidsCRC32Length is the longest sqids encoding of a 32-bit value: a prefix character
// followed by six base-61 digits. From this length on sqids pads instead of growing.
const sqidsCRC32Length = 7

// CRC32Strategy encodes the IEEE CRC-32 checksum of the URL. Codes of sqidsCRC32Length or
// more come from sqids padded to the length; shorter codes are the checksum mod 62^length.
type CRC32Strategy struct {
	lengths  lengthPolicy
	encoders sync.Map // int -> *sqids.Sqids
}

// NewCRC32Strategy creates a deterministic checksum strategy.
func NewCRC32Strategy(minLength, maxLength int) *CRC32Strategy {
	return &CRC32Strategy{lengths: newLengthPolicy(minLength, maxLength)}
}

func (s *CRC32Strategy) Name() StrategyName {
	return StrategyCRC32
}

func (s *CRC32Strategy) AlwaysGrowing() bool {
	return false
}

func (s *CRC32Strategy) Shorten(url string, length int) (Code, error) {
	n := s.lengths.resolve(length)
	sum := crc32.ChecksumIEEE([]byte(url))

	if n < sqidsCRC32Length {
		return checked(StrategyCRC32, encodeBase62(binary.BigEndian.AppendUint32(nil, sum), n), n)
	}

	enc, err := s.encoder(n)
	if err != nil {
		return "", &GenerationError{Strategy: StrategyCRC32, Err: err}
	}

	id, err := enc.Encode([]uint64{uint64(sum)})
	if err != nil {
		return "", &GenerationError{Strategy: StrategyCRC32, Err: err}
	}

	return checked(StrategyCRC32, id, n)
}

func (s *CRC32Strategy) encoder(length int) (*sqids.Sqids, error) {
	if e, ok := s.encoders.Load(length); ok {
		return e.(*sqids.Sqids), nil
	}

	if length > 255 {
		return nil, fmt.Errorf("length %d exceeds sqids limit", length)
	}

	e, err := sqids.New(sqids.Options{
		Alphabet:  SafeAlphabet,
		MinLength: uint8(length),
	})
	if err != nil {
		return nil, err
	}

	actual, _ := s.encoders.LoadOrStore(length, e)

	return actual.(*sqids.Sqids), nil
}
