package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Scheme names a supported hashing scheme.
type Scheme string

const (
	// SchemeArgon2id hashes with Argon2id; the work factor is the iteration count.
	SchemeArgon2id Scheme = "argon2id"
	// SchemeBcrypt hashes with bcrypt; the work factor is the bcrypt cost.
	SchemeBcrypt Scheme = "bcrypt"
)

const (
	defaultArgon2Iterations = 3
	maxArgon2Iterations     = 20
)

// Argon2idParams controls the Argon2id cost that is not covered by the work factor.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy bounds accepted passwords. Only presence and an anti-DoS ceiling are enforced.
type Policy struct {
	MinLength int
	MaxLength int
}

// Config is the single configuration surface for this package.
type Config struct {
	Scheme Scheme

	// WorkFactor is argon2id iterations or bcrypt cost, depending on Scheme.
	WorkFactor int

	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns an argon2id baseline suitable for interactive logins.
func DefaultConfig() Config {
	// CPU-aware parallelism, clamped to [1..4] to keep container usage predictable.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Scheme:     SchemeArgon2id,
		WorkFactor: defaultArgon2Iterations,
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024, // 64 MiB
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength: 1,
			MaxLength: 1024,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
//   - GQLSOCIAL_PASSWORD_SCHEME (argon2id|bcrypt)
//   - GQLSOCIAL_PASSWORD_WORK_FACTOR
//   - GQLSOCIAL_PASSWORD_MAX_LEN
//   - GQLSOCIAL_ARGON2_MEMORY_KIB
//   - GQLSOCIAL_ARGON2_PARALLELISM
//   - GQLSOCIAL_ARGON2_SALT_LEN
//   - GQLSOCIAL_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("GQLSOCIAL_PASSWORD_SCHEME"); ok {
		s, err := ParseScheme(v)
		if err != nil {
			return Config{}, fmt.Errorf("GQLSOCIAL_PASSWORD_SCHEME: %w", err)
		}
		cfg.Scheme = s
		if s == SchemeBcrypt {
			cfg.WorkFactor = bcrypt.DefaultCost
		}
	}

	if v, ok := os.LookupEnv("GQLSOCIAL_PASSWORD_WORK_FACTOR"); ok {
		lo, hi := cfg.Scheme.workFactorRange()
		n, err := atoiInRange(v, lo, hi)
		if err != nil {
			return Config{}, fmt.Errorf("GQLSOCIAL_PASSWORD_WORK_FACTOR: %w", err)
		}
		cfg.WorkFactor = n
	}

	if v, ok := os.LookupEnv("GQLSOCIAL_PASSWORD_MAX_LEN"); ok {
		n, err := atoiInRange(v, 1, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("GQLSOCIAL_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	if v, ok := os.LookupEnv("GQLSOCIAL_ARGON2_MEMORY_KIB"); ok {
		u, err := atou32(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		if err != nil {
			return Config{}, fmt.Errorf("GQLSOCIAL_ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Params.MemoryKiB = u
	}

	if v, ok := os.LookupEnv("GQLSOCIAL_ARGON2_PARALLELISM"); ok {
		u, err := atou32(v, 1, 64)
		if err != nil {
			return Config{}, fmt.Errorf("GQLSOCIAL_ARGON2_PARALLELISM: %w", err)
		}
		p, err := u32ToU8(u)
		if err != nil {
			return Config{}, fmt.Errorf("GQLSOCIAL_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Params.Parallelism = p
	}

	if v, ok := os.LookupEnv("GQLSOCIAL_ARGON2_SALT_LEN"); ok {
		u, err := atou32(v, 8, 64)
		if err != nil {
			return Config{}, fmt.Errorf("GQLSOCIAL_ARGON2_SALT_LEN: %w", err)
		}
		cfg.Params.SaltLength = u
	}

	if v, ok := os.LookupEnv("GQLSOCIAL_ARGON2_KEY_LEN"); ok {
		u, err := atou32(v, 16, 64)
		if err != nil {
			return Config{}, fmt.Errorf("GQLSOCIAL_ARGON2_KEY_LEN: %w", err)
		}
		cfg.Params.KeyLength = u
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

// ParseScheme maps a config string onto a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeArgon2id, "":
		return SchemeArgon2id, nil
	case SchemeBcrypt:
		return SchemeBcrypt, nil
	default:
		return "", ErrUnknownScheme
	}
}

func (s Scheme) workFactorRange() (int, int) {
	if s == SchemeBcrypt {
		return bcrypt.MinCost, bcrypt.MaxCost
	}
	return 1, maxArgon2Iterations
}

func atoiInRange(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}

	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}
