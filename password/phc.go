package password

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// ErrMalformedHash is returned for a stored value that is not an argon2id
// PHC string this package can verify.
var ErrMalformedHash = errors.New("malformed password hash")

// Params are the cost settings recorded in a PHC string.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

// Weaker reports whether p costs less than target on any axis, or uses a
// different key length.
func (p Params) Weaker(target Params) bool {
	return p.Memory < target.Memory ||
		p.Time < target.Time ||
		p.Parallelism < target.Parallelism ||
		p.KeyLength != target.KeyLength
}

// Inspect returns the parameters of a stored hash without verifying it.
func Inspect(encoded string) (Params, error) {
	d, err := decodePHC(encoded)
	if err != nil {
		return Params{}, err
	}
	return d.params, nil
}

type decodedPHC struct {
	params Params
	salt   []byte
	key    []byte
}

// encodePHC renders $argon2id$v=19$m=..,t=..,p=..$salt$key.
func encodePHC(p Params, salt, key []byte) string {
	var b strings.Builder
	b.WriteString("$" + algorithmID + "$v=")
	b.WriteString(strconv.Itoa(argon2.Version))
	fmt.Fprintf(&b, "$m=%d,t=%d,p=%d$", p.Memory, p.Time, p.Parallelism)
	b.WriteString(base64.StdEncoding.EncodeToString(salt))
	b.WriteByte('$')
	b.WriteString(base64.StdEncoding.EncodeToString(key))
	return b.String()
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformedHash}, args...)...)
}

func decodePHC(encoded string) (decodedPHC, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return decodedPHC{}, malformed("expected 5 sections")
	}
	if fields[1] != algorithmID {
		return decodedPHC{}, malformed("algorithm %q", fields[1])
	}

	rawVersion, ok := strings.CutPrefix(fields[2], "v=")
	if !ok {
		return decodedPHC{}, malformed("missing version")
	}
	if v, err := strconv.Atoi(rawVersion); err != nil || v != argon2.Version {
		return decodedPHC{}, malformed("version %q", rawVersion)
	}

	params, err := decodeParams(fields[3])
	if err != nil {
		return decodedPHC{}, err
	}

	salt, err := base64.StdEncoding.DecodeString(fields[4])
	if err != nil || len(salt) < int(minSaltLength) {
		return decodedPHC{}, malformed("salt")
	}
	key, err := base64.StdEncoding.DecodeString(fields[5])
	if err != nil || len(key) == 0 {
		return decodedPHC{}, malformed("key")
	}
	params.KeyLength = uint32(len(key))

	return decodedPHC{params: params, salt: salt, key: key}, nil
}

func decodeParams(section string) (Params, error) {
	var (
		p    Params
		seen = map[string]bool{}
	)
	for _, pair := range strings.Split(section, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || seen[name] {
			return Params{}, malformed("parameter %q", pair)
		}
		seen[name] = true

		switch name {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || uint32(v) < minMemoryKB {
				return Params{}, malformed("memory %q", value)
			}
			p.Memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || uint32(v) < minTimeCost {
				return Params{}, malformed("time %q", value)
			}
			p.Time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || uint8(v) < minParallelism {
				return Params{}, malformed("parallelism %q", value)
			}
			p.Parallelism = uint8(v)
		default:
			return Params{}, malformed("parameter %q", name)
		}
	}
	if !seen["m"] || !seen["t"] || !seen["p"] {
		return Params{}, malformed("missing parameters")
	}
	return p, nil
}
