package ordernumber

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"github.com/comptaline/backoffice/internal/order/domain"
)

const defaultMaxAttempts = 10

var numberPattern = regexp.MustCompile(`^(PT|CP|CA)\d{10}$`)

// IsValid reports whether s is a well-formed order number. Used by the
// backfill path to detect orders still missing one.
func IsValid(s string) bool {
	return numberPattern.MatchString(s)
}

// ExistsFunc reports whether a candidate number is already taken.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

type Generator struct {
	exists      ExistsFunc
	maxAttempts int
}

func New(exists ExistsFunc) *Generator {
	return &Generator{exists: exists, maxAttempts: defaultMaxAttempts}
}

func Prefix(orderType domain.Type, brand domain.Brand) (string, error) {
	switch orderType {
	case domain.TypeProduct:
		return "PT", nil
	case domain.TypeSubscription:
		switch brand {
		case domain.BrandComptaPro:
			return "CP", nil
		case domain.BrandComptAssist:
			return "CA", nil
		default:
			return "", domain.ErrBrandRequired
		}
	default:
		return "", domain.ErrInvalidType
	}
}

// Generate draws a prefixed candidate with a cryptographically random
// 10-digit suffix and retries on collision. The keyspace makes collisions
// negligible; the retry bound guards against pathological cases.
func (g *Generator) Generate(ctx context.Context, orderType domain.Type, brand domain.Brand) (string, error) {
	prefix, err := Prefix(orderType, brand)
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		suffix, err := randomSuffix()
		if err != nil {
			return "", err
		}
		candidate := prefix + suffix

		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", domain.ErrNumberExhausted
}

func randomSuffix() (string, error) {
	max := big.NewInt(10_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%010d", n.Int64()), nil
}
