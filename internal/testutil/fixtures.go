package testutil

import (
	"fmt"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/dinarbooks/backend/internal/domain/partner"
)

// Faker produces realistic party and product data. It is seeded from the test
// name so a failing run can be reproduced.
type Faker struct {
	*gofakeit.Faker
	skus int
}

// NewFaker creates a faker seeded from t.Name()
func NewFaker(t *testing.T) *Faker {
	t.Helper()
	h := fnv.New64a()
	_, _ = h.Write([]byte(t.Name()))
	return &Faker{Faker: gofakeit.New(h.Sum64())}
}

// Contact returns contact details for a party
func (f *Faker) Contact() partner.ContactInfo {
	return partner.ContactInfo{
		Phone:   f.Phone(),
		Email:   f.Email(),
		Address: f.City(),
	}
}

// SKU returns a product code unique within this faker
func (f *Faker) SKU() string {
	f.skus++
	return fmt.Sprintf("%s-%03d", strings.ToUpper(f.LetterN(3)), f.skus)
}
