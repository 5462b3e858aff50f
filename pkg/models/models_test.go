package models

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrderID(t *testing.T) {
	for k := int64(1); k <= 50; k++ {
		assert.Equal(t, fmt.Sprintf("ORD-%06d", k), FormatOrderID(k))
	}
	assert.Equal(t, "ORD-000001", NextOrderID(0))
	assert.Equal(t, "ORD-000026", NextOrderID(25))
	assert.Equal(t, "ORD-1000000", FormatOrderID(1000000))
}

func TestIsValidPhone(t *testing.T) {
	cases := map[string]bool{
		"0612345678":  true,
		"0798765432":  true,
		"0512345678":  false,
		"061234567":   false,
		"06123456789": false,
		"1612345678":  false,
		"06 1234567":  false,
		"06123a5678":  false,
		"":            false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidPhone(in), in)
	}
}

func TestIsValidPhone_Generated(t *testing.T) {
	ref := regexp.MustCompile(`^0[67][0-9]{8}$`)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(13)
		var b strings.Builder
		for j := 0; j < n; j++ {
			// bias the prefix so both branches are hit often
			switch {
			case j == 0 && rng.Intn(4) > 0:
				b.WriteByte('0')
			case j == 1 && rng.Intn(3) > 0:
				b.WriteByte("67"[rng.Intn(2)])
			default:
				b.WriteByte(byte('0' + rng.Intn(10)))
			}
		}
		s := b.String()
		assert.Equal(t, ref.MatchString(s), IsValidPhone(s), s)
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range OrderStatuses() {
		assert.True(t, s.Valid())
	}
	assert.False(t, OrderStatus("refunded").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.False(t, RoleAdmin.AtLeast(RoleSuperAdmin))
	assert.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	assert.False(t, Role("guest").AtLeast(RoleAdmin))
}

func TestOrder_LookupItems(t *testing.T) {
	o := Order{Items: []OrderItem{{ProductID: "a"}, {ProductID: "b"}}}
	assert.Equal(t, []any{"a", "b"}, o.Lookup("items.productId"))
	assert.Nil(t, o.Lookup("missing"))
}
