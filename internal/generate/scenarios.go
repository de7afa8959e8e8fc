package generate

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"fixtures/internal/record"
)

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Eva", "Filipe", "Gabriela", "Hugo", "Ines", "Joao"}
	lastNames  = []string{"Silva", "Santos", "Ferreira", "Pereira", "Oliveira", "Costa", "Rodrigues", "Martins"}
	domains    = []string{"example.com", "test.dev", "mail.test"}
	cities     = []string{"Lisbon", "Porto", "Braga", "Coimbra", "Faro"}
	interests  = []string{"music", "sports", "travel", "books", "games", "food"}
	currencies = []string{"EUR", "USD", "GBP"}
	roles      = []string{"admin", "editor", "viewer"}
)

func pick(rng *rand.Rand, xs []string) string {
	return xs[rng.Intn(len(xs))]
}

// id derives a UUID from rng so it follows the seed.
func id(rng *rand.Rand) string {
	u, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return uuid.Nil.String()
	}
	return u.String()
}

func email(rng *rand.Rand, first, last string, n int) string {
	return fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), n, pick(rng, domains))
}

func password(rng *rand.Rand, valid bool) string {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	n := 10 + rng.Intn(6)
	if !valid {
		n = 3 + rng.Intn(3)
	}
	b := make([]byte, n)
	for i := range b {
		if i%4 == 3 {
			b[i] = digits[rng.Intn(len(digits))]
		} else {
			b[i] = letters[rng.Intn(len(letters))]
		}
	}
	return string(b)
}

// Login produces credential pairs; roughly one in four is expected to fail.
func Login(rng *rand.Rand, count int) record.Collection {
	out := make(record.Collection, 0, count)
	for i := 0; i < count; i++ {
		valid := rng.Intn(4) != 0
		first, last := pick(rng, firstNames), pick(rng, lastNames)
		expected := "success"
		if !valid {
			expected = "invalid_credentials"
		}
		out = append(out, record.FromPairs(
			"username", email(rng, first, last, i+1),
			"password", password(rng, valid),
			"rememberMe", rng.Intn(2) == 0,
			"expectedResult", expected,
		))
	}
	return out
}

// Registration produces sign-up forms with a nested address.
func Registration(rng *rand.Rand, count int) record.Collection {
	out := make(record.Collection, 0, count)
	for i := 0; i < count; i++ {
		first, last := pick(rng, firstNames), pick(rng, lastNames)

		picked := make([]any, 0, 3)
		for _, j := range rng.Perm(len(interests))[:1+rng.Intn(3)] {
			picked = append(picked, interests[j])
		}

		out = append(out, record.FromPairs(
			"email", email(rng, first, last, i+1),
			"password", password(rng, true),
			"firstName", first,
			"lastName", last,
			"age", 18+rng.Intn(60),
			"acceptTerms", rng.Intn(10) != 0,
			"address", record.FromPairs(
				"city", pick(rng, cities),
				"zip", fmt.Sprintf("%04d-%03d", 1000+rng.Intn(9000), rng.Intn(1000)),
			),
			"interests", picked,
		))
	}
	return out
}

// Payment produces card payments. Cards ending in an odd digit are declined.
func Payment(rng *rand.Rand, count int) record.Collection {
	out := make(record.Collection, 0, count)
	for i := 0; i < count; i++ {
		var card strings.Builder
		card.WriteString("4")
		for j := 0; j < 15; j++ {
			card.WriteByte(byte('0' + rng.Intn(10)))
		}
		number := card.String()
		last := number[len(number)-1] - '0'

		cents := 100 + rng.Intn(99900)
		out = append(out, record.FromPairs(
			"id", id(rng),
			"cardNumber", number,
			"cardHolder", pick(rng, firstNames)+" "+pick(rng, lastNames),
			"expiry", fmt.Sprintf("%02d/%02d", 1+rng.Intn(12), 27+rng.Intn(5)),
			"cvv", fmt.Sprintf("%03d", rng.Intn(1000)),
			"amount", float64(cents)/100,
			"currency", pick(rng, currencies),
			"approved", last%2 == 0,
		))
	}
	return out
}

// User produces account records.
func User(rng *rand.Rand, count int) record.Collection {
	out := make(record.Collection, 0, count)
	for i := 0; i < count; i++ {
		first, last := pick(rng, firstNames), pick(rng, lastNames)
		out = append(out, record.FromPairs(
			"id", id(rng),
			"email", email(rng, first, last, i+1),
			"name", first+" "+last,
			"age", 18+rng.Intn(60),
			"active", rng.Intn(5) != 0,
			"roles", []any{pick(rng, roles)},
		))
	}
	return out
}
