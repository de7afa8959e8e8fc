package source

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"fixtures/internal/record"
)

// DefaultGeneratedCount is used when a generated path carries no count.
const DefaultGeneratedCount = 10

// ErrUnknownScenario is returned by generators for unregistered scenario names.
var ErrUnknownScenario = errors.New("unknown scenario")

// GeneratedPath is the parsed form of a GENERATED descriptor path:
// "<scenario>[?count=N&seed=S]", optionally prefixed with "generated://".
type GeneratedPath struct {
	Scenario string
	Count    int
	Seed     *int64
}

// ParseGeneratedPath parses p.
func ParseGeneratedPath(p string) (GeneratedPath, error) {
	p = strings.TrimPrefix(strings.TrimSpace(p), "generated://")

	name, rawQuery, _ := strings.Cut(p, "?")
	gp := GeneratedPath{Scenario: name, Count: DefaultGeneratedCount}
	if gp.Scenario == "" {
		return gp, errors.New("missing scenario name")
	}

	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return gp, fmt.Errorf("query: %w", err)
	}
	if s := q.Get("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return gp, fmt.Errorf("invalid count %q", s)
		}
		gp.Count = n
	}
	if s := q.Get("seed"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return gp, fmt.Errorf("invalid seed %q", s)
		}
		gp.Seed = &seed
	}
	return gp, nil
}

// String renders the canonical path form.
func (g GeneratedPath) String() string {
	q := url.Values{}
	q.Set("count", strconv.Itoa(g.Count))
	if g.Seed != nil {
		q.Set("seed", strconv.FormatInt(*g.Seed, 10))
	}
	return g.Scenario + "?" + q.Encode()
}

func (l *Loader) generate(path string) (record.Collection, error) {
	gp, err := ParseGeneratedPath(path)
	if err != nil {
		return nil, &ParseError{Format: FormatGenerated, Msg: err.Error()}
	}
	if l.generators == nil {
		return nil, fmt.Errorf("%w: no generators registered for %q", ErrSourceNotFound, gp.Scenario)
	}

	c, err := l.generators.Generate(gp.Scenario, gp.Count, gp.Seed)
	if errors.Is(err, ErrUnknownScenario) {
		return nil, fmt.Errorf("%w: scenario %q", ErrSourceNotFound, gp.Scenario)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
