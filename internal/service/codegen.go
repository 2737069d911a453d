package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"
)

var ErrGenerationExhausted = errors.New("code generation attempts exhausted")

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codeSuffixLength gives ~78 billion combinations over the charset, so the
// retry budget is only ever spent on genuine collisions.
const codeSuffixLength = 7

// CodeStore answers whether a code is already durably stored. It backs the
// slow path of the generator; the in-memory working set is only a fast path.
type CodeStore interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

type CodeGenerator struct {
	store       CodeStore
	prefix      string
	maxAttempts int
	shape       *regexp2.Regexp
}

func NewCodeGenerator(store CodeStore, prefix string, maxAttempts int) *CodeGenerator {
	return &CodeGenerator{
		store:       store,
		prefix:      prefix,
		maxAttempts: maxAttempts,
		// The prefix comes from configuration; restricting it to letters,
		// digits, hyphen and underscore keeps every issued code printable and
		// URL-safe, and a malformed prefix fails the first Generate call.
		shape: regexp2.MustCompile(fmt.Sprintf(`\A[A-Za-z0-9_-]*[A-Z0-9]{%d}\z`, codeSuffixLength), regexp2.None),
	}
}

// Generate returns a code distinct from everything in known and from every
// code already stored, within the configured attempt budget. Accepted codes
// are added to known immediately so one run never hands out duplicates.
// known is scoped to a single replenishment run and passed explicitly; it is
// never shared across runs.
func (g *CodeGenerator) Generate(ctx context.Context, known map[string]struct{}) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		code, err := g.candidate()
		if err != nil {
			return "", fmt.Errorf("g.candidate -> %w", err)
		}

		if _, seen := known[code]; seen {
			continue
		}

		// The working set only knows about this run; a concurrent run may
		// have stored the code already.
		exists, err := g.store.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("g.store.CodeExists -> %w", err)
		}
		if exists {
			known[code] = struct{}{}
			continue
		}

		known[code] = struct{}{}

		return code, nil
	}

	return "", fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, g.maxAttempts)
}

func (g *CodeGenerator) candidate() (string, error) {
	suffix := make([]byte, codeSuffixLength)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	for i, b := range suffix {
		suffix[i] = codeCharset[int(b)%len(codeCharset)]
	}

	code := g.prefix + string(suffix)

	ok, err := g.shape.MatchString(code)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("code %q does not match expected shape", code)
	}

	return code, nil
}
