// Package shortcode generates fixed-length random codes for shortened URLs.
package shortcode

import (
	"errors"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DefaultLength is the number of characters in a generated code.
	DefaultLength = 6
	// DefaultAlphabet is the URL-safe nanoid alphabet.
	DefaultAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var ErrInvalidLength = errors.New("code length must be positive")

type Option func(*Generator)

func WithLength(n int) Option {
	return func(g *Generator) {
		g.length = n
	}
}

// WithAlphabet overrides the character set. An empty alphabet keeps the default.
func WithAlphabet(alphabet string) Option {
	return func(g *Generator) {
		if alphabet != "" {
			g.alphabet = alphabet
		}
	}
}

// Generator produces random codes. It does not guarantee uniqueness.
// A Generator is safe for concurrent use.
type Generator struct {
	length   int
	alphabet string
}

func New(opts ...Option) *Generator {
	g := &Generator{
		length:   DefaultLength,
		alphabet: DefaultAlphabet,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Generator) Length() int {
	return g.length
}

func (g *Generator) Generate() (string, error) {
	const op = "shortcode.Generator.Generate"

	if g.length <= 0 {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	code, err := gonanoid.Generate(g.alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate code: %w", op, err)
	}

	return code, nil
}
