//-------------------------------------------------------------------------
//
// pgEdge Financial Data Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package datagen provides the random utilities used by entity factories.
package datagen

import (
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-findatagen/internal/record"
)

const (
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits       = "0123456789"
)

// Currencies is the set of settlement currencies drawn by Currency.
var Currencies = []string{"USD", "EUR", "GBP", "CHF", "JPY", "SAR", "CAD", "AUD"}

// Faker provides fake data generation using gofakeit. A Faker is a single
// random stream and is not safe for concurrent use.
type Faker struct {
	faker *gofakeit.Faker
}

// NewFaker creates a new Faker with a random seed.
func NewFaker() *Faker {
	return &Faker{
		faker: gofakeit.New(uint64(time.Now().UnixNano())),
	}
}

// NewFakerWithSeed creates a new Faker with a specific seed for reproducibility.
func NewFakerWithSeed(seed uint64) *Faker {
	return &Faker{
		faker: gofakeit.New(seed),
	}
}

// Int generates a random integer between min and max (inclusive).
func (f *Faker) Int(min, max int) int {
	if max <= min {
		return min
	}
	return f.faker.IntRange(min, max)
}

// IntN returns a random integer in [0, n).
func (f *Faker) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.IntRange(0, n-1)
}

// Bool generates a random boolean.
func (f *Faker) Bool() bool {
	return f.faker.Bool()
}

// Chance reports true with the given probability in percent.
func (f *Faker) Chance(percent float64) bool {
	if percent >= 100 {
		return true
	}
	if percent <= 0 {
		return false
	}
	return f.faker.Float64Range(0, 100) < percent
}

// Number returns a random integer with exactly width decimal digits.
func (f *Faker) Number(width int) int64 {
	if width <= 0 {
		return 0
	}
	if width == 1 {
		return int64(f.Int(0, 9))
	}
	n := int64(f.Int(1, 9))
	for i := 1; i < width; i++ {
		n = n*10 + int64(f.Int(0, 9))
	}
	return n
}

// Digits generates a random string of n decimal digits. Leading zeros are
// allowed.
func (f *Faker) Digits(n int) string {
	return f.RandomString(n, digits)
}

// String generates n random upper-case letters, mixed with digits when
// withNumbers is set.
func (f *Faker) String(n int, withNumbers bool) string {
	if withNumbers {
		return f.RandomString(n, upperLetters+digits)
	}
	return f.RandomString(n, upperLetters)
}

// RandomString generates a string from the given character set.
func (f *Faker) RandomString(length int, charset string) string {
	result := make([]byte, length)
	for i := range result {
		result[i] = charset[f.IntN(len(charset))]
	}
	return string(result)
}

// DateBetween returns a uniformly random date in the inclusive day range
// [start, end].
func (f *Faker) DateBetween(start, end record.Date) record.Date {
	days := int(end.Sub(start.Time).Hours() / 24)
	if days <= 0 {
		return start
	}
	return start.AddDays(f.Int(0, days))
}

// DateFrom returns a random date between year-month-day and today.
func (f *Faker) DateFrom(year int, month time.Month, day int, today record.Date) record.Date {
	return f.DateBetween(record.NewDate(time.Date(year, month, day, 0, 0, 0, 0, time.UTC)), today)
}

// Decimal returns a uniform decimal in [min, max] rounded to dp places.
func (f *Faker) Decimal(min, max float64, dp int32) decimal.Decimal {
	scale := decimal.New(1, dp)
	lo := decimal.NewFromFloat(min).Mul(scale).Ceil().IntPart()
	hi := decimal.NewFromFloat(max).Mul(scale).Floor().IntPart()
	if hi <= lo {
		return decimal.New(lo, -dp)
	}
	off := int64(f.faker.IntRange(0, int(hi-lo)))
	return decimal.New(lo+off, -dp)
}

// Currency returns a random settlement currency.
func (f *Faker) Currency() string {
	return Choose(f, Currencies)
}

// UUID returns a version 4 UUID drawn from this stream, so ids are
// reproducible under a seed.
func (f *Faker) UUID() string {
	id, err := uuid.NewRandomFromReader(f)
	if err != nil {
		return f.faker.UUID()
	}
	return id.String()
}

// Read fills p with bytes from the stream. It lets a Faker act as the
// entropy source for uuid generation.
func (f *Faker) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = f.faker.Uint8()
	}
	return len(p), nil
}

// Company generates a random company name.
func (f *Faker) Company() string {
	return f.faker.Company()
}

// Choose returns a random element from the given slice.
func Choose[T any](f *Faker, items []T) T {
	if len(items) == 0 {
		var zero T
		return zero
	}
	return items[f.IntN(len(items))]
}

// ChooseWeighted returns items[i] with probability weights[i] / sum(weights).
// Items without a positive weight are never chosen.
func ChooseWeighted[T any](f *Faker, items []T, weights []int) T {
	var zero T
	total := 0
	for i := range min(len(items), len(weights)) {
		total += max(weights[i], 0)
	}
	if total == 0 {
		return zero
	}
	r := f.IntN(total)
	for i := range min(len(items), len(weights)) {
		w := max(weights[i], 0)
		if r < w {
			return items[i]
		}
		r -= w
	}
	return zero
}
