package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinMarkupPercent = 0
	MaxMarkupPercent = 100
)

// PaymentConfig holds the processor credential and the countries shipping
// addresses may be collected from.
type PaymentConfig struct {
	SecretKey        string   `json:"secretKey"`
	AllowedCountries []string `json:"allowedCountries"`
}

// Validate normalizes country codes to upper case.
func (c *PaymentConfig) Validate() error {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	if c.SecretKey == "" {
		return fmt.Errorf("%w: secret key required", ErrInvalidArgument)
	}
	countries := make([]string, 0, len(c.AllowedCountries))
	for _, code := range c.AllowedCountries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if len(code) != 2 {
			return fmt.Errorf("%w: country code %q must have two letters", ErrInvalidArgument, code)
		}
		countries = append(countries, code)
	}
	if len(countries) == 0 {
		return fmt.Errorf("%w: at least one allowed country required", ErrInvalidArgument)
	}
	c.AllowedCountries = countries
	return nil
}

// Settings is the deployment-wide configuration record. Version is bumped
// on every write.
type Settings struct {
	MarkupPercent int64          `json:"markupPercent"`
	Payment       *PaymentConfig `json:"-"`
	Version       int64          `json:"version"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func ValidateMarkup(percent int64) error {
	if percent < MinMarkupPercent || percent > MaxMarkupPercent {
		return fmt.Errorf("%w: markup %d outside %d..%d", ErrInvalidArgument, percent, MinMarkupPercent, MaxMarkupPercent)
	}
	return nil
}
