package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlatformKind enumerates the shopping platforms products are indexed from.
type PlatformKind string

const (
	PlatformAmazon   PlatformKind = "amazon"
	PlatformFlipkart PlatformKind = "flipkart"
	PlatformMeesho   PlatformKind = "meesho"
	PlatformBlinkit  PlatformKind = "blinkit"
	PlatformOther    PlatformKind = "other"
)

// Platform is a closed sum type: four unit variants plus Other, which
// carries a free-text label. The zero value is invalid.
type Platform struct {
	kind  PlatformKind
	label string
}

func Amazon() Platform   { return Platform{kind: PlatformAmazon} }
func Flipkart() Platform { return Platform{kind: PlatformFlipkart} }
func Meesho() Platform   { return Platform{kind: PlatformMeesho} }
func Blinkit() Platform  { return Platform{kind: PlatformBlinkit} }

// OtherPlatform builds the labelled variant. The label is trimmed.
func OtherPlatform(label string) Platform {
	return Platform{kind: PlatformOther, label: strings.TrimSpace(label)}
}

// ParsePlatform builds a Platform from its kind and, for "other", its label.
func ParsePlatform(kind, label string) (Platform, error) {
	switch PlatformKind(strings.ToLower(strings.TrimSpace(kind))) {
	case PlatformAmazon:
		return Amazon(), nil
	case PlatformFlipkart:
		return Flipkart(), nil
	case PlatformMeesho:
		return Meesho(), nil
	case PlatformBlinkit:
		return Blinkit(), nil
	case PlatformOther:
		p := OtherPlatform(label)
		if p.label == "" {
			return Platform{}, fmt.Errorf("%w: platform label required for other", ErrInvalidArgument)
		}
		return p, nil
	default:
		return Platform{}, fmt.Errorf("%w: unknown platform %q", ErrInvalidArgument, kind)
	}
}

func (p Platform) Kind() PlatformKind { return p.kind }

// Label is the free-text label of the Other variant and empty otherwise.
func (p Platform) Label() string { return p.label }

func (p Platform) IsZero() bool { return p.kind == "" }

func (p Platform) Equal(o Platform) bool { return p.kind == o.kind && p.label == o.label }

func (p Platform) String() string {
	if p.kind == PlatformOther {
		return "other:" + p.label
	}
	return string(p.kind)
}

type platformJSON struct {
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
}

func (p Platform) MarshalJSON() ([]byte, error) {
	return json.Marshal(platformJSON{Kind: string(p.kind), Label: p.label})
}

func (p *Platform) UnmarshalJSON(data []byte) error {
	var raw platformJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePlatform(raw.Kind, raw.Label)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ReturnPolicy describes the return window buyers inherit from the source platform.
type ReturnPolicy struct {
	PlatformName string `json:"platformName"`
	ReturnPeriod string `json:"returnPeriod"`
	PolicyURL    string `json:"policyUrl,omitempty"`
}

// ReturnPolicyFor returns the platform's return policy. Returns are accepted
// only when the source platform accepts them.
func ReturnPolicyFor(p Platform) ReturnPolicy {
	switch p.kind {
	case PlatformAmazon:
		return ReturnPolicy{PlatformName: "Amazon", ReturnPeriod: "30 days", PolicyURL: "https://www.amazon.in/gp/help/customer/display.html?nodeId=GKM69DUUYKQWKWX7"}
	case PlatformFlipkart:
		return ReturnPolicy{PlatformName: "Flipkart", ReturnPeriod: "10 days", PolicyURL: "https://www.flipkart.com/pages/returnpolicy"}
	case PlatformMeesho:
		return ReturnPolicy{PlatformName: "Meesho", ReturnPeriod: "7 days", PolicyURL: "https://www.meesho.com/legal/returns-and-refunds"}
	case PlatformBlinkit:
		return ReturnPolicy{PlatformName: "BlinkIt", ReturnPeriod: "Varies by product", PolicyURL: "https://blinkit.com/help"}
	case PlatformOther:
		return ReturnPolicy{PlatformName: p.label, ReturnPeriod: "As per " + p.label + " policy"}
	default:
		panic(fmt.Sprintf("domain: return policy for invalid platform %q", p.kind))
	}
}
