package domain

import (
	"fmt"
	"strings"
)

// OptionType is the closed set of variant option kinds the ledger platform understands
type OptionType string

const (
	OptionSize         OptionType = "SIZE"
	OptionShoeSize     OptionType = "SHOE_SIZE"
	OptionColor        OptionType = "COLOR"
	OptionVelgVerdi    OptionType = "VELG_VERDI"
	OptionStyle        OptionType = "STYLE"
	OptionLength       OptionType = "LENGTH"
	OptionInseamLength OptionType = "INSEAM_LENGTH"
)

// OptionTypes lists every option type in declaration order
var OptionTypes = []OptionType{
	OptionSize,
	OptionShoeSize,
	OptionColor,
	OptionVelgVerdi,
	OptionStyle,
	OptionLength,
	OptionInseamLength,
}

var optionDisplayNames = map[OptionType]string{
	OptionSize:         "Size",
	OptionShoeSize:     "Shoe size",
	OptionColor:        "Color",
	OptionVelgVerdi:    "Velg verdi",
	OptionStyle:        "Style",
	OptionLength:       "Length",
	OptionInseamLength: "Inseam Length",
}

var (
	optionsByDisplayName = map[string]OptionType{}
	optionsByName        = map[string]OptionType{}
)

func init() {
	for _, t := range OptionTypes {
		optionsByDisplayName[strings.ToLower(optionDisplayNames[t])] = t
		optionsByName[strings.ToLower(string(t))] = t
	}
}

// DisplayName is the label shown in the shop, e.g. "Shoe size"
func (t OptionType) DisplayName() string {
	return optionDisplayNames[t]
}

// OptionTypeFromDisplayName resolves an option name as it appears on a shop variant
func OptionTypeFromDisplayName(name string) (OptionType, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	t, ok := optionsByDisplayName[key]
	return t, ok
}

// OptionTypeFromSerializedKey resolves an option key as returned by the ledger platform,
// which may be either the enum name or the display name
func OptionTypeFromSerializedKey(key string) (OptionType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return "", false
	}
	if t, ok := optionsByName[normalized]; ok {
		return t, true
	}
	t, ok := optionsByDisplayName[normalized]
	return t, ok
}

// UnmarshalText rejects unknown option types when decoding
func (t *OptionType) UnmarshalText(text []byte) error {
	resolved, ok := OptionTypeFromSerializedKey(string(text))
	if !ok {
		return fmt.Errorf("unknown option type %q", string(text))
	}
	*t = resolved
	return nil
}
