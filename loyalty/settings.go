package loyalty

import (
	"errors"
	"fmt"
)

// PromoMode selects how promotional line items are recognised.
type PromoMode string

const (
	// PromoModeFolder marks items whose folder path contains PromoGroupName.
	PromoModeFolder PromoMode = "folder"
	// PromoModeFlag marks items whose PromoFlagAttr is true or that carry PromoTag.
	PromoModeFlag PromoMode = "flag"
)

// WriteMode selects which positions a plan hands to the write-back.
type WriteMode string

const (
	// WriteModeFull emits every position. Required when the upstream PUT
	// replaces the whole collection: an omitted position is deleted.
	WriteModeFull WriteMode = "full"
	// WriteModeChanged emits only positions whose discount changes.
	WriteModeChanged WriteMode = "changed"
)

// ErrInvalidSettings is wrapped by every Settings validation failure.
var ErrInvalidSettings = errors.New("invalid loyalty settings")

// Settings names the attributes and tags each component reads and selects
// the policy variants. It is built once at start-up and passed by value.
type Settings struct {
	LoyaltyEnabledAttr  string `yaml:"loyalty_enabled_attr"`
	LoyaltyDiscountAttr string `yaml:"loyalty_discount_attr"`

	RequireWholesalerTag bool   `yaml:"require_wholesaler_tag"`
	WholesalerTag        string `yaml:"wholesaler_tag"`

	PromoMode      PromoMode `yaml:"promo_mode"`
	PromoGroupName string    `yaml:"promo_group_name"`
	PromoFlagAttr  string    `yaml:"promo_flag_attr"`
	PromoTag       string    `yaml:"promo_tag"`

	DisableLoyaltyAttr    string    `yaml:"disable_loyalty_attr"`
	RespectManualDiscount bool      `yaml:"respect_manual_discount"`
	WriteMode             WriteMode `yaml:"write_mode"`
}

// DefaultSettings returns the settings the service ships with: checkbox and
// percent attributes, wholesaler tag required, promo folder "Акция" and full
// write-back.
func DefaultSettings() Settings {
	return Settings{
		LoyaltyEnabledAttr:   "Программа лояльности",
		LoyaltyDiscountAttr:  "Скидка по ПЛ (%)",
		RequireWholesalerTag: true,
		WholesalerTag:        "Оптовик",
		PromoMode:            PromoModeFolder,
		PromoGroupName:       "Акция",
		PromoFlagAttr:        "Акция",
		DisableLoyaltyAttr:   "DisableLoyalty",
		WriteMode:            WriteModeFull,
	}
}

// Validate reports configuration that would make the engine silently inert.
func (s Settings) Validate() error {
	if s.LoyaltyDiscountAttr == "" {
		return fmt.Errorf("%w: discount percent attribute is not configured", ErrInvalidSettings)
	}
	if s.RequireWholesalerTag && s.WholesalerTag == "" {
		return fmt.Errorf("%w: wholesaler tag is required but not configured", ErrInvalidSettings)
	}

	switch s.PromoMode {
	case PromoModeFolder:
		if s.PromoGroupName == "" {
			return fmt.Errorf("%w: promo mode %q needs a promo folder name", ErrInvalidSettings, s.PromoMode)
		}
	case PromoModeFlag:
		if s.PromoFlagAttr == "" && s.PromoTag == "" {
			return fmt.Errorf("%w: promo mode %q needs a promo attribute or tag", ErrInvalidSettings, s.PromoMode)
		}
	default:
		return fmt.Errorf("%w: unknown promo mode %q", ErrInvalidSettings, s.PromoMode)
	}

	switch s.WriteMode {
	case WriteModeFull, WriteModeChanged:
	default:
		return fmt.Errorf("%w: unknown write mode %q", ErrInvalidSettings, s.WriteMode)
	}
	return nil
}
