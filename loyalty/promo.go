package loyalty

import (
	"slices"
	"strings"
)

// IsPromotional reports whether a classification is excluded from loyalty
// discounts under the configured promo mode. Unknown modes never exclude.
func IsPromotional(c Classification, s Settings) bool {
	switch s.PromoMode {
	case PromoModeFolder:
		return InFolder(c.PathName, s.PromoGroupName)
	case PromoModeFlag:
		if s.PromoFlagAttr != "" && CoerceBool(c.Attributes.Lookup(s.PromoFlagAttr)) == True {
			return true
		}
		return s.PromoTag != "" && slices.Contains(c.Tags, s.PromoTag)
	}
	return false
}

// InFolder reports whether folder is one of the "/"-separated segments of
// pathName. Segments are compared whole, so "Promo" does not match "NonPromo",
// and the folder matches at any depth, including its own subfolders.
func InFolder(pathName, folder string) bool {
	if pathName == "" || folder == "" {
		return false
	}
	for _, segment := range strings.Split(pathName, "/") {
		if strings.TrimSpace(segment) == folder {
			return true
		}
	}
	return false
}
