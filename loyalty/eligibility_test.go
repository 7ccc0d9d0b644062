package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func agent(enabled Value, percent Value, tags ...string) Counterparty {
	s := DefaultSettings()
	var attrs Attributes
	if !enabled.IsAbsent() {
		attrs = append(attrs, Attribute{Name: s.LoyaltyEnabledAttr, Value: enabled})
	}
	if !percent.IsAbsent() {
		attrs = append(attrs, Attribute{Name: s.LoyaltyDiscountAttr, Value: percent})
	}
	return Counterparty{Tags: tags, Attributes: attrs}
}

func TestIsWholesaler(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, IsWholesaler(Counterparty{Tags: []string{"Оптовик", "VIP"}}, s))
	assert.True(t, IsWholesaler(Counterparty{Tags: []string{"оптовик"}}, s), "upstream lowercases tags")
	assert.False(t, IsWholesaler(Counterparty{Tags: []string{"Розница"}}, s))
	assert.False(t, IsWholesaler(Counterparty{}, s))
}

func TestDiscountPercent(t *testing.T) {
	tests := []struct {
		name string
		cp   Counterparty
		want string
	}{
		{"checkbox on with tag", agent(Bool(true), Int(7), "Оптовик"), "7"},
		{"checkbox off", agent(Bool(false), Int(7), "Оптовик"), "0"},
		{"checkbox missing with positive percent", agent(Absent(), Int(7), "Оптовик"), "7"},
		{"checkbox unparseable with positive percent", agent(String("maybe"), Int(7), "Оптовик"), "7"},
		{"checkbox missing with zero percent", agent(Absent(), Int(0), "Оптовик"), "0"},
		{"checkbox missing and no percent", agent(Absent(), Absent(), "Оптовик"), "0"},
		{"not wholesaler", agent(Bool(true), Int(7), "Розница"), "0"},
		{"zero percent", agent(Bool(true), Int(0), "Оптовик"), "0"},
		{"negative percent", agent(Bool(true), Int(-5), "Оптовик"), "0"},
		{"capped at 100", agent(Bool(true), Int(150), "Оптовик"), "100"},
		{"percent as string", agent(Bool(true), String("12.5"), "Оптовик"), "12.5"},
		{"percent unparseable", agent(Bool(true), String("n/a"), "Оптовик"), "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DiscountPercent(tt.cp, DefaultSettings())
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDiscountPercentWithoutTagPolicy(t *testing.T) {
	s := DefaultSettings()
	s.RequireWholesalerTag = false

	assert.Equal(t, "10", DiscountPercent(agent(Bool(true), Int(10)), s).String())
	assert.Equal(t, "10", DiscountPercent(agent(Absent(), Int(10), "Розница"), s).String())
	assert.Equal(t, "0", DiscountPercent(agent(Bool(false), Int(10)), s).String())
}

func TestIsEligible(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, IsEligible(agent(Bool(true), Int(3), "Оптовик"), s))
	assert.False(t, IsEligible(agent(Bool(true), Int(0), "Оптовик"), s))
}
