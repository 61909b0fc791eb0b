package spc

import "testing"

func TestDefaultGlobalConfig_Validates(t *testing.T) {
	if err := DefaultGlobalConfig().Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestValidate_RejectsBadBaseN(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.BaseN = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected base_n<=0 to fail validation")
	}
}

func TestValidate_RejectsBadMonitoringSide(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.MonitoringSide = Side("sideways")
	if err := cfg.Validate(); err == nil {
		t.Error("expected invalid monitoring_side to fail validation")
	}
}

func TestMerge_OverridesOnlyNonZeroFields(t *testing.T) {
	base := DefaultGlobalConfig()
	override := DetectorConfig{BaseN: 2000}
	merged := base.Merge(override)

	if merged.BaseN != 2000 {
		t.Errorf("expected overridden base_n=2000, got %v", merged.BaseN)
	}
	if merged.Mu0 != base.Mu0 {
		t.Errorf("expected mu0 to remain the base's default, got %v", merged.Mu0)
	}
}

func TestMerge_UnsetBooleanOverrideInheritsBase(t *testing.T) {
	base := DefaultGlobalConfig()
	base.EnableCooldown = Bool(true)
	override := DetectorConfig{} // EnableCooldown left nil: not set
	merged := base.Merge(override)
	if !merged.CooldownEnabled() {
		t.Error("expected EnableCooldown to remain true when override leaves it unset")
	}
}

func TestMerge_ExplicitFalseOverrideDisablesBase(t *testing.T) {
	base := DefaultGlobalConfig()
	base.EnableCooldown = Bool(true)
	override := DetectorConfig{EnableCooldown: Bool(false)}
	merged := base.Merge(override)
	if merged.CooldownEnabled() {
		t.Error("expected an explicit override of false to disable EnableCooldown even though the base enabled it")
	}
}

func TestMerge_PrecedenceChaining(t *testing.T) {
	global := DefaultGlobalConfig()
	perItem := DetectorConfig{CooldownPeriods: 4}
	perKey := DetectorConfig{CooldownPeriods: 8}
	callerOverride := DetectorConfig{} // caller doesn't touch cooldown

	resolved := global.Merge(perItem).Merge(perKey).Merge(callerOverride)
	if resolved.CooldownPeriods != 8 {
		t.Errorf("expected per-key config to win over per-item, got %v", resolved.CooldownPeriods)
	}
}
