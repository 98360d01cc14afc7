package sniper

import (
	"testing"

	"solexec/internal/models"
)

func testToken() *models.DetectedToken {
	return &models.DetectedToken{
		Mint: "mint1", Symbol: "FOO", InitialLiquiditySOL: 10,
		Socials: map[string]string{"twitter": "https://x.com/foo"},
	}
}

func TestValidator_FullCheck_Passes(t *testing.T) {
	v := NewValidator(func(string) bool { return false }, nil)
	settings := models.RuntimeSettings{MinLiquiditySOL: 5, RequireSocials: true}

	ok, reason := v.FullCheck(testToken(), settings)
	if !ok {
		t.Fatalf("FullCheck() = false, reason %q; want true", reason)
	}
}

func TestValidator_FullCheck_RejectsBlocklisted(t *testing.T) {
	v := NewValidator(func(string) bool { return true }, nil)
	ok, reason := v.FullCheck(testToken(), models.RuntimeSettings{})
	if ok || reason != RejectBlocklisted {
		t.Errorf("FullCheck() = (%v, %q); want (false, %q)", ok, reason, RejectBlocklisted)
	}
}

func TestValidator_FullCheck_RejectsMintAuthority(t *testing.T) {
	v := NewValidator(func(string) bool { return false }, nil)
	token := testToken()
	token.MintAuthority = "someauthority"

	ok, reason := v.FullCheck(token, models.RuntimeSettings{})
	if ok || reason != RejectMintAuthority {
		t.Errorf("FullCheck() = (%v, %q); want (false, %q)", ok, reason, RejectMintAuthority)
	}
}

func TestValidator_FullCheck_RejectsLowLiquidity(t *testing.T) {
	v := NewValidator(func(string) bool { return false }, nil)
	ok, reason := v.FullCheck(testToken(), models.RuntimeSettings{MinLiquiditySOL: 50})
	if ok || reason != RejectLowLiquidity {
		t.Errorf("FullCheck() = (%v, %q); want (false, %q)", ok, reason, RejectLowLiquidity)
	}
}

func TestValidator_FullCheck_RejectsMissingSocialsWhenRequired(t *testing.T) {
	v := NewValidator(func(string) bool { return false }, nil)
	token := testToken()
	token.Socials = nil

	ok, reason := v.FullCheck(token, models.RuntimeSettings{RequireSocials: true})
	if ok || reason != RejectNoSocials {
		t.Errorf("FullCheck() = (%v, %q); want (false, %q)", ok, reason, RejectNoSocials)
	}
}

func TestValidator_FullCheck_ScoreHook(t *testing.T) {
	v := NewValidator(func(string) bool { return false }, func(*models.DetectedToken) (bool, error) { return false, nil })
	ok, reason := v.FullCheck(testToken(), models.RuntimeSettings{})
	if ok || reason != RejectScore {
		t.Errorf("FullCheck() = (%v, %q); want (false, %q)", ok, reason, RejectScore)
	}
}

func TestValidator_MinimalCheck_RejectsAmountCap(t *testing.T) {
	v := NewValidator(func(string) bool { return false }, nil)
	ok, reason := v.MinimalCheck(testToken(), 10, 5)
	if ok || reason != RejectAmountCap {
		t.Errorf("MinimalCheck() = (%v, %q); want (false, %q)", ok, reason, RejectAmountCap)
	}
}

func TestValidator_MinimalCheck_IgnoresLiquidityAndSocials(t *testing.T) {
	v := NewValidator(func(string) bool { return false }, nil)
	token := testToken()
	token.InitialLiquiditySOL = 0
	token.Socials = nil

	ok, _ := v.MinimalCheck(token, 1, 5)
	if !ok {
		t.Error("MinimalCheck() should not check liquidity or socials")
	}
}
