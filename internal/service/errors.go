package service

import "errors"

// 核销流程错误
var (
	ErrOfferNotAvailable  = errors.New("offer not available")
	ErrCooldownActive     = errors.New("redemption cooldown active")
	ErrMaxReached         = errors.New("max redemptions reached")
	ErrPresenceFailed     = errors.New("presence verification failed")
	ErrTrustLevelTooLow   = errors.New("trust level too low")
	ErrFirstVisitRequired = errors.New("offer limited to first visit")
	ErrRedemptionNotFound = errors.New("redemption not found")
	ErrRedemptionConflict = errors.New("redemption state conflict")
	ErrNotApprovable      = errors.New("redemption not approvable")
	ErrApprovalRequired   = errors.New("staff approval required")
	ErrOTCInvalid         = errors.New("one-time code invalid")
	ErrOTCExpired         = errors.New("one-time code expired")
	ErrVenueNotFound      = errors.New("venue not found")
	ErrUserNotFound       = errors.New("user not found")
)

// 员工凭证错误
var (
	ErrStaffQRInvalid          = errors.New("staff qr token invalid")
	ErrStaffQRExpired          = errors.New("staff qr token expired")
	ErrOnboardTokenInvalid     = errors.New("onboard token invalid")
	ErrOnboardTokenUsed        = errors.New("onboard token already used")
	ErrOnboardTokenExpired     = errors.New("onboard token expired")
	ErrRosterNotFound          = errors.New("staff not on venue roster")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// 实体码绑定错误
var (
	ErrBindingNotFound = errors.New("qr binding not found")
	ErrBindingInvalid  = errors.New("qr binding invalid")
)

// 验证码错误
var (
	ErrCaptchaRequired       = errors.New("captcha required")
	ErrCaptchaInvalid        = errors.New("captcha invalid")
	ErrCaptchaUnavailable    = errors.New("captcha unavailable")
	ErrCaptchaGenerateFailed = errors.New("captcha generate failed")
)

// CooldownError 冷却期错误（携带冷却截止时间）
type CooldownError struct {
	EndsAt int64 // unix 秒
}

func (e *CooldownError) Error() string {
	return ErrCooldownActive.Error()
}

// Unwrap 使 errors.Is(err, ErrCooldownActive) 成立
func (e *CooldownError) Unwrap() error {
	return ErrCooldownActive
}
