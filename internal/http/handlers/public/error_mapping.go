package public

import (
	"errors"

	"github.com/hexiao-next/internal/http/response"
	"github.com/hexiao-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var redemptionInitiateErrorRules = []mappedHandlerError{
	{target: service.ErrOfferNotAvailable, code: response.CodeBadRequest, key: "error.offer_not_available"},
	{target: service.ErrUserNotFound, code: response.CodeForbidden, key: "error.forbidden"},
	{target: service.ErrTrustLevelTooLow, code: response.CodeForbidden, key: "error.trust_level_too_low"},
	{target: service.ErrMaxReached, code: response.CodeBadRequest, key: "error.max_redemptions_reached"},
	{target: service.ErrFirstVisitRequired, code: response.CodeBadRequest, key: "error.first_visit_required"},
	{target: service.ErrPresenceFailed, code: response.CodeBadRequest, key: "error.presence_failed"},
	{target: service.ErrRedemptionConflict, code: response.CodeConflict, key: "error.redemption_conflict"},
}

var redemptionCompleteCommonErrorRules = []mappedHandlerError{
	{target: service.ErrRedemptionNotFound, code: response.CodeNotFound, key: "error.redemption_not_found"},
	{target: service.ErrApprovalRequired, code: response.CodeBadRequest, key: "error.approval_required"},
	{target: service.ErrOTCExpired, code: response.CodeBadRequest, key: "error.otc_expired"},
	{target: service.ErrPresenceFailed, code: response.CodeBadRequest, key: "error.presence_failed"},
	{target: service.ErrOfferNotAvailable, code: response.CodeBadRequest, key: "error.offer_not_available"},
	{target: service.ErrRedemptionConflict, code: response.CodeConflict, key: "error.redemption_conflict"},
}

var staffQRCompleteExtraErrorRules = []mappedHandlerError{
	{target: service.ErrStaffQRExpired, code: response.CodeBadRequest, key: "error.staff_qr_expired"},
	{target: service.ErrStaffQRInvalid, code: response.CodeBadRequest, key: "error.staff_qr_invalid"},
}

var scanResolveErrorRules = []mappedHandlerError{
	{target: service.ErrBindingNotFound, code: response.CodeNotFound, key: "error.binding_not_found"},
	{target: service.ErrBindingInvalid, code: response.CodeBadRequest, key: "error.binding_invalid"},
	{target: service.ErrVenueNotFound, code: response.CodeNotFound, key: "error.venue_not_found"},
}

var captchaVerifyErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaUnavailable, code: response.CodeInternal, key: "error.captcha_unavailable"},
}

func respondRedemptionInitiateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, redemptionInitiateErrorRules, response.CodeInternal, "error.internal")
}

func respondStaffQRCompleteError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(staffQRCompleteExtraErrorRules, redemptionCompleteCommonErrorRules), response.CodeInternal, "error.internal")
}

func respondScanResolveError(c *gin.Context, err error) {
	respondWithMappedError(c, err, scanResolveErrorRules, response.CodeInternal, "error.internal")
}

func respondCaptchaVerifyError(c *gin.Context, err error) {
	respondWithMappedError(c, err, captchaVerifyErrorRules, response.CodeInternal, "error.internal")
}
