package staff

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

// staffPermissionErrorRules 花名册与门店权限类错误，所有员工操作共享。
var staffPermissionErrorRules = []mappedHandlerError{
	{target: service.ErrVenueNotFound, code: response.CodeNotFound, key: "error.venue_not_found"},
	{target: service.ErrRosterNotFound, code: response.CodeForbidden, key: "error.roster_not_found"},
	{target: service.ErrInsufficientPermissions, code: response.CodeForbidden, key: "error.insufficient_permissions"},
}

var redemptionApproveErrorRules = []mappedHandlerError{
	{target: service.ErrRedemptionNotFound, code: response.CodeNotFound, key: "error.redemption_not_found"},
	{target: service.ErrNotApprovable, code: response.CodeBadRequest, key: "error.not_approvable"},
}

var redemptionCompleteErrorRules = []mappedHandlerError{
	{target: service.ErrRedemptionNotFound, code: response.CodeNotFound, key: "error.redemption_not_found"},
	{target: service.ErrOTCInvalid, code: response.CodeBadRequest, key: "error.otc_invalid"},
	{target: service.ErrOTCExpired, code: response.CodeBadRequest, key: "error.otc_expired"},
	{target: service.ErrApprovalRequired, code: response.CodeBadRequest, key: "error.approval_required"},
	{target: service.ErrPresenceFailed, code: response.CodeBadRequest, key: "error.presence_failed"},
	{target: service.ErrOfferNotAvailable, code: response.CodeBadRequest, key: "error.offer_not_available"},
	{target: service.ErrRedemptionConflict, code: response.CodeConflict, key: "error.redemption_conflict"},
}

var redemptionRejectErrorRules = []mappedHandlerError{
	{target: service.ErrRedemptionNotFound, code: response.CodeNotFound, key: "error.redemption_not_found"},
	{target: service.ErrRedemptionConflict, code: response.CodeConflict, key: "error.redemption_conflict"},
}

var staffQRIssueErrorRules = []mappedHandlerError{
	{target: service.ErrStaffQRInvalid, code: response.CodeBadRequest, key: "error.staff_qr_invalid"},
}

var onboardActivateErrorRules = []mappedHandlerError{
	{target: service.ErrOnboardTokenUsed, code: response.CodeBadRequest, key: "error.onboard_used"},
	{target: service.ErrOnboardTokenExpired, code: response.CodeBadRequest, key: "error.onboard_expired"},
	{target: service.ErrOnboardTokenInvalid, code: response.CodeBadRequest, key: "error.onboard_invalid"},
}

var bindingErrorRules = []mappedHandlerError{
	{target: service.ErrBindingNotFound, code: response.CodeNotFound, key: "error.binding_not_found"},
	{target: service.ErrBindingInvalid, code: response.CodeBadRequest, key: "error.binding_invalid"},
}

func respondRedemptionApproveError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(redemptionApproveErrorRules, staffPermissionErrorRules), response.CodeInternal, "error.internal")
}

func respondRedemptionCompleteError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(redemptionCompleteErrorRules, staffPermissionErrorRules), response.CodeInternal, "error.internal")
}

func respondRedemptionRejectError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(redemptionRejectErrorRules, staffPermissionErrorRules), response.CodeInternal, "error.internal")
}

func respondStaffQRError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(staffQRIssueErrorRules, staffPermissionErrorRules), response.CodeInternal, "error.internal")
}

func respondOnboardError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(onboardActivateErrorRules, staffPermissionErrorRules), response.CodeInternal, "error.internal")
}

func respondBindingError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(bindingErrorRules, staffPermissionErrorRules), response.CodeInternal, "error.internal")
}
