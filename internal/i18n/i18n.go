package i18n

import (
	"fmt"
	"strings"

	"github.com/hexiao-next/internal/constants"

	"github.com/gin-gonic/gin"
)

// 站点语言标识
const (
	LocaleZH = constants.LocaleZhCN
	LocaleEN = constants.LocaleEnUS
)

var defaultLocale = LocaleZH

var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":              "请求参数无效",
		"error.unauthorized":             "未登录或登录已失效",
		"error.forbidden":                "无权执行该操作",
		"error.not_found":                "资源不存在",
		"error.internal":                 "服务器内部错误",
		"error.rate_limited":             "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":   "限流服务不可用",
		"error.jwt_secret_missing":       "服务端鉴权配置缺失",
		"error.auth_header_missing":      "缺少鉴权头",
		"error.auth_header_invalid":      "鉴权头格式无效",
		"error.token_invalid":            "令牌无效或已过期",
		"error.user_id_invalid":          "用户标识无效",
		"error.staff_id_invalid":         "员工标识无效",
		"error.venue_not_found":          "门店不存在",
		"error.offer_not_available":      "活动不可用",
		"error.cooldown_active":          "冷却期内不可再次核销",
		"error.max_redemptions_reached":  "已达本活动核销上限",
		"error.presence_failed":          "在场校验未通过",
		"error.trust_level_too_low":      "账号信任等级不足",
		"error.first_visit_required":     "该活动仅限首次到店用户",
		"error.redemption_not_found":     "核销单不存在",
		"error.redemption_conflict":      "核销单状态已变更，请刷新后重试",
		"error.not_approvable":           "当前状态不可审批",
		"error.approval_required":        "该核销单需要员工审批",
		"error.otc_invalid":              "核销码无效",
		"error.otc_expired":              "核销码已过期",
		"error.staff_qr_invalid":         "员工码无效",
		"error.staff_qr_expired":         "员工码已过期",
		"error.onboard_invalid":          "入职令牌无效",
		"error.onboard_used":             "入职令牌已被使用",
		"error.onboard_expired":          "入职令牌已过期",
		"error.binding_not_found":        "实体码不存在或已停用",
		"error.binding_invalid":          "实体码校验未通过",
		"error.roster_not_found":         "员工不在该门店名册",
		"error.insufficient_permissions": "没有执行该操作的门店权限",
		"error.captcha_required":         "请先完成验证码校验",
		"error.captcha_invalid":          "验证码错误",
		"error.captcha_unavailable":      "验证码服务不可用",
		"error.captcha_generate_failed":  "验证码生成失败",
	},
	LocaleEN: {
		"error.bad_request":              "Invalid request parameters",
		"error.unauthorized":             "Unauthorized or session expired",
		"error.forbidden":                "Operation not permitted",
		"error.not_found":                "Resource not found",
		"error.internal":                 "Internal server error",
		"error.rate_limited":             "Too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":   "Rate limiter unavailable",
		"error.jwt_secret_missing":       "Server auth configuration missing",
		"error.auth_header_missing":      "Authorization header missing",
		"error.auth_header_invalid":      "Authorization header invalid",
		"error.token_invalid":            "Token invalid or expired",
		"error.user_id_invalid":          "Invalid user identity",
		"error.staff_id_invalid":         "Invalid staff identity",
		"error.venue_not_found":          "Venue not found",
		"error.offer_not_available":      "Offer not available",
		"error.cooldown_active":          "Redemption cooldown is active",
		"error.max_redemptions_reached":  "Redemption limit reached for this offer",
		"error.presence_failed":          "Presence verification failed",
		"error.trust_level_too_low":      "Account trust level too low",
		"error.first_visit_required":     "Offer limited to first-time visitors",
		"error.redemption_not_found":     "Redemption not found",
		"error.redemption_conflict":      "Redemption state changed, please refresh",
		"error.not_approvable":           "Redemption is not approvable in its current state",
		"error.approval_required":        "Redemption requires staff approval",
		"error.otc_invalid":              "Redemption code invalid",
		"error.otc_expired":              "Redemption code expired",
		"error.staff_qr_invalid":         "Staff code invalid",
		"error.staff_qr_expired":         "Staff code expired",
		"error.onboard_invalid":          "Onboarding token invalid",
		"error.onboard_used":             "Onboarding token already used",
		"error.onboard_expired":          "Onboarding token expired",
		"error.binding_not_found":        "QR binding not found or revoked",
		"error.binding_invalid":          "QR binding verification failed",
		"error.roster_not_found":         "Staff not on venue roster",
		"error.insufficient_permissions": "Missing venue permission for this operation",
		"error.captcha_required":         "Captcha verification required",
		"error.captcha_invalid":          "Captcha answer incorrect",
		"error.captcha_unavailable":      "Captcha service unavailable",
		"error.captcha_generate_failed":  "Captcha generation failed",
	},
}

// ResolveLocale 解析请求语言：query lang 优先，其次 Accept-Language，默认中文
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return defaultLocale
	}
	if lang := normalizeLocale(c.Query("lang")); lang != "" {
		return lang
	}
	accept := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(accept, ",") {
		if idx := strings.Index(part, ";"); idx >= 0 {
			part = part[:idx]
		}
		if lang := normalizeLocale(part); lang != "" {
			return lang
		}
	}
	return defaultLocale
}

// T 按语言查找文案，缺失时回退默认语言，再缺失时返回 key 本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if locale != defaultLocale {
		if msg, ok := messages[defaultLocale][key]; ok {
			return msg
		}
	}
	return key
}

// Sprintf 带参数的文案格式化
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func normalizeLocale(raw string) string {
	lang := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lang == "":
		return ""
	case strings.HasPrefix(lang, "zh"):
		return LocaleZH
	case strings.HasPrefix(lang, "en"):
		return LocaleEN
	default:
		return ""
	}
}
