package desensitize

var (
	// EmailRule 邮箱脱敏规则 (user@example.com -> u***r@e***.com)
	EmailRule = mustContent(
		"email",
		`\b([A-Za-z0-9])[A-Za-z0-9._%+-]*([A-Za-z0-9])@([A-Za-z0-9])[A-Za-z0-9.-]*\.([A-Z|a-z]{2,})\b`,
		"$1***$2@$3***.$4",
	)

	// PasswordRule 密码字段脱敏规则（针对JSON中的password字段）
	PasswordRule = mustField(
		"password",
		"password",
		`.*`,
		"******",
	)

	// TokenRule Token字段脱敏规则
	TokenRule = mustField(
		"token",
		"token",
		`.*`,
		"******",
	)

	// SecretRule Secret字段脱敏规则
	SecretRule = mustField(
		"secret",
		"secret",
		`.*`,
		"******",
	)

	// LatitudeRule 纬度只保留整数部分 (12.34567 -> 12.***)
	LatitudeRule = mustField(
		"latitude",
		"latitude",
		`^(-?\d+)(\.\d*)?.*$`,
		"$1.***",
	)

	// LongitudeRule 经度只保留整数部分
	LongitudeRule = mustField(
		"longitude",
		"longitude",
		`^(-?\d+)(\.\d*)?.*$`,
		"$1.***",
	)

	// KeywordRule 关键词完全隐藏
	KeywordRule = mustField(
		"keyword",
		"keyword",
		`.*`,
		"******",
	)

	// DeviceIDRule 设备标识保留前 4 位
	DeviceIDRule = mustField(
		"device_id",
		"device_id",
		`^(.{0,4}).*$`,
		"$1****",
	)

	// SessionRule 会话令牌保留前 4 位
	SessionRule = mustField(
		"session",
		"session",
		`^(.{0,4}).*$`,
		"$1****",
	)
)

// BuiltinRules 返回所有内置规则
func BuiltinRules() []Rule {
	return []Rule{
		EmailRule,
		PasswordRule,
		TokenRule,
		SecretRule,
		LatitudeRule,
		LongitudeRule,
		KeywordRule,
		DeviceIDRule,
		SessionRule,
	}
}
