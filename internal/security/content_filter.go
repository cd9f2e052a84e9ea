package security

import (
	"regexp"
	"strings"
)

// ContentFilter 联系留言的垃圾内容检测
//
// 检测结果只用于决定是否转发通知邮件，留言本身照常保存，管理员仍可在后台查看。
type ContentFilter struct {
	// 恶意内容模式
	maliciousPatterns []*regexp.Regexp

	// 垃圾内容关键词
	spamKeywords []string

	// 命中多少个关键词视为垃圾内容
	spamThreshold int
}

// NewContentFilter 创建内容过滤器
func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		maliciousPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`),
			regexp.MustCompile(`(?i)javascript:`),
			regexp.MustCompile(`(?i)onload\s*=`),
			regexp.MustCompile(`(?i)onerror\s*=`),
			regexp.MustCompile(`(?i)document\.cookie`),
			regexp.MustCompile(`(?i)<iframe[^>]*>`),
		},
		spamKeywords: []string{
			"viagra", "casino", "lottery", "winner", "congratulations",
			"free money", "click here", "limited time", "act now",
			"guaranteed", "no risk", "earn money", "work from home",
			"seo services", "backlinks",
		},
		spamThreshold: 3,
	}
}

// Check 检查留言内容
//
// 返回值:
//   - bool: 内容是否可疑
//   - string: 可疑原因
func (cf *ContentFilter) Check(content string) (bool, string) {
	for _, pattern := range cf.maliciousPatterns {
		if pattern.MatchString(content) {
			return true, "malicious content: " + pattern.String()
		}
	}

	contentLower := strings.ToLower(content)
	spamCount := 0
	for _, keyword := range cf.spamKeywords {
		if strings.Contains(contentLower, keyword) {
			spamCount++
		}
	}
	if spamCount >= cf.spamThreshold {
		return true, "multiple spam keywords"
	}

	return false, ""
}
